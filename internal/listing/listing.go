// Package listing implements the archive listing shared by index entries and
// blog entries: year/month filtering, year discovery and pagination.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"radiohits-backend-go/internal/i18n"
	"radiohits-backend-go/internal/models"
)

// Store is the read side of the content store.
type Store interface {
	FetchAll(ctx context.Context, kind models.ContentKind) ([]models.ContentItem, error)
}

// Listing is everything a presentation layer needs to render an archive page
// with its filter controls.
type Listing struct {
	Kind            models.ContentKind
	Page            PageResult[models.ContentItem]
	AvailableYears  []YearOption
	AvailableMonths []i18n.MonthOption
	Criteria        FilterCriteria
}

// SelectedYear is the recognized year filter, if any.
func (l Listing) SelectedYear() *int {
	return l.Criteria.Year
}

func (l Listing) SelectedMonth() *int {
	return l.Criteria.Month
}

// FilterParams are the active filters to re-append to pagination links.
func (l Listing) FilterParams() map[string]string {
	params := map[string]string{}
	for key, values := range l.Criteria.Params() {
		params[key] = values[0]
	}
	return params
}

// PageQuery builds the query string for another page of this listing while
// keeping the active filters, e.g. "month=3&page=2&year=2024".
func (l Listing) PageQuery(page int) string {
	values := l.Criteria.Params()
	values.Set("page", strconv.Itoa(page))
	return values.Encode()
}

type Lister struct {
	Store    Store
	Location *time.Location
	Locale   i18n.Locale
	PageSize int
	Now      func() time.Time
}

func NewLister(store Store, loc *time.Location, locale i18n.Locale) *Lister {
	if loc == nil {
		loc = time.UTC
	}
	return &Lister{
		Store:    store,
		Location: loc,
		Locale:   locale,
		PageSize: DefaultPageSize,
		Now:      time.Now,
	}
}

// List fetches every item of kind, filters it, then paginates the filtered
// set. Only a store failure produces an error.
func (l *Lister) List(ctx context.Context, kind models.ContentKind, criteria FilterCriteria, requestedPage string) (Listing, error) {
	all, err := l.Store.FetchAll(ctx, kind)
	if err != nil {
		return Listing{}, fmt.Errorf("fetch %s entries: %w", kind, err)
	}
	filtered := Resolve(all, criteria, l.Location)
	return Listing{
		Kind:            kind,
		Page:            Paginate(filtered, l.PageSize, requestedPage),
		AvailableYears:  AvailableYears(all, l.Now(), l.Location, l.Locale),
		AvailableMonths: l.Locale.Months(),
		Criteria:        criteria,
	}, nil
}

// ListQuery is List driven by raw request parameters.
func (l *Lister) ListQuery(ctx context.Context, kind models.ContentKind, query url.Values) (Listing, error) {
	return l.List(ctx, kind, CriteriaFromQuery(query), query.Get("page"))
}

// Recent returns the n newest items of kind.
func (l *Lister) Recent(ctx context.Context, kind models.ContentKind, n int) ([]models.ContentItem, error) {
	all, err := l.Store.FetchAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("fetch %s entries: %w", kind, err)
	}
	sorted := Resolve(all, FilterCriteria{}, l.Location)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted, nil
}
