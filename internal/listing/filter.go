package listing

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"radiohits-backend-go/internal/i18n"
	"radiohits-backend-go/internal/models"
)

// FilterCriteria is the year/month constraint taken from a request. A nil
// field means the filter was absent or not recognized.
type FilterCriteria struct {
	Year  *int
	Month *int
}

type YearOption struct {
	Year      int    `json:"year"`
	Display   string `json:"display"`
	IsCurrent bool   `json:"isCurrent"`
}

// ParseCriteria never fails: values that are not integers, years below 1 and
// months outside 1..12 are dropped.
func ParseCriteria(year, month string) FilterCriteria {
	var criteria FilterCriteria
	if value, ok := parseInt(year); ok && value >= 1 {
		criteria.Year = &value
	}
	if value, ok := parseInt(month); ok && value >= 1 && value <= 12 {
		criteria.Month = &value
	}
	return criteria
}

// CriteriaFromQuery reads the "year" and "month" parameters.
func CriteriaFromQuery(query url.Values) FilterCriteria {
	return ParseCriteria(query.Get("year"), query.Get("month"))
}

// Params returns the recognized filters as query parameters.
func (c FilterCriteria) Params() url.Values {
	values := url.Values{}
	if c.Year != nil {
		values.Set("year", strconv.Itoa(*c.Year))
	}
	if c.Month != nil {
		values.Set("month", strconv.Itoa(*c.Month))
	}
	return values
}

func (c FilterCriteria) IsEmpty() bool {
	return c.Year == nil && c.Month == nil
}

func (c FilterCriteria) matches(ts time.Time, loc *time.Location) bool {
	local := ts.In(loc)
	if c.Year != nil && local.Year() != *c.Year {
		return false
	}
	if c.Month != nil && int(local.Month()) != *c.Month {
		return false
	}
	return true
}

// Resolve narrows items to the criteria, evaluated in loc, and orders the
// result newest first. The input slice is not modified.
func Resolve(items []models.ContentItem, criteria FilterCriteria, loc *time.Location) []models.ContentItem {
	if loc == nil {
		loc = time.UTC
	}
	filtered := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if criteria.matches(item.Timestamp, loc) {
			filtered = append(filtered, item)
		}
	}
	SortNewestFirst(filtered)
	return filtered
}

// SortNewestFirst orders by timestamp descending, ties by id descending.
func SortNewestFirst(items []models.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID > items[j].ID
	})
}

// AvailableYears lists every year that has content plus the current year,
// newest first.
func AvailableYears(items []models.ContentItem, now time.Time, loc *time.Location, locale i18n.Locale) []YearOption {
	if loc == nil {
		loc = time.UTC
	}
	current := now.In(loc).Year()
	seen := map[int]bool{current: true}
	for _, item := range items {
		seen[item.Timestamp.In(loc).Year()] = true
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	options := make([]YearOption, 0, len(years))
	for _, year := range years {
		options = append(options, YearOption{
			Year:      year,
			Display:   locale.YearLabel(year, current),
			IsCurrent: year == current,
		})
	}
	return options
}

func parseInt(raw string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return value, true
}
