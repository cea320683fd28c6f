package httpapi

import (
	"time"

	"radiohits-backend-go/internal/i18n"
	"radiohits-backend-go/internal/listing"
	"radiohits-backend-go/internal/models"
	"radiohits-backend-go/internal/services"
)

type AuthorDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ContentItemDTO struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	ImageAssetID *string   `json:"imageAssetId"`
	ImageURL     *string   `json:"imageUrl"`
	Author       AuthorDTO `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	DisplayDate  string    `json:"displayDate"`
}

type PaginationDTO struct {
	TotalCount    int    `json:"totalCount"`
	PageSize      int    `json:"pageSize"`
	CurrentPage   int    `json:"currentPage"`
	NumPages      int    `json:"numPages"`
	HasPrevious   bool   `json:"hasPrevious"`
	HasNext       bool   `json:"hasNext"`
	PreviousPage  *int   `json:"previousPage"`
	NextPage      *int   `json:"nextPage"`
	PreviousQuery string `json:"previousQuery,omitempty"`
	NextQuery     string `json:"nextQuery,omitempty"`
}

type ListingDTO struct {
	Kind            string               `json:"kind"`
	Items           []ContentItemDTO     `json:"items"`
	Pagination      PaginationDTO        `json:"pagination"`
	AvailableYears  []listing.YearOption `json:"availableYears"`
	AvailableMonths []i18n.MonthOption   `json:"availableMonths"`
	SelectedYear    *int                 `json:"selectedYear"`
	SelectedMonth   *int                 `json:"selectedMonth"`
	FilterParams    map[string]string    `json:"filterParams"`
}

func (s *Server) toContentDTO(item models.ContentItem) ContentItemDTO {
	local := item.Timestamp.In(s.location())
	dto := ContentItemDTO{
		ID:           item.ID,
		Kind:         string(item.Kind),
		Title:        item.Title,
		Body:         item.Body,
		ImageAssetID: item.ImageAssetID,
		Author:       AuthorDTO{ID: item.AuthorID, Name: item.AuthorName},
		Timestamp:    local,
		DisplayDate:  s.Locale.LongDate(local),
	}
	if item.ImageAssetID != nil {
		url := services.BuildAssetURL(*item.ImageAssetID)
		dto.ImageURL = &url
	}
	return dto
}

func (s *Server) toContentDTOs(items []models.ContentItem) []ContentItemDTO {
	out := make([]ContentItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, s.toContentDTO(item))
	}
	return out
}

func (s *Server) toListingDTO(l listing.Listing) ListingDTO {
	page := l.Page
	pagination := PaginationDTO{
		TotalCount:  page.TotalCount,
		PageSize:    page.PageSize,
		CurrentPage: page.CurrentPage,
		NumPages:    page.NumPages,
		HasPrevious: page.HasPrevious,
		HasNext:     page.HasNext,
	}
	if page.HasPrevious {
		prev := page.PreviousPage
		pagination.PreviousPage = &prev
		pagination.PreviousQuery = l.PageQuery(prev)
	}
	if page.HasNext {
		next := page.NextPage
		pagination.NextPage = &next
		pagination.NextQuery = l.PageQuery(next)
	}
	return ListingDTO{
		Kind:            string(l.Kind),
		Items:           s.toContentDTOs(page.Items),
		Pagination:      pagination,
		AvailableYears:  l.AvailableYears,
		AvailableMonths: l.AvailableMonths,
		SelectedYear:    l.SelectedYear(),
		SelectedMonth:   l.SelectedMonth(),
		FilterParams:    l.FilterParams(),
	}
}

func (s *Server) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
