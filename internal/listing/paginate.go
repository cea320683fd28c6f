package listing

// DefaultPageSize applies to both content kinds.
const DefaultPageSize = 6

// PageResult is one page of an already ordered collection plus the metadata
// needed to render "page N of M" and previous/next links.
type PageResult[T any] struct {
	Items        []T
	TotalCount   int
	PageSize     int
	CurrentPage  int
	NumPages     int
	HasPrevious  bool
	HasNext      bool
	PreviousPage int
	NextPage     int
}

// ParsePage reads a page parameter; anything unparsable is page 1.
func ParsePage(raw string) int {
	value, ok := parseInt(raw)
	if !ok || value < 1 {
		return 1
	}
	return value
}

// Paginate slices items into fixed-size pages and returns the requested one,
// clamped into [1, NumPages]. It never fails.
func Paginate[T any](items []T, pageSize int, requested string) PageResult[T] {
	return PaginateAt(items, pageSize, ParsePage(requested))
}

func PaginateAt[T any](items []T, pageSize int, page int) PageResult[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	numPages := (total + pageSize - 1) / pageSize
	if numPages < 1 {
		numPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > numPages {
		page = numPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	pageItems := make([]T, 0, end-start)
	pageItems = append(pageItems, items[start:end]...)

	result := PageResult[T]{
		Items:       pageItems,
		TotalCount:  total,
		PageSize:    pageSize,
		CurrentPage: page,
		NumPages:    numPages,
		HasPrevious: page > 1,
		HasNext:     page < numPages,
	}
	if result.HasPrevious {
		result.PreviousPage = page - 1
	}
	if result.HasNext {
		result.NextPage = page + 1
	}
	return result
}
