package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams selects one page of a listing. Page is 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
}

// NewPaginationParams clamps page to at least 1 and pageSize to 1..MaxPageSize;
// a non-positive pageSize means DefaultPageSize.
func NewPaginationParams(page, pageSize int) PaginationParams {
	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return PaginationParams{Page: page, PageSize: min(pageSize, MaxPageSize)}
}

// Offset is the number of rows before the page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
