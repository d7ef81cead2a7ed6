package domain

// PaginationParams selects one page of an ordered listing. A PageSize of
// zero or less means the whole listing.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset is the index of the first item on the page.
func (p PaginationParams) Offset() int {
	if p.Page < 1 || p.PageSize <= 0 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Window returns the [start, end) slice bounds of the page within total items.
func (p PaginationParams) Window(total int) (start, end int) {
	if p.PageSize <= 0 {
		return 0, total
	}
	start = min(p.Offset(), total)
	return start, min(start+p.PageSize, total)
}
