package util

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// keeps (page-1)*size inside an int
	maxPage = math.MaxInt / MaxPageSize
)

// Paginate turns a 1-based page and a page size into an offset and limit.
// Out of range values fall back to the first page and the default size.
func Paginate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}
