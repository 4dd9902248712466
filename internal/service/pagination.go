package service

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// pageWindow clamps page and limit and returns the row offset to read from.
func pageWindow(page, limit, defaultLimit int) (offset, size, current int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return (page - 1) * limit, limit, page
}

// Page is one slice of a listing plus what a client needs to fetch the rest.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func newPage[T any](items []T, total int64, page, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Page[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}
}
