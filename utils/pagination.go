package utils

import "strconv"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is a normalized page request. Pages are 1-based.
type Pagination struct {
	Page int
	Size int
}

// NewPagination clamps page and size into the accepted range
func NewPagination(page, size int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Pagination{Page: page, Size: size}
}

// ParsePagination reads raw query values, falling back to defaults on bad input
func ParsePagination(page, size string) Pagination {
	p, _ := strconv.Atoi(page)
	s, _ := strconv.Atoi(size)
	return NewPagination(p, s)
}

func (p Pagination) Limit() int {
	return p.Size
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page is one page of results plus the totals a client needs to page further
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"per_page"`
	Pages int   `json:"pages"`
}

// NewPage assembles a response page. Items is never nil.
func NewPage[T any](items []T, total int64, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, Size: p.Size, Pages: pages}
}
