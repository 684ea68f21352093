package repository

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a 1-based page of a listing. Zero values pick the defaults.
type PageRequest struct {
	Page     int
	PageSize int
}

type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// Normalized fills defaults and caps the page size.
func (p PageRequest) Normalized() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before the page. Call on a
// normalized request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func newPageResult[T any](req PageRequest) PageResult[T] {
	return PageResult[T]{Page: req.Page, PageSize: req.PageSize, Items: []T{}}
}

// finish derives TotalPages from Total.
func (r *PageResult[T]) finish() {
	if r.Total <= 0 || r.PageSize <= 0 {
		r.TotalPages = 0
		return
	}
	r.TotalPages = int((r.Total + int64(r.PageSize) - 1) / int64(r.PageSize))
}

// HasNext reports whether a later page exists.
func (r PageResult[T]) HasNext() bool {
	return r.Page < r.TotalPages
}
