// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows returned by list operations.
const PageSize = 20

// MaxPageSize caps caller-supplied page sizes.
const MaxPageSize = 100

// SearchPageSize is the fixed number of ranked hits per entity type in search.
const SearchPageSize = 10

// Request is a 1-based page number plus a page size.
type Request struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Normalize clamps the request to valid bounds: page >= 1 and
// 1 <= size <= MaxPageSize (0 means PageSize).
func (p Request) Normalize() Request {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Size <= 0:
		p.Size = PageSize
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}
	return p
}

// Skip returns the number of rows before this page.
func (p Request) Skip() int64 {
	p = p.Normalize()
	return int64((p.Page - 1) * p.Size)
}

// ApplyToFind sets skip and limit on find options.
func (p Request) ApplyToFind(find *options.FindOptions) *options.FindOptions {
	p = p.Normalize()
	return find.SetSkip(p.Skip()).SetLimit(int64(p.Size))
}

// Parse reads "page" and "size" query parameters. Missing or malformed
// values fall back to defaults.
func Parse(r *http.Request) Request {
	return Request{
		Page: atoiOr(query.Get(r, "page"), 1),
		Size: atoiOr(query.Get(r, "size"), PageSize),
	}.Normalize()
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Meta describes a returned page.
type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewMeta computes page metadata for a request and the total matching rows.
func NewMeta(req Request, total int64) Meta {
	req = req.Normalize()
	pages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return Meta{
		Page:       req.Page,
		Size:       req.Size,
		Total:      total,
		TotalPages: pages,
		HasNext:    req.Page < pages,
		HasPrev:    req.Page > 1,
	}
}

// Page is one page of items plus its metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// NewPage builds a page; a nil slice is replaced with an empty one so the
// JSON form is always an array.
func NewPage[T any](items []T, req Request, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Meta: NewMeta(req, total)}
}

// MapPage converts the items of a page, keeping its metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, fn(it))
	}
	return Page[U]{Items: out, Meta: p.Meta}
}
