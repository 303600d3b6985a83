// Package page carries offset pagination between handlers and stores.
package page

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Request is a zero-based page number and a page size.
type Request struct {
	Number int
	Size   int
}

// New clamps the inputs into a usable request.
func New(number, size int) Request {
	if number < 0 {
		number = 0
	}

	if size <= 0 {
		size = DefaultSize
	}

	if size > MaxSize {
		size = MaxSize
	}

	return Request{Number: number, Size: size}
}

func (r Request) Offset() int {
	return r.Number * r.Size
}

func (r Request) Limit() int {
	return r.Size
}

type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int
}

func Of[T any](items []T, req Request, total int) Page[T] {
	if items == nil {
		items = []T{}
	}

	return Page[T]{
		Items:  items,
		Number: req.Number,
		Size:   req.Size,
		Total:  total,
	}
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}

	return (p.Total + p.Size - 1) / p.Size
}

// Map converts the items while keeping the paging metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Items))

	for _, item := range p.Items {
		out = append(out, fn(item))
	}

	return Page[U]{
		Items:  out,
		Number: p.Number,
		Size:   p.Size,
		Total:  p.Total,
	}
}

// Window slices an in-memory result set the way a LIMIT/OFFSET query would.
func Window[T any](all []T, req Request) []T {
	start := req.Offset()

	if start >= len(all) {
		return []T{}
	}

	end := start + req.Limit()

	if end > len(all) {
		end = len(all)
	}

	return all[start:end]
}
