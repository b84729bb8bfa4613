package tgui

import "fmt"

// Page is one page of a longer list. Index is 0-based.
type Page[T any] struct {
	Items   []T
	Index   int
	Pages   int
	From    int
	To      int
	HasPrev bool
	HasNext bool
}

// Paginate returns page index of items, clamped to the valid range.
func Paginate[T any](items []T, index, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	total := len(items)
	pages := max(1, (total+size-1)/size)
	index = min(max(index, 0), pages-1)
	from := min(index*size, total)
	to := min(from+size, total)
	return Page[T]{
		Items:   items[from:to],
		Index:   index,
		Pages:   pages,
		From:    from,
		To:      to,
		HasPrev: index > 0,
		HasNext: to < total,
	}
}

// Label returns a compact label like "Página 2/3 • 11–20 de 25".
func (p Page[T]) Label(total int) string {
	if total <= 0 {
		return "Página 1/1"
	}
	return fmt.Sprintf("Página %d/%d • %d–%d de %d", p.Index+1, p.Pages, p.From+1, p.To, total)
}
