// Package paging slices the filtered ranking into fixed-size pages.
package paging

// PageSize is the number of rows per page.
const PageSize = 10

// TotalPages is ceil(count/PageSize), never less than 1.
func TotalPages(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + PageSize - 1) / PageSize
}

// Page is the visible window [Start, End) of the filtered list.
type Page struct {
	Index      int
	TotalPages int
	Start      int
	End        int
}

// Pager holds the current page. The zero value is not ready; use New.
type Pager struct {
	current int
}

// New returns a pager on page 1.
func New() *Pager {
	return &Pager{current: 1}
}

// Current returns the selected page.
func (p *Pager) Current() int { return p.current }

// Reset goes back to page 1.
func (p *Pager) Reset() { p.current = 1 }

// Clamp lowers the page when count no longer reaches it. It never raises it.
func (p *Pager) Clamp(count int) {
	if total := TotalPages(count); p.current > total {
		p.current = total
	}
	if p.current < 1 {
		p.current = 1
	}
}

// Select moves to page, pulled into [1, TotalPages(count)].
func (p *Pager) Select(page, count int) {
	p.current = page
	if p.current < 1 {
		p.current = 1
	}
	p.Clamp(count)
}

// Range returns the current window over a list of count items.
func (p *Pager) Range(count int) Page {
	start := (p.current - 1) * PageSize
	end := start + PageSize
	if end > count {
		end = count
	}
	if start > end {
		start = end
	}
	return Page{Index: p.current, TotalPages: TotalPages(count), Start: start, End: end}
}

// Slice returns the current page of list.
func Slice[T any](p *Pager, list []T) ([]T, Page) {
	pg := p.Range(len(list))
	return list[pg.Start:pg.End], pg
}
