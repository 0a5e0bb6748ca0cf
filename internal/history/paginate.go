package history

// Window is the navigable range of page buttons.
type Window struct {
	TotalPages  int
	CurrentPage int
	Pages       []int
}

// HasPrev reports whether a previous page exists.
func (w Window) HasPrev() bool { return w.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (w Window) HasNext() bool { return w.CurrentPage < w.TotalPages }

// TotalPages returns ceil(total/pageSize), or 0 for an empty or invalid input.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Skip returns the record offset of page.
func Skip(page, pageSize int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// ComputeWindow centers up to maxButtons page numbers on current and slides
// the range to stay within [1, TotalPages]. current is clamped into range.
// Invalid sizes or an empty result yield an empty window.
func ComputeWindow(total, pageSize, current, maxButtons int) Window {
	pages := TotalPages(total, pageSize)
	if pages == 0 || maxButtons <= 0 {
		return Window{TotalPages: pages}
	}

	if current < 1 {
		current = 1
	}
	if current > pages {
		current = pages
	}

	start := max(1, current-maxButtons/2)
	end := min(pages, start+maxButtons-1)
	if end-start+1 < maxButtons {
		start = max(1, end-maxButtons+1)
	}

	w := Window{TotalPages: pages, CurrentPage: current, Pages: make([]int, 0, end-start+1)}
	for p := start; p <= end; p++ {
		w.Pages = append(w.Pages, p)
	}
	return w
}

// Pager tracks the current page of a paged listing.
type Pager struct {
	Page     int
	PageSize int
	Total    int
}

// NewPager starts on page 1 with an unknown total.
func NewPager(pageSize int) Pager {
	if pageSize < 1 {
		pageSize = 1
	}
	return Pager{Page: 1, PageSize: pageSize}
}

// TotalPages returns the page count for the last known total.
func (p Pager) TotalPages() int {
	return TotalPages(p.Total, p.PageSize)
}

// Skip returns the offset of the current page.
func (p Pager) Skip() int {
	return Skip(p.Page, p.PageSize)
}

// GoTo moves to page n when 1 <= n <= TotalPages and reports whether it moved.
// Out-of-range requests and requests for the current page leave the pager unchanged.
func (p *Pager) GoTo(n int) bool {
	if n < 1 || n > p.TotalPages() || n == p.Page {
		return false
	}
	p.Page = n
	return true
}

// SetPageSize changes the page size and returns to page 1.
func (p *Pager) SetPageSize(size int) bool {
	if size < 1 || size == p.PageSize {
		return false
	}
	p.PageSize = size
	p.Page = 1
	return true
}

// Window returns the button window for the pager.
func (p Pager) Window(maxButtons int) Window {
	return ComputeWindow(p.Total, p.PageSize, p.Page, maxButtons)
}
