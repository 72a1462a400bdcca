// Package query filters and paginates an invoice snapshot for display.
//
// Everything here is pure: the caller owns State and passes it in on every
// change, and Query never modifies the records it is given.
package query

import (
	"fmt"
	"strings"

	"github.com/invoice-ai-manager/server/internal/agent/model"
)

// DefaultPageSize is the number of rows per page in the invoice table.
const DefaultPageSize = 10

// Filter restricts results to one status, or FilterAll.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterPaid    Filter = Filter(model.StatusPaid)
	FilterPending Filter = Filter(model.StatusPending)
	FilterOverdue Filter = Filter(model.StatusOverdue)
)

// ParseFilter accepts "all", an empty string (treated as all) or a status.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPaid, FilterPending, FilterOverdue:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// State is the view state of one invoice table session.
type State struct {
	Search string
	Status Filter
	Page   int
}

// NewState returns the initial state: no search, all statuses, first page.
func NewState() State {
	return State{Status: FilterAll, Page: 1}
}

// WithSearch changes the search term and goes back to the first page.
func (s State) WithSearch(term string) State {
	s.Search = term
	s.Page = 1
	return s
}

// WithStatus changes the status filter and goes back to the first page.
func (s State) WithStatus(f Filter) State {
	s.Status = f
	s.Page = 1
	return s
}

// WithPage moves to page p without touching the filters.
func (s State) WithPage(p int) State {
	s.Page = p
	return s
}

// Clamp moves Page into [1, pageCount].
func (s State) Clamp(pageCount int) State {
	if pageCount < 1 {
		pageCount = 1
	}
	switch {
	case s.Page < 1:
		s.Page = 1
	case s.Page > pageCount:
		s.Page = pageCount
	}
	return s
}

// Result is one page of the filtered view. RangeStart is a 0-based offset into
// the filtered records and RangeEnd is exclusive.
type Result struct {
	Visible      []model.Invoice
	TotalMatches int
	PageCount    int
	Page         int
	RangeStart   int
	RangeEnd     int
}

// HasPrevious reports whether a page exists before this one.
func (r Result) HasPrevious() bool {
	return r.Page > 1
}

// HasNext reports whether a page exists after this one.
func (r Result) HasNext() bool {
	return r.Page < r.PageCount
}

// Describe renders the range line under the invoice table.
func (r Result) Describe() string {
	if len(r.Visible) == 0 {
		return fmt.Sprintf("Showing 0 of %d results", r.TotalMatches)
	}
	return fmt.Sprintf("Showing %d to %d of %d results", r.RangeStart+1, r.RangeEnd, r.TotalMatches)
}

// Matches reports whether inv passes both the status filter and the search term.
// The search is a case-insensitive substring match on invoice number or customer name.
func (s State) Matches(inv model.Invoice) bool {
	if s.Status != FilterAll && s.Status != "" && Filter(inv.Status) != s.Status {
		return false
	}
	if s.Search == "" {
		return true
	}
	term := strings.ToLower(s.Search)
	return strings.Contains(strings.ToLower(inv.InvoiceNumber), term) ||
		strings.Contains(strings.ToLower(inv.CustomerName), term)
}

// Query filters records by st and returns page st.Page of size pageSize.
// Input order is preserved. A page outside [1, PageCount] yields an empty
// Visible slice with RangeStart == RangeEnd; Query never clamps the page.
// A non-positive pageSize falls back to DefaultPageSize.
func Query(records []model.Invoice, st State, pageSize int) Result {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	filtered := make([]model.Invoice, 0, len(records))
	for _, inv := range records {
		if st.Matches(inv) {
			filtered = append(filtered, inv)
		}
	}

	total := len(filtered)
	pageCount := total / pageSize
	if total%pageSize != 0 {
		pageCount++
	}
	if pageCount < 1 {
		pageCount = 1
	}

	res := Result{
		Visible:      []model.Invoice{},
		TotalMatches: total,
		PageCount:    pageCount,
		Page:         st.Page,
	}

	if st.Page < 1 {
		return res
	}
	// compare pages before multiplying so huge page numbers cannot overflow
	if st.Page > pageCount {
		res.RangeStart, res.RangeEnd = total, total
		return res
	}
	start := (st.Page - 1) * pageSize
	end := min(start+pageSize, total)

	res.Visible = filtered[start:end]
	res.RangeStart, res.RangeEnd = start, end
	return res
}
