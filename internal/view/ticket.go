// Package view holds the per-screen state machines shared by the web and
// terminal front ends. Views are driven from one event loop and are not
// safe for concurrent use.
package view

import (
	"github.com/user/pcapview/internal/metrics"
	"github.com/user/pcapview/internal/util"
)

// Ticket identifies one issued request. Only the latest ticket of a view
// may commit a response.
type Ticket struct {
	view string
	gen  uint64
}

// Generation issues tickets for one view.
type Generation struct {
	view string
	gen  uint64
}

// NewGeneration creates a ticket source labelled view.
func NewGeneration(view string) Generation {
	return Generation{view: view}
}

// Next issues a ticket that supersedes every earlier one.
func (g *Generation) Next() Ticket {
	g.gen++
	return Ticket{view: g.view, gen: g.gen}
}

// Invalidate supersedes every issued ticket without issuing a new one.
func (g *Generation) Invalidate() {
	g.gen++
}

// Accept reports whether t is the latest ticket. Superseded tickets are
// counted and dropped.
func (g *Generation) Accept(t Ticket) bool {
	if t.view == g.view && t.gen == g.gen && t.gen != 0 {
		return true
	}
	metrics.StaleResponsesTotal.WithLabelValues(g.view).Inc()
	util.Debug("Discarding stale %s response (ticket %d, current %d)", g.view, t.gen, g.gen)
	return false
}
