// Package guard gates queries that would fetch every detail record behind an
// explicit confirmation.
package guard

import (
	"strings"
	"sync"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
)

type State int

const (
	Idle State = iota
	AwaitingConfirmation
	Confirmed
)

func (s State) String() string {
	switch s {
	case AwaitingConfirmation:
		return "awaiting-confirmation"
	case Confirmed:
		return "confirmed"
	}
	return "idle"
}

// Operation names what the heavy query would do, for the prompt.
type Operation string

const (
	OpNone          Operation = ""
	OpSorting       Operation = "sorting"
	OpStatFiltering Operation = "stat-filtering"
)

// Message explains what confirming o will do.
func (o Operation) Message() string {
	if o == OpStatFiltering {
		return "You're about to filter Pokemon by stats only, which means searching through all Pokemon."
	}
	return "You're about to sort all Pokemon without any filters, which requires processing a lot of data."
}

// Hint suggests how to avoid o.
func (o Operation) Hint() string {
	if o == OpStatFiltering {
		return "Try adding type or generation filters to reduce the search scope."
	}
	return "Try adding filters (type, generation, etc.) to reduce the dataset size."
}

// Condition is the part of a query the guard inspects.
type Condition struct {
	Filters catalog.FilterSpec
	Sort    catalog.SortSpec
	Search  string
	// Restricted is set when the universe is already a small explicit set,
	// such as the favorites.
	Restricted bool
}

// Heavy reports whether the query would enrich the whole universe: nothing
// narrows the candidates, yet the result must be sorted or stat-filtered.
func (c Condition) Heavy() bool {
	narrowing := c.Restricted || c.Filters.HasNarrowingFilters() || strings.TrimSpace(c.Search) != ""
	return !narrowing && (!c.Sort.IsDefault() || c.Filters.HasStatFilters())
}

// Operation is OpStatFiltering when stat ranges are set, else OpSorting.
// It is OpNone for a light query.
func (c Condition) Operation() Operation {
	if !c.Heavy() {
		return OpNone
	}
	if c.Filters.HasStatFilters() {
		return OpStatFiltering
	}
	return OpSorting
}

// Guard is safe for concurrent use.
type Guard struct {
	mu    sync.Mutex
	state State
	op    Operation
}

func New() *Guard { return &Guard{} }

// Evaluate moves the guard for the current query. A heavy query moves Idle to
// AwaitingConfirmation and leaves Confirmed alone; a light one always
// returns the guard to Idle.
func (g *Guard) Evaluate(c Condition) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !c.Heavy() {
		g.state = Idle
		g.op = OpNone
		return g.state
	}
	g.op = c.Operation()
	if g.state == Idle {
		g.state = AwaitingConfirmation
	}
	return g.state
}

// Confirm accepts the pending heavy query. It only has an effect while
// awaiting confirmation and reports whether it did.
func (g *Guard) Confirm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != AwaitingConfirmation {
		return false
	}
	g.state = Confirmed
	return true
}

// Abandon returns to Idle. The caller is responsible for resetting the sort
// and filters that made the query heavy.
func (g *Guard) Abandon() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Idle
	g.op = OpNone
}

// Allow reports whether the pipeline may run.
func (g *Guard) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state != AwaitingConfirmation
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Operation is the kind of the pending or confirmed heavy query.
func (g *Guard) Operation() Operation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.op
}
