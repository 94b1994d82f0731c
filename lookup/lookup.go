// Package lookup implements the search-as-you-type suggestion list with
// keyboard highlight used to pick a billing.
package lookup

import (
	"context"
	"log/slog"
	"sync"

	"github.com/satheeshds/driverdesk/models"
)

// DefaultMinChars is the query length below which no search is issued.
const DefaultMinChars = 1

// Searcher runs a suggestion search against an endpoint template.
type Searcher interface {
	Suggestions(ctx context.Context, template, query string) ([]models.Suggestion, error)
}

// Resolver is called with the suggestion the user picked.
type Resolver func(ctx context.Context, s models.Suggestion) error

// State is a copy of the lookup's visible state.
type State struct {
	Query       string              `json:"query"`
	Items       []models.Suggestion `json:"items"`
	Highlighted int                 `json:"highlighted"`
	Error       string              `json:"error,omitempty"`
}

// Lookup holds the suggestions for the current query and the highlighted row.
// It is safe for concurrent use.
type Lookup struct {
	search   Searcher
	template string
	minChars int
	resolve  Resolver

	mu          sync.Mutex
	seq         uint64
	query       string
	items       []models.Suggestion
	highlighted int
	err         string
}

// New creates a lookup that searches template through s. resolve may be nil,
// in which case Enter and Select only return the picked suggestion.
func New(s Searcher, template string, minChars int, resolve Resolver) *Lookup {
	if minChars < 1 {
		minChars = DefaultMinChars
	}
	return &Lookup{
		search:      s,
		template:    template,
		minChars:    minChars,
		resolve:     resolve,
		highlighted: -1,
	}
}

// Query replaces the suggestions with the results for q. Queries shorter than
// the minimum clear the list without a request. When responses arrive out of
// order, only the latest query's result is kept.
func (l *Lookup) Query(ctx context.Context, q string) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.query = q
	if len([]rune(q)) < l.minChars {
		l.clearLocked()
		l.err = ""
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	items, err := l.search.Suggestions(ctx, l.template, q)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return nil
	}
	if err != nil {
		slog.Warn("suggestion search failed", "query", q, "error", err)
		l.clearLocked()
		l.err = err.Error()
		return err
	}
	l.items = items
	l.highlighted = -1
	l.err = ""
	return nil
}

// Down moves the highlight to the next row, wrapping to the first.
func (l *Lookup) Down() {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.items)
	if n == 0 {
		return
	}
	if l.highlighted < 0 {
		l.highlighted = 0
		return
	}
	l.highlighted = (l.highlighted + 1) % n
}

// Up moves the highlight to the previous row, wrapping to the last.
func (l *Lookup) Up() {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.items)
	if n == 0 {
		return
	}
	if l.highlighted <= 0 {
		l.highlighted = n - 1
		return
	}
	l.highlighted--
}

// Enter picks the highlighted suggestion. It returns nil when nothing is
// highlighted.
func (l *Lookup) Enter(ctx context.Context) (*models.Suggestion, error) {
	l.mu.Lock()
	i := l.highlighted
	l.mu.Unlock()
	if i < 0 {
		return nil, nil
	}
	return l.Select(ctx, i)
}

// Select picks the suggestion at index i, clears the list and hands the
// suggestion to the resolver.
func (l *Lookup) Select(ctx context.Context, i int) (*models.Suggestion, error) {
	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return nil, nil
	}
	picked := l.items[i]
	l.clearLocked()
	l.mu.Unlock()

	if l.resolve != nil {
		if err := l.resolve(ctx, picked); err != nil {
			return &picked, err
		}
	}
	return &picked, nil
}

// Dismiss hides the suggestion list.
func (l *Lookup) Dismiss() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearLocked()
}

// Snapshot returns a copy of the current state.
func (l *Lookup) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]models.Suggestion, len(l.items))
	copy(items, l.items)
	return State{
		Query:       l.query,
		Items:       items,
		Highlighted: l.highlighted,
		Error:       l.err,
	}
}

func (l *Lookup) clearLocked() {
	l.items = nil
	l.highlighted = -1
}
