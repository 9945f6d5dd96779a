package statemachine

import (
	"context"
	"slices"
	"sync"
)

// Guard inspects the transition input and returns a non-nil error to block it.
type Guard[S, E ~string] func(ctx context.Context, from S, event E, data any) error

// Transition is a single edge of the table.
type Transition[S, E ~string] struct {
	From   S
	To     S
	Event  E
	Guards []Guard[S, E]
}

// Table is a stateless transition table. The current state lives with the
// caller (usually a persisted record), so one Table serves every instance.
// It is safe for concurrent use once built.
type Table[S, E ~string] struct {
	mu          sync.RWMutex
	transitions map[S]map[E][]Transition[S, E]
	terminal    map[S]bool
}

// NewTable returns an empty table.
func NewTable[S, E ~string]() *Table[S, E] {
	return &Table[S, E]{
		transitions: make(map[S]map[E][]Transition[S, E]),
		terminal:    make(map[S]bool),
	}
}

// Add registers an edge. Several edges may share from/event; the first one
// whose guards all pass wins, so registration order is priority order.
func (t *Table[S, E]) Add(from S, event E, to S, guards ...Guard[S, E]) *Table[S, E] {
	if from == "" || to == "" || event == "" {
		panic(ErrInvalidTransition)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.transitions[from] == nil {
		t.transitions[from] = make(map[E][]Transition[S, E])
	}
	t.transitions[from][event] = append(t.transitions[from][event], Transition[S, E]{
		From: from, To: to, Event: event, Guards: guards,
	})
	return t
}

// Terminal marks states that accept no events. Next does not consult it;
// IsTerminal lets callers report the condition explicitly.
func (t *Table[S, E]) Terminal(states ...S) *Table[S, E] {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range states {
		t.terminal[s] = true
	}
	return t
}

func (t *Table[S, E]) IsTerminal(s S) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.terminal[s]
}

// Next resolves the state reached from "from" on event. It returns
// *ErrNoTransitionAvailable when no edge exists and *ErrTransitionRejected
// when guards block every edge.
func (t *Table[S, E]) Next(ctx context.Context, from S, event E, data any) (S, error) {
	t.mu.RLock()
	candidates := t.transitions[from][event]
	t.mu.RUnlock()

	if len(candidates) == 0 {
		return from, &ErrNoTransitionAvailable{StateName: string(from), EventName: string(event)}
	}

	var reason error
	for _, tr := range candidates {
		if err := runGuards(ctx, tr, data); err != nil {
			reason = err
			continue
		}
		return tr.To, nil
	}
	return from, &ErrTransitionRejected{StateName: string(from), EventName: string(event), Reason: reason}
}

// Can reports whether Next would succeed.
func (t *Table[S, E]) Can(ctx context.Context, from S, event E, data any) bool {
	_, err := t.Next(ctx, from, event, data)
	return err == nil
}

// Events lists the events registered for a state, sorted.
func (t *Table[S, E]) Events(from S) []E {
	t.mu.RLock()
	defer t.mu.RUnlock()
	events := make([]E, 0, len(t.transitions[from]))
	for e := range t.transitions[from] {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}

func runGuards[S, E ~string](ctx context.Context, tr Transition[S, E], data any) error {
	for _, g := range tr.Guards {
		if g == nil {
			continue
		}
		if err := g(ctx, tr.From, tr.Event, data); err != nil {
			return err
		}
	}
	return nil
}
