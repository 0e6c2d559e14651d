package domain

import (
	"fmt"
	"time"
)

// Snapshot is an immutable bundle holding a quote for every tracked symbol.
// Callers must treat Quotes as read-only.
type Snapshot struct {
	Quotes    map[Symbol]Quote
	FetchedAt time.Time
	Source    string
}

// NewSnapshot copies quotes and fails unless every symbol is covered.
func NewSnapshot(symbols []Symbol, quotes map[Symbol]Quote, fetchedAt time.Time, source string) (Snapshot, error) {
	if len(symbols) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no symbols", ErrIncompleteSnapshot)
	}
	out := make(map[Symbol]Quote, len(symbols))
	for _, s := range symbols {
		q, ok := quotes[s]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: missing %s", ErrIncompleteSnapshot, s)
		}
		out[s] = q
	}
	return Snapshot{Quotes: out, FetchedAt: fetchedAt, Source: source}, nil
}

// Covers reports whether the snapshot holds a quote for each symbol.
func (s Snapshot) Covers(symbols []Symbol) bool {
	for _, sym := range symbols {
		if _, ok := s.Quotes[sym]; !ok {
			return false
		}
	}
	return len(symbols) > 0
}

func (s Snapshot) Age(now time.Time) time.Duration { return now.Sub(s.FetchedAt) }
