package document

import (
	"sync"

	"reel/internal/services"
)

// State owns the live document for a session. Snapshot is the only read path
// and Commit the only write path; callers never touch the live instance.
type State struct {
	mu   sync.Mutex
	live Document
}

// NewState returns a state handle seeded with an empty document.
func NewState() *State {
	return &State{live: New()}
}

// NewStateFrom returns a state handle seeded with a copy of doc.
func NewStateFrom(doc Document) *State {
	return &State{live: doc.Clone()}
}

// Snapshot returns a deep, independent copy of the live document. A
// long-running generator holding a snapshot can never observe a write made
// by an overlapping commit.
func (s *State) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live.Clone()
}

// Commit takes exclusive ownership of the live document, passes a working
// copy to the mutator, and replaces the live document with its return value.
// If the mutator returns an error, or the mutated document fails structural
// validation, the live document is left untouched. Failures are atomic at
// whole-document granularity, never partial.
func (s *State) Commit(mutate func(Document) (Document, error)) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.live.Clone()
	next, err := mutate(working)
	if err != nil {
		return Document{}, err
	}
	if err := next.Validate(); err != nil {
		return Document{}, services.Wrap(services.ErrValidation, "document", "commit", "mutated document is invalid", err)
	}
	s.live = next
	return s.live.Clone(), nil
}
