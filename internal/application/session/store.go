package session

import (
	"sync"
	"time"
)

type entry struct {
	state   State
	updated time.Time
}

// Store keeps per-user conversation state in memory, keyed by chat id.
// Conversation state is deliberately not persisted: a process restart drops
// everyone back to the main menu, and no committed data is affected.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]entry
	now     func() time.Time
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[int64]entry),
		now:     time.Now,
	}
}

// Get returns the user's current state, or nil when the user is at the main
// menu.
func (s *Store) Get(chatID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[chatID]
	if !ok {
		return nil
	}
	return e.state
}

// Set replaces the user's state.
func (s *Store) Set(chatID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[chatID] = entry{state: state, updated: s.now()}
}

// Clear drops the user back to the main menu.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, chatID)
}

// Len returns the number of users mid-conversation.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// PruneOlderThan drops conversations idle longer than maxAge and returns how
// many were removed. Callers decide whether and how often to run it.
func (s *Store) PruneOlderThan(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for chatID, e := range s.entries {
		if e.updated.Before(cutoff) {
			delete(s.entries, chatID)
			removed++
		}
	}
	return removed
}
