// Package history keeps the most recent quotes in memory for display. Nothing is persisted.
package history

import (
	"sync"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

const DefaultSize = 200

// Store is a bounded, newest-first list of entries addressable by id.
type Store[T any] struct {
	mu      sync.RWMutex
	entries []T // oldest first; trimmed from the front
	index   map[string]int
	offset  int // number of entries ever trimmed
	size    int
	idOf    func(T) string
}

// NewStore keeps at most size entries; size <= 0 uses DefaultSize.
func NewStore[T any](size int, idOf func(T) string) *Store[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &Store[T]{index: make(map[string]int), size: size, idOf: idOf}
}

// Append adds e, evicting the oldest entry when full.
func (s *Store[T]) Append(e T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[s.idOf(e)] = s.offset + len(s.entries)
	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.size; over > 0 {
		for _, old := range s.entries[:over] {
			id := s.idOf(old)
			if pos, ok := s.index[id]; ok && pos < s.offset+over {
				delete(s.index, id)
			}
		}
		s.entries = append([]T(nil), s.entries[over:]...)
		s.offset += over
	}
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store[T]) List(limit int) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Get returns the entry with id or common.ErrNotFound.
func (s *Store[T]) Get(id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		var zero T
		return zero, common.NewAppError("HISTORY", "quote "+id+" not found", common.ErrNotFound)
	}
	return s.entries[pos-s.offset], nil
}

// Len reports the number of stored entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.index = make(map[string]int)
	s.offset = 0
}
