// Package store holds the deduplicating record set shared by the concurrent
// activities of one extraction call.
package store

import "sync"

// Keyed is implemented by records that carry a uniqueness key
type Keyed interface {
	Key() string
}

// Store maps uniqueness keys to records. The latest write for a key wins.
// Values are returned in first-discovery order of their keys.
type Store[T Keyed] struct {
	mu    sync.Mutex
	items map[string]T
	order []string
}

// New creates an empty store
func New[T Keyed]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

// Upsert inserts or replaces records by key and returns how many keys were new
func (s *Store[T]) Upsert(records ...T) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range records {
		key := r.Key()
		if _, exists := s.items[key]; !exists {
			s.order = append(s.order, key)
			added++
		}
		s.items[key] = r
	}
	return added
}

// Get returns the record stored under key
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

// Len returns the number of distinct keys
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Values returns a snapshot of all records
func (s *Store[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([]T, 0, len(s.order))
	for _, key := range s.order {
		values = append(values, s.items[key])
	}
	return values
}
