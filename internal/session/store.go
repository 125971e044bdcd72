// Package session keeps open dialogues and intake wizards in memory, keyed by
// a generated id. Idle sessions expire.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store holds sessions of one kind.
type Store[T any] struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore creates a store whose sessions expire after ttl without access,
// purging expired entries every cleanup interval.
func NewStore[T any](ttl, cleanup time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &Store[T]{cache: cache.New(ttl, cleanup), ttl: ttl}
}

// Create saves v under a new id and returns the id.
func (s *Store[T]) Create(v T) string {
	id := uuid.NewString()
	s.cache.Set(id, v, s.ttl)
	return id
}

// Get returns the session and extends its lifetime.
func (s *Store[T]) Get(id string) (T, bool) {
	x, found := s.cache.Get(id)
	if !found {
		var zero T
		return zero, false
	}
	v, ok := x.(T)
	if ok {
		s.cache.Set(id, v, s.ttl)
	}
	return v, ok
}

// Delete discards a session. It reports whether the session existed.
func (s *Store[T]) Delete(id string) bool {
	_, found := s.cache.Get(id)
	s.cache.Delete(id)
	return found
}

// Len returns the number of live sessions, expired ones included until the
// next cleanup.
func (s *Store[T]) Len() int {
	return s.cache.ItemCount()
}
