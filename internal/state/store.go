// Package state holds soft, process-local policy state such as flood windows
// and cooldowns. Everything here is lost on restart.
package state

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Delete(key string)
	// Update applies fn to the current value under the store lock and saves the result.
	Update(key string, fn func(current V, ok bool) V) V
	Len() int
}

// MemoryStore is a bounded store whose entries expire after ttl without writes.
type MemoryStore[V any] struct {
	mu    sync.Mutex
	cache *lru.LRU[string, V]
}

func NewMemoryStore[V any](size int, ttl time.Duration) *MemoryStore[V] {
	return &MemoryStore[V]{
		cache: lru.NewLRU[string, V](size, nil, ttl),
	}
}

func (s *MemoryStore[V]) Get(key string) (V, bool) {
	return s.cache.Get(key)
}

func (s *MemoryStore[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(key, value)
}

func (s *MemoryStore[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(key)
}

func (s *MemoryStore[V]) Update(key string, fn func(current V, ok bool) V) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cache.Get(key)
	next := fn(current, ok)
	s.cache.Add(key, next)
	return next
}

func (s *MemoryStore[V]) Len() int {
	return s.cache.Len()
}
