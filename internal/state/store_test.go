package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore[int](10, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("k", func(cur int, _ bool) int { return cur + 1 })
		}()
	}
	wg.Wait()

	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 50, v)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore[string](10, 50*time.Millisecond)
	s.Set("a", "x")

	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	time.Sleep(120 * time.Millisecond)
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestMemoryStore_Bounded(t *testing.T) {
	s := NewMemoryStore[int](2, time.Minute)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("a")
	assert.False(t, ok, "oldest key should be evicted")

	s.Delete("b")
	_, ok = s.Get("b")
	assert.False(t, ok)
}
