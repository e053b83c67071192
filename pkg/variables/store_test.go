package variables

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_SetGet(t *testing.T) {
	s := New()
	_, ok := s.Get("user_id")
	assert.False(t, ok)

	s.Set("user_id", 42)
	v, ok := s.Get("user_id")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	s.Set("user_id", 43)
	v, _ = s.Get("user_id")
	assert.Equal(t, 43, v)
}

func TestStore_NilValueIsPresent(t *testing.T) {
	s := New()
	s.Set("cursor", nil)
	v, ok := s.Get("cursor")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestStore_NewFromCopies(t *testing.T) {
	seed := map[string]any{"a": 1}
	s := NewFrom(seed)
	seed["b"] = 2
	assert.Equal(t, 1, s.Len())
}

func TestStore_DeleteResetNames(t *testing.T) {
	s := NewFrom(map[string]any{"b": 2, "a": 1})
	assert.Equal(t, []string{"a", "b"}, s.Names())

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	assert.Equal(t, 1, s.Len())

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := NewFrom(map[string]any{"a": 1})
	snap := s.Snapshot()
	snap["a"] = 99
	v, _ := s.Get("a")
	assert.Equal(t, 1, v)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set("k", i)
			_, _ = s.Get("k")
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
