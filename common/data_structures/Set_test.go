package data_structures

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	for name, s := range map[string]ISet[int]{"Set": NewSet[int](), "SafeSet": NewSafeSet[int]()} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, s.Add(9999))
			assert.False(t, s.Add(9999))
			assert.True(t, s.Add(10001))
			assert.True(t, s.Contains(10001))
			assert.Equal(t, 2, s.Size())

			all := s.GetAll()
			sort.Ints(all)
			assert.Equal(t, []int{9999, 10001}, all)

			assert.True(t, s.Delete(9999))
			assert.False(t, s.Delete(9999))
			s.Clear()
			assert.Zero(t, s.Size())
		})
	}
}

func TestSafeSetConcurrentAdd(t *testing.T) {
	s := NewSafeSet[int]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add(42) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, s.Size())
}
