package data_structures

import "sync"

type ISet[T comparable] interface {
	// Add returns false when the value was already present.
	Add(T) bool
	Delete(T) bool
	Contains(T) bool
	GetAll() []T
	Clear()
	Size() int
}

type Set[T comparable] struct {
	m map[T]bool
}

func NewSet[T comparable]() ISet[T] {
	return &Set[T]{make(map[T]bool)}
}

func (s *Set[T]) Add(data T) bool {
	if s.m[data] {
		return false
	}
	s.m[data] = true
	return true
}

func (s *Set[T]) Delete(data T) bool {
	if s.m[data] {
		delete(s.m, data)
		return true
	}
	return false
}

func (s *Set[T]) Contains(data T) bool {
	return s.m[data]
}

func (s *Set[T]) Clear() {
	for k := range s.m {
		delete(s.m, k)
	}
}

func (s *Set[T]) GetAll() []T {
	data := make([]T, 0, len(s.m))
	for k := range s.m {
		data = append(data, k)
	}
	return data
}

func (s *Set[T]) Size() int {
	return len(s.m)
}

type SafeSet[T comparable] struct {
	lock *sync.RWMutex
	s    ISet[T]
}

func NewSafeSet[T comparable]() ISet[T] {
	return &SafeSet[T]{
		lock: new(sync.RWMutex),
		s:    NewSet[T](),
	}
}

func (s *SafeSet[T]) withWrite(cb func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	cb()
}

func (s *SafeSet[T]) withRead(cb func()) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	cb()
}

func (s *SafeSet[T]) Add(i T) (added bool) {
	s.withWrite(func() {
		added = s.s.Add(i)
	})
	return
}

func (s *SafeSet[T]) Delete(i T) (existed bool) {
	s.withWrite(func() {
		existed = s.s.Delete(i)
	})
	return
}

func (s *SafeSet[T]) Contains(i T) (has bool) {
	s.withRead(func() {
		has = s.s.Contains(i)
	})
	return
}

func (s *SafeSet[T]) Clear() {
	s.withWrite(func() {
		s.s.Clear()
	})
}

func (s *SafeSet[T]) GetAll() (all []T) {
	s.withRead(func() {
		all = s.s.GetAll()
	})
	return
}

func (s *SafeSet[T]) Size() (size int) {
	s.withRead(func() {
		size = s.s.Size()
	})
	return
}
