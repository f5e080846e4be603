package async

import (
	"sync"
	"sync/atomic"
)

// Barrier is a one-shot gate: Wait blocks until Open has been called.
type Barrier struct {
	c      chan bool
	once   sync.Once
	isOpen atomic.Bool
}

func (b *Barrier) Open() {
	b.once.Do(func() {
		b.isOpen.Store(true)
		close(b.c)
	})
}

func (b *Barrier) Wait() {
	<-b.c
}

// Done exposes the gate for use in select statements.
func (b *Barrier) Done() <-chan bool {
	return b.c
}

func (b *Barrier) IsOpen() bool {
	return b.isOpen.Load()
}

func NewBarrier() *Barrier {
	return &Barrier{c: make(chan bool)}
}
