package async

import (
	"context"
	"fmt"
	"sync"

	"portq/common/logger"
)

type AsyncError struct {
	msg string
}

func (e *AsyncError) Error() string {
	return e.msg
}

func NewAsyncError(msg string) error {
	return &AsyncError{msg}
}

type AsyncTask func()

const (
	IDLE        = 0
	RUNNING     = 1
	TERMINATING = 2
	TERMINATED  = 3
)

// AsyncPool runs scheduled tasks on a fixed number of workers fed by a
// bounded channel. Stop does not wait for running tasks; tasks that block
// should select on Context().
type AsyncPool struct {
	id            string
	context       context.Context
	cancelFunc    func()
	stopWaitGroup sync.WaitGroup
	rwLock        *sync.RWMutex
	channel       chan AsyncTask
	numWorkers    int
	numBusyWorker int
	status        int
	logger        *logger.SimpleLogger
}

type IAsyncPool interface {
	HasStarted() bool
	Start()
	Stop()
	Wait()
	Schedule(task AsyncTask) (*Barrier, error)
	Context() context.Context
	NumWorkers() int
	NumBusyWorkers() int
	Verbose(use bool)
}

func NewAsyncPool(id string, maxPoolSize, workerSize int) *AsyncPool {
	return NewAsyncPoolWithContext(context.Background(), id, maxPoolSize, workerSize, logger.NewConsole("", false))
}

// NewAsyncPoolWithContext creates a pool whose context is cancelled when
// either parent is done or the pool is stopped.
func NewAsyncPoolWithContext(parent context.Context, id string, maxPoolSize, workerSize int, parentLogger *logger.SimpleLogger) *AsyncPool {
	ctx, cancel := context.WithCancel(parent)
	return &AsyncPool{
		id:         id,
		context:    ctx,
		cancelFunc: cancel,
		rwLock:     new(sync.RWMutex),
		channel:    make(chan AsyncTask, getInRangeInt(maxPoolSize, 16, 2048)),
		numWorkers: getInRangeInt(workerSize, 2, 1024),
		status:     IDLE,
		logger:     parentLogger.WithPrefix(fmt.Sprintf("[AsyncPool-%s]", id)),
	}
}

func (p *AsyncPool) withWrite(cb func()) {
	p.rwLock.Lock()
	defer p.rwLock.Unlock()
	cb()
}

func (p *AsyncPool) getStatus() int {
	p.rwLock.RLock()
	defer p.rwLock.RUnlock()
	return p.status
}

func (p *AsyncPool) HasStarted() bool {
	return p.getStatus() > IDLE
}

func (p *AsyncPool) NumWorkers() int {
	return p.numWorkers
}

func (p *AsyncPool) NumBusyWorkers() int {
	p.rwLock.RLock()
	defer p.rwLock.RUnlock()
	return p.numBusyWorker
}

func (p *AsyncPool) Context() context.Context {
	return p.context
}

func (p *AsyncPool) Start() {
	started := false
	p.withWrite(func() {
		if p.status != IDLE {
			return
		}
		p.status = RUNNING
		started = true
	})
	if !started {
		return
	}
	p.stopWaitGroup.Add(p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		go p.worker(i)
	}
	go func() {
		p.stopWaitGroup.Wait()
		p.withWrite(func() {
			p.status = TERMINATED
		})
		p.logger.Debugf("all %d workers have terminated", p.numWorkers)
	}()
	p.logger.Debugf("pool started with %d workers", p.numWorkers)
}

func (p *AsyncPool) worker(wi int) {
	defer p.stopWaitGroup.Done()
	for {
		select {
		case task, isOpen := <-p.channel:
			if !isOpen {
				return
			}
			p.runTask(wi, task)
		case <-p.context.Done():
			return
		}
	}
}

func (p *AsyncPool) runTask(wi int, task AsyncTask) {
	p.withWrite(func() {
		p.numBusyWorker++
	})
	defer p.withWrite(func() {
		p.numBusyWorker--
	})
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("worker %d recovered from task panic: %v", wi, r)
		}
	}()
	task()
}

// Stop rejects further tasks and cancels the pool context. Queued tasks
// that no worker has picked up are dropped.
func (p *AsyncPool) Stop() {
	p.cancelFunc()
	p.withWrite(func() {
		switch p.status {
		case IDLE:
			p.status = TERMINATED
			close(p.channel)
		case RUNNING:
			p.status = TERMINATING
			close(p.channel)
		}
	})
}

// Wait blocks until every worker has returned.
func (p *AsyncPool) Wait() {
	p.stopWaitGroup.Wait()
}

func (p *AsyncPool) schedule(task AsyncTask) error {
	if !p.HasStarted() {
		p.Start()
	}
	p.rwLock.RLock()
	defer p.rwLock.RUnlock()
	if p.status != RUNNING || p.context.Err() != nil {
		return NewAsyncError(fmt.Sprintf("pool %s is not running", p.id))
	}
	select {
	case p.channel <- task:
		return nil
	default:
		p.logger.Warnf("task buffer full (%d queued, %d of %d workers busy), scheduling blocks", cap(p.channel), p.numBusyWorker, p.numWorkers)
	}
	select {
	case p.channel <- task:
		return nil
	case <-p.context.Done():
		return NewAsyncError(fmt.Sprintf("pool %s has been stopped", p.id))
	}
}

// Schedule blocks while the task buffer is full.
func (p *AsyncPool) Schedule(task AsyncTask) (*Barrier, error) {
	barrier := NewBarrier()
	err := p.schedule(func() {
		defer barrier.Open()
		task()
	})
	if err != nil {
		return nil, err
	}
	return barrier, nil
}

func (p *AsyncPool) Verbose(use bool) {
	p.logger.Verbose(use)
}

func getInRangeInt(value, min, max int) int {
	if value < min {
		return min
	} else if value > max {
		return max
	} else {
		return value
	}
}
