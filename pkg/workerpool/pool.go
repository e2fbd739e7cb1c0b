// Package workerpool runs tasks on a fixed number of goroutines.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	err := pool.Run(ctx, tasks...)
//
// Submit never blocks and reports ErrPoolFull under backpressure; SubmitWait
// and Run block until a worker slot frees up or ctx is done.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrPoolFull = errors.New("workerpool: pool is full")

var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Task is one unit of work handed to Run.
type Task func(ctx context.Context) error

type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closeCh chan struct{}
	size    int

	// sending holds senders off close(tasks); Shutdown takes the write lock.
	sending sync.RWMutex
}

// New starts size workers; size < 1 is treated as 1.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks:   make(chan func(), size*2),
		closeCh: make(chan struct{}),
		size:    size,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Size is the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.sending.RLock()
	defer p.sending.RUnlock()

	select {
	case <-p.closeCh:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until task is queued, the pool closes or ctx is done.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.sending.RLock()
	defer p.sending.RUnlock()

	select {
	case <-p.closeCh:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.closeCh:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task:
		return nil
	}
}

// Run executes every task on the pool and waits for all of them. The errors
// of failed tasks are joined; a panicking task is reported as an error.
// Tasks that could not be queued before ctx ended count as failed with
// ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks ...Task) error {
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		i, task := i, task
		err := p.SubmitWait(ctx, func() {
			defer wg.Done()
			errs[i] = runTask(ctx, task)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
// Safe to call more than once, and concurrently with Submit and SubmitWait.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		// closeCh releases blocked senders before tasks can be closed.
		close(p.closeCh)
		p.sending.Lock()
		close(p.tasks)
		p.sending.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

func safeRun(task func()) {
	defer func() { recover() }() //nolint:errcheck
	task()
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: task panicked: %v", r)
		}
	}()
	return task(ctx)
}
