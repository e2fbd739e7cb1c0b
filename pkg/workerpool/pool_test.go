package workerpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitWait(context.Background(), func() {
			defer wg.Done()
			count.Add(1)
		}))
	}

	wg.Wait()
	assert.EqualValues(t, n, count.Load())
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.SubmitWait(context.Background(), func() {
		close(started)
		<-blocker
	}))
	<-started

	// queue holds 2× workers
	_ = pool.Submit(func() {})
	_ = pool.Submit(func() {})

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)
	close(blocker)
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(context.Background(), func() {}), workerpool.ErrPoolClosed)
}

func TestPool_SubmitWaitHonoursContext(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	defer close(blocker)
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.SubmitWait(context.Background(), func() { <-blocker }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.SubmitWait(ctx, func() {}), context.DeadlineExceeded)
}

func TestPool_RunJoinsErrors(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Shutdown()

	boom := errors.New("boom")
	var ran atomic.Int64
	ok := func(context.Context) error { ran.Add(1); return nil }

	err := pool.Run(context.Background(), ok, func(context.Context) error { ran.Add(1); return boom }, ok, ok)

	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 4, ran.Load())
}

func TestPool_RunReportsPanics(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()

	err := pool.Run(context.Background(), func(context.Context) error { panic("bad image") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad image")

	// workers survive
	assert.NoError(t, pool.Run(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_PanicRecovery(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)
	_ = pool.SubmitWait(context.Background(), func() {
		defer wg.Done()
		panic("recovered")
	})
	wg.Wait()

	done := make(chan struct{})
	_ = pool.SubmitWait(context.Background(), func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not recover from panic")
	}
}

func TestPool_ShutdownWhileSubmitting(t *testing.T) {
	pool := workerpool.New(1)

	blocker := make(chan struct{})
	require.NoError(t, pool.SubmitWait(context.Background(), func() { <-blocker }))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- pool.SubmitWait(context.Background(), func() {})
		}()
	}

	// let some senders block on the full queue
	time.Sleep(20 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	close(blocker)

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.ErrorIs(t, pool.SubmitWait(context.Background(), func() {}), workerpool.ErrPoolClosed)
}
