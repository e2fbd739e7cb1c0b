// Package event is an in-process event dispatcher. Listeners run in the
// caller's goroutine with Fire or concurrently with FireAsync.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/souq/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string][]Handler{}}
}

// Listen registers handler for event.
func (d *Dispatcher) Listen(event string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
}

// Fire calls every listener of event in registration order. A panicking
// listener is logged and does not stop the others. A nil Dispatcher is a
// no-op.
func (d *Dispatcher) Fire(ctx context.Context, event string, payload any) {
	for _, h := range d.snapshot(event) {
		call(ctx, event, h, payload)
	}
}

// FireAsync runs each listener in its own goroutine and returns at once.
// Listeners get a context detached from ctx's cancellation.
func (d *Dispatcher) FireAsync(ctx context.Context, event string, payload any) {
	bg := context.WithoutCancel(ctx)
	for _, h := range d.snapshot(event) {
		go call(bg, event, h, payload)
	}
}

// Flush removes all listeners.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = map[string][]Handler{}
}

func (d *Dispatcher) snapshot(event string) []Handler {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Handler(nil), d.handlers[event]...)
}

func call(ctx context.Context, event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", event, "panic", r)
		}
	}()
	h(ctx, payload)
}
