package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/pkg/event"
)

func TestFireCallsListenersInOrder(t *testing.T) {
	d := event.NewDispatcher()
	var got []string
	d.Listen("order.updated", func(_ context.Context, p any) { got = append(got, "a:"+p.(string)) })
	d.Listen("order.updated", func(_ context.Context, p any) { got = append(got, "b:"+p.(string)) })
	d.Listen("other", func(context.Context, any) { got = append(got, "x") })

	d.Fire(context.Background(), "order.updated", "1")

	assert.Equal(t, []string{"a:1", "b:1"}, got)
}

func TestFireSurvivesPanickingListener(t *testing.T) {
	d := event.NewDispatcher()
	called := false
	d.Listen("e", func(context.Context, any) { panic("boom") })
	d.Listen("e", func(context.Context, any) { called = true })

	d.Fire(context.Background(), "e", nil)
	assert.True(t, called)
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *event.Dispatcher
	assert.NotPanics(t, func() { d.Fire(context.Background(), "e", 1) })
}

func TestFireAsyncDetachesCancellation(t *testing.T) {
	d := event.NewDispatcher()
	done := make(chan error, 1)
	d.Listen("e", func(ctx context.Context, _ any) { done <- ctx.Err() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.FireAsync(ctx, "e", nil)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener not called")
	}
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaForwarderPublishesJSON(t *testing.T) {
	w := &fakeWriter{}
	fwd := event.NewKafkaForwarder(w, time.Second)

	type payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	h := fwd.Handler(func(p any) string { return p.(payload).ID })
	h(context.Background(), payload{ID: "abc", Status: "shipped"})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "abc", string(w.msgs[0].Key))
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "shipped", decoded["status"])
}

func TestKafkaForwarderSwallowsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	h := event.NewKafkaForwarder(w, time.Second).Handler(func(any) string { return "k" })

	assert.NotPanics(t, func() { h(context.Background(), map[string]int{"a": 1}) })
	assert.Len(t, w.msgs, 1)
}

func TestKafkaWriterFlushesSingleMessagesPromptly(t *testing.T) {
	w := event.NewKafkaWriter([]string{"localhost:9092"}, "order-status-updated")
	defer w.Close()

	assert.Equal(t, "order-status-updated", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	assert.Equal(t, event.KafkaBatchTimeout, w.BatchTimeout)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
}
