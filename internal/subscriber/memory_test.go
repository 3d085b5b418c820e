package subscriber

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySubscriber_Receive(t *testing.T) {
	sub := NewMemorySubscriber(testConfig())
	defer func() { _ = sub.Close() }()

	received := make(chan string, 1)
	err := sub.Subscribe(context.Background(), "mem.receive", func(ctx context.Context, subject string, data []byte) error {
		received <- subject + ":" + string(data)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, PublishToMemory("mem.receive", []byte("hello")))

	select {
	case got := <-received:
		assert.Equal(t, "mem.receive:hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemorySubscriber_NoSubscribers(t *testing.T) {
	assert.Zero(t, PublishToMemory("mem.nobody", []byte("x")))
}

func TestMemorySubscriber_DuplicateSubscribe(t *testing.T) {
	sub := NewMemorySubscriber(testConfig())
	defer func() { _ = sub.Close() }()

	noop := func(context.Context, string, []byte) error { return nil }
	require.NoError(t, sub.Subscribe(context.Background(), "mem.dup", noop))
	assert.Error(t, sub.Subscribe(context.Background(), "mem.dup", noop))
}

func TestMemorySubscriber_Unsubscribe(t *testing.T) {
	sub := NewMemorySubscriber(testConfig())
	defer func() { _ = sub.Close() }()

	noop := func(context.Context, string, []byte) error { return nil }
	require.NoError(t, sub.Subscribe(context.Background(), "mem.unsub", noop))
	require.NoError(t, sub.Unsubscribe("mem.unsub"))

	assert.Zero(t, PublishToMemory("mem.unsub", []byte("x")))
	assert.Error(t, sub.Unsubscribe("mem.unsub"))
}

func TestMemorySubscriber_RetriesFailures(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 3
	sub := NewMemorySubscriber(cfg)
	defer func() { _ = sub.Close() }()

	var attempts atomic.Int32
	err := sub.Subscribe(context.Background(), "mem.retry", func(context.Context, string, []byte) error {
		attempts.Add(1)
		return errors.New("not yet")
	})
	require.NoError(t, err)

	PublishToMemory("mem.retry", []byte("x"))

	assert.Eventually(t, func() bool { return attempts.Load() == 3 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestMemorySubscriber_StopsOnContextCancel(t *testing.T) {
	sub := NewMemorySubscriber(testConfig())
	defer func() { _ = sub.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	err := sub.Subscribe(ctx, "mem.cancel", func(context.Context, string, []byte) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	cancel()
	PublishToMemory("mem.cancel", []byte("x"))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
