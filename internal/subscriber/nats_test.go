package subscriber

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/insight/internal/utils"
)

func publishJS(t *testing.T, url, subject string, data []byte) {
	t.Helper()
	conn, err := nats.Connect(url)
	require.NoError(t, err)
	defer conn.Close()

	js, err := conn.JetStream()
	require.NoError(t, err)
	_, err = js.Publish(subject, data)
	require.NoError(t, err)
}

func TestNATSSubscriber_Receive(t *testing.T) {
	url := setupTestNATS(t)

	sub, err := NewNATSSubscriber(url, "", "", testConfig())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	received := make(chan []byte, 1)
	err = sub.Subscribe(context.Background(), "jobs.request", func(ctx context.Context, subject string, data []byte) error {
		received <- data
		return nil
	})
	require.NoError(t, err)

	publishJS(t, url, "jobs.request", []byte(`{"id":"1"}`))

	select {
	case data := <-received:
		assert.Equal(t, `{"id":"1"}`, string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	// Acked messages are removed from a work-queue stream
	conn, err := nats.Connect(url)
	require.NoError(t, err)
	defer conn.Close()
	js, err := conn.JetStream()
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		info, err := js.StreamInfo(utils.StreamName("jobs.request"))
		return err == nil && info.State.Msgs == 0
	}, 5*time.Second, 50*time.Millisecond)

	info, err := js.StreamInfo(utils.StreamName("jobs.request"))
	require.NoError(t, err)
	assert.Equal(t, nats.WorkQueuePolicy, info.Config.Retention)
}

func TestNATSSubscriber_RedeliversOnError(t *testing.T) {
	url := setupTestNATS(t)

	cfg := testConfig()
	cfg.MaxRetries = 3
	sub, err := NewNATSSubscriber(url, "", "", cfg)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	var attempts atomic.Int32
	err = sub.Subscribe(context.Background(), "jobs.flaky", func(context.Context, string, []byte) error {
		if attempts.Add(1) < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)

	publishJS(t, url, "jobs.flaky", []byte("x"))

	assert.Eventually(t, func() bool { return attempts.Load() == 2 }, 5*time.Second, 20*time.Millisecond)
}

func TestNATSSubscriber_DuplicateAndUnsubscribe(t *testing.T) {
	url := setupTestNATS(t)

	sub, err := NewNATSSubscriber(url, "", "", testConfig())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	noop := func(context.Context, string, []byte) error { return nil }
	require.NoError(t, sub.Subscribe(context.Background(), "jobs.dup", noop))
	assert.Error(t, sub.Subscribe(context.Background(), "jobs.dup", noop))

	require.NoError(t, sub.Unsubscribe("jobs.dup"))
	assert.Error(t, sub.Unsubscribe("jobs.dup"))
}

func TestNATSSubscriber_DurableName(t *testing.T) {
	sub := &NATSSubscriber{cfg: Config{ConsumerGroup: "insight-workers"}}
	assert.Equal(t, "insight-workers-jobs_request", sub.durableName("jobs.request"))
}

func TestNATSSubscriber_ConnectError(t *testing.T) {
	_, err := NewNATSSubscriber("nats://127.0.0.1:1", "", "", testConfig())
	assert.Error(t, err)
}
