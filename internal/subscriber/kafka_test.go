package subscriber

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isKafkaAvailable() bool {
	return os.Getenv("KAFKA_TEST") == "1"
}

func getKafkaBrokers() []string {
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		return strings.Split(brokers, ",")
	}
	return []string{"localhost:9092"}
}

func TestKafkaSubscriber_Duplicate(t *testing.T) {
	sub, err := NewKafkaSubscriber([]string{"127.0.0.1:1"}, testConfig())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	noop := func(context.Context, string, []byte) error { return nil }
	require.NoError(t, sub.Subscribe(ctx, "jobs.request", noop))
	assert.Error(t, sub.Subscribe(ctx, "jobs.request", noop))
	require.NoError(t, sub.Unsubscribe("jobs.request"))
	assert.Error(t, sub.Unsubscribe("jobs.request"))
}

func TestKafkaSubscriber_Receive(t *testing.T) {
	if !isKafkaAvailable() {
		t.Skip("Kafka not available, skipping test")
	}

	topic := "insight-sub-test-" + time.Now().Format("150405")
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	w := &kafka.Writer{Addr: kafka.TCP(getKafkaBrokers()...), Topic: topic, AllowAutoTopicCreation: true}
	require.NoError(t, w.WriteMessages(ctx, kafka.Message{Value: []byte("payload")}))
	_ = w.Close()

	sub, err := NewKafkaSubscriber(getKafkaBrokers(), testConfig())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	received := make(chan string, 1)
	require.NoError(t, sub.Subscribe(ctx, topic, func(ctx context.Context, subject string, data []byte) error {
		received <- string(data)
		return nil
	}))

	select {
	case got := <-received:
		assert.Equal(t, "payload", got)
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}
