package subscriber

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisURL() string {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}
	return "redis://localhost:6379"
}

func requireRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(redisOptions(RedisConfig{URL: getRedisURL()}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis not available, skipping test")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisSubscriber_Receive(t *testing.T) {
	client := requireRedis(t)
	ctx := context.Background()

	stream := "test-insight:jobs.request"
	client.Del(ctx, stream)
	defer client.Del(ctx, stream)

	sub, err := NewRedisSubscriber(RedisConfig{URL: getRedisURL(), Stream: "test-insight"}, testConfig())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	received := make(chan string, 1)
	err = sub.Subscribe(ctx, "jobs.request", func(ctx context.Context, subject string, data []byte) error {
		received <- string(data)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: map[string]interface{}{"data": "payload"}}).Err())

	select {
	case got := <-received:
		assert.Equal(t, "payload", got)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	assert.Eventually(t, func() bool {
		pending, err := client.XPending(ctx, stream, testConfig().ConsumerGroup).Result()
		return err == nil && pending.Count == 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestRedisSubscriber_ConnectError(t *testing.T) {
	_, err := NewRedisSubscriber(RedisConfig{URL: "redis://127.0.0.1:1"}, testConfig())
	assert.Error(t, err)
}
