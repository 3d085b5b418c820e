package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getRedisURL returns REDIS_URL or the local default
func getRedisURL() string {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}
	return "redis://localhost:6379"
}

func requireRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(redisOptions(getRedisURL(), "", 0))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis not available, skipping test")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions("redis://localhost:6380/2", "secret", 0)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)

	opts = redisOptions("cache:6379", "", 3)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)

	opts = redisOptions("", "", 0)
	assert.Equal(t, "localhost:6379", opts.Addr)
}

func TestRedisPublisher_Publish(t *testing.T) {
	client := requireRedis(t)
	ctx := context.Background()

	pub, err := newRedisPublisher(RedisConfig{URL: getRedisURL(), Stream: "test-insight"})
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	stream := "test-insight:jobs.result"
	client.Del(ctx, stream)
	defer client.Del(ctx, stream)

	require.NoError(t, pub.Publish(ctx, "jobs.result", []byte("one")))
	n, err := pub.PublishBatch(ctx, []BatchMessage{
		{Subject: "jobs.result", Data: []byte("two")},
		{Subject: "jobs.result", Data: []byte("three")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	length, err := client.XLen(ctx, stream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)
}
