package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisStreamPrefix matches the subscriber's default
const DefaultRedisStreamPrefix = "insight"

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // redis://host:port or a bare host:port
	Password string
	DB       int
	Stream   string // Stream prefix (default: "insight")
	MaxLen   int64  // Approximate stream cap, 0 keeps everything
}

// RedisPublisher implements Publisher using Redis Streams
type RedisPublisher struct {
	client *redis.Client
	config RedisConfig
}

// redisOptions parses a redis:// URL, falling back to treating it as an address
func redisOptions(url, password string, db int) *redis.Options {
	if opts, err := redis.ParseURL(url); err == nil {
		if password != "" {
			opts.Password = password
		}
		return opts
	}
	if url == "" {
		url = "localhost:6379"
	}
	return &redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	}
}

// newRedisPublisher creates a Redis Streams publisher and checks connectivity
func newRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(redisOptions(cfg.URL, cfg.Password, cfg.DB))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if cfg.Stream == "" {
		cfg.Stream = DefaultRedisStreamPrefix
	}

	return &RedisPublisher{client: client, config: cfg}, nil
}

// streamName converts a subject to a Redis stream name: {prefix}:{subject}
func (p *RedisPublisher) streamName(subject string) string {
	return fmt.Sprintf("%s:%s", p.config.Stream, subject)
}

func (p *RedisPublisher) addArgs(subject string, data []byte) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: p.streamName(subject),
		MaxLen: p.config.MaxLen,
		Approx: p.config.MaxLen > 0,
		ID:     "*",
		Values: map[string]interface{}{"data": data},
	}
}

// Publish appends a message to the subject's stream
func (p *RedisPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := p.client.XAdd(ctx, p.addArgs(subject, data)).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", p.streamName(subject), err)
	}
	return nil
}

// PublishBatch publishes multiple messages in one pipeline
func (p *RedisPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	pipe := p.client.Pipeline()
	for _, msg := range messages {
		pipe.XAdd(ctx, p.addArgs(msg.Subject, msg.Data))
	}

	cmds, err := pipe.Exec(ctx)
	success := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			success++
		}
	}
	if err != nil {
		return success, fmt.Errorf("failed to execute batch publish: %w", err)
	}
	return success, nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
