package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/soltixdb/insight/internal/logging"
)

// RedisConfig represents Redis Streams connection settings
type RedisConfig struct {
	URL      string // redis://host:port or a bare host:port
	Password string
	DB       int
	Stream   string // Stream prefix, must match the publisher (default: "insight")
	Consumer string // Consumer name (default: the instance ID)
}

// RedisSubscriber implements Subscriber for Redis Streams consumer groups
type RedisSubscriber struct {
	client        *redis.Client
	streamPrefix  string
	consumer      string
	cfg           Config
	log           *logging.Logger
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

func redisOptions(rc RedisConfig) *redis.Options {
	if opts, err := redis.ParseURL(rc.URL); err == nil {
		if rc.Password != "" {
			opts.Password = rc.Password
		}
		return opts
	}
	addr := rc.URL
	if addr == "" {
		addr = "localhost:6379"
	}
	return &redis.Options{
		Addr:         addr,
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// NewRedisSubscriber creates a new Redis Streams subscriber
func NewRedisSubscriber(rc RedisConfig, cfg Config) (*RedisSubscriber, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(redisOptions(rc))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if rc.Stream == "" {
		rc.Stream = "insight"
	}
	if rc.Consumer == "" {
		rc.Consumer = cfg.InstanceID
	}

	return &RedisSubscriber{
		client:        client,
		streamPrefix:  rc.Stream,
		consumer:      rc.Consumer,
		cfg:           cfg,
		log:           cfg.Logger.Component("subscriber.redis"),
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

// streamName converts a subject to a Redis stream name: {prefix}:{subject}
func (s *RedisSubscriber) streamName(subject string) string {
	return fmt.Sprintf("%s:%s", s.streamPrefix, subject)
}

// Subscribe subscribes to a stream with the given handler
func (s *RedisSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streamName(subject)
	if _, exists := s.subscriptions[stream]; exists {
		return fmt.Errorf("already subscribed to stream: %s", stream)
	}

	err := s.client.XGroupCreateMkStream(ctx, stream, s.cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s.subscriptions[stream] = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(subCtx, stream, subject, handler)
	}()

	s.log.Info("Subscribed to Redis stream", "stream", stream, "group", s.cfg.ConsumerGroup, "consumer", s.consumer)
	return nil
}

// consume reads new entries for this consumer, acking each one the handler accepts
func (s *RedisSubscriber) consume(ctx context.Context, stream, subject string, handler MessageHandler) {
	for ctx.Err() == nil {
		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.cfg.ConsumerGroup,
			Consumer: s.consumer,
			Streams:  []string{stream, ">"},
			Count:    int64(s.cfg.BatchSize),
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.log.Error("Failed to read from stream", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, st := range streams {
			for _, message := range st.Messages {
				s.handle(ctx, stream, subject, message, handler)
			}
		}
	}
}

func (s *RedisSubscriber) handle(ctx context.Context, stream, subject string, message redis.XMessage, handler MessageHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		s.log.Warn("Invalid message format", "stream", stream, "id", message.ID)
		s.client.XAck(ctx, stream, s.cfg.ConsumerGroup, message.ID)
		return
	}

	if err := handler(ctx, subject, []byte(data)); err != nil {
		// Left pending for redelivery via XCLAIM by a recovering consumer
		s.log.Error("Failed to handle message", "stream", stream, "id", message.ID, "error", err)
		return
	}

	if err := s.client.XAck(ctx, stream, s.cfg.ConsumerGroup, message.ID).Err(); err != nil {
		s.log.Error("Failed to ACK message", "stream", stream, "id", message.ID, "error", err)
	}
}

// Unsubscribe unsubscribes from a stream
func (s *RedisSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streamName(subject)
	cancel, exists := s.subscriptions[stream]
	if !exists {
		return fmt.Errorf("not subscribed to stream: %s", stream)
	}

	cancel()
	delete(s.subscriptions, stream)
	return nil
}

// Close stops all consumers and closes the connection
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	for _, cancel := range s.subscriptions {
		cancel()
	}
	s.subscriptions = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	s.wg.Wait()

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	return nil
}
