package subscriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/soltixdb/insight/internal/logging"
)

// KafkaSubscriber implements Subscriber for Kafka consumer groups
type KafkaSubscriber struct {
	brokers []string
	cfg     Config
	log     *logging.Logger
	readers map[string]*kafka.Reader
	cancels map[string]context.CancelFunc
	mu      sync.Mutex
}

// NewKafkaSubscriber creates a new Kafka subscriber
func NewKafkaSubscriber(brokers []string, cfg Config) (*KafkaSubscriber, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	cfg = cfg.withDefaults()

	return &KafkaSubscriber{
		brokers: brokers,
		cfg:     cfg,
		log:     cfg.Logger.Component("subscriber.kafka"),
		readers: make(map[string]*kafka.Reader),
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// Subscribe subscribes to a topic with the given handler
func (s *KafkaSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.readers[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           s.brokers,
		GroupID:           s.cfg.ConsumerGroup,
		Topic:             subject,
		MinBytes:          1,
		MaxBytes:          10e6, // 10MB
		MaxWait:           time.Second,
		StartOffset:       kafka.FirstOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			s.log.Debug(fmt.Sprintf(msg, args...))
		}),
	})

	subCtx, cancel := context.WithCancel(ctx)
	s.readers[subject] = reader
	s.cancels[subject] = cancel

	go s.consume(subCtx, reader, subject, handler)

	s.log.Info("Subscribed to Kafka topic", "topic", subject, "group", s.cfg.ConsumerGroup)
	return nil
}

// consume commits each message once the handler accepts it. A failing
// message is retried in place up to MaxRetries times, then committed so
// the partition is not blocked.
func (s *KafkaSubscriber) consume(ctx context.Context, reader *kafka.Reader, subject string, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			s.log.Error("Failed to fetch message", "topic", subject, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
			if err = handler(ctx, subject, msg.Value); err == nil {
				break
			}
			s.log.Error("Failed to handle message",
				"topic", subject, "offset", msg.Offset, "attempt", attempt, "error", err)
			if attempt < s.cfg.MaxRetries {
				select {
				case <-ctx.Done():
				case <-time.After(retryBackoff(attempt)):
				}
			}
		}
		if ctx.Err() != nil {
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			s.log.Error("Failed to commit message", "topic", subject, "offset", msg.Offset, "error", err)
		}
	}
}

// Unsubscribe unsubscribes from a topic
func (s *KafkaSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, exists := s.cancels[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}
	cancel()
	delete(s.cancels, subject)

	if reader, ok := s.readers[subject]; ok {
		delete(s.readers, subject)
		if err := reader.Close(); err != nil {
			return fmt.Errorf("failed to close reader for %s: %w", subject, err)
		}
	}
	return nil
}

// Close closes all readers and subscriptions
func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = make(map[string]context.CancelFunc)

	var errs []error
	for topic, reader := range s.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader %s: %w", topic, err))
		}
	}
	s.readers = make(map[string]*kafka.Reader)
	return errors.Join(errs...)
}
