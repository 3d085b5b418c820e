package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/utils"
)

// Stream settings for request subjects
const (
	RequestRetention = 24 * time.Hour
	AckWait          = 30 * time.Second
)

// NATSSubscriber implements Subscriber for NATS JetStream. Instances in
// the same consumer group share one durable queue consumer per subject.
type NATSSubscriber struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	cfg           Config
	log           *logging.Logger
	subscriptions map[string]*nats.Subscription
	mu            sync.Mutex
}

// NewNATSSubscriber creates a new NATS subscriber
func NewNATSSubscriber(url, username, password string, cfg Config) (*NATSSubscriber, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger.Component("subscriber.nats")

	opts := []nats.Option{
		nats.Name(fmt.Sprintf("insight-subscriber-%s", cfg.InstanceID)),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSSubscriber{
		conn:          conn,
		js:            js,
		cfg:           cfg,
		log:           log,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// durableName is shared by every instance of the consumer group
func (s *NATSSubscriber) durableName(subject string) string {
	return utils.SanitizeName(s.cfg.ConsumerGroup + "-" + subject)
}

// Subscribe subscribes to a subject with the given handler
func (s *NATSSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	if err := s.ensureStream(subject); err != nil {
		return err
	}

	durable := s.durableName(subject)

	sub, err := s.js.QueueSubscribe(subject, durable, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			_ = msg.Nak()
			return
		}

		if err := handler(ctx, msg.Subject, msg.Data); err != nil {
			s.log.Error("Failed to handle message",
				"subject", msg.Subject,
				"error", err,
				"data_preview", string(msg.Data[:min(100, len(msg.Data))]))
			attempt := 1
			if meta, err := msg.Metadata(); err == nil {
				attempt = int(meta.NumDelivered)
			}
			_ = msg.NakWithDelay(retryBackoff(attempt))
			return
		}
		_ = msg.Ack()
	},
		nats.ManualAck(),
		nats.MaxAckPending(s.cfg.BatchSize),
		nats.AckWait(AckWait),
		nats.MaxDeliver(s.cfg.MaxRetries),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.subscriptions[subject] = sub
	s.log.Info("Subscribed to subject", "subject", subject, "durable", durable)
	return nil
}

// ensureStream creates a work-queue stream for subject unless one already carries it
func (s *NATSSubscriber) ensureStream(subject string) error {
	if name, err := s.js.StreamNameBySubject(subject); err == nil && name != "" {
		return nil
	}

	streamName := utils.StreamName(subject)
	_, err := s.js.AddStream(&nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    RequestRetention,
		Storage:   nats.FileStorage,
		Replicas:  1,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}
	return nil
}

// Unsubscribe unsubscribes from a subject. The durable consumer survives
// so pending work is picked up by the rest of the group.
func (s *NATSSubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Drain(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
	}

	delete(s.subscriptions, subject)
	return nil
}

// Close drains all subscriptions and closes the connection
func (s *NATSSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions = make(map[string]*nats.Subscription)
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
	return nil
}
