package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/soltixdb/insight/internal/utils"
)

// ResultRetention bounds how long unread results stay in their stream
const ResultRetention = 24 * time.Hour

// NATSPublisher implements Publisher using NATS JetStream
type NATSPublisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// newNATSPublisher connects to NATS with JetStream enabled
func newNATSPublisher(url, username, password string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("insight-publisher"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p, err := newNATSPublisherWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// newNATSPublisherWithConn wraps an existing connection
func newNATSPublisherWithConn(conn *nats.Conn) (*NATSPublisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return &NATSPublisher{conn: conn, js: js}, nil
}

// ensureStream creates a limits-retention stream for subject unless one already carries it
func (p *NATSPublisher) ensureStream(subject string) error {
	if name, err := p.js.StreamNameBySubject(subject); err == nil && name != "" {
		return nil
	}

	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     utils.StreamName(subject),
		Subjects: []string{subject},
		MaxAge:   ResultRetention,
		Storage:  nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
	}
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := p.ensureStream(subject); err != nil {
		return err
	}
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch queues every message asynchronously and waits for all acks
func (p *NATSPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	futures := make([]nats.PubAckFuture, 0, len(messages))
	for _, msg := range messages {
		if err := p.ensureStream(msg.Subject); err != nil {
			continue
		}
		future, err := p.js.PublishAsync(msg.Subject, msg.Data)
		if err != nil {
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-p.js.PublishAsyncComplete():
	case <-ctx.Done():
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	success := 0
	for _, future := range futures {
		select {
		case <-future.Ok():
			success++
		case <-future.Err():
		}
	}

	if success < len(messages) {
		return success, fmt.Errorf("published %d of %d messages", success, len(messages))
	}
	return success, nil
}

// Close drains pending publishes and closes the connection
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
	return nil
}
