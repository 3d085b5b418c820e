// Package subscriber consumes analysis job requests from a message broker.
package subscriber

import (
	"context"
	"time"

	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/utils"
)

// MessageHandler processes one message. A nil error acknowledges the
// message; an error leaves it for redelivery.
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// Subscriber defines the interface for message subscription
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with the given handler
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the subscriber and releases resources
	Close() error
}

// Config holds common subscriber configuration
type Config struct {
	// InstanceID names this consumer within the group
	InstanceID string

	// ConsumerGroup shares work between instances
	ConsumerGroup string

	// MaxRetries is the maximum number of deliveries for a failing message
	MaxRetries int

	// BatchSize is the number of messages to fetch in a batch (where applicable)
	BatchSize int

	Logger *logging.Logger
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		ConsumerGroup: "insight-workers",
		MaxRetries:    utils.DefaultMaxRetries,
		BatchSize:     utils.DefaultBatchSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = d.ConsumerGroup
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.InstanceID == "" {
		c.InstanceID = "insight-1"
	}
	if c.Logger == nil {
		c.Logger = logging.Global()
	}
	return c
}

// retryBackoff returns the delay before redelivery attempt+1, doubling from
// utils.DefaultRetryBackoff up to utils.MaxRetryBackoff
func retryBackoff(attempt int) time.Duration {
	d := utils.DefaultRetryBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= utils.MaxRetryBackoff {
			return utils.MaxRetryBackoff
		}
	}
	return d
}
