package queue

import (
	"context"
	"sync"

	"github.com/soltixdb/insight/internal/subscriber"
)

// MemoryPublisher implements Publisher in process. Messages are delivered
// to in-memory subscribers and kept for inspection in development and tests.
type MemoryPublisher struct {
	messages map[string][][]byte
	mu       sync.RWMutex
}

// NewMemoryPublisher creates a new in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		messages: make(map[string][][]byte),
	}
}

// Publish records the message and fans it out to memory subscribers
func (p *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	p.mu.Lock()
	p.messages[subject] = append(p.messages[subject], dataCopy)
	p.mu.Unlock()

	subscriber.PublishToMemory(subject, dataCopy)
	return nil
}

// PublishBatch publishes multiple messages
func (p *MemoryPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	for i, msg := range messages {
		if err := p.Publish(ctx, msg.Subject, msg.Data); err != nil {
			return i, err
		}
	}
	return len(messages), nil
}

// Messages returns a copy of everything published to subject
func (p *MemoryPublisher) Messages(subject string) [][]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([][]byte(nil), p.messages[subject]...)
}

// Close drops recorded messages
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = make(map[string][][]byte)
	return nil
}
