package subscriber

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/utils"
)

type memoryMessage struct {
	subject string
	data    []byte
}

// memorySubscription represents an active subscription
type memorySubscription struct {
	handler MessageHandler
	ctx     context.Context
	cancel  context.CancelFunc
	ch      chan memoryMessage
}

// memoryBroker routes in-process messages to subscriptions by subject
type memoryBroker struct {
	subscribers map[string][]*memorySubscription
	mu          sync.RWMutex
}

var broker = &memoryBroker{subscribers: make(map[string][]*memorySubscription)}

func (b *memoryBroker) add(subject string, sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[subject] = append(b.subscribers[subject], sub)
}

func (b *memoryBroker) remove(subject string, sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[subject]
	for i, s := range subs {
		if s == sub {
			b.subscribers[subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[subject]) == 0 {
		delete(b.subscribers, subject)
	}
}

// PublishToMemory delivers a message to every memory subscription on subject.
// It returns the number of subscriptions that accepted it.
func PublishToMemory(subject string, data []byte) int {
	broker.mu.RLock()
	subs := append([]*memorySubscription(nil), broker.subscribers[subject]...)
	broker.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		select {
		case sub.ch <- memoryMessage{subject: subject, data: data}:
			delivered++
		case <-sub.ctx.Done():
		default:
			logging.Global().Warn("Memory subscriber channel full, dropping message", "subject", subject)
		}
	}
	return delivered
}

// MemorySubscriber implements Subscriber for the in-process broker
type MemorySubscriber struct {
	cfg           Config
	log           *logging.Logger
	subscriptions map[string]*memorySubscription
	mu            sync.Mutex
}

// NewMemorySubscriber creates a new in-memory subscriber
func NewMemorySubscriber(cfg Config) *MemorySubscriber {
	cfg = cfg.withDefaults()
	return &MemorySubscriber{
		cfg:           cfg,
		log:           cfg.Logger.Component("subscriber.memory"),
		subscriptions: make(map[string]*memorySubscription),
	}
}

// Subscribe subscribes to a subject with the given handler
func (s *MemorySubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &memorySubscription{
		handler: handler,
		ctx:     subCtx,
		cancel:  cancel,
		ch:      make(chan memoryMessage, utils.DefaultBufferSize*10),
	}

	s.subscriptions[subject] = sub
	broker.add(subject, sub)

	go s.consume(sub)

	s.log.Info("Subscribed to in-memory subject", "subject", subject)
	return nil
}

// consume handles messages, retrying failures up to MaxRetries deliveries
func (s *MemorySubscriber) consume(sub *memorySubscription) {
	for {
		select {
		case <-sub.ctx.Done():
			return
		case msg := <-sub.ch:
			if sub.ctx.Err() != nil {
				return
			}
			for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
				err := sub.handler(sub.ctx, msg.subject, msg.data)
				if err == nil {
					break
				}
				s.log.Error("Failed to handle message",
					"subject", msg.subject, "attempt", attempt, "error", err)
				if attempt == s.cfg.MaxRetries {
					break
				}
				select {
				case <-sub.ctx.Done():
					return
				case <-time.After(retryBackoff(attempt)):
				}
			}
		}
	}
}

// Unsubscribe unsubscribes from a subject
func (s *MemorySubscriber) Unsubscribe(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	sub.cancel()
	broker.remove(subject, sub)
	delete(s.subscriptions, subject)
	return nil
}

// Close closes all subscriptions
func (s *MemorySubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for subject, sub := range s.subscriptions {
		sub.cancel()
		broker.remove(subject, sub)
	}
	s.subscriptions = make(map[string]*memorySubscription)
	return nil
}
