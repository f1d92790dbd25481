package bus

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// MemoryBus is an in-process Bus. Used by tests and single-node deployments.
// A subscriber that falls more than subscriberBuffer messages behind starts
// losing the oldest unread ones, matching pub/sub semantics where slow
// consumers never block the publisher.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string][]chan Message
}

// NewMemory creates an empty in-process bus.
func NewMemory() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan Message)}
}

// Publish implements Bus.
func (b *MemoryBus) Publish(_ context.Context, msg Message) error {
	channel := Channel(msg.JobID)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[channel] {
		select {
		case sub <- msg:
		default:
			// Drop the oldest message to make room for the newest.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- msg:
			default:
			}
		}
	}
	return nil
}

// Subscribe implements Bus.
func (b *MemoryBus) Subscribe(_ context.Context, jobID string) (<-chan Message, func(), error) {
	channel := Channel(jobID)
	sub := make(chan Message, subscriberBuffer)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subs := b.subs[channel]
			for i, s := range subs {
				if s == sub {
					b.subs[channel] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			close(sub)
		})
	}

	return sub, cancel, nil
}
