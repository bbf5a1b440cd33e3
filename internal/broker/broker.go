package broker

import (
	"context"
	"sync"

	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// Broker fans appended messages out to subscribed listeners, the push
// alternative to polling. Delivery is best effort: a subscriber that
// misses an event still converges on the next poll of the store.
type Broker interface {
	Publish(ctx context.Context, roomID string, msg room.Message) error
	// Subscribe returns a channel of messages for the room. The
	// channel is closed when ctx is cancelled.
	Subscribe(ctx context.Context, roomID string) (<-chan room.Message, error)
}

// MemoryBroker is the single-instance broker: plain channels, no
// external dependency.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string][]chan room.Message
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]chan room.Message)}
}

// Publish delivers to every live subscriber of the room. A subscriber
// whose buffer is full is skipped rather than blocking the append.
func (b *MemoryBroker) Publish(_ context.Context, roomID string, msg room.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[roomID] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe registers a buffered channel and removes it once ctx ends.
func (b *MemoryBroker) Subscribe(ctx context.Context, roomID string) (<-chan room.Message, error) {
	ch := make(chan room.Message, 16)

	b.mu.Lock()
	b.subs[roomID] = append(b.subs[roomID], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		subs := b.subs[roomID]
		for i, sub := range subs {
			if sub == ch {
				b.subs[roomID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
