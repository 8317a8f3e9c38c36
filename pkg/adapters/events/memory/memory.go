package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aescanero/agor/pkg/ports"
	"github.com/aescanero/agor/pkg/protocol"
)

// Bus is an in-process EventBus. Delivery is synchronous and in
// subscription order, so a single-writer topic keeps protocol event
// ordering intact for every subscriber.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]ports.EventHandler
	closed bool
}

// NewBus creates an in-process event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]ports.EventHandler)}
}

// Publish delivers an event to every subscriber of the topic. A
// failing handler does not block delivery to the others.
func (b *Bus) Publish(ctx context.Context, topic string, event protocol.Event) error {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs[topic]))
	for id := range b.subs[topic] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]ports.EventHandler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[topic][id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		_ = h(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for a topic until ctx ends.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]ports.EventHandler)
	}
	b.subs[topic][id] = handler
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[topic], id)
		b.mu.Unlock()
	}()

	return nil
}

// Close drops all subscriptions.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[int]ports.EventHandler)
	return nil
}
