package ports

import (
	"context"

	"github.com/aescanero/agor/pkg/protocol"
)

// EventHandler processes one published protocol event.
type EventHandler func(ctx context.Context, event protocol.Event) error

// EventBus fans protocol events out to subscribers beyond the run's own
// response stream (websocket clients, external consumers).
type EventBus interface {
	Publish(ctx context.Context, topic string, event protocol.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}
