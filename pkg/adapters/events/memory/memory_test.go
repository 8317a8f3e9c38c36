package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aescanero/agor/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	var got []protocol.Event
	require.NoError(t, b.Subscribe(ctx, "run.events:r1", func(_ context.Context, ev protocol.Event) error {
		got = append(got, ev)
		return nil
	}))

	require.NoError(t, b.Publish(ctx, "run.events:r1", protocol.RunStarted("t", "r1")))
	require.NoError(t, b.Publish(ctx, "run.events:r1", protocol.RunFinished("t", "r1")))

	require.Len(t, got, 2)
	assert.Equal(t, protocol.EventRunStarted, got[0].Type)
	assert.Equal(t, protocol.EventRunFinished, got[1].Type)
}

func TestPublishIsTopicScoped(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	delivered := 0
	require.NoError(t, b.Subscribe(ctx, "run.events:other", func(context.Context, protocol.Event) error {
		delivered++
		return nil
	}))

	require.NoError(t, b.Publish(ctx, "run.events:r1", protocol.RunStarted("t", "r1")))
	assert.Zero(t, delivered)
}

func TestFailingHandlerDoesNotBlockOthers(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	second := 0
	require.NoError(t, b.Subscribe(ctx, "topic", func(context.Context, protocol.Event) error {
		return errors.New("broken consumer")
	}))
	require.NoError(t, b.Subscribe(ctx, "topic", func(context.Context, protocol.Event) error {
		second++
		return nil
	}))

	require.NoError(t, b.Publish(ctx, "topic", protocol.RunStarted("t", "r")))
	assert.Equal(t, 1, second)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	b := NewBus()
	subCtx, cancel := context.WithCancel(context.Background())

	delivered := 0
	require.NoError(t, b.Subscribe(subCtx, "topic", func(context.Context, protocol.Event) error {
		delivered++
		return nil
	}))

	cancel()
	// Unsubscription runs on a goroutine watching ctx.Done.
	assert.Eventually(t, func() bool {
		_ = b.Publish(context.Background(), "topic", protocol.RunStarted("t", "r"))
		before := delivered
		_ = b.Publish(context.Background(), "topic", protocol.RunStarted("t", "r"))
		return delivered == before
	}, time.Second, 10*time.Millisecond)
}

func TestClosedBusIgnoresSubscribe(t *testing.T) {
	b := NewBus()
	require.NoError(t, b.Close())

	delivered := 0
	require.NoError(t, b.Subscribe(context.Background(), "topic", func(context.Context, protocol.Event) error {
		delivered++
		return nil
	}))
	require.NoError(t, b.Publish(context.Background(), "topic", protocol.RunStarted("t", "r")))
	assert.Zero(t, delivered)
}
