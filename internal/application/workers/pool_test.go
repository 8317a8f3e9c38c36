package workers

import (
	"context"
	"testing"
	"time"

	"github.com/aescanero/agor/pkg/adapters/metrics/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPool(size int) *Pool {
	return NewPool(size, noop.NewCollector(), zap.NewNop(), time.Minute)
}

func TestPoolAcquireRelease(t *testing.T) {
	p := newTestPool(2)
	ctx := context.Background()

	require.NoError(t, p.Acquire(ctx))
	require.NoError(t, p.Acquire(ctx))

	idle, busy := p.Status()
	assert.Equal(t, 0, idle)
	assert.Equal(t, 2, busy)

	p.Release()
	idle, busy = p.Status()
	assert.Equal(t, 1, idle)
	assert.Equal(t, 1, busy)
}

func TestPoolAcquireBlocksUntilRelease(t *testing.T) {
	p := newTestPool(1)
	ctx := context.Background()

	require.NoError(t, p.Acquire(ctx))

	acquired := make(chan error, 1)
	go func() {
		acquired <- p.Acquire(ctx)
	}()

	select {
	case <-acquired:
		t.Fatal("acquire should block while the pool is saturated")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release()
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock after release")
	}
}

func TestPoolAcquireRespectsContext(t *testing.T) {
	p := newTestPool(1)
	require.NoError(t, p.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolShutdownWaitsForRuns(t *testing.T) {
	p := newTestPool(1)
	require.NoError(t, p.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := p.Shutdown(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still in flight")
}

func TestPoolShutdownDrainsIdlePool(t *testing.T) {
	p := newTestPool(4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Shutdown(ctx))
	assert.Error(t, p.Acquire(context.Background()))
}

func TestHealthMonitorStatus(t *testing.T) {
	p := newTestPool(2)

	status := p.health.GetStatus()
	assert.True(t, status.Healthy)
	assert.Equal(t, 2, status.IdleSlots)
	assert.True(t, p.health.IsHealthy())

	require.NoError(t, p.Acquire(context.Background()))
	require.NoError(t, p.Acquire(context.Background()))

	status = p.health.GetStatus()
	assert.False(t, status.Healthy)
	assert.Equal(t, 2, status.BusySlots)
}
