package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/agor/pkg/ports"
	"go.uber.org/zap"
)

// Pool is a fixed set of run slots. A run acquires a slot before
// execution and releases it when done; Acquire blocks while the pool
// is saturated.
type Pool struct {
	size    int
	slots   chan struct{}
	metrics ports.MetricsCollector
	logger  *zap.Logger
	health  *HealthMonitor

	mu     sync.Mutex
	busy   int
	closed bool
}

// NewPool creates a run pool with the given number of slots.
func NewPool(size int, metrics ports.MetricsCollector, logger *zap.Logger, healthCheckInterval time.Duration) *Pool {
	p := &Pool{
		size:    size,
		slots:   make(chan struct{}, size),
		metrics: metrics,
		logger:  logger,
	}
	for i := 0; i < size; i++ {
		p.slots <- struct{}{}
	}
	p.health = NewHealthMonitor(p, healthCheckInterval, logger)
	return p
}

// Start begins health monitoring.
func (p *Pool) Start() error {
	p.logger.Info("starting run pool", zap.Int("slots", p.size))
	p.health.Start()
	return nil
}

// Acquire takes one slot, blocking until one frees or ctx ends.
func (p *Pool) Acquire(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("run pool is shut down")
	}
	p.mu.Unlock()

	select {
	case <-p.slots:
		p.mu.Lock()
		p.busy++
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (p *Pool) Release() {
	p.mu.Lock()
	if p.busy == 0 {
		p.mu.Unlock()
		p.logger.Error("release without matching acquire")
		return
	}
	p.busy--
	p.mu.Unlock()
	p.slots <- struct{}{}
}

// Status returns current idle and busy slot counts.
func (p *Pool) Status() (idle, busy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size - p.busy, p.busy
}

// Shutdown stops health monitoring and waits for all slots to return.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down run pool")

	p.health.Stop()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	// Drain every slot; full drain means no run is in flight.
	for i := 0; i < p.size; i++ {
		select {
		case <-p.slots:
		case <-ctx.Done():
			return fmt.Errorf("shutdown timeout: %d runs still in flight", p.size-i)
		}
	}

	p.logger.Info("run pool shut down complete")
	return nil
}
