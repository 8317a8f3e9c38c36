package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthMonitor periodically samples pool occupancy.
type HealthMonitor struct {
	pool     *Pool
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// HealthStatus is one occupancy sample of the run pool.
type HealthStatus struct {
	TotalSlots int
	IdleSlots  int
	BusySlots  int
	Healthy    bool
	Timestamp  time.Time
}

// NewHealthMonitor creates a health monitor for the pool.
func NewHealthMonitor(pool *Pool, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		pool:     pool,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the monitoring loop.
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop ends the monitoring loop.
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.stopCh)
}

func (h *HealthMonitor) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.checkHealth()
		}
	}
}

func (h *HealthMonitor) checkHealth() {
	status := h.GetStatus()

	h.logger.Debug("run pool health check",
		zap.Int("total", status.TotalSlots),
		zap.Int("idle", status.IdleSlots),
		zap.Int("busy", status.BusySlots),
		zap.Bool("healthy", status.Healthy))

	h.pool.metrics.RecordRunnerSlots(status.IdleSlots, status.BusySlots)

	if status.BusySlots == status.TotalSlots {
		h.logger.Warn("run pool saturated, new runs will queue",
			zap.Int("total", status.TotalSlots))
	}
}

// GetStatus returns the current occupancy sample.
func (h *HealthMonitor) GetStatus() *HealthStatus {
	idle, busy := h.pool.Status()
	return &HealthStatus{
		TotalSlots: idle + busy,
		IdleSlots:  idle,
		BusySlots:  busy,
		Healthy:    idle > 0,
		Timestamp:  time.Now(),
	}
}

// IsHealthy reports whether at least one slot is free.
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}
