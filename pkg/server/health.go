package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
)

// BackendStatus represents the status of the analytics backend
type BackendStatus string

const (
	StatusHealthy      BackendStatus = "healthy"
	StatusDegraded     BackendStatus = "degraded"
	StatusUnhealthy    BackendStatus = "unhealthy"
	StatusDisconnected BackendStatus = "disconnected"
	StatusConnecting   BackendStatus = "connecting"
)

// BackendHealth represents the health status of the analytics backend
type BackendHealth struct {
	Status              BackendStatus `json:"status"`
	LastCheck           time.Time     `json:"lastCheck"`
	ResponseTime        int64         `json:"responseTime"` // milliseconds
	ErrorCount          int           `json:"errorCount"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	LastError           string        `json:"lastError,omitempty"`
}

// HealthMonitor periodically probes the analytics backend
type HealthMonitor struct {
	client   *backend.Client
	logger   *slog.Logger
	mu       sync.RWMutex
	health   BackendHealth
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(client *backend.Client, logger *slog.Logger) *HealthMonitor {
	return &HealthMonitor{
		client: client,
		logger: logger,
		health: BackendHealth{Status: StatusConnecting},
		done:   make(chan struct{}),
	}
}

// Start begins health monitoring
func (hm *HealthMonitor) Start(interval time.Duration) {
	hm.ticker = time.NewTicker(interval)

	// Perform initial health check
	hm.check()

	go func() {
		for {
			select {
			case <-hm.ticker.C:
				hm.check()
			case <-hm.done:
				return
			}
		}
	}()

	hm.logger.Info("health monitor started", "interval", interval)
}

// Stop stops health monitoring
func (hm *HealthMonitor) Stop() {
	hm.stopOnce.Do(func() {
		if hm.ticker != nil {
			hm.ticker.Stop()
		}
		close(hm.done)
		hm.logger.Info("health monitor stopped")
	})
}

// check performs a single health probe against the backend
func (hm *HealthMonitor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), HealthCheckTimeout)
	defer cancel()

	startTime := time.Now()
	err := hm.client.Ping(ctx)
	responseTime := time.Since(startTime).Milliseconds()

	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.health.LastCheck = time.Now()
	hm.health.ResponseTime = responseTime

	if err != nil {
		hm.health.ErrorCount++
		hm.health.ConsecutiveFailures++
		hm.health.LastError = err.Error()

		// Determine status based on consecutive failures
		if hm.health.ConsecutiveFailures >= 5 {
			hm.health.Status = StatusDisconnected
		} else if hm.health.ConsecutiveFailures >= 3 {
			hm.health.Status = StatusUnhealthy
		} else {
			hm.health.Status = StatusDegraded
		}

		hm.logger.Warn("backend health check failed",
			"error", err,
			"consecutiveFailures", hm.health.ConsecutiveFailures)
		return
	}

	hm.health.ConsecutiveFailures = 0
	hm.health.LastError = ""

	// Determine status based on response time
	if responseTime > 2000 {
		hm.health.Status = StatusDegraded
	} else {
		hm.health.Status = StatusHealthy
	}

	hm.logger.Debug("backend health check succeeded", "responseTime", responseTime)
}

// Snapshot returns the current backend health
func (hm *HealthMonitor) Snapshot() BackendHealth {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.health
}

// Serving reports whether the proxy should advertise itself as healthy.
// Degraded still serves; unhealthy and disconnected do not.
func (hm *HealthMonitor) Serving() bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	switch hm.health.Status {
	case StatusUnhealthy, StatusDisconnected:
		return false
	default:
		return true
	}
}
