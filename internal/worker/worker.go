package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// LockName is the distributed lock held while a sweep runs
const LockName = "orphan-repair"

// Repairer removes indexed passages whose document no longer exists
type Repairer interface {
	RepairOrphans(ctx context.Context) (*domain.RepairReport, error)
}

// Worker periodically sweeps the vector index for orphaned passages.
//
// For multi-replica deployments, configure a DistributedLock so only one
// instance sweeps at a time.
type Worker struct {
	repairer Repairer
	lock     driven.DistributedLock
	logger   *slog.Logger

	interval time.Duration
	lockTTL  time.Duration

	// Internal state
	mu         sync.RWMutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	lastReport *domain.RepairReport
	lastError  string
	lastRun    time.Time
}

// Config holds configuration for the worker.
type Config struct {
	Repairer Repairer
	Lock     driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Logger   *slog.Logger
	Interval time.Duration // How often to sweep (default: 10m)
	LockTTL  time.Duration // TTL for the distributed lock (default: 5m)
}

// New creates a new repair worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}

	return &Worker{
		repairer: cfg.Repairer,
		lock:     cfg.Lock,
		logger:   logger.With("component", "repair_worker"),
		interval: interval,
		lockTTL:  lockTTL,
	}
}

// Start begins the sweep loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("repair worker starting", "interval", w.interval)

	go w.run(ctx)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("repair worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Sweep immediately on start
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("repair worker context cancelled")
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one repair pass if the lock can be taken. It reports whether
// a pass ran.
func (w *Worker) Sweep(ctx context.Context) bool {
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, LockName, w.lockTTL)
		if err != nil {
			w.logger.Warn("failed to acquire repair lock", "error", err)
			return false
		}
		if !acquired {
			w.logger.Debug("repair lock held by another instance, skipping sweep")
			return false
		}
		defer func() {
			if err := w.lock.Release(ctx, LockName); err != nil {
				w.logger.Warn("failed to release repair lock", "error", err)
			}
		}()
	}

	report, err := w.repairer.RepairOrphans(ctx)

	w.mu.Lock()
	w.lastRun = time.Now()
	if err != nil {
		w.lastError = err.Error()
	} else {
		w.lastError = ""
		w.lastReport = report
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("orphan repair failed", "error", err)
	}
	return true
}

// Health is the status of the worker.
type Health struct {
	Running    bool                 `json:"running"`
	LockHealth bool                 `json:"lock_health"`
	LastRun    time.Time            `json:"last_run,omitempty"`
	LastReport *domain.RepairReport `json:"last_report,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	health := Health{
		Running:    w.running,
		LastRun:    w.lastRun,
		LastReport: w.lastReport,
		Error:      w.lastError,
		LockHealth: true,
	}
	w.mu.RUnlock()

	if w.lock != nil {
		if err := w.lock.Ping(ctx); err != nil {
			health.LockHealth = false
			health.Error = err.Error()
		}
	}

	return health
}
