package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven/mocks"
)

// mockRepairer counts repair passes
type mockRepairer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockRepairer) RepairOrphans(ctx context.Context) (*domain.RepairReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.RepairReport{Orphans: []string{"doc-1"}, Removed: 1}, nil
}

func (m *mockRepairer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNew_Defaults(t *testing.T) {
	w := New(Config{Repairer: &mockRepairer{}})

	if w.interval != 10*time.Minute {
		t.Errorf("expected default interval 10m, got %v", w.interval)
	}
	if w.lockTTL != 5*time.Minute {
		t.Errorf("expected default lock TTL 5m, got %v", w.lockTTL)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_Sweep(t *testing.T) {
	repairer := &mockRepairer{}
	w := New(Config{Repairer: repairer, Logger: slog.Default()})

	if !w.Sweep(context.Background()) {
		t.Fatal("expected sweep to run")
	}
	if repairer.Calls() != 1 {
		t.Errorf("expected 1 repair call, got %d", repairer.Calls())
	}

	health := w.Health(context.Background())
	if health.LastReport == nil || health.LastReport.Removed != 1 {
		t.Errorf("expected last report to be recorded, got %+v", health.LastReport)
	}
	if health.LastRun.IsZero() {
		t.Error("expected last run to be set")
	}
}

func TestWorker_Sweep_LockHeldElsewhere(t *testing.T) {
	repairer := &mockRepairer{}
	lock := mocks.NewMockDistributedLock()
	lock.SetLockHeld(LockName, time.Minute)

	w := New(Config{Repairer: repairer, Lock: lock})

	if w.Sweep(context.Background()) {
		t.Error("expected sweep to be skipped while the lock is held")
	}
	if repairer.Calls() != 0 {
		t.Errorf("expected no repair calls, got %d", repairer.Calls())
	}
}

func TestWorker_Sweep_ReleasesLock(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	w := New(Config{Repairer: &mockRepairer{}, Lock: lock})

	if !w.Sweep(context.Background()) {
		t.Fatal("expected sweep to run")
	}
	if lock.IsHeld(LockName) {
		t.Error("expected lock to be released after the sweep")
	}
}

func TestWorker_Sweep_LockError(t *testing.T) {
	repairer := &mockRepairer{}
	lock := mocks.NewMockDistributedLock()
	lock.AcquireFn = func(name string, ttl time.Duration) (bool, error) {
		return false, errors.New("redis down")
	}

	w := New(Config{Repairer: repairer, Lock: lock})

	if w.Sweep(context.Background()) {
		t.Error("expected sweep to be skipped when the lock errors")
	}
	if repairer.Calls() != 0 {
		t.Errorf("expected no repair calls, got %d", repairer.Calls())
	}
}

func TestWorker_Sweep_RepairError(t *testing.T) {
	repairer := &mockRepairer{err: errors.New("index unavailable")}
	w := New(Config{Repairer: repairer})

	w.Sweep(context.Background())

	health := w.Health(context.Background())
	if health.Error != "index unavailable" {
		t.Errorf("expected error to be recorded, got %q", health.Error)
	}
}

func TestWorker_StartStop(t *testing.T) {
	repairer := &mockRepairer{}
	w := New(Config{Repairer: repairer, Interval: 10 * time.Millisecond})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Starting twice is a no-op
	if err := w.Start(ctx); err != nil {
		t.Fatalf("unexpected error on second start: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if !w.Health(ctx).Running {
		t.Error("expected worker to be running")
	}

	w.Stop()

	if w.Health(ctx).Running {
		t.Error("expected worker to be stopped")
	}
	if repairer.Calls() < 2 {
		t.Errorf("expected at least 2 sweeps, got %d", repairer.Calls())
	}
}

func TestWorker_ContextCancellation(t *testing.T) {
	w := New(Config{Repairer: &mockRepairer{}, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestWorker_Health_LockPing(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.PingFn = func() error { return errors.New("connection refused") }

	w := New(Config{Repairer: &mockRepairer{}, Lock: lock})

	health := w.Health(context.Background())
	if health.LockHealth {
		t.Error("expected lock to be unhealthy")
	}
	if health.Error != "connection refused" {
		t.Errorf("unexpected error: %q", health.Error)
	}
}
