package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates background work across replicas so that only
// one of them runs a given job at a time.
type DistributedLock interface {
	// Acquire attempts to take the named lock for ttl.
	// Returns false without error when another instance holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release gives the lock up. Safe to call when it is not held or has expired.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a held lock out to ttl from now.
	// Implementations without expiry (PostgreSQL advisory locks) treat this as a no-op.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
