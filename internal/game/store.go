package game

import (
	"context"
	"time"
)

// UpdateFunc mutates a record inside a transaction. It may run more than once
// when the store retries, and must not mutate the record before returning an error.
type UpdateFunc func(rec *Record) error

// Store persists records with serializable read-modify-write per record and
// pushes every committed record to subscribers.
type Store interface {
	// Create stores a new record. Returns ErrSessionExists if the id is taken.
	Create(ctx context.Context, rec *Record) error
	// Get returns the current record or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// Update applies fn atomically and returns the committed record.
	// ErrNoChange from fn commits nothing and returns the current record.
	Update(ctx context.Context, id string, fn UpdateFunc) (*Record, error)
	// Subscribe streams full records, starting with the current one, until ctx is done.
	Subscribe(ctx context.Context, id string) (<-chan *Record, error)
}

// DeadlineIndex tracks when running turns time out so a watchdog can find stalled sessions.
type DeadlineIndex interface {
	SetDeadline(ctx context.Context, id string, deadline time.Time) error
	ClearDeadline(ctx context.Context, id string) error
	// Overdue returns up to limit session ids whose deadline is at or before cutoff.
	Overdue(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

// Locker elects a single holder for periodic work shared by several instances.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func() error, ok bool, err error)
}
