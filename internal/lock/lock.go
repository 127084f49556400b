// Package lock serializes the read-reconcile-append and archive sequences
// that touch the shared store.
package lock

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Locker hands out an exclusive hold on the store. Callers must call the
// returned release func exactly once.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Memory serializes holders within one process.
type Memory struct {
	sem *semaphore.Weighted
}

func NewMemory() *Memory {
	return &Memory{sem: semaphore.NewWeighted(1)}
}

func (m *Memory) Acquire(ctx context.Context) (func(), error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	return func() { m.sem.Release(1) }, nil
}

// StoreLockKey is the advisory lock id shared by every service instance.
const StoreLockKey int64 = 0x70696b73746f7265

// Postgres serializes holders across processes with a session-level
// advisory lock held on a dedicated connection.
type Postgres struct {
	db  *sql.DB
	key int64
}

func NewPostgres(db *sql.DB, key int64) *Postgres {
	return &Postgres{db: db, key: key}
}

func (p *Postgres) Acquire(ctx context.Context) (func(), error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", p.key); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}

	return func() {
		// Unlock must run even when the caller's context is already done.
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", p.key)
		_ = conn.Close()
	}, nil
}
