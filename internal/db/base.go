package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTimeout bounds every statement issued through a Base built with a
// zero timeout.
const DefaultTimeout = 3 * time.Second

type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Base is shared by the repositories: one pool, one per-call deadline.
type Base struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewBase(pool *pgxpool.Pool, timeout time.Duration) *Base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Base{pool: pool, timeout: timeout}
}

// Q returns the instrumented pool.
func (b *Base) Q() Queryer {
	return instrumentedQueryer{q: b.pool}
}

func (b *Base) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// InTx runs fn inside one read-committed transaction under the repository
// deadline. fn issues statements through q, which carries the same telemetry
// as Q. The transaction commits when fn returns nil and rolls back otherwise.
func (b *Base) InTx(ctx context.Context, fn func(ctx context.Context, q Queryer) error) error {
	ctx, cancel := b.WithTimeout(ctx)
	defer cancel()

	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, instrumentedQueryer{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
