package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Retry runs f with exponential backoff until it succeeds, returns a
// permanent error, or maxElapsed passes.
func Retry(ctx context.Context, maxElapsed time.Duration, f func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	return backoff.Retry(func() error {
		err := f(ctx)
		var perm PermError
		if errors.As(err, &perm) {
			return backoff.Permanent(err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// ReliableExec acquires a pooled connection and runs f, retrying transient failures.
func ReliableExec(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, f func(ctx context.Context, conn *pgxpool.Conn) error) error {
	return Retry(ctx, tryTimeout, func(ctx context.Context) error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("error in pool.Acquire: %w", err)
		}
		defer conn.Release()
		return f(ctx, conn)
	})
}

// ReliableExecInTx is ReliableExec inside a cockroach transaction that retries serialization failures.
func ReliableExecInTx(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, f func(ctx context.Context, tx pgx.Tx) error) error {
	return ReliableExec(ctx, pool, tryTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		return crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return f(ctx, tx)
		})
	})
}
