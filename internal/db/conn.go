package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prachisingh/musicapi/pkg/apperr"
)

// Conn is a leased pool connection. All statements are parametrized;
// there is no API for interpolated SQL. Release returns the connection
// to the idle set (the pool discards it if it is broken).
type Conn struct {
	conn *pgxpool.Conn
}

// Query runs a parametrized query returning rows. The caller owns the
// returned rows and must Close them; iteration errors from rows.Err()
// should be passed through ClassifyError.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return rows, nil
}

// QueryRow runs a parametrized query expected to return at most one row.
func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return Row{row: c.conn.QueryRow(ctx, sql, args...)}
}

// Exec runs a parametrized statement and returns the affected row count.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, ClassifyError(err)
	}
	return tag.RowsAffected(), nil
}

// SendBatch sends a batch of queued statements over the connection.
func (c *Conn) SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	return c.conn.SendBatch(ctx, batch)
}

// Release returns the connection to the pool.
func (c *Conn) Release() {
	c.conn.Release()
}

// Row defers error classification to Scan, mirroring pgx.Row.
type Row struct {
	row pgx.Row
}

// Scan copies the row's columns into dest. pgx.ErrNoRows passes through
// unclassified so callers can map it to their own not-found condition.
func (r Row) Scan(dest ...any) error {
	return ClassifyError(r.row.Scan(dest...))
}

// ClassifyError maps a driver error onto the apperr taxonomy: server-side
// SQL failures (malformed statements, constraint violations) become
// ErrQueryFailed, everything else that interrupts a statement in flight
// becomes ErrConnectionLost. pgx.ErrNoRows is not a failure and is
// returned unchanged.
func ClassifyError(err error) error {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (SQLSTATE %s): %w", pgErr.Message, pgErr.Code, apperr.ErrQueryFailed)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("query interrupted: %v: %w", err, apperr.ErrConnectionLost)
	}

	return fmt.Errorf("%v: %w", err, apperr.ErrConnectionLost)
}
