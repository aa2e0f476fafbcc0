// Package db manages the PostgreSQL connection pool and wraps leased
// connections so upper layers never touch driver specifics. The pool is
// bounded between a minimum and maximum size, grows lazily up to the
// maximum, and serializes its internal bookkeeping against concurrent
// acquire/release callers.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prachisingh/musicapi/pkg/apperr"
	"github.com/prachisingh/musicapi/pkg/logger"
)

// Options bound the pool and its acquire wait.
type Options struct {
	MinConns       int32
	MaxConns       int32
	AcquireTimeout time.Duration
}

// Pool owns the set of reusable database connections. Construct one at
// startup, inject it into the DAO, and Close it on shutdown.
type Pool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	log            *logger.Logger
}

// NewPool connects to the database described by dsn and verifies
// reachability with a ping before returning. Fails with
// apperr.ErrConnectFailed when the database cannot be reached.
func NewPool(ctx context.Context, dsn string, opts Options) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	cfg.MinConns = opts.MinConns
	cfg.MaxConns = opts.MaxConns
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %v: %w", err, apperr.ErrConnectFailed)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %v: %w", err, apperr.ErrConnectFailed)
	}

	timeout := opts.AcquireTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	log := logger.GetLogger()
	log.Infof("Connection pool ready (min=%d max=%d acquire_timeout=%s)",
		cfg.MinConns, cfg.MaxConns, timeout)

	return &Pool{pool: pool, acquireTimeout: timeout, log: log}, nil
}

// Acquire leases a connection from the pool, waiting at most the
// configured acquire timeout. A timed-out wait fails with
// apperr.ErrPoolExhausted; a failed dial fails with
// apperr.ErrConnectFailed. The caller must Release the returned
// connection on every exit path.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.pool.Acquire(acquireCtx)
	if err != nil {
		if acquireCtx.Err() != nil && ctx.Err() == nil {
			p.log.Warnf("Pool acquire timed out after %s", p.acquireTimeout)
			return nil, fmt.Errorf("no connection available within %s: %w",
				p.acquireTimeout, apperr.ErrPoolExhausted)
		}
		return nil, fmt.Errorf("acquire connection: %v: %w", err, apperr.ErrConnectFailed)
	}
	return &Conn{conn: conn}, nil
}

// Ping verifies the database is still reachable.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %v: %w", err, apperr.ErrConnectFailed)
	}
	return nil
}

// Stat exposes pool counters for logging.
func (p *Pool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

// Close shuts the pool down, closing every idle connection and waiting
// for leased ones to be released.
func (p *Pool) Close() {
	if p.pool != nil {
		p.log.Infof("Closing connection pool")
		p.pool.Close()
	}
}
