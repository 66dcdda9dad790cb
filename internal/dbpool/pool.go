// Package dbpool owns the PostgreSQL connection pool shared by the stores,
// the migration runner and the readiness check.
package dbpool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sliea/antennadesk/internal/metrics"
)

// Options tunes the pool. Zero values select the defaults below.
type Options struct {
	MaxConns         int
	StatementTimeout time.Duration
	ApplicationName  string
}

const (
	defaultMaxConns         = 20
	defaultStatementTimeout = 30 * time.Second
	defaultApplicationName  = "antennadesk"
)

func (o Options) apply(cfg *pgxpool.Config) {
	maxConns := o.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}

	timeout := o.StatementTimeout
	if timeout <= 0 {
		timeout = defaultStatementTimeout
	}

	name := o.ApplicationName
	if name == "" {
		name = defaultApplicationName
	}

	cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(timeout.Milliseconds(), 10)
	cfg.ConnConfig.RuntimeParams["application_name"] = name

	cfg.MaxConns = int32(maxConns) //nolint:gosec // bounded by config validation.
	cfg.MinConns = min(2, cfg.MaxConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
}

// Pool is the connection pool. The pgxpool is unexported so callers are
// limited to the query methods below.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects and pings the database before returning.
func NewPool(ctx context.Context, databaseURL string, opts Options) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	opts.apply(cfg)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// HealthCheck runs a trivial query through an acquired connection, which
// catches a saturated pool as well as an unreachable server.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health check query: %w", err)
	}

	return nil
}

// ConnString is used by the migration runner to open a database/sql handle.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

// ReportStats publishes pool utilisation to the db connection gauge every
// interval until ctx is cancelled.
func (p *Pool) ReportStats(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		s := p.pool.Stat()
		metrics.DBConnections.WithLabelValues("total").Set(float64(s.TotalConns()))
		metrics.DBConnections.WithLabelValues("idle").Set(float64(s.IdleConns()))
		metrics.DBConnections.WithLabelValues("acquired").Set(float64(s.AcquiredConns()))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Pool) Close() {
	p.pool.Close()
}
