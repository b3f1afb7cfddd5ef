package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// applicationName tags our sessions in pg_stat_activity unless the URL sets one.
const applicationName = "bitacora-engine"

// DB is the Postgres-backed Store.
type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// PoolOptions sizes the connection pool. Zero values keep the pgx defaults
// (or whatever pool_* parameters the URL carries).
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Connect opens a pool and pings the server once before returning.
func Connect(ctx context.Context, databaseURL string, opts PoolOptions, log zerolog.Logger) (*DB, error) {
	cfg, err := poolConfig(databaseURL, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool for %s: %w", redactDSN(databaseURL), err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", redactDSN(databaseURL), err)
	}

	log.Info().
		Str("url", redactDSN(databaseURL)).
		Int32("max_conns", cfg.MaxConns).
		Int32("min_conns", cfg.MinConns).
		Dur("max_conn_lifetime", cfg.MaxConnLifetime).
		Msg("bitacora store connected")

	return &DB{Pool: pool, log: log}, nil
}

func poolConfig(databaseURL string, opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return cfg, nil
}

// HealthCheck pings the pool with a short deadline; /health reports the
// service unhealthy when it fails.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.Pool.Ping(ctx); err != nil {
		db.log.Warn().Err(err).Msg("database health check failed")
		return err
	}
	return nil
}

// redactDSN hides the password of a URL or keyword/value connection string.
func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		fields := strings.Fields(dsn)
		for i, f := range fields {
			if strings.HasPrefix(strings.ToLower(f), "password=") {
				fields[i] = "password=***"
			}
		}
		return strings.Join(fields, " ")
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	q := u.Query()
	if q.Has("password") {
		q.Set("password", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (db *DB) Close() {
	db.log.Info().Msg("closing bitacora store pool")
	db.Pool.Close()
}
