package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolSettings sizes the connection pool. Zero durations keep the pgx
// defaults.
type PoolSettings struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func poolConfig(databaseURL string, s PoolSettings) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if s.MaxConns > 0 {
		config.MaxConns = int32(s.MaxConns)
	}
	if s.MinConns > 0 {
		config.MinConns = int32(s.MinConns)
	}
	if config.MinConns > config.MaxConns {
		return nil, fmt.Errorf("min connections %d exceed max connections %d", config.MinConns, config.MaxConns)
	}
	if s.MaxConnLifetime > 0 {
		config.MaxConnLifetime = s.MaxConnLifetime
	}
	if s.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = s.MaxConnIdleTime
	}
	return config, nil
}

// NewPostgresPool connects and pings within ctx, so the caller's deadline
// bounds startup.
func NewPostgresPool(ctx context.Context, databaseURL string, s PoolSettings) (*pgxpool.Pool, error) {
	config, err := poolConfig(databaseURL, s)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
