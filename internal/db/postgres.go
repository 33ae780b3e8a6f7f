// Package db opens the PostgreSQL connection pool
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/yigit/studentmanagement/internal/config"
)

const (
	connectTimeout = 30 * time.Second
	retryBaseDelay = 500 * time.Millisecond
)

// PostgresDB database connection structure
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// pinger is the part of the pool the startup check needs
type pinger interface {
	Ping(ctx context.Context) error
}

// NewPostgresDB creates a new PostgreSQL connection pool and waits until the
// server answers, retrying with exponential backoff.
func NewPostgresDB(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*PostgresDB, error) {
	poolConfig, err := poolConfigFrom(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	if err := waitForDatabase(ctx, pool, cfg.Database.ConnectRetries, retryBaseDelay, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")
	return &PostgresDB{Pool: pool}, nil
}

func poolConfigFrom(cfg *config.Config, logger zerolog.Logger) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)

	maxLifetime, err := time.ParseDuration(cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection max lifetime: %w", err)
	}
	poolConfig.MaxConnLifetime = maxLifetime

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Unhealthy connection detected")
			return false
		}
		return true
	}

	return poolConfig, nil
}

// waitForDatabase pings until success, ctx expiry, or retries are exhausted
func waitForDatabase(ctx context.Context, p pinger, retries int, base time.Duration, logger zerolog.Logger) error {
	if retries < 0 {
		retries = 0
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(base))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("Database not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to establish database connection after %d attempts: %w", attempt, err)
	}
	return nil
}

// Close closing method
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
