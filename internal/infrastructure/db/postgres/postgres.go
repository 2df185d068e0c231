package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/library-system/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for opening a PostgreSQL pool.
type Config struct {
	DSN      string
	MaxConns int32
	Timeout  time.Duration
}

// Connect opens a pgx pool, verifies it with a ping and applies the schema.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = 5 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := migrate(connectCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id             BIGSERIAL PRIMARY KEY,
			username       TEXT NOT NULL UNIQUE,
			password_hash  TEXT NOT NULL,
			is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
			is_super_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			id     BIGSERIAL PRIMARY KEY,
			name   TEXT NOT NULL UNIQUE,
			price  NUMERIC(12,2) NOT NULL CHECK (price >= 0),
			author TEXT NOT NULL DEFAULT '',
			count  INTEGER NOT NULL CHECK (count >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS archived_books (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			price         NUMERIC(12,2) NOT NULL,
			author        TEXT NOT NULL,
			quantity      INTEGER NOT NULL CHECK (quantity > 0),
			archived_date TIMESTAMPTZ NOT NULL,
			user_id       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS archived_books_user_id_idx ON archived_books (user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}

// classify maps driver errors onto domain sentinels where a caller can act on them.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
		case pgerrcode.CheckViolation:
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsInsufficientResources(pgErr.Code) {
			return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return err
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
