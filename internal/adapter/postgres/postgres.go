// Package postgres loads the generated dimensions into a Postgres warehouse
// and can serve the airport table from it.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	maxOpenConns    = 4
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Store wraps a sqlx connection pool to the warehouse.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to the warehouse and verifies the connection with a ping.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", domain.ErrIO, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", domain.ErrIO, err)
	}

	logger.Info("postgres connection established")
	return &Store{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("postgres not ready: %w", err)
	}
	return nil
}

// Postgres error codes that indicate a problem with the input data rather
// than with connectivity. Retrying them cannot succeed.
const (
	codeUndefinedTable  = "42P01"
	codeUndefinedColumn = "42703"
	codeUniqueViolation = "23505"
)

// classify maps a driver error to the generator's error categories.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUndefinedTable, codeUndefinedColumn, codeUniqueViolation:
			return fmt.Errorf("%w: %s: %s", domain.ErrInput, op, pqErr.Message)
		}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrIO, op, err)
}
