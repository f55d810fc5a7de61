package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// postgresStore implements Durable on a (account_id, record) keyed table.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Schema is the DDL for the durable records table. Applied by deployment
// tooling and by the integration test setup.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	account_id TEXT NOT NULL,
	record     TEXT NOT NULL,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (account_id, record)
)`

// NewPostgresStore creates the PostgreSQL-backed durable store.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) Durable {
	return &postgresStore{
		pool:   pool,
		logger: logger.With().Str("store", "durable").Logger(),
	}
}

func (s *postgresStore) Get(ctx context.Context, accountID, record string) ([]byte, error) {
	query := `SELECT value FROM records WHERE account_id = $1 AND record = $2`

	var value []byte
	err := s.pool.QueryRow(ctx, query, accountID, record).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("record", record).
			Msg("failed to read record")
		return nil, fmt.Errorf("failed to read record %s: %w", record, err)
	}

	return value, nil
}

func (s *postgresStore) Put(ctx context.Context, accountID, record string, value []byte) error {
	query := `
		INSERT INTO records (account_id, record, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (account_id, record)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, accountID, record, value); err != nil {
		s.logger.Error().
			Err(err).
			Str("record", record).
			Msg("failed to write record")
		return fmt.Errorf("failed to write record %s: %w", record, err)
	}

	s.logger.Debug().Str("record", record).Msg("record written")
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, accountID, record string) error {
	query := `DELETE FROM records WHERE account_id = $1 AND record = $2`

	if _, err := s.pool.Exec(ctx, query, accountID, record); err != nil {
		s.logger.Error().
			Err(err).
			Str("record", record).
			Msg("failed to delete record")
		return fmt.Errorf("failed to delete record %s: %w", record, err)
	}

	return nil
}
