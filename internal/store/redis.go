package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisStore implements Session on redis keys bounded by the session TTL.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore creates the redis-backed session-scoped store. Every write
// refreshes the record's TTL to the configured session lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Session {
	return &redisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("store", "session").Logger(),
	}
}

func sessionKey(accountID, record string) string {
	return fmt.Sprintf("giftkart:session:%s:%s", accountID, record)
}

func (s *redisStore) Get(ctx context.Context, accountID, record string) ([]byte, error) {
	value, err := s.client.Get(ctx, sessionKey(accountID, record)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("record", record).
			Msg("failed to read session record")
		return nil, fmt.Errorf("failed to read session record %s: %w", record, err)
	}

	return value, nil
}

func (s *redisStore) Put(ctx context.Context, accountID, record string, value []byte) error {
	if err := s.client.Set(ctx, sessionKey(accountID, record), value, s.ttl).Err(); err != nil {
		s.logger.Error().
			Err(err).
			Str("record", record).
			Msg("failed to write session record")
		return fmt.Errorf("failed to write session record %s: %w", record, err)
	}

	s.logger.Debug().Str("record", record).Msg("session record written")
	return nil
}

func (s *redisStore) Delete(ctx context.Context, accountID, record string) error {
	if err := s.client.Del(ctx, sessionKey(accountID, record)).Err(); err != nil {
		s.logger.Error().
			Err(err).
			Str("record", record).
			Msg("failed to delete session record")
		return fmt.Errorf("failed to delete session record %s: %w", record, err)
	}

	return nil
}
