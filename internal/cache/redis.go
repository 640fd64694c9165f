package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/opentoolhub/search-agent/internal/models"
)

type redisStore struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisStore(client *redis.Client, logger *zerolog.Logger) Store {
	return &redisStore{
		client: client,
		logger: logger,
	}
}

func (s *redisStore) Get(ctx context.Context, key string) (models.Payload, bool) {
	entryKey := EntryKey(key)

	raw, err := s.client.Get(ctx, entryKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", entryKey).Msg("cache read failed, treating as miss")
		return nil, false
	}

	var entry models.Payload
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.logger.Warn().Err(err).Str("key", entryKey).Msg("cache entry not decodable, treating as miss")
		return nil, false
	}

	if !IsBilingual(entry) {
		s.logger.Info().Str("key", entryKey).Msg("legacy single-language cache entry, forcing regeneration")
		return nil, false
	}

	return entry, true
}

func (s *redisStore) Put(ctx context.Context, key string, value models.Payload, ttl time.Duration) {
	entryKey := EntryKey(key)

	stamped := Stamp(value, time.Now())
	raw, err := json.Marshal(stamped)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", entryKey).Msg("cache entry not serializable, dropping write")
		return
	}

	if err := s.client.Set(ctx, entryKey, raw, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", entryKey).Msg("cache write failed, dropping")
		return
	}

	s.logger.Debug().Str("key", entryKey).Dur("ttl", ttl).Msg("cache entry written")
}

func (s *redisStore) Delete(ctx context.Context, key string) {
	entryKey := EntryKey(key)
	if err := s.client.Del(ctx, entryKey).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", entryKey).Msg("cache delete failed")
	}
}
