// Package cache keeps short-lived copies of hot lookups in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lovebox-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	pairKeyPrefix    = "lovebox:pair:user:"
	versionKeyPrefix = "lovebox:pair:version:"
	versionTTL       = 24 * time.Hour
)

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// pairEntry distinguishes a cached "no pair" from a cache miss
type pairEntry struct {
	Pair *models.BffPair `json:"pair"`
}

// PairCache caches the user to BFF pair lookup. A nil client disables it.
type PairCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPairCache creates a pair cache. rdb may be nil.
func NewPairCache(rdb *redis.Client, ttl time.Duration) *PairCache {
	return &PairCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached pair of userID. ok is false on a miss; a hit with a
// nil pair means the user is known to have none.
func (c *PairCache) Get(ctx context.Context, userID int64) (pair *models.BffPair, ok bool, err error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, pairKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read pair cache: %w", err)
	}
	var entry pairEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode pair cache: %w", err)
	}
	return entry.Pair, true, nil
}

// Version returns the invalidation counter of userID. Read it before loading
// the pair from the database and hand it to Set.
func (c *PairCache) Version(ctx context.Context, userID int64) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	v, err := c.rdb.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read pair cache version: %w", err)
	}
	return v, nil
}

// Set stores the pair of userID. A nil pair records that the user has none.
// The write is skipped when the user was invalidated after version was read.
func (c *PairCache) Set(ctx context.Context, userID int64, pair *models.BffPair, version int64) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(pairEntry{Pair: pair})
	if err != nil {
		return fmt.Errorf("failed to encode pair cache: %w", err)
	}

	vkey := versionKey(userID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pairKey(userID), raw, c.ttl)
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write pair cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached entries of the given users and bumps their
// versions so in-flight lookups cannot write back what they read before.
func (c *PairCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if c == nil || c.rdb == nil || len(userIDs) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, versionKey(id))
			pipe.Expire(ctx, versionKey(id), versionTTL)
			pipe.Del(ctx, pairKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate pair cache: %w", err)
	}
	return nil
}

func pairKey(userID int64) string {
	return fmt.Sprintf("%s%d", pairKeyPrefix, userID)
}

func versionKey(userID int64) string {
	return fmt.Sprintf("%s%d", versionKeyPrefix, userID)
}
