package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

const (
	sessionKeyPrefix  = "fanbase:session:"
	defaultSessionTTL = 30 * 24 * time.Hour
)

// RedisKV is the subset of *redis.Client used by RedisTokenStore.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisTokenStore keeps one session per profile under fanbase:session:<profile>.
// The key expires with the token when its expiry is known.
type RedisTokenStore struct {
	client RedisKV
	key    string
	now    func() time.Time
}

func NewRedisTokenStore(client RedisKV, profile string) *RedisTokenStore {
	return &RedisTokenStore{client: client, key: sessionKeyPrefix + profile, now: time.Now}
}

func (r *RedisTokenStore) Load(ctx context.Context) (*models.StoredToken, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoStoredToken
	}
	if err != nil {
		return nil, fmt.Errorf("reading session from redis: %w", err)
	}
	var token models.StoredToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing session from redis: %w", err)
	}
	return &token, nil
}

func (r *RedisTokenStore) Save(ctx context.Context, token models.StoredToken) error {
	ttl := defaultSessionTTL
	if token.ExpiresAt != nil {
		ttl = token.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			if err := r.Clear(ctx); err != nil {
				return err
			}
			return ErrTokenExpired
		}
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("writing session to redis: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("deleting session from redis: %w", err)
	}
	return nil
}
