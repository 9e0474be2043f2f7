package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func stubRedis(t *testing.T, ping func(ctx context.Context, client *redis.Client) error) *redis.Options {
	t.Helper()
	origNew := newRedisClient
	origPing := redisPing
	t.Cleanup(func() {
		newRedisClient = origNew
		redisPing = origPing
	})

	got := &redis.Options{}
	newRedisClient = func(opts *redis.Options) *redis.Client {
		*got = *opts
		return &redis.Client{}
	}
	redisPing = ping
	return got
}

func TestNewRedisDB_PingError(t *testing.T) {
	stubRedis(t, func(ctx context.Context, client *redis.Client) error {
		return errors.New("connection refused")
	})

	_, err := NewRedisDB("cache.internal:6379", "pass", 2)
	if err == nil {
		t.Fatal("expected ping error")
	}
	if !strings.Contains(err.Error(), "cache.internal:6379") {
		t.Fatalf("expected address in error, got %v", err)
	}
}

func TestNewRedisDB_SetsOptions(t *testing.T) {
	got := stubRedis(t, func(ctx context.Context, client *redis.Client) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected ping deadline")
		}
		return nil
	})

	db, err := NewRedisDB("localhost:6379", "pass", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.Client == nil {
		t.Fatal("expected client")
	}
	if got.Addr != "localhost:6379" || got.Password != "pass" || got.DB != 2 {
		t.Fatalf("unexpected connection options %+v", got)
	}
	if got.DialTimeout != 3*time.Second {
		t.Fatalf("expected DialTimeout 3s, got %v", got.DialTimeout)
	}
	if got.ReadTimeout != 2*time.Second || got.WriteTimeout != 2*time.Second {
		t.Fatalf("expected 2s read/write timeouts, got %v/%v", got.ReadTimeout, got.WriteTimeout)
	}
	if got.PoolSize != 2 {
		t.Fatalf("expected PoolSize 2, got %d", got.PoolSize)
	}
}

func TestRedisDB_Health(t *testing.T) {
	origPing := redisPing
	t.Cleanup(func() { redisPing = origPing })

	redisPing = func(ctx context.Context, client *redis.Client) error {
		return errors.New("health failed")
	}
	db := &RedisDB{Client: &redis.Client{}}
	if err := db.Health(context.Background()); err == nil {
		t.Fatal("expected health error")
	}

	redisPing = func(ctx context.Context, client *redis.Client) error { return nil }
	if err := db.Health(context.Background()); err != nil {
		t.Fatalf("unexpected health error: %v", err)
	}
}

func TestRedisDB_CloseNil(t *testing.T) {
	db := &RedisDB{}
	if err := db.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

func TestRedisDB_Close_Client(t *testing.T) {
	db := &RedisDB{Client: redis.NewClient(&redis.Options{Addr: "localhost:0"})}
	if err := db.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}
