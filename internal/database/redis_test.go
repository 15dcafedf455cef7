package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisDB_PingError(t *testing.T) {
	origNew := newRedisClient
	origPing := redisPing
	t.Cleanup(func() {
		newRedisClient = origNew
		redisPing = origPing
	})

	newRedisClient = func(opts *redis.Options) *redis.Client {
		return &redis.Client{}
	}
	redisPing = func(ctx context.Context, client *redis.Client) error {
		return errors.New("ping failed")
	}

	_, err := NewRedisDB("localhost:6379", "pass", 2)
	if err == nil || err.Error() == "" {
		t.Fatal("expected ping error")
	}
}

func TestNewRedisDB_SetsOptions(t *testing.T) {
	origNew := newRedisClient
	origPing := redisPing
	t.Cleanup(func() {
		newRedisClient = origNew
		redisPing = origPing
	})

	var got redis.Options
	newRedisClient = func(opts *redis.Options) *redis.Client {
		got = *opts
		return &redis.Client{}
	}
	redisPing = func(ctx context.Context, client *redis.Client) error {
		return nil
	}

	db, err := NewRedisDB("localhost:6379", "pass", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db == nil || db.Client == nil {
		t.Fatal("expected redis db with client")
	}
	if got.Addr != "localhost:6379" {
		t.Errorf("unexpected addr: %s", got.Addr)
	}
	if got.Password != "pass" {
		t.Errorf("unexpected password: %s", got.Password)
	}
	if got.DB != 2 {
		t.Errorf("unexpected db: %d", got.DB)
	}
	if got.DialTimeout != 5*time.Second {
		t.Errorf("unexpected dial timeout: %v", got.DialTimeout)
	}
}
