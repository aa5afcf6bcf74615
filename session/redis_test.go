package session

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(server.Close)

	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	return newRedisStore(rdb, "test")
}

func TestRedisStoreNamespaceIsolation(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(server.Close)

	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	alice := newRedisStore(rdb, "alice")
	bob := newRedisStore(rdb, "bob")

	if err := alice.Set(KeyToken, "tok-alice"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := bob.Get(KeyToken); err != ErrNotFound {
		t.Fatalf("bob must not see alice's token, got %v", err)
	}
	if err := bob.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if v, err := alice.Get(KeyToken); err != nil || v != "tok-alice" {
		t.Fatalf("alice's session should survive bob's clear: %q %v", v, err)
	}
}
