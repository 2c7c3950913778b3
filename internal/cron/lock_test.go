package cron

import (
	"context"
	"testing"
	"time"

	pkgredis "github.com/medovik-lab/honeybot-backend/pkg/redis"
)

type fakeLockStore struct {
	values map[string]string
	setNX  int
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: map[string]string{}}
}

func (s *fakeLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.setNX++
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeLockStore) Get(ctx context.Context, key string) (string, error) {
	value, exists := s.values[key]
	if !exists {
		return "", pkgredis.Nil
	}
	return value, nil
}

func (s *fakeLockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "honeybot:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected to take a free lock")
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, exists := store.values["honeybot:test:lock"]; exists {
		t.Fatal("release must delete the key")
	}
}

func TestRedisLockSecondInstanceSkips(t *testing.T) {
	store := newFakeLockStore()
	first, err := NewRedisLock(store, "honeybot:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, err := NewRedisLock(store, "honeybot:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	if ok, _ := first.Acquire(context.Background()); !ok {
		t.Fatal("first instance must take the lock")
	}
	if ok, _ := second.Acquire(context.Background()); ok {
		t.Fatal("second instance must be refused while the lock is held")
	}
}

func TestRedisLockReleaseIgnoresForeignOwner(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "honeybot:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("expected to take a free lock")
	}

	// Simulate TTL expiry plus takeover by another replica.
	store.values["honeybot:test:lock"] = "someone-else"
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.values["honeybot:test:lock"] != "someone-else" {
		t.Fatal("a foreign owner's lock must not be deleted")
	}
}

func TestRedisLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "honeybot:test:lock", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.setNX != 0 {
		t.Fatal("release must not touch the store before an acquire")
	}
}
