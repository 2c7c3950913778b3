package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/pkg/db/models"
)

var errCacheMiss = errors.New("cache miss")

type fakeCacheStore struct {
	values map[string]string
	gets   int
	sets   int
	getErr error
	setErr error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{values: map[string]string{}}
}

func (s *fakeCacheStore) Get(ctx context.Context, key string) (string, error) {
	s.gets++
	if s.getErr != nil {
		return "", s.getErr
	}
	value, exists := s.values[key]
	if !exists {
		return "", errCacheMiss
	}
	return value, nil
}

func (s *fakeCacheStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value.(string)
	return nil
}

type fakeSizeRepo struct {
	Repository
	sizes map[string]int64
	finds int
}

func (r *fakeSizeRepo) FindSizeByName(ctx context.Context, name string) (*models.Size, error) {
	r.finds++
	id, exists := r.sizes[name]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Size{ID: id, Name: name}, nil
}

func newSizeCacheTest(store *fakeCacheStore, repo *fakeSizeRepo) *SizeCache {
	return NewSizeCache(store, repo,
		func(name string) string { return "honeybot:size:" + name },
		func(err error) bool { return errors.Is(err, errCacheMiss) })
}

func TestSizeCache_missLoadsAndPopulates(t *testing.T) {
	store := newFakeCacheStore()
	repo := &fakeSizeRepo{sizes: map[string]int64{"0.5": 2}}
	cache := newSizeCacheTest(store, repo)

	id, err := cache.SizeID(context.Background(), "0.5")
	if err != nil {
		t.Fatalf("SizeID: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected id 2, got %d", id)
	}
	if repo.finds != 1 || store.sets != 1 {
		t.Fatalf("miss must load once and populate once, finds=%d sets=%d", repo.finds, store.sets)
	}

	// second lookup is served from the cache
	if _, err := cache.SizeID(context.Background(), "0.5"); err != nil {
		t.Fatalf("SizeID: %v", err)
	}
	if repo.finds != 1 {
		t.Fatalf("hit must not touch the database, finds=%d", repo.finds)
	}
}

func TestSizeCache_poisonedEntryReloads(t *testing.T) {
	store := newFakeCacheStore()
	store.values["honeybot:size:1"] = "not-a-number"
	repo := &fakeSizeRepo{sizes: map[string]int64{"1": 3}}
	cache := newSizeCacheTest(store, repo)

	id, err := cache.SizeID(context.Background(), "1")
	if err != nil {
		t.Fatalf("SizeID: %v", err)
	}
	if id != 3 {
		t.Fatalf("expected id 3, got %d", id)
	}
	if store.values["honeybot:size:1"] != "3" {
		t.Fatalf("poisoned entry must be rewritten, got %q", store.values["honeybot:size:1"])
	}
}

func TestSizeCache_transportFailureSurfaces(t *testing.T) {
	store := newFakeCacheStore()
	store.getErr = errors.New("redis down")
	repo := &fakeSizeRepo{sizes: map[string]int64{"1": 3}}
	cache := newSizeCacheTest(store, repo)

	if _, err := cache.SizeID(context.Background(), "1"); err == nil {
		t.Fatal("transport failures must not be treated as misses")
	}
	if repo.finds != 0 {
		t.Fatalf("database must not be hit on transport failure, finds=%d", repo.finds)
	}
}

func TestSizeCache_unknownSize(t *testing.T) {
	store := newFakeCacheStore()
	repo := &fakeSizeRepo{sizes: map[string]int64{}}
	cache := newSizeCacheTest(store, repo)

	if _, err := cache.SizeID(context.Background(), "7"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if store.sets != 0 {
		t.Fatalf("failed loads must not populate the cache, sets=%d", store.sets)
	}
}

func TestSizeCache_populationFailureIsBestEffort(t *testing.T) {
	store := newFakeCacheStore()
	store.setErr = errors.New("redis down")
	repo := &fakeSizeRepo{sizes: map[string]int64{"3": 5}}
	cache := newSizeCacheTest(store, repo)

	id, err := cache.SizeID(context.Background(), "3")
	if err != nil {
		t.Fatalf("SizeID must tolerate population failures: %v", err)
	}
	if id != 5 {
		t.Fatalf("expected id 5, got %d", id)
	}
}
