package catalog

import (
	"context"
	"strconv"
	"time"
)

const sizeCacheTTL = 15 * time.Minute

// cacheStore is the subset of the redis client the size cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// SizeCache is a read-through lookup from size name to size id. It replaces
// an in-process global map: entries reload on miss and expire after a bounded
// TTL, so price-list edits become visible without a restart.
type SizeCache struct {
	store  cacheStore
	repo   Repository
	keyFn  func(name string) string
	isMiss func(err error) bool
}

// NewSizeCache wires the cache over redis and the catalog repository.
// isMiss distinguishes a cache miss from a transport failure.
func NewSizeCache(store cacheStore, repo Repository, keyFn func(string) string, isMiss func(error) bool) *SizeCache {
	return &SizeCache{store: store, repo: repo, keyFn: keyFn, isMiss: isMiss}
}

// SizeID resolves a size name to its id, hitting the database only on miss.
func (c *SizeCache) SizeID(ctx context.Context, name string) (int64, error) {
	key := c.keyFn(name)

	cached, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		id, parseErr := strconv.ParseInt(cached, 10, 64)
		if parseErr == nil {
			return id, nil
		}
		// poisoned entry: fall through to reload
	case !c.isMiss(err):
		return 0, err
	}

	size, err := c.repo.FindSizeByName(ctx, name)
	if err != nil {
		return 0, err
	}
	// cache population is best-effort
	_ = c.store.Set(ctx, key, strconv.FormatInt(size.ID, 10), sizeCacheTTL)
	return size.ID, nil
}
