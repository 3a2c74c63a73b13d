package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"safesight/domain/models"
	"safesight/domain/services"
	"safesight/pkg/logger"
)

const (
	statsKeyPrefix    = "stats:"
	identityKeyPrefix = "identity:"
)

// ReadCache absorbs dashboard read bursts in front of the presence store.
// Entries expire a fixed TTL after insertion (no sliding expiry), so staleness
// is bounded even for hot keys. It is never the source of truth: flushing it
// costs latency, not correctness.
type ReadCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewReadCache creates a cache with the given TTL measured from insertion.
func NewReadCache(ttl time.Duration) *ReadCache {
	return &ReadCache{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *ReadCache) GetIdentityStats(code string) (*services.IdentityStatistics, bool) {
	v, found := c.store.Get(statsKeyPrefix + code)
	if !found {
		return nil, false
	}
	stats, ok := v.(*services.IdentityStatistics)
	return stats, ok
}

func (c *ReadCache) SetIdentityStats(code string, stats *services.IdentityStatistics) {
	c.store.Set(statsKeyPrefix+code, stats, c.ttl)
}

func (c *ReadCache) GetIdentity(code string) (*models.Identity, bool) {
	v, found := c.store.Get(identityKeyPrefix + code)
	if !found {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok
}

func (c *ReadCache) SetIdentity(code string, identity *models.Identity) {
	c.store.Set(identityKeyPrefix+code, identity, c.ttl)
}

// Invalidate drops all cached entries for one identity. Called synchronously
// on the accept path so a read immediately after an accepted detection never
// returns pre-detection data for that identity.
func (c *ReadCache) Invalidate(code string) {
	c.store.Delete(statsKeyPrefix + code)
	c.store.Delete(identityKeyPrefix + code)
}

// Flush clears the whole cache.
func (c *ReadCache) Flush() {
	c.store.Flush()
	logger.Cache("flushed", "Read cache flushed", nil)
}

// ItemCount reports the number of live entries, for health metrics.
func (c *ReadCache) ItemCount() int {
	return c.store.ItemCount()
}
