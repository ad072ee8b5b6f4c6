// Package cache keeps the compiled offer set between requests.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

// OfferSetCache stores the offers, ranges and categories loaded from storage.
// A miss is reported as ok == false with a nil error.
type OfferSetCache interface {
	GetOfferSet(ctx context.Context) (set *models.OfferSet, ok bool, err error)
	SetOfferSet(ctx context.Context, set *models.OfferSet) error
	Invalidate(ctx context.Context) error
}

const offerSetKey = "offer-set"

type entry struct {
	value   interface{}
	expires time.Time
}

// MemoryCache is an in-process cache with a fixed time to live.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		store: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[key]
	if !ok || (c.ttl > 0 && !c.now().Before(e.expires)) {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = entry{value: value, expires: c.now().Add(c.ttl)}
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

func (c *MemoryCache) GetOfferSet(context.Context) (*models.OfferSet, bool, error) {
	v, ok := c.Get(offerSetKey)
	if !ok {
		return nil, false, nil
	}
	set, ok := v.(*models.OfferSet)
	return set, ok, nil
}

func (c *MemoryCache) SetOfferSet(_ context.Context, set *models.OfferSet) error {
	c.Set(offerSetKey, set)
	return nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.Delete(offerSetKey)
	return nil
}
