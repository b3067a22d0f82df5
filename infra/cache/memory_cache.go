package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/walletledger/pkg/cache"
	"github.com/amirasaad/walletledger/pkg/domain"
)

// MemoryCache implements ExchangeRateCache using in-memory storage
type MemoryCache struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	now   func() time.Time
}

var _ cache.ExchangeRateCache = (*MemoryCache)(nil)

// NewMemoryCache creates a new in-memory cache. Expired entries are swept
// until ctx is done.
func NewMemoryCache(ctx context.Context) *MemoryCache {
	c := &MemoryCache{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
	}
	go c.cleanup(ctx, 5*time.Minute)
	return c
}

// Get retrieves a rate from cache
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.ExchangeRate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[key]
	if !exists || c.now().After(entry.expiresAt) {
		return nil, nil
	}
	rate := *entry.rate
	return &rate, nil
}

// Set stores a rate in cache with TTL
func (c *MemoryCache) Set(_ context.Context, key string, rate *domain.ExchangeRate, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *rate
	c.cache[key] = &cacheEntry{
		rate:      &stored,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a rate from cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, key)
	return nil
}

// cleanup removes expired entries from cache
func (c *MemoryCache) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.cache {
		if now.After(entry.expiresAt) {
			delete(c.cache, key)
		}
	}
}

type cacheEntry struct {
	rate      *domain.ExchangeRate
	expiresAt time.Time
}
