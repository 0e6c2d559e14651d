package application

import (
	"sync"
	"time"

	"metalspot-service/internal/domain"
)

type CacheState string

const (
	StateCold  CacheState = "cold"
	StateFresh CacheState = "fresh"
	StateStale CacheState = "stale"
)

// PriceCache holds the current snapshot. The lock only guards the pointer.
type PriceCache struct {
	mu      sync.RWMutex
	current *domain.Snapshot
	ttl     time.Duration
	clock   Clock
}

func NewPriceCache(ttl time.Duration, clock Clock) *PriceCache {
	if clock == nil {
		clock = realClock{}
	}
	return &PriceCache{ttl: ttl, clock: clock}
}

// Read returns the current snapshot (nil when cold) and whether it is younger than the TTL.
func (c *PriceCache) Read() (*domain.Snapshot, bool) {
	c.mu.RLock()
	snap := c.current
	c.mu.RUnlock()
	if snap == nil {
		return nil, false
	}
	return snap, snap.Age(c.clock.Now()) < c.ttl
}

func (c *PriceCache) Replace(snap domain.Snapshot) {
	c.mu.Lock()
	c.current = &snap
	c.mu.Unlock()
}

// SeedIfEmpty installs snap only when nothing has been committed yet.
func (c *PriceCache) SeedIfEmpty(snap domain.Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return false
	}
	c.current = &snap
	return true
}

func (c *PriceCache) State() CacheState {
	snap, fresh := c.Read()
	switch {
	case snap == nil:
		return StateCold
	case fresh:
		return StateFresh
	default:
		return StateStale
	}
}
