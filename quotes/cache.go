package quotes

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// DefaultCacheTTL is how long a fetched price is served without refetching.
const DefaultCacheTTL = 60 * time.Second

// Cache holds recently fetched prices keyed by symbol.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func NewCache(maxEntries int64, ttl time.Duration) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

func (c *Cache) Get(symbol string) (float64, bool) {
	v, ok := c.c.Get(symbol)
	if !ok {
		return 0, false
	}
	price, ok := v.(float64)
	return price, ok
}

// Set stores a price. Writes are buffered; call Wait before reading back
// in tests.
func (c *Cache) Set(symbol string, price float64) {
	c.c.SetWithTTL(symbol, price, 1, c.ttl)
}

func (c *Cache) Wait() { c.c.Wait() }

func (c *Cache) Close() { c.c.Close() }
