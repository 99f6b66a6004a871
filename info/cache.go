package info

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxCachedDexes bounds the perpetual universes kept at once.
const maxCachedDexes = 16

// Cache keeps the most recent universes for a fixed time so that bursts of
// orders do not refetch metadata on every request. Mid prices are never
// cached.
type Cache struct {
	source MetadataSource
	ttl    time.Duration

	meta *expirable.LRU[string, *Meta]
	spot *expirable.LRU[struct{}, *SpotMeta]
}

var _ MetadataSource = (*Cache)(nil)

// NewCache wraps source. A zero ttl disables caching.
func NewCache(source MetadataSource, ttl time.Duration) *Cache {
	return &Cache{
		source: source,
		ttl:    ttl,
		meta:   expirable.NewLRU[string, *Meta](maxCachedDexes, nil, ttl),
		spot:   expirable.NewLRU[struct{}, *SpotMeta](1, nil, ttl),
	}
}

// Meta returns the perpetual universe for dex.
func (c *Cache) Meta(ctx context.Context, dex string) (*Meta, error) {
	if c.ttl <= 0 {
		return c.source.Meta(ctx, dex)
	}
	if meta, ok := c.meta.Get(dex); ok {
		return meta, nil
	}

	meta, err := c.source.Meta(ctx, dex)
	if err != nil {
		return nil, err
	}
	c.meta.Add(dex, meta)

	return meta, nil
}

// SpotMeta returns the spot universe and token table.
func (c *Cache) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	if c.ttl <= 0 {
		return c.source.SpotMeta(ctx)
	}
	if spotMeta, ok := c.spot.Get(struct{}{}); ok {
		return spotMeta, nil
	}

	spotMeta, err := c.source.SpotMeta(ctx)
	if err != nil {
		return nil, err
	}
	c.spot.Add(struct{}{}, spotMeta)

	return spotMeta, nil
}

// Invalidate drops every cached universe.
func (c *Cache) Invalidate() {
	c.meta.Purge()
	c.spot.Purge()
}
