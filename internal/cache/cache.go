package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"MarketLens/internal/collector"
	"MarketLens/internal/model"
)

// DefaultSize bounds the cache when Options.Size is not set.
const DefaultSize = 256

// Options configures a PriceCache. A zero TTL keeps entries until evicted by size.
type Options struct {
	Size int
	TTL  time.Duration
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// PriceCache memoizes retrieved price series per instrument identity.
// It is safe for concurrent use; concurrent misses for the same identity
// trigger a single retrieval.
type PriceCache struct {
	lru    *expirable.LRU[model.Instrument, model.PriceSeries]
	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a PriceCache.
func New(opts Options) *PriceCache {
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	return &PriceCache{
		lru: expirable.NewLRU[model.Instrument, model.PriceSeries](size, nil, opts.TTL),
	}
}

// Fetch returns the price series for inst, calling f only on a cache miss.
// Failures are returned as-is and are not cached. Concurrent misses share one
// retrieval, which is detached from any single caller's cancellation; each
// caller still returns as soon as its own ctx is done.
func (c *PriceCache) Fetch(ctx context.Context, f collector.Fetcher, inst model.Instrument) (model.PriceSeries, error) {
	if s, ok := c.lru.Get(inst); ok {
		c.hits.Add(1)
		return s, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(inst.Key(), func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		if s, ok := c.lru.Peek(inst); ok {
			c.hits.Add(1)
			return s, nil
		}
		c.misses.Add(1)
		points, err := f.FetchCloses(fetchCtx, inst.Ticker, inst.Start, inst.End)
		if err != nil {
			return nil, fmt.Errorf("fetch %s from %s: %w", inst.Ticker, f.Name(), err)
		}
		s := model.PriceSeries{Ticker: inst.Ticker, Points: points}
		c.lru.Add(inst, s)
		return s, nil
	})

	select {
	case <-ctx.Done():
		return model.PriceSeries{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.PriceSeries{}, res.Err
		}
		return res.Val.(model.PriceSeries), nil
	}
}

// Len returns the number of live entries.
func (c *PriceCache) Len() int { return c.lru.Len() }

// Purge drops every entry.
func (c *PriceCache) Purge() { c.lru.Purge() }

// Stats returns hit/miss counters and the current entry count.
func (c *PriceCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.lru.Len()}
}
