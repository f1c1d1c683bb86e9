package collector

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"golang.org/x/time/rate"

	"MarketLens/internal/model"
)

// RateLimitedFetcher throttles calls to the wrapped Fetcher.
type RateLimitedFetcher struct {
	Fetcher Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher allows rps requests per second with the given burst.
// A non-positive rps disables throttling.
func NewRateLimitedFetcher(f Fetcher, rps float64, burst int) *RateLimitedFetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedFetcher{Fetcher: f, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimitedFetcher) Name() string { return r.Fetcher.Name() }

func (r *RateLimitedFetcher) FetchCloses(ctx context.Context, ticker string, start, end civil.Date) ([]model.PricePoint, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.Fetcher.FetchCloses(ctx, ticker, start, end)
}
