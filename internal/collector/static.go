package collector

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/civil"

	"MarketLens/internal/model"
)

// StaticFetcher serves fixed in-memory prices, for development and testing.
// It counts calls so tests can assert how often the source was hit.
type StaticFetcher struct {
	mu     sync.Mutex
	Prices map[string][]model.PricePoint
	Err    error // returned from every call when set
	calls  map[string]int
}

// NewStaticFetcher creates a StaticFetcher over prices keyed by ticker.
func NewStaticFetcher(prices map[string][]model.PricePoint) *StaticFetcher {
	return &StaticFetcher{Prices: prices, calls: make(map[string]int)}
}

func (s *StaticFetcher) Name() string { return "static" }

func (s *StaticFetcher) FetchCloses(_ context.Context, ticker string, start, end civil.Date) ([]model.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[ticker]++

	if s.Err != nil {
		return nil, s.Err
	}
	all, ok := s.Prices[ticker]
	if !ok {
		return nil, fmt.Errorf("static %s: %w", ticker, ErrNoData)
	}
	points := normalize(append([]model.PricePoint(nil), all...), start, end)
	if len(points) == 0 {
		return nil, fmt.Errorf("static %s: %w", ticker, ErrNoData)
	}
	return points, nil
}

// Calls returns how many times ticker has been fetched.
func (s *StaticFetcher) Calls(ticker string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[ticker]
}
