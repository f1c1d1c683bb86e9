package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"MarketLens/internal/model"
)

// ErrNoData is returned when a source has no prices for the requested range.
var ErrNoData = errors.New("no price data returned")

// Fetcher retrieves daily closing prices for ticker in [start, end).
type Fetcher interface {
	FetchCloses(ctx context.Context, ticker string, start, end civil.Date) ([]model.PricePoint, error)
	Name() string
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// normalize sorts points by date, collapses duplicate dates (last wins) and
// drops anything outside [start, end).
func normalize(points []model.PricePoint, start, end civil.Date) []model.PricePoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	out := points[:0]
	for _, p := range points {
		if p.Date.Before(start) || !p.Date.Before(end) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Date == p.Date {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
