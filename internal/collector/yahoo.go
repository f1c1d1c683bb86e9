package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tidwall/gjson"

	"MarketLens/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Adjusted  bool              // prefer adjusted closes when the response has them
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		Adjusted: true,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// FetchCloses downloads daily bars between start (inclusive) and end (exclusive).
func (f *YahooFetcher) FetchCloses(ctx context.Context, ticker string, start, end civil.Date) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.In(time.UTC).Unix()))
	q.Set("period2", fmt.Sprint(end.In(time.UTC).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(ticker)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo decode: invalid json")
	}

	chart := gjson.GetBytes(body, "chart")
	if desc := chart.Get("error.description"); desc.Exists() && desc.String() != "" {
		return nil, fmt.Errorf("yahoo api error: %s", desc.String())
	}

	result := chart.Get("result.0")
	timestamps := result.Get("timestamp").Array()
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	closes := result.Get("indicators.quote.0.close").Array()
	if f.Adjusted {
		if adj := result.Get("indicators.adjclose.0.adjclose").Array(); len(adj) == len(timestamps) {
			closes = adj
		}
	}
	if len(closes) != len(timestamps) {
		return nil, fmt.Errorf("yahoo decode: %d timestamps but %d closes", len(timestamps), len(closes))
	}

	loc := exchangeLocation(result.Get("meta"))
	points := make([]model.PricePoint, 0, len(timestamps))
	for i, ts := range timestamps {
		c := closes[i]
		if c.Type != gjson.Number || c.Float() == 0 {
			continue // skip null bars (holidays etc.)
		}
		points = append(points, model.PricePoint{
			Date:  civil.DateOf(time.Unix(ts.Int(), 0).In(loc)),
			Price: c.Float(),
		})
	}

	points = normalize(points, start, end)
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}
	return points, nil
}

// exchangeLocation resolves the trading calendar's time zone from chart metadata.
func exchangeLocation(meta gjson.Result) *time.Location {
	if name := meta.Get("exchangeTimezoneName").String(); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if off := meta.Get("gmtoffset"); off.Exists() {
		return time.FixedZone(meta.Get("timezone").String(), int(off.Int()))
	}
	return time.UTC
}
