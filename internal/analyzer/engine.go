package analyzer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"MarketLens/internal/cache"
	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/logging"
	"MarketLens/internal/model"
	"MarketLens/internal/plot"
)

// ErrNoSink is returned by the plot operations when no sink is configured.
var ErrNoSink = errors.New("no presentation sink configured")

// Engine derives series and statistics for instruments. Price retrieval is
// memoized through the caller-owned cache; everything else is recomputed
// from the cached prices on every call.
type Engine struct {
	Fetcher collector.Fetcher
	Cache   *cache.PriceCache
	Sink    plot.Sink
	Logger  *zap.SugaredLogger
}

// NewEngine creates an Engine. A nil cache gets a default one; sink may be nil
// when no charts are needed.
func NewEngine(f collector.Fetcher, c *cache.PriceCache, sink plot.Sink, logger *zap.SugaredLogger) *Engine {
	if c == nil {
		c = cache.New(cache.Options{})
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{Fetcher: f, Cache: c, Sink: sink, Logger: logger}
}

// Prices returns the (memoized) price series for inst.
func (e *Engine) Prices(ctx context.Context, inst model.Instrument) (model.PriceSeries, error) {
	if err := inst.Validate(); err != nil {
		return model.PriceSeries{}, err
	}
	s, err := e.Cache.Fetch(ctx, e.Fetcher, inst)
	if err != nil {
		return model.PriceSeries{}, err
	}
	e.Logger.Debugf("prices for %s: %d points", inst, s.Len())
	return s, nil
}

// PricesWithReturns joins the price series with its daily log returns.
func (e *Engine) PricesWithReturns(ctx context.Context, inst model.Instrument) (model.ReturnSeries, error) {
	s, err := e.Prices(ctx, inst)
	if err != nil {
		return model.ReturnSeries{}, err
	}
	return calculator.LogReturns(s), nil
}

// MeanReturn is the mean daily log return, or the mean log return of the
// series resampled to freq when freq is not empty.
func (e *Engine) MeanReturn(ctx context.Context, inst model.Instrument, freq string) (float64, error) {
	r, err := e.returns(ctx, inst, freq)
	if err != nil {
		return 0, err
	}
	return calculator.Mean(r), nil
}

// StandardReturns is the sample standard deviation counterpart of MeanReturn.
func (e *Engine) StandardReturns(ctx context.Context, inst model.Instrument, freq string) (float64, error) {
	r, err := e.returns(ctx, inst, freq)
	if err != nil {
		return 0, err
	}
	return calculator.StdDev(r), nil
}

// AnnualisedPerformance scales daily mean and volatility to a year of 252
// trading days, rounded to 3 decimals.
func (e *Engine) AnnualisedPerformance(ctx context.Context, inst model.Instrument) (model.Performance, error) {
	r, err := e.returns(ctx, inst, "")
	if err != nil {
		return model.Performance{}, err
	}
	return calculator.Annualise(calculator.Mean(r), calculator.StdDev(r)), nil
}

// RollingMean returns the rolling mean of daily log returns.
func (e *Engine) RollingMean(ctx context.Context, inst model.Instrument, window int) ([]float64, error) {
	r, err := e.PricesWithReturns(ctx, inst)
	if err != nil {
		return nil, err
	}
	return calculator.RollingMean(r, window)
}

// RollingVolatility returns the rolling sample volatility of daily log returns.
func (e *Engine) RollingVolatility(ctx context.Context, inst model.Instrument, window int) ([]float64, error) {
	r, err := e.PricesWithReturns(ctx, inst)
	if err != nil {
		return nil, err
	}
	return calculator.RollingVolatility(r, window)
}

// Report computes the full set of statistics for inst.
func (e *Engine) Report(ctx context.Context, inst model.Instrument, freq string) (*model.Report, error) {
	f, err := calculator.ParseFrequency(freq)
	if err != nil {
		return nil, err
	}
	prices, err := e.Prices(ctx, inst)
	if err != nil {
		return nil, err
	}

	daily := calculator.LogReturns(prices).LogReturns()
	rep := &model.Report{
		Instrument:   inst,
		Observations: prices.Len(),
		MeanReturn:   calculator.Mean(daily),
		StdReturn:    calculator.StdDev(daily),
		Frequency:    f.String(),
		FreqMean:     model.Missing(),
		FreqStd:      model.Missing(),
	}
	rep.Annualised = calculator.Annualise(rep.MeanReturn, rep.StdReturn)

	if f != calculator.None {
		resampled := calculator.LogReturns(calculator.Resample(prices, f)).LogReturns()
		rep.FreqMean = calculator.Mean(resampled)
		rep.FreqStd = calculator.StdDev(resampled)
	}
	return rep, nil
}

// PlotPrices sends a line chart of prices to the sink.
func (e *Engine) PlotPrices(ctx context.Context, inst model.Instrument) error {
	if e.Sink == nil {
		return ErrNoSink
	}
	s, err := e.Prices(ctx, inst)
	if err != nil {
		return err
	}
	return e.Sink.Render(model.Chart{
		Title:  fmt.Sprintf("Price Chart: %s", inst.Ticker),
		Kind:   model.ChartLine,
		Label:  "price",
		Points: s.Points,
	})
}

// PlotReturns sends the log returns to the sink, either as a time series
// ("ts") or as a histogram ("hist") with floor(sqrt(n)) bins.
func (e *Engine) PlotReturns(ctx context.Context, inst model.Instrument, kind string) error {
	k, err := plot.ParseKind(kind)
	if err != nil {
		return err
	}
	if e.Sink == nil {
		return ErrNoSink
	}
	r, err := e.PricesWithReturns(ctx, inst)
	if err != nil {
		return err
	}
	return e.Sink.Render(ReturnsChart(r, k))
}

// ReturnsChart builds the chart PlotReturns renders.
func ReturnsChart(r model.ReturnSeries, kind model.ChartKind) model.Chart {
	if kind == model.ChartHistogram {
		return model.Chart{
			Title: fmt.Sprintf("Frequency of Returns: %s", r.Ticker),
			Kind:  model.ChartHistogram,
			Label: "log return",
			Bins:  calculator.Histogram(r.LogReturns(), calculator.HistogramBins(r.Len())),
		}
	}
	points := make([]model.PricePoint, r.Len())
	for i, p := range r.Points {
		points[i] = model.PricePoint{Date: p.Date, Price: p.LogReturn}
	}
	return model.Chart{
		Title:  fmt.Sprintf("Returns: %s", r.Ticker),
		Kind:   model.ChartLine,
		Label:  "log return",
		Points: points,
	}
}

func (e *Engine) returns(ctx context.Context, inst model.Instrument, freq string) ([]float64, error) {
	f, err := calculator.ParseFrequency(freq)
	if err != nil {
		return nil, err
	}
	prices, err := e.Prices(ctx, inst)
	if err != nil {
		return nil, err
	}
	return calculator.LogReturns(calculator.Resample(prices, f)).LogReturns(), nil
}
