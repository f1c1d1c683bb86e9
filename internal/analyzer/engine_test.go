package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/cache"
	"MarketLens/internal/calculator"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/plot"
)

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func points(start civil.Date, prices ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = model.PricePoint{Date: start.AddDays(i), Price: p}
	}
	return out
}

type recordingSink struct {
	charts []model.Chart
}

func (r *recordingSink) Render(c model.Chart) error {
	r.charts = append(r.charts, c)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *collector.StaticFetcher, *recordingSink) {
	t.Helper()

	twoWeeks := append(points(day(2024, 1, 1), 95, 96, 97, 99, 100), points(day(2024, 1, 8), 105, 110, 115, 118, 121)...)
	long := make([]float64, 100)
	for i := range long {
		long[i] = 100 * math.Exp(0.01*math.Sin(float64(i)))
	}

	f := collector.NewStaticFetcher(map[string][]model.PricePoint{
		"AAA":  points(day(2024, 1, 2), 100, 110, 121),
		"BBB":  twoWeeks,
		"FLAT": points(day(2024, 1, 2), 50, 50, 50, 50, 50, 50),
		"LONG": points(day(2023, 1, 1), long...),
		"ONE":  points(day(2024, 1, 2), 10),
		"ZERO": points(day(2024, 1, 2), 100, 101, 0, 102, 103),
	})
	sink := &recordingSink{}
	return NewEngine(f, cache.New(cache.Options{Size: 16}), sink, nil), f, sink
}

func inst(ticker string) model.Instrument {
	return model.Instrument{Ticker: ticker, Start: day(2023, 1, 1), End: day(2024, 12, 31)}
}

func TestEngine_PricesWithReturns(t *testing.T) {
	e, _, _ := newTestEngine(t)

	r, err := e.PricesWithReturns(context.Background(), inst("AAA"))
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())
	assert.True(t, model.IsMissing(r.Points[0].LogReturn))
	assert.InDelta(t, math.Log(1.1), r.Points[1].LogReturn, 1e-12)
	assert.InDelta(t, math.Log(1.1), r.Points[2].LogReturn, 1e-12)
}

func TestEngine_FetchesOncePerIdentity(t *testing.T) {
	e, f, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Prices(ctx, inst("AAA"))
	require.NoError(t, err)
	_, err = e.MeanReturn(ctx, inst("AAA"), "")
	require.NoError(t, err)
	_, err = e.StandardReturns(ctx, inst("AAA"), "W")
	require.NoError(t, err)
	_, err = e.AnnualisedPerformance(ctx, inst("AAA"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls("AAA"))

	other := inst("AAA")
	other.End = day(2024, 6, 30)
	_, err = e.Prices(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Calls("AAA"))
}

func TestEngine_MeanReturn(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	m, err := e.MeanReturn(ctx, inst("AAA"), "")
	require.NoError(t, err)
	assert.InDelta(t, 0.0953, m, 1e-4)

	daily, err := e.MeanReturn(ctx, inst("BBB"), "")
	require.NoError(t, err)
	weekly, err := e.MeanReturn(ctx, inst("BBB"), "W")
	require.NoError(t, err)
	assert.InDelta(t, math.Log(1.21), weekly, 1e-12)
	assert.NotEqual(t, calculator.Round(daily, 4), calculator.Round(weekly, 4))

	std, err := e.StandardReturns(ctx, inst("BBB"), "W")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(std), "one resampled return has no sample deviation")
}

func TestEngine_AnnualisedPerformance(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	p, err := e.AnnualisedPerformance(ctx, inst("FLAT"))
	require.NoError(t, err)
	assert.Equal(t, model.Performance{Return: 0, Risk: 0}, p)

	p, err = e.AnnualisedPerformance(ctx, inst("AAA"))
	require.NoError(t, err)
	assert.Equal(t, calculator.Round(math.Log(1.1)*252, 3), p.Return)
	assert.Equal(t, 0.0, p.Risk)

	p, err = e.AnnualisedPerformance(ctx, inst("ONE"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(p.Return))
	assert.True(t, math.IsNaN(p.Risk))
}

func TestEngine_Errors(t *testing.T) {
	e, f, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.MeanReturn(ctx, inst("AAA"), "fortnightly")
	assert.True(t, errors.Is(err, calculator.ErrInvalidFrequency))
	assert.Equal(t, 0, f.Calls("AAA"))

	bad := model.Instrument{Ticker: "AAA", Start: day(2024, 2, 1), End: day(2024, 1, 1)}
	_, err = e.Prices(ctx, bad)
	assert.True(t, errors.Is(err, model.ErrInvalidInstrument))

	_, err = e.AnnualisedPerformance(ctx, inst("NOPE"))
	assert.True(t, errors.Is(err, collector.ErrNoData))

	f.Err = errors.New("dial tcp: connection refused")
	_, err = e.Prices(ctx, inst("BBB"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestEngine_Rolling(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	vol, err := e.RollingVolatility(ctx, inst("LONG"), 20)
	require.NoError(t, err)
	require.Len(t, vol, 100)
	assert.True(t, model.IsMissing(vol[19]))
	assert.False(t, model.IsMissing(vol[20]))

	r, err := e.PricesWithReturns(ctx, inst("LONG"))
	require.NoError(t, err)
	assert.InDelta(t, calculator.StdDev(r.LogReturns()[1:21]), vol[20], 1e-9)

	mean, err := e.RollingMean(ctx, inst("LONG"), 20)
	require.NoError(t, err)
	assert.InDelta(t, calculator.Mean(r.LogReturns()[80:]), mean[99], 1e-9)

	_, err = e.RollingMean(ctx, inst("LONG"), 0)
	assert.True(t, errors.Is(err, calculator.ErrInvalidWindow))
}

func TestEngine_Report(t *testing.T) {
	e, _, _ := newTestEngine(t)

	rep, err := e.Report(context.Background(), inst("BBB"), "weekly")
	require.NoError(t, err)
	assert.Equal(t, 10, rep.Observations)
	assert.Equal(t, "W", rep.Frequency)
	assert.InDelta(t, math.Log(1.21), rep.FreqMean, 1e-12)
	assert.InDelta(t, math.Log(121.0/95.0)/9, rep.MeanReturn, 1e-12)
	assert.Equal(t, calculator.Annualise(rep.MeanReturn, rep.StdReturn), rep.Annualised)

	rep, err = e.Report(context.Background(), inst("AAA"), "")
	require.NoError(t, err)
	assert.Equal(t, "", rep.Frequency)
	assert.True(t, model.IsMissing(rep.FreqMean))
	assert.True(t, model.IsMissing(rep.FreqStd))
}

func TestEngine_Plots(t *testing.T) {
	e, _, sink := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.PlotPrices(ctx, inst("AAA")))
	require.NoError(t, e.PlotReturns(ctx, inst("AAA"), "ts"))
	require.NoError(t, e.PlotReturns(ctx, inst("LONG"), "hist"))
	require.Len(t, sink.charts, 3)

	assert.Equal(t, "Price Chart: AAA", sink.charts[0].Title)
	assert.Equal(t, []float64{100, 110, 121}, []float64{
		sink.charts[0].Points[0].Price, sink.charts[0].Points[1].Price, sink.charts[0].Points[2].Price,
	})

	assert.Equal(t, "Returns: AAA", sink.charts[1].Title)
	assert.Equal(t, model.ChartLine, sink.charts[1].Kind)
	assert.True(t, model.IsMissing(sink.charts[1].Points[0].Price))

	hist := sink.charts[2]
	assert.Equal(t, "Frequency of Returns: LONG", hist.Title)
	assert.Equal(t, model.ChartHistogram, hist.Kind)
	require.Len(t, hist.Bins, 10)
	total := 0
	for _, b := range hist.Bins {
		total += b.Count
	}
	assert.Equal(t, 99, total)

	err := e.PlotReturns(ctx, inst("AAA"), "pie")
	assert.True(t, errors.Is(err, plot.ErrInvalidChartKind))

	e.Sink = nil
	assert.True(t, errors.Is(e.PlotPrices(ctx, inst("AAA")), ErrNoSink))
}

func TestEngine_PlotsWithZeroPrice(t *testing.T) {
	e, _, sink := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.PlotReturns(ctx, inst("ZERO"), "hist"))
	require.NoError(t, e.PlotReturns(ctx, inst("ZERO"), "ts"))
	require.Len(t, sink.charts, 2)

	total := 0
	for _, b := range sink.charts[0].Bins {
		total += b.Count
	}
	assert.Equal(t, 2, total)

	r, err := e.PricesWithReturns(ctx, inst("ZERO"))
	require.NoError(t, err)
	assert.NotPanics(t, func() { plot.Markdown(ReturnsChart(r, model.ChartLine)) })
	assert.NotPanics(t, func() { plot.Markdown(ReturnsChart(r, model.ChartHistogram)) })
}
