package plot

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/model"
)

func lineChart(n int) model.Chart {
	c := model.Chart{Title: "Price Chart: AAA", Kind: model.ChartLine, Label: "price"}
	start := civil.Date{Year: 2024, Month: 1, Day: 1}
	for i := 0; i < n; i++ {
		c.Points = append(c.Points, model.PricePoint{Date: start.AddDays(i), Price: 100 + float64(i)})
	}
	return c
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("ts")
	require.NoError(t, err)
	assert.Equal(t, model.ChartLine, k)

	k, err = ParseKind(" HIST ")
	require.NoError(t, err)
	assert.Equal(t, model.ChartHistogram, k)

	_, err = ParseKind("pie")
	assert.True(t, errors.Is(err, ErrInvalidChartKind))
}

func TestMarkdown_Line(t *testing.T) {
	md := Markdown(lineChart(100))

	assert.True(t, strings.HasPrefix(md, "## Price Chart: AAA\n"))
	assert.Contains(t, md, "| Date | price |")
	assert.Contains(t, md, "| 2024-01-01 | 100.0000 |")
	assert.Contains(t, md, "| 2024-04-09 | 199.0000 |")
	assert.Equal(t, 20, strings.Count(md, "| 2024-"))
}

func TestMarkdown_Histogram(t *testing.T) {
	c := model.Chart{
		Title: "Frequency of Returns: AAA",
		Kind:  model.ChartHistogram,
		Label: "log return",
		Bins: []model.HistogramBin{
			{Low: -0.02, High: 0, Count: 2},
			{Low: 0, High: 0.02, Count: 4},
		},
	}
	md := Markdown(c)
	assert.Contains(t, md, "| -0.0200 … 0.0000 | 2 | "+strings.Repeat("█", 20)+" |")
	assert.Contains(t, md, "| 0.0000 … 0.0200 | 4 | "+strings.Repeat("█", 40)+" |")
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Contains(t, Markdown(model.Chart{Title: "x"}), "_no data_")
	assert.Contains(t, Markdown(model.Chart{Title: "x", Kind: model.ChartHistogram}), "_no data_")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁█", Sparkline([]float64{1, 2}))
	assert.Equal(t, " ▁█", Sparkline([]float64{math.NaN(), 1, 2}))
	assert.Equal(t, "▅▅", Sparkline([]float64{3, 3}))
	assert.Equal(t, "▁  █", Sparkline([]float64{1, math.Inf(-1), math.Inf(1), 2}))
}

func TestMarkdown_InfiniteReturns(t *testing.T) {
	c := lineChart(5)
	c.Points[2].Price = math.Inf(-1)
	c.Points[3].Price = math.Inf(1)

	md := Markdown(c)
	assert.Contains(t, md, "`▁▂  █`")
	assert.Contains(t, md, "| 2024-01-03 | -Inf |")
}

func TestSampleIndexes(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, sampleIndexes(3, 20))
	idx := sampleIndexes(100, 20)
	require.Len(t, idx, 20)
	assert.Equal(t, 0, idx[0])
	assert.Equal(t, 99, idx[19])
}

func TestMarkdownSink_Render(t *testing.T) {
	var buf bytes.Buffer
	sink := NewMarkdownSink(&buf)
	sink.Style = "notty"

	require.NoError(t, sink.Render(lineChart(5)))
	assert.Contains(t, buf.String(), "Price Chart: AAA")
	assert.Contains(t, buf.String(), "104.0000")
}
