package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"

	"MarketLens/internal/model"
)

// ErrInvalidChartKind is returned for a chart kind other than "ts" or "hist".
var ErrInvalidChartKind = errors.New("invalid chart kind")

// ParseKind validates a chart kind string.
func ParseKind(s string) (model.ChartKind, error) {
	switch k := model.ChartKind(strings.ToLower(strings.TrimSpace(s))); k {
	case model.ChartLine, model.ChartHistogram:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChartKind, s)
	}
}

// Sink renders charts somewhere.
type Sink interface {
	Render(chart model.Chart) error
}

// MarkdownSink renders charts as Markdown to a terminal via glamour.
type MarkdownSink struct {
	Out      io.Writer
	Style    string // glamour style name; empty for auto-detection
	MaxRows  int    // line-chart table rows, downsampled beyond this
	BarWidth int
}

// NewMarkdownSink creates a sink writing to out.
func NewMarkdownSink(out io.Writer) *MarkdownSink {
	return &MarkdownSink{Out: out, MaxRows: 20, BarWidth: 40}
}

func (s *MarkdownSink) Render(chart model.Chart) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if s.Style != "" {
		opts = append(opts, glamour.WithStandardStyle(s.Style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(s.markdown(chart))
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = io.WriteString(s.Out, out)
	return err
}

// Markdown renders chart with the default layout.
func Markdown(chart model.Chart) string {
	return NewMarkdownSink(io.Discard).markdown(chart)
}

func (s *MarkdownSink) markdown(chart model.Chart) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## %s\n\n", chart.Title))
	switch chart.Kind {
	case model.ChartHistogram:
		s.writeHistogram(&b, chart)
	default:
		s.writeLine(&b, chart)
	}
	return b.String()
}

var sparks = []rune("▁▂▃▄▅▆▇█")

func (s *MarkdownSink) writeLine(b *strings.Builder, chart model.Chart) {
	if len(chart.Points) == 0 {
		b.WriteString("_no data_\n")
		return
	}
	values := make([]float64, len(chart.Points))
	for i, p := range chart.Points {
		values[i] = p.Price
	}
	b.WriteString("`" + Sparkline(values) + "`\n\n")

	b.WriteString(fmt.Sprintf("| Date | %s |\n|---|---:|\n", chart.Label))
	for _, i := range sampleIndexes(len(chart.Points), s.MaxRows) {
		p := chart.Points[i]
		b.WriteString(fmt.Sprintf("| %s | %s |\n", p.Date, formatValue(p.Price)))
	}
}

func (s *MarkdownSink) writeHistogram(b *strings.Builder, chart model.Chart) {
	if len(chart.Bins) == 0 {
		b.WriteString("_no data_\n")
		return
	}
	peak := 0
	for _, bin := range chart.Bins {
		if bin.Count > peak {
			peak = bin.Count
		}
	}
	b.WriteString(fmt.Sprintf("| %s | Count | |\n|---|---:|---|\n", chart.Label))
	for _, bin := range chart.Bins {
		width := 0
		if peak > 0 {
			width = int(math.Round(float64(bin.Count) / float64(peak) * float64(s.BarWidth)))
		}
		b.WriteString(fmt.Sprintf("| %.4f … %.4f | %d | %s |\n",
			bin.Low, bin.High, bin.Count, strings.Repeat("█", width)))
	}
}

// Sparkline draws values as a row of block characters; missing and
// infinite values are blanks.
func Sparkline(values []float64) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !finite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		switch {
		case !finite(v):
			out[i] = ' '
		case hi == lo:
			out[i] = sparks[len(sparks)/2]
		default:
			idx := int((v - lo) / (hi - lo) * float64(len(sparks)-1))
			out[i] = sparks[max(0, min(idx, len(sparks)-1))]
		}
	}
	return string(out)
}

func finite(v float64) bool {
	return !model.IsMissing(v) && !math.IsInf(v, 0)
}

// sampleIndexes picks at most max evenly spaced indexes, always keeping the last.
func sampleIndexes(n, max int) []int {
	if max <= 0 || n <= max {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, max)
	step := float64(n-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx = append(idx, int(math.Round(float64(i)*step)))
	}
	return idx
}

func formatValue(v float64) string {
	if model.IsMissing(v) {
		return "–"
	}
	return fmt.Sprintf("%.4f", v)
}
