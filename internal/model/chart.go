package model

// ChartKind selects how a series is drawn.
type ChartKind string

const (
	ChartLine      ChartKind = "ts"
	ChartHistogram ChartKind = "hist"
)

// HistogramBin counts observations in [Low, High).
// The last bin of a histogram also includes its upper edge.
type HistogramBin struct {
	Low   float64
	High  float64
	Count int
}

// Chart is what the analyzer hands to a presentation sink.
type Chart struct {
	Title  string
	Kind   ChartKind
	Label  string
	Points []PricePoint // line charts; Price holds the plotted value
	Bins   []HistogramBin
}
