package recorder

import (
	"time"

	"MarketLens/internal/model"
)

// Snapshot is a stored analysis report.
type Snapshot struct {
	RecordedAt   time.Time
	Ticker       string
	Start        string
	End          string
	Observations int
	MeanReturn   float64
	StdReturn    float64
	Frequency    string
	FreqMean     float64
	FreqStd      float64
	AnnualReturn float64
	AnnualRisk   float64
	Source       string // "watch", "command", "cli"
}

// FromReport flattens a report into a Snapshot.
func FromReport(rep *model.Report, source string) *Snapshot {
	return &Snapshot{
		RecordedAt:   time.Now(),
		Ticker:       rep.Instrument.Ticker,
		Start:        rep.Instrument.Start.String(),
		End:          rep.Instrument.End.String(),
		Observations: rep.Observations,
		MeanReturn:   rep.MeanReturn,
		StdReturn:    rep.StdReturn,
		Frequency:    rep.Frequency,
		FreqMean:     rep.FreqMean,
		FreqStd:      rep.FreqStd,
		AnnualReturn: rep.Annualised.Return,
		AnnualRisk:   rep.Annualised.Risk,
		Source:       source,
	}
}

// Recorder persists historical analysis results.
type Recorder interface {
	RecordReport(snap *Snapshot) error
	Recent(ticker string, limit int) ([]Snapshot, error)
	Close() error
}
