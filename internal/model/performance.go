package model

import (
	"fmt"
	"strconv"
)

// Performance holds annualised return and risk.
type Performance struct {
	Return float64
	Risk   float64
}

func (p Performance) String() string {
	return fmt.Sprintf("Return: %s | Risk: %s", formatFloat(p.Return), formatFloat(p.Risk))
}

// Report bundles the statistics computed for one instrument.
type Report struct {
	Instrument   Instrument
	Observations int
	MeanReturn   float64 // daily
	StdReturn    float64 // daily
	Frequency    string  // empty when no resampling was requested
	FreqMean     float64
	FreqStd      float64
	Annualised   Performance
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
