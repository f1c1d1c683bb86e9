package model

import (
	"math"

	"cloud.google.com/go/civil"
)

// PricePoint is a single closing price on a trading date.
type PricePoint struct {
	Date  civil.Date
	Price float64
}

// PriceSeries holds closing prices in strictly increasing date order.
// Series returned by the cache are shared; callers must not modify Points.
type PriceSeries struct {
	Ticker string
	Points []PricePoint
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// Prices extracts the price column.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// ReturnPoint pairs a price with its log return against the previous point.
// LogReturn is missing (NaN) on the first point.
type ReturnPoint struct {
	Date      civil.Date
	Price     float64
	LogReturn float64
}

// ReturnSeries is a PriceSeries joined with its log-return column.
type ReturnSeries struct {
	Ticker string
	Points []ReturnPoint
}

// Len returns the number of observations, including the missing first return.
func (s ReturnSeries) Len() int { return len(s.Points) }

// LogReturns extracts the log-return column, missing values included.
func (s ReturnSeries) LogReturns() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.LogReturn
	}
	return out
}

// Missing is the placeholder for an undefined value in a series.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing placeholder.
func IsMissing(v float64) bool { return math.IsNaN(v) }
