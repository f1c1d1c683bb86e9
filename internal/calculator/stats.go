package calculator

import (
	"math"

	"github.com/shopspring/decimal"

	"MarketLens/internal/model"
)

// TradingDaysPerYear scales daily statistics to annual figures.
const TradingDaysPerYear = 252

// Mean returns the arithmetic mean of the non-missing values, or NaN if there are none.
func Mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if model.IsMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// StdDev returns the sample standard deviation (n-1) of the non-missing
// values, or NaN when fewer than two are present.
func StdDev(values []float64) float64 {
	mean := Mean(values)
	ss, n := 0.0, 0
	for _, v := range values {
		if model.IsMissing(v) {
			continue
		}
		d := v - mean
		ss += d * d
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(ss / float64(n-1))
}

// Annualise scales a daily mean by 252 and a daily standard deviation by
// sqrt(252), both rounded to 3 decimals.
func Annualise(dailyMean, dailyStd float64) model.Performance {
	return model.Performance{
		Return: Round(dailyMean*TradingDaysPerYear, 3),
		Risk:   Round(dailyStd*math.Sqrt(TradingDaysPerYear), 3),
	}
}

// Round rounds v to places decimals. NaN and infinities are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
