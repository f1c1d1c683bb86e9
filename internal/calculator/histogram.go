package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// HistogramBins returns floor(sqrt(n)), at least 1.
func HistogramBins(n int) int {
	b := int(math.Sqrt(float64(n)))
	if b < 1 {
		b = 1
	}
	return b
}

// Histogram counts the finite values into bins equal-width buckets spanning
// their range; missing and infinite values are left out. A constant sample is
// centred in a range of width 1.
func Histogram(values []float64, bins int) []model.HistogramBin {
	if bins < 1 {
		bins = 1
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	var valid []float64
	for _, v := range values {
		if model.IsMissing(v) || math.IsInf(v, 0) {
			continue
		}
		valid = append(valid, v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(valid) == 0 {
		return nil
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(bins)
	out := make([]model.HistogramBin, bins)
	for i := range out {
		out[i].Low = lo + float64(i)*width
		out[i].High = lo + float64(i+1)*width
	}
	out[bins-1].High = hi

	for _, v := range valid {
		idx := int((v - lo) / width)
		switch {
		case idx < 0:
			idx = 0
		case idx >= bins:
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}
