package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"MarketLens/internal/model"
)

// ErrInvalidWindow is returned when a rolling window is too short: below 1
// for the mean, below 2 for the volatility.
var ErrInvalidWindow = errors.New("invalid rolling window")

// RollingMean computes the simple moving average of the log returns over
// window observations. The result is aligned with the series and missing
// until the window is full.
func RollingMean(s model.ReturnSeries, window int) ([]float64, error) {
	return rolling(s, window, 1, func(in []float64) []float64 {
		return talib.Sma(in, window)
	})
}

// RollingVolatility computes the sample standard deviation of the log
// returns over window observations, aligned like RollingMean.
func RollingVolatility(s model.ReturnSeries, window int) ([]float64, error) {
	correction := math.Sqrt(float64(window) / float64(window-1))
	return rolling(s, window, 2, func(in []float64) []float64 {
		out := talib.StdDev(in, window, 1)
		for i := range out {
			out[i] *= correction
		}
		return out
	})
}

func rolling(s model.ReturnSeries, window, minWindow int, calc func([]float64) []float64) ([]float64, error) {
	if window < minWindow {
		return nil, fmt.Errorf("%w: %d (need at least %d)", ErrInvalidWindow, window, minWindow)
	}
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = model.Missing()
	}
	if s.Len() < 2 {
		return out, nil
	}

	// talib cannot skip NaN, so drop the missing first return.
	returns := s.LogReturns()[1:]
	if len(returns) < window {
		return out, nil
	}
	values := calc(returns)
	for i := window - 1; i < len(values); i++ {
		out[i+1] = values[i]
	}
	return out, nil
}
