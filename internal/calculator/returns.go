package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// LogReturns joins the price series with ln(p[t]/p[t-1]).
// The first entry has a missing return; the output has the input's length.
func LogReturns(prices model.PriceSeries) model.ReturnSeries {
	points := make([]model.ReturnPoint, len(prices.Points))
	for i, p := range prices.Points {
		r := model.Missing()
		if i > 0 {
			r = math.Log(p.Price / prices.Points[i-1].Price)
		}
		points[i] = model.ReturnPoint{Date: p.Date, Price: p.Price, LogReturn: r}
	}
	return model.ReturnSeries{Ticker: prices.Ticker, Points: points}
}

// Resample reduces the series to one point per period, labelled with the
// period's last calendar day and carrying the last price observed in it.
// Periods between the first and last observation that have no observation
// carry a missing price.
func Resample(prices model.PriceSeries, f Frequency) model.PriceSeries {
	out := model.PriceSeries{Ticker: prices.Ticker}
	if f == None {
		out.Points = prices.Points
		return out
	}
	if len(prices.Points) == 0 {
		return out
	}

	last := periodEnd(prices.Points[len(prices.Points)-1].Date, f)
	i := 0
	for bin := periodEnd(prices.Points[0].Date, f); !bin.After(last); bin = periodEnd(bin.AddDays(1), f) {
		price := model.Missing()
		for i < len(prices.Points) && !prices.Points[i].Date.After(bin) {
			price = prices.Points[i].Price
			i++
		}
		out.Points = append(out.Points, model.PricePoint{Date: bin, Price: price})
	}
	return out
}
