package types

import "time"

// PricePoint is a single (timestamp, price) observation.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// PriceSeries is an ordered sequence of price points with strictly
// increasing timestamps, no duplicates, and strictly positive prices.
// The normalizer is the only producer of valid series; every pipeline
// run owns its series exclusively.
type PriceSeries []PricePoint

// Prices returns the price column of the series.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}

	return out
}

// Times returns the timestamp column of the series.
func (s PriceSeries) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}

	return out
}

// Last returns the most recent point, or false if the series is empty.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}

	return s[len(s)-1], true
}

// Rebase rescales the price column to a common base of 100 so relative
// performance is comparable regardless of absolute price level:
// rebased[i] = price[i] / price[0] * 100. Returns nil for an empty series.
func (s PriceSeries) Rebase() []float64 {
	if len(s) == 0 {
		return nil
	}

	base := s[0].Price
	out := make([]float64, len(s))

	for i, p := range s {
		out[i] = p.Price / base * 100
	}

	return out
}
