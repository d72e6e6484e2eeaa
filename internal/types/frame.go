package types

import "time"

// IndicatorRow is a fully populated row of an IndicatorFrame. Every
// derived value at index i is computed only from rows <= i.
type IndicatorRow struct {
	// Time is the row timestamp.
	Time time.Time
	// Price is the canonical (close) price of the row.
	Price float64
	// RSI is the Wilder relative strength index, in [0, 100].
	RSI float64
	// MACD is the fast EMA minus the slow EMA of price.
	MACD float64
	// MACDSignal is the EMA of MACD over the signal period.
	MACDSignal float64
	// MACDHistogram is MACD minus MACDSignal.
	MACDHistogram float64
	// MovingAverages holds the simple moving average per requested window.
	MovingAverages map[int]float64
	// Return is the simple percent change against the previous price.
	Return float64
	// Volatility is the rolling standard deviation of Return.
	Volatility float64
}

// MovingAverage returns the moving average for the given window, or
// false if that window was not part of the engine configuration.
func (r IndicatorRow) MovingAverage(window int) (float64, bool) {
	v, ok := r.MovingAverages[window]

	return v, ok
}

// IndicatorFrame is a PriceSeries extended with derived indicator
// columns. Rows where any derived column would be undefined (warm-up)
// are excluded, so every retained row is fully populated.
type IndicatorFrame struct {
	// Symbol is the exchange symbol the frame was computed for.
	Symbol string
	// Rows are the fully populated rows, oldest first.
	Rows []IndicatorRow
}

// Empty reports whether the frame has no usable rows. An empty frame is
// the normal outcome of insufficient history, not an error.
func (f IndicatorFrame) Empty() bool {
	return len(f.Rows) == 0
}

// Last returns the most recent row, or false if the frame is empty.
func (f IndicatorFrame) Last() (IndicatorRow, bool) {
	if len(f.Rows) == 0 {
		return IndicatorRow{}, false
	}

	return f.Rows[len(f.Rows)-1], true
}

// Prices returns the price column of the frame.
func (f IndicatorFrame) Prices() []float64 {
	out := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Price
	}

	return out
}

// Times returns the timestamp column of the frame.
func (f IndicatorFrame) Times() []time.Time {
	out := make([]time.Time, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Time
	}

	return out
}
