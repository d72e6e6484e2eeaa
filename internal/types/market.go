package types

import "time"

// MarketData represents a single OHLCV bar as returned by a data provider.
// All price fields are finite floating point values; Volume is non-negative.
type MarketData struct {
	// Id is an optional provider-assigned identifier.
	Id string
	// Symbol is the exchange symbol of the bar.
	Symbol string
	// Time is the bar timestamp.
	Time time.Time
	// Open is the opening price.
	Open float64
	// High is the highest price.
	High float64
	// Low is the lowest price.
	Low float64
	// Close is the closing price. Only Close feeds the indicator engine;
	// the remaining fields are passed through for display.
	Close float64
	// Volume is the traded volume.
	Volume float64
}
