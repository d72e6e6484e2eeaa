package types

import "time"

// Action is the categorical recommendation produced by the decision engine.
type Action string

const (
	// ActionBuy recommends accumulating the symbol.
	ActionBuy Action = "BUY"
	// ActionSell recommends reducing exposure to the symbol.
	ActionSell Action = "SELL"
	// ActionHold recommends taking no action.
	ActionHold Action = "HOLD"
)

// Signal is the output of a decision strategy: a categorical action, a
// bounded heuristic confidence, and a human-readable rationale. A signal
// is computed fresh from the latest indicator row on every request, is
// never persisted, and is immutable once produced.
type Signal struct {
	// Time is the timestamp of the indicator row the signal was derived from.
	Time time.Time
	// Symbol is the exchange symbol the signal applies to.
	Symbol string
	// Action is the categorical recommendation.
	Action Action
	// Confidence is a heuristic rule-agreement score in [0, 100],
	// not a calibrated statistical probability.
	Confidence float64
	// Rationale enumerates the sub-rules that fired.
	Rationale string
	// Strategy names the strategy that produced the signal.
	Strategy string
	// RawValue carries the indicator values the strategy read.
	RawValue map[string]float64
}
