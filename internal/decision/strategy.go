// Package decision maps the latest indicator row to a categorical
// buy/hold/sell signal with a bounded heuristic confidence. Strategies
// are pure functions of the row they evaluate; nothing is persisted.
package decision

import (
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// StrategyName identifies a decision strategy.
type StrategyName string

const (
	// StrategyScorecard is the default scored three-rule strategy.
	StrategyScorecard StrategyName = "scorecard"
	// StrategyMomentum is the lower-confidence RSI-only variant that
	// requires no trend or momentum confirmation.
	StrategyMomentum StrategyName = "momentum"
	// StrategyWeighted is the three-factor weighted variant used for
	// multi-symbol comparison views.
	StrategyWeighted StrategyName = "weighted"
)

const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// Strategy evaluates the last row of an indicator frame into a signal.
// The maWindow selects which configured moving average confirms the trend.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() StrategyName
	// Evaluate produces a signal from a fully populated indicator row.
	Evaluate(symbol string, row types.IndicatorRow, maWindow int) (types.Signal, error)
}

// New returns the strategy registered under the given name.
// The default strategy is StrategyScorecard.
func New(name StrategyName) (Strategy, error) {
	switch name {
	case StrategyScorecard, "":
		return &Scorecard{}, nil
	case StrategyMomentum:
		return &Momentum{}, nil
	case StrategyWeighted:
		return NewWeighted(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown decision strategy %q", name)
	}
}

// trendAverage resolves the confirming moving average from the row.
func trendAverage(row types.IndicatorRow, maWindow int) (float64, error) {
	ma, ok := row.MovingAverage(maWindow)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeMissingIndicator, "no %d-period moving average in indicator row", maWindow)
	}

	return ma, nil
}
