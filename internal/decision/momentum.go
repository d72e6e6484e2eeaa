package decision

import (
	"fmt"

	"github.com/greenquant-lab/greenquant/internal/types"
)

// Momentum is the lower-confidence variant that thresholds RSI alone,
// with no trend or momentum confirmation. It mirrors the signal
// assessment of the single-symbol dashboard view: oversold is a
// potential upside signal, overbought a potential downside signal,
// anything else neutral.
type Momentum struct{}

// Name returns the name of the strategy.
func (m *Momentum) Name() StrategyName {
	return StrategyMomentum
}

// Evaluate thresholds the row's RSI.
func (m *Momentum) Evaluate(symbol string, row types.IndicatorRow, maWindow int) (types.Signal, error) {
	action := types.ActionHold
	confidence := 20.0
	rationale := "market conditions appear neutral"

	switch {
	case row.RSI < rsiOversold:
		action = types.ActionBuy
		confidence = 40
		rationale = fmt.Sprintf("oversold conditions detected (RSI=%.2f)", row.RSI)
	case row.RSI > rsiOverbought:
		action = types.ActionSell
		confidence = 40
		rationale = fmt.Sprintf("overbought conditions detected (RSI=%.2f)", row.RSI)
	}

	return types.Signal{
		Time:       row.Time,
		Symbol:     symbol,
		Action:     action,
		Confidence: confidence,
		Rationale:  rationale,
		Strategy:   string(m.Name()),
		RawValue: map[string]float64{
			"rsi": row.RSI,
		},
	}, nil
}
