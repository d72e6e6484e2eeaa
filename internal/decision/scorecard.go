package decision

import (
	"fmt"
	"math"
	"strings"

	"github.com/greenquant-lab/greenquant/internal/types"
)

// Scorecard is the default strategy. Three sub-rules vote on the latest
// row and the integer sum classifies the signal:
//
//	rsi < 30  => +1    rsi > 70 => -1    otherwise 0
//	macd > 0  => +1    macd <= 0 => -1 (no neutral zone)
//	price > moving average => +1, otherwise 0
//
// score >= 2 is BUY, score <= -1 is SELL, everything else is HOLD.
// Confidence is min(|score|*25+25, 90), so mixed conditions land at 25.
type Scorecard struct{}

// Name returns the name of the strategy.
func (s *Scorecard) Name() StrategyName {
	return StrategyScorecard
}

// Evaluate scores the row and classifies it.
func (s *Scorecard) Evaluate(symbol string, row types.IndicatorRow, maWindow int) (types.Signal, error) {
	ma, err := trendAverage(row, maWindow)
	if err != nil {
		return types.Signal{}, err
	}

	score := 0

	var fired []string

	switch {
	case row.RSI < rsiOversold:
		score++

		fired = append(fired, fmt.Sprintf("RSI oversold (value=%.2f)", row.RSI))
	case row.RSI > rsiOverbought:
		score--

		fired = append(fired, fmt.Sprintf("RSI overbought (value=%.2f)", row.RSI))
	}

	if row.MACD > 0 {
		score++

		fired = append(fired, fmt.Sprintf("MACD bullish (value=%.4f)", row.MACD))
	} else {
		score--

		fired = append(fired, fmt.Sprintf("MACD bearish (value=%.4f)", row.MACD))
	}

	if row.Price > ma {
		score++

		fired = append(fired, fmt.Sprintf("price above %d-period average", maWindow))
	}

	action := types.ActionHold

	switch {
	case score >= 2:
		action = types.ActionBuy
	case score <= -1:
		action = types.ActionSell
	}

	rationale := strings.Join(fired, "; ")
	if len(fired) == 0 {
		rationale = "mixed conditions"
	}

	return types.Signal{
		Time:       row.Time,
		Symbol:     symbol,
		Action:     action,
		Confidence: scoreConfidence(score),
		Rationale:  rationale,
		Strategy:   string(s.Name()),
		RawValue: map[string]float64{
			"rsi":            row.RSI,
			"macd":           row.MACD,
			"price":          row.Price,
			"moving_average": ma,
			"score":          float64(score),
		},
	}, nil
}

// scoreConfidence maps an integer score to a bounded heuristic
// confidence: min(|score|*25+25, 90).
func scoreConfidence(score int) float64 {
	return math.Min(math.Abs(float64(score))*25+25, 90)
}
