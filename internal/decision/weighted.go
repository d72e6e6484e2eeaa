package decision

import (
	"fmt"
	"math"
	"strings"

	"github.com/greenquant-lab/greenquant/internal/types"
)

// Weighted is the three-factor variant used by multi-symbol comparison
// views. Each factor votes in [-1, +1] and the votes are blended with
// fixed weights; the blended score classifies against symmetric
// thresholds instead of the scorecard's asymmetric integer cutoffs.
type Weighted struct {
	rsiWeight   float64
	macdWeight  float64
	trendWeight float64
	threshold   float64
}

// NewWeighted creates the weighted strategy with its standard weights:
// RSI 0.40, MACD 0.35, trend 0.25, classification threshold 0.5.
func NewWeighted() *Weighted {
	return &Weighted{
		rsiWeight:   0.40,
		macdWeight:  0.35,
		trendWeight: 0.25,
		threshold:   0.5,
	}
}

// Name returns the name of the strategy.
func (w *Weighted) Name() StrategyName {
	return StrategyWeighted
}

// Evaluate blends the three factor votes and classifies the result.
func (w *Weighted) Evaluate(symbol string, row types.IndicatorRow, maWindow int) (types.Signal, error) {
	ma, err := trendAverage(row, maWindow)
	if err != nil {
		return types.Signal{}, err
	}

	rsiVote := 0.0

	switch {
	case row.RSI < rsiOversold:
		rsiVote = 1
	case row.RSI > rsiOverbought:
		rsiVote = -1
	}

	macdVote := -1.0
	if row.MACD > 0 {
		macdVote = 1
	}

	trendVote := 0.0

	switch {
	case row.Price > ma:
		trendVote = 1
	case row.Price < ma:
		trendVote = -1
	}

	blended := w.rsiWeight*rsiVote + w.macdWeight*macdVote + w.trendWeight*trendVote

	action := types.ActionHold

	switch {
	case blended >= w.threshold:
		action = types.ActionBuy
	case blended <= -w.threshold:
		action = types.ActionSell
	}

	var parts []string

	if rsiVote != 0 {
		parts = append(parts, fmt.Sprintf("RSI vote %+.0f (value=%.2f, weight=%.2f)", rsiVote, row.RSI, w.rsiWeight))
	}

	parts = append(parts, fmt.Sprintf("MACD vote %+.0f (value=%.4f, weight=%.2f)", macdVote, row.MACD, w.macdWeight))

	if trendVote != 0 {
		parts = append(parts, fmt.Sprintf("trend vote %+.0f (price vs %d-period average, weight=%.2f)", trendVote, maWindow, w.trendWeight))
	}

	return types.Signal{
		Time:       row.Time,
		Symbol:     symbol,
		Action:     action,
		Confidence: math.Min(math.Abs(blended)*100, 90),
		Rationale:  strings.Join(parts, "; "),
		Strategy:   string(w.Name()),
		RawValue: map[string]float64{
			"rsi":            row.RSI,
			"macd":           row.MACD,
			"price":          row.Price,
			"moving_average": ma,
			"blended_score":  blended,
		},
	}, nil
}
