// Package aggregator runs the normalize/indicator/decision pipeline for
// a set of symbols in parallel and collects comparable per-symbol
// results. Each symbol is an independent unit of work: one symbol
// failing never aborts its siblings, and the result slice always
// follows the requested symbol order regardless of completion order.
package aggregator

import (
	"context"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/greenquant-lab/greenquant/internal/decision"
	"github.com/greenquant-lab/greenquant/internal/indicator"
	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/normalizer"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// defaultMaxParallel caps the fan-out. Comparison views stay readable
// around three symbols, so wider runs gain little from more workers.
const defaultMaxParallel = 3

// Source fetches raw history bars for one symbol.
type Source interface {
	FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error)
}

// Predictor is the optional model collaborator. A nil Predictor is the
// supported "model unavailable" state and downgrades results to the
// rule-based signal alone.
type Predictor interface {
	Predict(ctx context.Context, symbol string, series types.PriceSeries) (types.Outlook, error)
}

// Config parameterizes one aggregator instance.
type Config struct {
	Period      types.Period
	Interval    optional.Option[string]
	Indicators  indicator.Config
	Strategy    decision.StrategyName
	TrendWindow int
	MaxParallel int
}

// SymbolResult is the outcome for one requested symbol. Err is set and
// the other fields are zero-valued when that symbol's pipeline failed.
type SymbolResult struct {
	Symbol  string
	Frame   types.IndicatorFrame
	Signal  types.Signal
	Rebased []float64
	Outlook *types.Outlook
	Err     error
}

// Result is one aggregator run.
type Result struct {
	TraceID  string
	Period   types.Period
	Strategy decision.StrategyName
	Results  []SymbolResult
}

// Aggregator fans the pipeline out over symbols.
type Aggregator struct {
	source      Source
	predictor   Predictor
	engine      *indicator.Engine
	strategy    decision.Strategy
	logger      *logger.Logger
	period      types.Period
	interval    optional.Option[string]
	trendWindow int
	maxParallel int
}

// New creates an aggregator. The trend window defaults to the first
// configured moving-average window when unset.
func New(source Source, cfg Config, log *logger.Logger) (*Aggregator, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "aggregator requires a data source")
	}

	if err := cfg.Indicators.Validate(); err != nil {
		return nil, err
	}

	if _, err := types.ParsePeriod(string(cfg.Period)); err != nil {
		return nil, err
	}

	strategy, err := decision.New(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	engine := indicator.NewEngine(cfg.Indicators)

	trendWindow := cfg.TrendWindow
	if trendWindow <= 0 {
		trendWindow = engine.Config().MAWindows[0]
	}

	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}

	return &Aggregator{
		source:      source,
		engine:      engine,
		strategy:    strategy,
		logger:      log,
		period:      cfg.Period,
		interval:    cfg.Interval,
		trendWindow: trendWindow,
		maxParallel: maxParallel,
	}, nil
}

// WithPredictor attaches the optional model collaborator.
func (a *Aggregator) WithPredictor(p Predictor) *Aggregator {
	a.predictor = p
	return a
}

// Run executes the pipeline for every requested symbol and returns the
// per-symbol outcomes in request order. A cancelled context abandons
// in-flight work and returns the context error with no partial results.
func (a *Aggregator) Run(ctx context.Context, symbols []string) (*Result, error) {
	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at least one symbol is required")
	}

	result := &Result{
		TraceID:  uuid.NewString(),
		Period:   a.period,
		Strategy: a.strategy.Name(),
		Results:  make([]SymbolResult, len(symbols)),
	}

	a.logger.Info("starting aggregation run",
		zap.String("trace_id", result.TraceID),
		zap.Strings("symbols", symbols),
		zap.String("period", a.period.String()),
		zap.String("strategy", string(a.strategy.Name())))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.maxParallel)

	for i, symbol := range symbols {
		group.Go(func() error {
			// Per-symbol failures land in the slot, never in the group
			// error, so siblings keep running.
			result.Results[i] = a.runSymbol(groupCtx, result.TraceID, symbol)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (a *Aggregator) runSymbol(ctx context.Context, traceID, symbol string) SymbolResult {
	out := SymbolResult{Symbol: symbol}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	bars, err := a.source.FetchHistory(ctx, symbol, a.period, a.interval)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			err = errors.Wrapf(errors.ErrCodeFetchTimeout, err, "history fetch for %s timed out", symbol)
		case errors.IsNoDataError(err), errors.HasCode(err, errors.ErrCodeFetchFailed):
			// Already classified by the source.
		default:
			err = errors.Wrapf(errors.ErrCodeFetchFailed, err, "fetching history for %s", symbol)
		}

		a.logger.Warn("symbol pipeline failed at fetch",
			zap.String("trace_id", traceID),
			zap.String("symbol", symbol),
			zap.Error(err))

		out.Err = err

		return out
	}

	series, err := normalizer.SeriesFromBars(symbol, bars)
	if err != nil {
		a.logger.Warn("symbol pipeline failed at normalization",
			zap.String("trace_id", traceID),
			zap.String("symbol", symbol),
			zap.Error(err))

		out.Err = err

		return out
	}

	frame := a.engine.Compute(symbol, series)
	out.Frame = frame
	out.Rebased = rebase(frame.Prices())

	last, ok := frame.Last()
	if !ok {
		// Too little history for the configured windows. The empty frame
		// is the result, not an error.
		a.logger.Info("insufficient history for indicators",
			zap.String("trace_id", traceID),
			zap.String("symbol", symbol),
			zap.Int("series_length", len(series)))

		return out
	}

	signal, err := a.strategy.Evaluate(symbol, last, a.trendWindow)
	if err != nil {
		out.Err = err
		return out
	}

	out.Signal = signal

	if a.predictor != nil {
		outlook, err := a.predictor.Predict(ctx, symbol, series)
		if err != nil {
			// Model unavailability is never fatal.
			a.logger.Warn("predictor unavailable, keeping rule-based signal",
				zap.String("trace_id", traceID),
				zap.String("symbol", symbol),
				zap.Error(err))
		} else {
			out.Outlook = &outlook
		}
	}

	return out
}

// rebase rescales a price column so every symbol starts at 100,
// making relative performance comparable across price levels.
func rebase(prices []float64) []float64 {
	if len(prices) == 0 || prices[0] == 0 {
		return nil
	}

	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p / prices[0] * 100
	}

	return out
}
