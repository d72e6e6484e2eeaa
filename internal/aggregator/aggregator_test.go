package aggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

type fakeSource struct {
	mu      sync.Mutex
	bars    map[string][]types.MarketData
	fail    map[string]error
	block   bool
	fetched []string
}

func (f *fakeSource) FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	f.fetched = append(f.fetched, symbol)
	f.mu.Unlock()

	if err, ok := f.fail[symbol]; ok {
		return nil, err
	}

	return f.bars[symbol], nil
}

type fakePredictor struct {
	outlook types.Outlook
	err     error
}

func (f *fakePredictor) Predict(ctx context.Context, symbol string, series types.PriceSeries) (types.Outlook, error) {
	return f.outlook, f.err
}

// dailyBars builds n strictly ascending daily bars around a gentle
// oscillation so no indicator saturates.
func dailyBars(symbol string, n int) []types.MarketData {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.MarketData, 0, n)
	price := 100.0

	for i := 0; i < n; i++ {
		if i%3 == 2 {
			price -= 0.4
		} else {
			price += 0.7
		}

		out = append(out, types.MarketData{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, i),
			Open:   price - 0.2,
			High:   price + 0.5,
			Low:    price - 0.5,
			Close:  price,
			Volume: 10_000,
		})
	}

	return out
}

type AggregatorTestSuite struct {
	suite.Suite

	source *fakeSource
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func (suite *AggregatorTestSuite) SetupTest() {
	suite.source = &fakeSource{
		bars: map[string][]types.MarketData{
			"AAPL": dailyBars("AAPL", 120),
			"MSFT": dailyBars("MSFT", 120),
			"GOOG": dailyBars("GOOG", 120),
		},
		fail: map[string]error{},
	}
}

func (suite *AggregatorTestSuite) newAggregator() *Aggregator {
	agg, err := New(suite.source, Config{Period: types.Period1Year}, logger.NewNopLogger())
	suite.Require().NoError(err)

	return agg
}

func (suite *AggregatorTestSuite) TestRunProducesSignalsInRequestOrder() {
	requested := []string{"GOOG", "AAPL", "MSFT"}

	result, err := suite.newAggregator().Run(context.Background(), requested)
	suite.Require().NoError(err)
	suite.NotEmpty(result.TraceID)
	suite.Require().Len(result.Results, 3)

	for i, r := range result.Results {
		suite.Equal(requested[i], r.Symbol)
		suite.NoError(r.Err)
		suite.False(r.Frame.Empty())
		suite.Equal(requested[i], r.Signal.Symbol)
		suite.Contains([]types.Action{types.ActionBuy, types.ActionSell, types.ActionHold}, r.Signal.Action)
	}
}

func (suite *AggregatorTestSuite) TestOneSymbolFailureIsIsolated() {
	suite.source.fail["MSFT"] = errors.New(errors.ErrCodeFetchFailed, "upstream 503")

	result, err := suite.newAggregator().Run(context.Background(), []string{"AAPL", "MSFT", "GOOG"})
	suite.Require().NoError(err)
	suite.Require().Len(result.Results, 3)

	suite.NoError(result.Results[0].Err)
	suite.NoError(result.Results[2].Err)

	failed := result.Results[1]
	suite.Equal("MSFT", failed.Symbol)
	suite.Error(failed.Err)
	suite.True(errors.HasCode(failed.Err, errors.ErrCodeFetchFailed))
	suite.True(failed.Frame.Empty())
}

func (suite *AggregatorTestSuite) TestDeadlineClassifiedAsTimeout() {
	suite.source.fail["AAPL"] = context.DeadlineExceeded

	result, err := suite.newAggregator().Run(context.Background(), []string{"AAPL"})
	suite.Require().NoError(err)
	suite.True(errors.HasCode(result.Results[0].Err, errors.ErrCodeFetchTimeout))
}

func (suite *AggregatorTestSuite) TestEmptyFetchBecomesNoData() {
	suite.source.bars["AAPL"] = nil

	result, err := suite.newAggregator().Run(context.Background(), []string{"AAPL"})
	suite.Require().NoError(err)
	suite.True(errors.IsNoDataError(result.Results[0].Err))
}

func (suite *AggregatorTestSuite) TestRebasedStartsAtOneHundred() {
	result, err := suite.newAggregator().Run(context.Background(), []string{"AAPL", "MSFT"})
	suite.Require().NoError(err)

	for _, r := range result.Results {
		suite.Require().NotEmpty(r.Rebased)
		suite.Equal(100.0, r.Rebased[0])
		suite.Len(r.Rebased, len(r.Frame.Rows))
	}
}

func (suite *AggregatorTestSuite) TestShortHistoryYieldsEmptyFrameNotError() {
	suite.source.bars["AAPL"] = dailyBars("AAPL", 10)

	result, err := suite.newAggregator().Run(context.Background(), []string{"AAPL"})
	suite.Require().NoError(err)

	r := result.Results[0]
	suite.NoError(r.Err)
	suite.True(r.Frame.Empty())
	suite.Empty(r.Signal.Action)
}

func (suite *AggregatorTestSuite) TestNoSymbolsRejected() {
	_, err := suite.newAggregator().Run(context.Background(), nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *AggregatorTestSuite) TestCancellationReturnsNoPartialResults() {
	suite.source.block = true

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	var (
		result *Result
		runErr error
	)

	go func() {
		defer close(done)

		result, runErr = suite.newAggregator().Run(ctx, []string{"AAPL", "MSFT"})
	}()

	cancel()
	<-done

	suite.ErrorIs(runErr, context.Canceled)
	suite.Nil(result)
}

func (suite *AggregatorTestSuite) TestPredictorOutlookAttached() {
	predictor := &fakePredictor{outlook: types.Outlook{
		Direction:   types.DirectionUp,
		Probability: 0.61,
		Confidence:  33,
	}}

	result, err := suite.newAggregator().WithPredictor(predictor).Run(context.Background(), []string{"AAPL"})
	suite.Require().NoError(err)

	r := result.Results[0]
	suite.Require().NotNil(r.Outlook)
	suite.Equal(types.DirectionUp, r.Outlook.Direction)
	suite.NotEmpty(r.Signal.Action)
}

func (suite *AggregatorTestSuite) TestPredictorFailureFallsBackSilently() {
	predictor := &fakePredictor{err: errors.New(errors.ErrCodePredictorUnavailable, "weights missing")}

	result, err := suite.newAggregator().WithPredictor(predictor).Run(context.Background(), []string{"AAPL"})
	suite.Require().NoError(err)

	r := result.Results[0]
	suite.NoError(r.Err)
	suite.Nil(r.Outlook)
	suite.NotEmpty(r.Signal.Action)
}

func (suite *AggregatorTestSuite) TestInvalidStrategyRejectedAtConstruction() {
	_, err := New(suite.source, Config{Period: types.Period1Year, Strategy: "martingale"}, logger.NewNopLogger())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *AggregatorTestSuite) TestInvalidPeriodRejectedAtConstruction() {
	_, err := New(suite.source, Config{Period: "3w"}, logger.NewNopLogger())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}
