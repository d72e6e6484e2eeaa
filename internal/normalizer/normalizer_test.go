package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

type NormalizerTestSuite struct {
	suite.Suite
}

func TestNormalizerSuite(t *testing.T) {
	suite.Run(t, new(NormalizerTestSuite))
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func (suite *NormalizerTestSuite) TestEmptyTableFailsWithNoData() {
	_, err := Normalize("AAPL", RawTable{})
	suite.Error(err)
	suite.True(errors.IsNoDataError(err))
}

func (suite *NormalizerTestSuite) TestMissingPriceColumnFailsWithNoData() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(0), day(1)}},
		{Name: "volume", Values: []any{100.0, 200.0}},
	}}

	_, err := Normalize("AAPL", table)
	suite.Error(err)
	suite.True(errors.IsNoDataError(err))
}

func (suite *NormalizerTestSuite) TestCleanTable() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(0), day(1), day(2)}},
		{Name: "close", Values: []any{100.0, 101.0, 102.0}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Len(series, 3)
	suite.Equal([]float64{100, 101, 102}, series.Prices())
}

func (suite *NormalizerTestSuite) TestIdempotence() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(0), day(1), day(2)}},
		{Name: "close", Values: []any{100.0, 101.0, 102.0}},
	}}

	first, err := Normalize("AAPL", table)
	suite.NoError(err)

	// Re-normalizing the already-clean output must not drop or reorder rows.
	tsValues := make([]any, len(first))
	priceValues := make([]any, len(first))

	for i, p := range first {
		tsValues[i] = p.Time
		priceValues[i] = p.Price
	}

	second, err := Normalize("AAPL", RawTable{Columns: []RawColumn{
		{Name: "date", Values: tsValues},
		{Name: "close", Values: priceValues},
	}})
	suite.NoError(err)
	suite.Equal(first, second)
}

func (suite *NormalizerTestSuite) TestUnlabeledTimestampColumn() {
	// Serialized frame index arrives as an unnamed first column.
	table := RawTable{Columns: []RawColumn{
		{Name: "", Values: []any{"2024-01-01", "2024-01-02"}},
		{Name: "Close", Values: []any{"100.5", "101.5"}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Len(series, 2)
	suite.Equal(100.5, series[0].Price)
	suite.Equal(day(0), series[0].Time)
}

func (suite *NormalizerTestSuite) TestNestedCloseSelectsFirstValue() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(0), day(1)}},
		{Name: "close", Values: []any{[]any{100.0, 99.0}, []any{101.0, 98.0}}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Equal([]float64{100, 101}, series.Prices())
}

func (suite *NormalizerTestSuite) TestDuplicatedCloseColumnFirstWins() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(0), day(1)}},
		{Name: "close", Values: []any{100.0, 101.0}},
		{Name: "Adj Close", Values: []any{90.0, 91.0}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Equal([]float64{100, 101}, series.Prices())
}

func (suite *NormalizerTestSuite) TestUnparsableRowsDroppedSilently() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(0), "not-a-date", day(2), day(3)}},
		{Name: "close", Values: []any{100.0, 101.0, "garbage", 103.0}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Len(series, 2)
	suite.Equal([]float64{100, 103}, series.Prices())
}

func (suite *NormalizerTestSuite) TestAllRowsDroppedEscalatesToNoData() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{"bad", "worse"}},
		{Name: "close", Values: []any{100.0, 101.0}},
	}}

	_, err := Normalize("AAPL", table)
	suite.Error(err)
	suite.True(errors.IsNoDataError(err))
}

func (suite *NormalizerTestSuite) TestSortsAndDeduplicatesKeepFirst() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(2), day(0), day(2), day(1)}},
		{Name: "close", Values: []any{102.0, 100.0, 999.0, 101.0}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Equal([]float64{100, 101, 102}, series.Prices())
}

func (suite *NormalizerTestSuite) TestMonotonicTimestamps() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(3), day(1), day(2), day(0)}},
		{Name: "close", Values: []any{103.0, 101.0, 102.0, 100.0}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)

	for i := 1; i < len(series); i++ {
		suite.True(series[i].Time.After(series[i-1].Time))
	}
}

func (suite *NormalizerTestSuite) TestNonPositivePricesDropped() {
	table := RawTable{Columns: []RawColumn{
		{Name: "date", Values: []any{day(0), day(1), day(2)}},
		{Name: "close", Values: []any{100.0, -5.0, 0.0}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Len(series, 1)
}

func (suite *NormalizerTestSuite) TestEpochTimestamps() {
	table := RawTable{Columns: []RawColumn{
		{Name: "timestamp", Values: []any{int64(1704067200), int64(1704153600000)}},
		{Name: "price", Values: []any{100.0, 101.0}},
	}}

	series, err := Normalize("AAPL", table)
	suite.NoError(err)
	suite.Len(series, 2)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), series[0].Time)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), series[1].Time)
}

func (suite *NormalizerTestSuite) TestSeriesFromBars() {
	bars := []types.MarketData{
		{Symbol: "AAPL", Time: day(1), Close: 101, Open: 100, High: 102, Low: 99, Volume: 1000},
		{Symbol: "AAPL", Time: day(0), Close: 100, Open: 99, High: 101, Low: 98, Volume: 900},
	}

	series, err := SeriesFromBars("AAPL", bars)
	suite.NoError(err)
	suite.Equal([]float64{100, 101}, series.Prices())
}

func (suite *NormalizerTestSuite) TestSeriesFromBarsEmpty() {
	_, err := SeriesFromBars("AAPL", nil)
	suite.Error(err)
	suite.True(errors.IsNoDataError(err))
}
