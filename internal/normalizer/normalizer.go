// Package normalizer coerces raw, loosely shaped tabular time series
// into clean price series. It is the single place where malformed
// provider output is repaired: unlabeled or oddly named timestamp
// columns, nested or duplicated close representations, unparsable rows,
// unsorted or duplicated timestamps.
package normalizer

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// RawColumn is a single named column of a raw table. An empty name marks
// an unlabeled column (e.g. a serialized frame index).
type RawColumn struct {
	Name   string
	Values []any
}

// RawTable is a column-oriented tabular payload of unspecified shape, as
// returned by data providers. It may be empty, carry unlabeled columns,
// or hold nested values.
type RawTable struct {
	Columns []RawColumn
}

// Len returns the number of rows in the longest column.
func (t RawTable) Len() int {
	n := 0
	for _, c := range t.Columns {
		if len(c.Values) > n {
			n = len(c.Values)
		}
	}

	return n
}

var timestampNames = map[string]bool{
	"date":      true,
	"datetime":  true,
	"time":      true,
	"timestamp": true,
}

var priceNames = map[string]bool{
	"close":     true,
	"adj close": true,
	"adj_close": true,
	"adjclose":  true,
	"price":     true,
}

// timeLayouts are tried in order when coercing string timestamps.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// Normalize coerces a raw table into a clean PriceSeries:
//
//  1. an empty table or one without a price column fails with NoDataError;
//  2. the timestamp column is the first recognized name, else the first
//     column; rows with unparsable timestamps are dropped;
//  3. the price column is the first recognized close/price column; a
//     nested value resolves to its first element;
//  4. rows with unparsable or non-positive prices are dropped;
//  5. rows are sorted ascending by timestamp and exact duplicate
//     timestamps keep the first occurrence.
//
// Dropping individual rows is silent; the condition escalates to
// NoDataError only when no row survives. The transform is pure and
// idempotent: normalizing an already clean series changes nothing.
func Normalize(symbol string, table RawTable) (types.PriceSeries, error) {
	if len(table.Columns) == 0 || table.Len() == 0 {
		return nil, errors.NewNoDataErrorf(symbol, "market data could not be retrieved for %s: empty table", symbol)
	}

	tsIdx := findTimestampColumn(table)

	priceIdx, ok := findPriceColumn(table, tsIdx)
	if !ok {
		return nil, errors.NewNoDataErrorf(symbol, "market data could not be retrieved for %s: no price column", symbol)
	}

	tsCol := table.Columns[tsIdx].Values
	priceCol := table.Columns[priceIdx].Values

	rows := table.Len()
	series := make(types.PriceSeries, 0, rows)

	for i := 0; i < rows; i++ {
		if i >= len(tsCol) || i >= len(priceCol) {
			continue
		}

		ts, ok := coerceTimestamp(tsCol[i])
		if !ok {
			continue
		}

		price, ok := coercePrice(priceCol[i])
		if !ok {
			continue
		}

		series = append(series, types.PricePoint{Time: ts, Price: price})
	}

	if len(series) == 0 {
		return nil, errors.NewNoDataErrorf(symbol, "market data could not be retrieved for %s: all rows dropped", symbol)
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Time.Before(series[j].Time)
	})

	deduped := series[:1]
	for _, p := range series[1:] {
		if p.Time.Equal(deduped[len(deduped)-1].Time) {
			continue
		}

		deduped = append(deduped, p)
	}

	return deduped, nil
}

// SeriesFromBars runs provider OHLCV bars through the same normalization
// path as any other raw table, using Close as the canonical price column.
func SeriesFromBars(symbol string, bars []types.MarketData) (types.PriceSeries, error) {
	tsValues := make([]any, len(bars))
	closeValues := make([]any, len(bars))

	for i, b := range bars {
		tsValues[i] = b.Time
		closeValues[i] = b.Close
	}

	table := RawTable{
		Columns: []RawColumn{
			{Name: "timestamp", Values: tsValues},
			{Name: "close", Values: closeValues},
		},
	}

	return Normalize(symbol, table)
}

// findTimestampColumn returns the index of the timestamp column: the
// first column with a recognized name, else the first column.
func findTimestampColumn(table RawTable) int {
	for i, c := range table.Columns {
		if timestampNames[normalizeName(c.Name)] {
			return i
		}
	}

	return 0
}

// findPriceColumn returns the index of the first recognized price column
// that is not the timestamp column. When the close representation is
// duplicated across several columns the first one wins.
func findPriceColumn(table RawTable, tsIdx int) (int, bool) {
	for i, c := range table.Columns {
		if i == tsIdx {
			continue
		}

		if priceNames[normalizeName(c.Name)] {
			return i, true
		}
	}

	return 0, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func coerceTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}

		return *t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}

		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}

		return time.Time{}, false
	case int64:
		return epochToTime(t), true
	case int:
		return epochToTime(int64(t)), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}

		return epochToTime(int64(t)), true
	default:
		return time.Time{}, false
	}
}

// epochToTime interprets large magnitudes as epoch milliseconds and the
// rest as epoch seconds.
func epochToTime(v int64) time.Time {
	if v > 1e12 || v < -1e12 {
		return time.UnixMilli(v).UTC()
	}

	return time.Unix(v, 0).UTC()
}

func coercePrice(v any) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return validPrice(p)
	case float32:
		return validPrice(float64(p))
	case int:
		return validPrice(float64(p))
	case int64:
		return validPrice(float64(p))
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, false
		}

		return validPrice(parsed)
	case []any:
		// Nested close representation: the first underlying value wins.
		if len(p) == 0 {
			return 0, false
		}

		return coercePrice(p[0])
	case []float64:
		if len(p) == 0 {
			return 0, false
		}

		return validPrice(p[0])
	default:
		return 0, false
	}
}

func validPrice(p float64) (float64, bool) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, false
	}

	return p, true
}
