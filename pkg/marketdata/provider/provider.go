// Package provider adapts external market data APIs to the internal
// bar format. Providers return bars oldest first; an empty result is
// reported as NoDataError so callers never have to distinguish "no
// rows" from "fetch failed with nothing".
package provider

import (
	"context"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// Type identifies a market data provider.
type Type string

const (
	TypePolygon Type = "polygon"
	TypeBinance Type = "binance"
)

// DefaultInterval is the bar resolution used when the caller passes no
// interval override.
const DefaultInterval = "1d"

// OnProgress reports fetch progress for long downloads.
type OnProgress func(current float64, total float64, message string)

// Provider fetches historical OHLCV bars.
type Provider interface {
	// FetchHistory returns bars for the symbol over the lookback period,
	// oldest first. The interval defaults to daily bars when None.
	FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error)
}

// New creates a provider of the given type. Polygon requires an API
// key; Binance public kline data does not.
func New(providerType Type, apiKey string) (Provider, error) {
	switch providerType {
	case TypePolygon:
		return NewPolygon(apiKey)
	case TypeBinance:
		return NewBinance(apiKey), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider %q", providerType)
	}
}

// parseInterval splits an interval string like "5m", "1h", "1d" or
// "1w" into its multiplier and unit.
func parseInterval(s string) (int, string, error) {
	if len(s) < 2 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "malformed interval %q", s)
	}

	unit := s[len(s)-1:]
	if !strings.Contains("mhdw", unit) {
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval unit in %q, want m, h, d or w", s)
	}

	multiplier, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || multiplier <= 0 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "malformed interval multiplier in %q", s)
	}

	return multiplier, unit, nil
}
