package provider

import (
	"context"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

const binancePageLimit = 1000

// Binance fetches kline data from the Binance spot API. Public kline
// endpoints need no credentials, so the api key is optional.
type Binance struct {
	client *binance.Client
	now    func() time.Time
}

// NewBinance creates a Binance provider.
func NewBinance(apiKey string) *Binance {
	return &Binance{
		client: binance.NewClient(apiKey, ""),
		now:    time.Now,
	}
}

// FetchHistory implements Provider. Binance caps each response at 1000
// klines, so longer periods paginate on the close time of the last bar.
func (b *Binance) FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error) {
	resolved := interval.TakeOr(DefaultInterval)
	if err := validateBinanceInterval(resolved); err != nil {
		return nil, err
	}

	start, end := period.Range(b.now().UTC())
	startMillis := start.UnixMilli()
	endMillis := end.UnixMilli()

	var bars []types.MarketData

	for startMillis < endMillis {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(resolved).
			StartTime(startMillis).
			EndTime(endMillis).
			Limit(binancePageLimit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeFetchFailed, err, "fetching binance klines for %s", symbol)
		}

		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			bar, err := klineToBar(symbol, k)
			if err != nil {
				return nil, err
			}

			bars = append(bars, bar)
		}

		if len(klines) < binancePageLimit {
			break
		}

		// Resume just past the last bar to avoid a duplicate page head.
		startMillis = klines[len(klines)-1].CloseTime + 1
	}

	if len(bars) == 0 {
		return nil, errors.NewNoDataErrorf(symbol, "binance returned no klines for %s over %s", symbol, period)
	}

	return bars, nil
}

// klineToBar converts one kline. Binance serializes prices as decimal
// strings; parsing through decimal keeps the exact quoted value before
// the float conversion.
func klineToBar(symbol string, k *binance.Kline) (types.MarketData, error) {
	fields := map[string]string{
		"open":   k.Open,
		"high":   k.High,
		"low":    k.Low,
		"close":  k.Close,
		"volume": k.Volume,
	}

	parsed := make(map[string]float64, len(fields))

	for name, raw := range fields {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return types.MarketData{}, errors.Wrapf(errors.ErrCodeFetchFailed, err, "parsing binance %s value %q for %s", name, raw, symbol)
		}

		parsed[name] = d.InexactFloat64()
	}

	return types.MarketData{
		Symbol: symbol,
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   parsed["open"],
		High:   parsed["high"],
		Low:    parsed["low"],
		Close:  parsed["close"],
		Volume: parsed["volume"],
	}, nil
}

// validateBinanceInterval checks the interval against the set the
// kline endpoint accepts.
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func validateBinanceInterval(interval string) error {
	switch interval {
	case "1m", "3m", "5m", "15m", "30m",
		"1h", "2h", "4h", "6h", "8h", "12h",
		"1d", "3d", "1w":
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidInterval, "unsupported binance interval %q", interval)
	}
}
