package provider

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

const polygonPageLimit = 50000

// Polygon fetches equity aggregates from the Polygon.io REST API.
type Polygon struct {
	client *polygon.Client
	now    func() time.Time
}

// NewPolygon creates a Polygon provider.
func NewPolygon(apiKey string) (*Polygon, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires an api key")
	}

	return &Polygon{
		client: polygon.New(apiKey),
		now:    time.Now,
	}, nil
}

// FetchHistory implements Provider.
func (p *Polygon) FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error) {
	multiplier, timespan, err := polygonTimespan(interval.TakeOr(DefaultInterval))
	if err != nil {
		return nil, err
	}

	start, end := period.Range(p.now().UTC())

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(polygonPageLimit)

	iter := p.client.ListAggs(ctx, params)

	var bars []types.MarketData

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.MarketData{
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFetchFailed, err, "listing polygon aggregates for %s", symbol)
	}

	if len(bars) == 0 {
		return nil, errors.NewNoDataErrorf(symbol, "polygon returned no aggregates for %s over %s", symbol, period)
	}

	return bars, nil
}

func polygonTimespan(interval string) (int, models.Timespan, error) {
	multiplier, unit, err := parseInterval(interval)
	if err != nil {
		return 0, "", err
	}

	switch unit {
	case "m":
		return multiplier, models.Minute, nil
	case "h":
		return multiplier, models.Hour, nil
	case "d":
		return multiplier, models.Day, nil
	case "w":
		return multiplier, models.Week, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported polygon interval %q", interval)
	}
}
