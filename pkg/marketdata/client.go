// Package marketdata is the facade over providers, writers and the
// local bar store. A Client fetches history for the live pipeline and
// downloads bars into local artifacts for offline tooling.
package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
	"github.com/greenquant-lab/greenquant/pkg/marketdata/provider"
	"github.com/greenquant-lab/greenquant/pkg/marketdata/writer"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB  WriterType = "duckdb"
	WriterCSV     WriterType = "csv"
	WriterParquet WriterType = "parquet"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.Type `validate:"required,oneof=polygon binance"`
	WriterType    WriterType    `validate:"omitempty,oneof=duckdb csv parquet"`
	DataPath      string        `validate:"omitempty"`
	PolygonAPIKey string        `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Symbol   string       `validate:"required"`
	Period   types.Period `validate:"required"`
	Interval optional.Option[string]
}

// Client fetches history from one provider and persists downloads
// through the configured writer.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnProgress
	logger     *logger.Logger
}

// NewClient creates a new market data client with the given
// configuration. onProgress may be nil.
func NewClient(config ClientConfig, onProgress provider.OnProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.New(config.ProviderType, config.PolygonAPIKey)
	if err != nil {
		return nil, err
	}

	if onProgress == nil {
		onProgress = func(current, total float64, message string) {}
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
		logger:     log,
	}, nil
}

// FetchHistory returns bars for the live pipeline. The Client itself
// satisfies the aggregator's data source contract.
func (c *Client) FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error) {
	if _, err := types.ParsePeriod(string(period)); err != nil {
		return nil, err
	}

	return c.provider.FetchHistory(ctx, symbol, period, interval)
}

// Download fetches bars and persists them through the configured
// writer, returning the artifact path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	bars, err := c.FetchHistory(ctx, params.Symbol, params.Period, params.Interval)
	if err != nil {
		return "", err
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if err := marketWriter.Close(); err != nil {
			c.logger.Warn("failed to close writer", zap.Error(err))
		}
	}()

	if err := marketWriter.Initialize(); err != nil {
		return "", err
	}

	total := float64(len(bars))

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if err := marketWriter.Write(bar); err != nil {
			return "", err
		}

		c.onProgress(float64(i+1), total, fmt.Sprintf("Downloading %s", params.Symbol))
	}

	outputPath, err := marketWriter.Finalize()
	if err != nil {
		return "", err
	}

	c.logger.Info("download finished",
		zap.String("symbol", params.Symbol),
		zap.Int("bars", len(bars)),
		zap.String("path", outputPath))

	return outputPath, nil
}

// setupWriter initializes the appropriate writer based on configuration.
// The artifact name is SYMBOL_PERIOD_INTERVAL with the writer's extension.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	dataPath := c.config.DataPath
	if dataPath == "" {
		dataPath = "."
	}

	if _, err := os.Stat(dataPath); os.IsNotExist(err) {
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeArtifactWrite, err, "creating data path %s", dataPath)
		}
	}

	interval := params.Interval.TakeOr(provider.DefaultInterval)
	baseName := fmt.Sprintf("%s_%s_%s", params.Symbol, params.Period, interval)

	writerType := c.config.WriterType
	if writerType == "" {
		writerType = WriterDuckDB
	}

	switch writerType {
	case WriterDuckDB:
		return writer.NewDuckDBWriter(filepath.Join(dataPath, baseName+".parquet")), nil
	case WriterParquet:
		return writer.NewParquetWriter(filepath.Join(dataPath, baseName+".parquet")), nil
	case WriterCSV:
		return writer.NewCSVWriter(filepath.Join(dataPath, baseName+".csv")), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type %q", writerType)
	}
}
