package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

type stubProvider struct {
	bars []types.MarketData
	err  error
}

func (s *stubProvider) FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.bars, nil
}

func stubBars(symbol string, n int) []types.MarketData {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	out := make([]types.MarketData, 0, n)
	for i := 0; i < n; i++ {
		price := 100 + float64(i)
		out = append(out, types.MarketData{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 500,
		})
	}

	return out
}

type ClientTestSuite struct {
	suite.Suite

	dir string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ClientTestSuite) newClient(bars []types.MarketData) *Client {
	client, err := NewClient(ClientConfig{
		ProviderType: "binance",
		WriterType:   WriterCSV,
		DataPath:     suite.dir,
	}, nil, logger.NewNopLogger())
	suite.Require().NoError(err)

	client.provider = &stubProvider{bars: bars}

	return client
}

func (suite *ClientTestSuite) TestNewClientValidatesConfig() {
	tests := []struct {
		name      string
		config    ClientConfig
		expectErr bool
	}{
		{
			name:   "valid binance config",
			config: ClientConfig{ProviderType: "binance", WriterType: WriterCSV, DataPath: "data"},
		},
		{
			name:   "valid polygon config",
			config: ClientConfig{ProviderType: "polygon", WriterType: WriterDuckDB, DataPath: "data", PolygonAPIKey: "key"},
		},
		{
			name:      "polygon without api key",
			config:    ClientConfig{ProviderType: "polygon", WriterType: WriterDuckDB, DataPath: "data"},
			expectErr: true,
		},
		{
			name:      "unknown provider",
			config:    ClientConfig{ProviderType: "yahoo", WriterType: WriterCSV, DataPath: "data"},
			expectErr: true,
		},
		{
			name:      "unknown writer",
			config:    ClientConfig{ProviderType: "binance", WriterType: "sqlite", DataPath: "data"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		_, err := NewClient(tt.config, nil, logger.NewNopLogger())

		if tt.expectErr {
			suite.Error(err, tt.name)
		} else {
			suite.NoError(err, tt.name)
		}
	}
}

func (suite *ClientTestSuite) TestFetchHistoryValidatesPeriod() {
	client := suite.newClient(stubBars("AAPL", 5))

	_, err := client.FetchHistory(context.Background(), "AAPL", "3w", optional.None[string]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *ClientTestSuite) TestFetchHistoryPassesThrough() {
	client := suite.newClient(stubBars("AAPL", 5))

	bars, err := client.FetchHistory(context.Background(), "AAPL", types.Period1Year, optional.None[string]())
	suite.NoError(err)
	suite.Len(bars, 5)
}

func (suite *ClientTestSuite) TestDownloadWritesArtifact() {
	client := suite.newClient(stubBars("AAPL", 25))

	var progressCalls int

	client.onProgress = func(current, total float64, message string) {
		progressCalls++
	}

	path, err := client.Download(context.Background(), DownloadParams{
		Symbol: "AAPL",
		Period: types.Period1Year,
	})
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.dir, "AAPL_1y_1d.csv"), path)
	suite.Equal(25, progressCalls)

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), "time,symbol,open,high,low,close,volume")
}

func (suite *ClientTestSuite) TestDownloadHonorsIntervalInArtifactName() {
	client := suite.newClient(stubBars("AAPL", 3))

	path, err := client.Download(context.Background(), DownloadParams{
		Symbol:   "AAPL",
		Period:   types.Period6Months,
		Interval: optional.Some("1h"),
	})
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.dir, "AAPL_6mo_1h.csv"), path)
}

func (suite *ClientTestSuite) TestDownloadValidatesParams() {
	client := suite.newClient(stubBars("AAPL", 3))

	_, err := client.Download(context.Background(), DownloadParams{Period: types.Period1Year})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ClientTestSuite) TestDownloadPropagatesFetchError() {
	client := suite.newClient(nil)
	client.provider = &stubProvider{err: errors.New(errors.ErrCodeFetchFailed, "upstream 503")}

	_, err := client.Download(context.Background(), DownloadParams{
		Symbol: "AAPL",
		Period: types.Period1Year,
	})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeFetchFailed))
}
