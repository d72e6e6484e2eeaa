package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/normalizer"
	"github.com/greenquant-lab/greenquant/internal/predict"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/marketdata"
	"github.com/greenquant-lab/greenquant/pkg/marketdata/provider"
	"github.com/greenquant-lab/greenquant/pkg/marketdata/writer"
)

// datasetAction builds the offline training artifacts for one symbol:
// the raw bars as parquet plus sliding-window training examples as csv.
func datasetAction(ctx context.Context, cmd *cli.Command) error {
	symbol := cmd.String("symbol")

	period, err := types.ParsePeriod(cmd.String("period"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	var bars []types.MarketData

	if artifact := cmd.String("from-artifact"); artifact != "" {
		store, err := marketdata.OpenStore(appLogger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.LoadParquet(artifact); err != nil {
			return err
		}

		bars, err = store.FetchHistory(ctx, symbol, period, optional.None[string]())
		if err != nil {
			return err
		}
	} else {
		client, err := marketdata.NewClient(marketdata.ClientConfig{
			ProviderType:  provider.Type(cmd.String("provider")),
			PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
		}, nil, appLogger)
		if err != nil {
			return fmt.Errorf("failed to create market data client: %w", err)
		}

		bars, err = client.FetchHistory(ctx, symbol, period, optional.None[string]())
		if err != nil {
			return err
		}
	}

	outputDir := cmd.String("output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// When replaying an existing artifact the bars parquet already
	// exists; only a fresh fetch persists one.
	if cmd.String("from-artifact") == "" {
		barsPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s_bars.parquet", symbol, period))
		if err := writeBars(barsPath, bars); err != nil {
			return err
		}

		fmt.Printf("Wrote %d bars to %s\n", len(bars), barsPath)
	}

	series, err := normalizer.SeriesFromBars(symbol, bars)
	if err != nil {
		return err
	}

	examples, err := predict.BuildExamples(series, int(cmd.Int("window")))
	if err != nil {
		return err
	}

	examplesPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s_examples.csv", symbol, period))

	file, err := os.Create(examplesPath)
	if err != nil {
		return fmt.Errorf("failed to create examples file: %w", err)
	}
	defer file.Close()

	if err := predict.WriteExamplesCSV(file, examples); err != nil {
		return err
	}

	fmt.Printf("Wrote %d training examples to %s\n", len(examples), examplesPath)

	return nil
}

func writeBars(path string, bars []types.MarketData) error {
	w := writer.NewParquetWriter(path)
	if err := w.Initialize(); err != nil {
		return err
	}

	defer w.Close()

	for _, bar := range bars {
		if err := w.Write(bar); err != nil {
			return err
		}
	}

	_, err := w.Finalize()

	return err
}

func main() {
	cmd := &cli.Command{
		Name:  "dataset",
		Usage: "Build offline training artifacts from historical data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Ticker symbol to build the dataset for",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "Lookback period (6mo, 1y, 2y, 5y)",
				Value:   "5y",
			},
			&cli.IntFlag{
				Name:    "window",
				Aliases: []string{"w"},
				Usage:   "Sliding window length in observations",
				Value:   int64(predict.DefaultWindow),
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: fmt.Sprintf("Data provider to use (%s, %s)", provider.TypePolygon, provider.TypeBinance),
				Value: string(provider.TypePolygon),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for the artifacts",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:  "from-artifact",
				Usage: "Build examples from a downloaded parquet artifact instead of fetching from the provider",
			},
		},
		Action: datasetAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
