package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/marketdata"
	"github.com/greenquant-lab/greenquant/pkg/marketdata/provider"
)

// downloadAction fetches history for one symbol and persists it as a
// local artifact in the chosen format.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	period, err := types.ParsePeriod(cmd.String("period"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	var bar *progressbar.ProgressBar

	onProgress := func(current, total float64, message string) {
		if bar == nil {
			bar = progressbar.NewOptions(int(total),
				progressbar.OptionSetDescription(message),
				progressbar.OptionShowCount())
		}

		_ = bar.Set(int(current))
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.Type(cmd.String("provider")),
		WriterType:    marketdata.WriterType(cmd.String("writer")),
		DataPath:      cmd.String("data"),
		PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
	}, onProgress, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	var interval optional.Option[string]
	if v := cmd.String("interval"); v != "" {
		interval = optional.Some(v)
	}

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Symbol:   cmd.String("symbol"),
		Period:   period,
		Interval: interval,
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if bar != nil {
		_ = bar.Finish()

		fmt.Println()
	}

	fmt.Printf("Downloaded data to %s\n", path)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Ticker symbol to download",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "Lookback period (6mo, 1y, 2y, 5y)",
				Value:   "1y",
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Bar interval, e.g. 1d, 1h, 5m",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: fmt.Sprintf("Data provider to use (%s, %s)", provider.TypePolygon, provider.TypeBinance),
				Value: string(provider.TypePolygon),
			},
			&cli.StringFlag{
				Name:    "writer",
				Aliases: []string{"w"},
				Usage:   fmt.Sprintf("Artifact format (%s, %s, %s)", marketdata.WriterDuckDB, marketdata.WriterParquet, marketdata.WriterCSV),
				Value:   string(marketdata.WriterDuckDB),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
