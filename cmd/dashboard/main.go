package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/greenquant-lab/greenquant/internal/aggregator"
	"github.com/greenquant-lab/greenquant/internal/catalog"
	"github.com/greenquant-lab/greenquant/internal/config"
	"github.com/greenquant-lab/greenquant/internal/dashboard"
	"github.com/greenquant-lab/greenquant/internal/decision"
	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/predict"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/marketdata"
	"github.com/greenquant-lab/greenquant/pkg/marketdata/provider"
)

// dashboardAction wires the full stack and serves the dashboard until
// interrupted.
func dashboardAction(ctx context.Context, cmd *cli.Command) error {
	var (
		cfg *config.Config
		err error
	)

	if path := cmd.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg = config.Default()
	}

	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	tickers := catalog.Default()
	if cfg.Catalog != "" {
		tickers, err = catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.Type(cfg.Provider.Name),
		PolygonAPIKey: cfg.Provider.APIKey,
	}, nil, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	var interval optional.Option[string]
	if cfg.Pipeline.Interval != "" {
		interval = optional.Some(cfg.Pipeline.Interval)
	}

	agg, err := aggregator.New(client, aggregator.Config{
		Period:      types.Period(cfg.Pipeline.Period),
		Interval:    interval,
		Indicators:  cfg.Pipeline.Indicators,
		Strategy:    decision.StrategyName(cfg.Pipeline.Strategy),
		TrendWindow: cfg.Pipeline.TrendWindow,
		MaxParallel: cfg.Pipeline.MaxParallel,
	}, appLogger)
	if err != nil {
		return err
	}

	if cfg.PredictorEnabled() {
		if predictor := predict.Resolve(cfg.Predictor.Endpoint, cfg.Predictor.WeightsPath, cfg.Predictor.Window, appLogger); predictor != nil {
			agg = agg.WithPredictor(predictor)
		}
	}

	server := dashboard.NewServer(agg, tickers, dashboard.Options{
		Address:     cfg.Dashboard.Address,
		RefreshCron: cfg.Dashboard.RefreshCron,
		Symbols:     cmd.StringSlice("symbol"),
	}, appLogger)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(runCtx)
}

func main() {
	cmd := &cli.Command{
		Name:  "dashboard",
		Usage: "Serve the stock analysis dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the yaml config file",
			},
			&cli.StringSliceFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Restrict the dashboard to these symbols (defaults to the whole catalog)",
			},
		},
		Action: dashboardAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
