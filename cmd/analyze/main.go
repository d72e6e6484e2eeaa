package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/greenquant-lab/greenquant/internal/aggregator"
	"github.com/greenquant-lab/greenquant/internal/config"
	"github.com/greenquant-lab/greenquant/internal/decision"
	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/predict"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/marketdata"
	"github.com/greenquant-lab/greenquant/pkg/marketdata/provider"
)

// analyzeAction runs the full pipeline for the requested symbols and
// prints one signal row per symbol.
func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	symbols := cmd.StringSlice("symbol")
	if len(symbols) == 0 {
		return fmt.Errorf("at least one --symbol is required")
	}

	if v := cmd.String("period"); v != "" {
		cfg.Pipeline.Period = v
	}

	if v := cmd.String("strategy"); v != "" {
		cfg.Pipeline.Strategy = v
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	var source aggregator.Source

	if artifact := cmd.String("from-artifact"); artifact != "" {
		store, err := marketdata.OpenStore(log)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.LoadParquet(artifact); err != nil {
			return err
		}

		source = store
	} else {
		client, err := marketdata.NewClient(marketdata.ClientConfig{
			ProviderType:  provider.Type(cfg.Provider.Name),
			PolygonAPIKey: cfg.Provider.APIKey,
		}, nil, log)
		if err != nil {
			return fmt.Errorf("failed to create market data client: %w", err)
		}

		source = client
	}

	var interval optional.Option[string]
	if cfg.Pipeline.Interval != "" {
		interval = optional.Some(cfg.Pipeline.Interval)
	}

	agg, err := aggregator.New(source, aggregator.Config{
		Period:      types.Period(cfg.Pipeline.Period),
		Interval:    interval,
		Indicators:  cfg.Pipeline.Indicators,
		Strategy:    decision.StrategyName(cfg.Pipeline.Strategy),
		TrendWindow: cfg.Pipeline.TrendWindow,
		MaxParallel: cfg.Pipeline.MaxParallel,
	}, log)
	if err != nil {
		return err
	}

	if cfg.PredictorEnabled() {
		if predictor := predict.Resolve(cfg.Predictor.Endpoint, cfg.Predictor.WeightsPath, cfg.Predictor.Window, log); predictor != nil {
			agg = agg.WithPredictor(predictor)
		}
	}

	result, err := agg.Run(ctx, symbols)
	if err != nil {
		return err
	}

	printResult(result)

	return nil
}

func printResult(result *aggregator.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("period %s / strategy %s / trace %s", result.Period, result.Strategy, result.TraceID))
	t.AppendHeader(table.Row{"Symbol", "Price", "RSI", "MACD", "Signal", "Confidence", "Outlook", "Detail"})

	for _, r := range result.Results {
		if r.Err != nil {
			t.AppendRow(table.Row{r.Symbol, "-", "-", "-", "-", "-", "-", r.Err.Error()})

			continue
		}

		last, ok := r.Frame.Last()
		if !ok {
			t.AppendRow(table.Row{r.Symbol, "-", "-", "-", "-", "-", "-", "insufficient history"})

			continue
		}

		outlook := "-"
		if r.Outlook != nil {
			outlook = fmt.Sprintf("%s (p=%.2f)", r.Outlook.Direction, r.Outlook.Probability)
		}

		t.AppendRow(table.Row{
			r.Symbol,
			fmt.Sprintf("%.2f", last.Price),
			fmt.Sprintf("%.2f", last.RSI),
			fmt.Sprintf("%.4f", last.MACD),
			r.Signal.Action,
			fmt.Sprintf("%.0f%%", r.Signal.Confidence),
			outlook,
			text.WrapSoft(r.Signal.Rationale, 60),
		})
	}

	t.Render()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Run the indicator and decision pipeline for one or more symbols",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Ticker symbol to analyze (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the yaml config file",
			},
			&cli.StringFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "Lookback period (6mo, 1y, 2y, 5y)",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Decision strategy (scorecard, momentum, weighted)",
			},
			&cli.StringFlag{
				Name:  "from-artifact",
				Usage: "Analyze a downloaded parquet artifact instead of fetching from the provider",
			},
		},
		Action: analyzeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
