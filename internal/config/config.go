// Package config loads the application configuration: which data
// provider to use, pipeline parameters, dashboard serving options and
// the optional predictor wiring. Files are versioned and gated against
// the application version before use.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/greenquant-lab/greenquant/internal/decision"
	"github.com/greenquant-lab/greenquant/internal/indicator"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/internal/version"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

const (
	defaultPeriod      = types.Period1Year
	defaultAddress     = ":8080"
	defaultRefreshCron = "*/15 * * * *"
	defaultWindow      = 60
)

// ProviderConfig selects and authenticates the market data source.
type ProviderConfig struct {
	Name   string `yaml:"name" validate:"required,oneof=polygon binance"`
	APIKey string `yaml:"api_key"`
}

// PipelineConfig parameterizes the per-symbol analysis pipeline.
type PipelineConfig struct {
	Period      string           `yaml:"period"`
	Interval    string           `yaml:"interval"`
	Strategy    string           `yaml:"strategy"`
	TrendWindow int              `yaml:"trend_window" validate:"gte=0"`
	MaxParallel int              `yaml:"max_parallel" validate:"gte=0,lte=16"`
	Indicators  indicator.Config `yaml:"indicators"`
}

// DashboardConfig holds the http server options.
type DashboardConfig struct {
	Address     string `yaml:"address"`
	RefreshCron string `yaml:"refresh_cron"`
}

// PredictorConfig wires the optional predictive model. Both Endpoint
// and WeightsPath must be present for the model to be considered
// available; anything less falls back to the rule engine.
type PredictorConfig struct {
	Endpoint    string `yaml:"endpoint" validate:"omitempty,url"`
	WeightsPath string `yaml:"weights_path"`
	Window      int    `yaml:"window" validate:"gte=0"`
}

// Config is the root application configuration.
type Config struct {
	Version   string          `yaml:"version" validate:"required"`
	Catalog   string          `yaml:"catalog"`
	Provider  ProviderConfig  `yaml:"provider" validate:"required"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Predictor PredictorConfig `yaml:"predictor"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Version: version.GetVersion(),
		Provider: ProviderConfig{
			Name: "polygon",
		},
		Pipeline: PipelineConfig{
			Period:     string(defaultPeriod),
			Strategy:   string(decision.StrategyScorecard),
			Indicators: indicator.DefaultConfig(),
		},
		Dashboard: DashboardConfig{
			Address:     defaultAddress,
			RefreshCron: defaultRefreshCron,
		},
		Predictor: PredictorConfig{
			Window: defaultWindow,
		},
	}
}

// Load reads a yaml config file, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "reading config file %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parsing config file", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv applies environment variable overrides for credentials so
// keys can stay out of checked-in config files.
func (c *Config) applyEnv() {
	switch c.Provider.Name {
	case "polygon":
		if v := os.Getenv("POLYGON_API_KEY"); v != "" {
			c.Provider.APIKey = v
		}
	case "binance":
		if v := os.Getenv("BINANCE_API_KEY"); v != "" {
			c.Provider.APIKey = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Pipeline.Period == "" {
		c.Pipeline.Period = string(defaultPeriod)
	}

	if c.Dashboard.Address == "" {
		c.Dashboard.Address = defaultAddress
	}

	if c.Dashboard.RefreshCron == "" {
		c.Dashboard.RefreshCron = defaultRefreshCron
	}

	if c.Predictor.Window == 0 {
		c.Predictor.Window = defaultWindow
	}
}

// Validate checks structural constraints, the pipeline enums and the
// config version gate.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "validating config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return err
	}

	if _, err := types.ParsePeriod(c.Pipeline.Period); err != nil {
		return err
	}

	if _, err := decision.New(decision.StrategyName(c.Pipeline.Strategy)); err != nil {
		return err
	}

	return c.Pipeline.Indicators.Validate()
}

// PredictorEnabled reports whether the optional model collaborator is
// fully wired.
func (c *Config) PredictorEnabled() bool {
	return c.Predictor.Endpoint != "" && c.Predictor.WeightsPath != ""
}
