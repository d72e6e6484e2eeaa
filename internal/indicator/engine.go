// Package indicator derives momentum indicator columns from clean price
// series. Every derived value at index i is computed only from rows <= i,
// and rows with any undefined (warm-up) value are dropped from the output
// frame. Computation is a pure function of the input series and the
// engine configuration.
package indicator

import (
	"math"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

const (
	defaultRSIPeriod        = 14
	defaultMACDFast         = 12
	defaultMACDSlow         = 26
	defaultMACDSignalPeriod = 9
	defaultMAWindow         = 20
	defaultVolatilityWindow = 20
)

// Config holds the recognized indicator options. Zero values fall back
// to the defaults.
type Config struct {
	RSIPeriod        int   `yaml:"rsi_period"`
	MACDFast         int   `yaml:"macd_fast"`
	MACDSlow         int   `yaml:"macd_slow"`
	MACDSignalPeriod int   `yaml:"macd_signal_period"`
	MAWindows        []int `yaml:"ma_windows"`
	VolatilityWindow int   `yaml:"volatility_window"`
}

// DefaultConfig returns the dashboard defaults: 14-period RSI,
// 12/26/9 MACD, a single 20-period moving average, and a 20-sample
// volatility window.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:        defaultRSIPeriod,
		MACDFast:         defaultMACDFast,
		MACDSlow:         defaultMACDSlow,
		MACDSignalPeriod: defaultMACDSignalPeriod,
		MAWindows:        []int{defaultMAWindow},
		VolatilityWindow: defaultVolatilityWindow,
	}
}

func (c Config) withDefaults() Config {
	out := c
	if out.RSIPeriod <= 0 {
		out.RSIPeriod = defaultRSIPeriod
	}

	if out.MACDFast <= 0 {
		out.MACDFast = defaultMACDFast
	}

	if out.MACDSlow <= 0 {
		out.MACDSlow = defaultMACDSlow
	}

	if out.MACDSignalPeriod <= 0 {
		out.MACDSignalPeriod = defaultMACDSignalPeriod
	}

	if len(out.MAWindows) == 0 {
		out.MAWindows = []int{defaultMAWindow}
	}

	if out.VolatilityWindow <= 0 {
		out.VolatilityWindow = defaultVolatilityWindow
	}

	return out
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	resolved := c.withDefaults()

	if resolved.MACDFast >= resolved.MACDSlow {
		return errors.Newf(errors.ErrCodeInvalidWindow, "macd fast period %d must be below slow period %d", resolved.MACDFast, resolved.MACDSlow)
	}

	for _, w := range resolved.MAWindows {
		if w <= 0 {
			return errors.Newf(errors.ErrCodeInvalidWindow, "moving average window must be positive, got %d", w)
		}
	}

	if resolved.VolatilityWindow < 2 {
		return errors.Newf(errors.ErrCodeInvalidWindow, "volatility window must be at least 2, got %d", resolved.VolatilityWindow)
	}

	return nil
}

// Engine computes indicator frames from price series.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given configuration. Zero-valued
// options are resolved to their defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Config returns the resolved configuration the engine runs with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute derives all configured indicator columns from the series and
// returns the frame of fully populated rows. A series shorter than the
// largest required window yields an empty frame, never an error.
func (e *Engine) Compute(symbol string, series types.PriceSeries) types.IndicatorFrame {
	frame := types.IndicatorFrame{Symbol: symbol}
	if len(series) == 0 {
		return frame
	}

	prices := series.Prices()

	rsi := rsiSeries(prices, e.cfg.RSIPeriod)
	macd, macdSignal, macdHist := macdSeries(prices, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignalPeriod)
	rets := returnSeries(prices)
	vol := rollingStdSeries(rets, e.cfg.VolatilityWindow)

	mas := make(map[int][]float64, len(e.cfg.MAWindows))
	for _, w := range e.cfg.MAWindows {
		mas[w] = smaSeries(prices, w)
	}

	for i := range prices {
		if !defined(rsi[i], macd[i], macdSignal[i], macdHist[i], rets[i], vol[i]) {
			continue
		}

		rowMAs := make(map[int]float64, len(mas))
		complete := true

		for w, col := range mas {
			if !defined(col[i]) {
				complete = false

				break
			}

			rowMAs[w] = col[i]
		}

		if !complete {
			continue
		}

		frame.Rows = append(frame.Rows, types.IndicatorRow{
			Time:           series[i].Time,
			Price:          prices[i],
			RSI:            rsi[i],
			MACD:           macd[i],
			MACDSignal:     macdSignal[i],
			MACDHistogram:  macdHist[i],
			MovingAverages: rowMAs,
			Return:         rets[i],
			Volatility:     vol[i],
		})
	}

	return frame
}

// nanSeries returns a series of length n with every value undefined.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// defined reports whether every value is a usable number.
func defined(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
