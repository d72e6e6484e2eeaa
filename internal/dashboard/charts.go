package dashboard

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/greenquant-lab/greenquant/internal/types"
)

const chartDateFormat = "2006-01-02"

func frameAxis(frame types.IndicatorFrame) []string {
	times := frame.Times()

	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.Format(chartDateFormat)
	}

	return out
}

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}

	return out
}

func column(frame types.IndicatorFrame, pick func(types.IndicatorRow) float64) []float64 {
	out := make([]float64, len(frame.Rows))
	for i, row := range frame.Rows {
		out[i] = pick(row)
	}

	return out
}

// priceChart renders close price plus every configured moving average.
func priceChart(frame types.IndicatorFrame) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s price", frame.Symbol),
			Subtitle: fmt.Sprintf("as of %s", lastTime(frame).Format(chartDateFormat)),
		}),
	)

	line.SetXAxis(frameAxis(frame)).
		AddSeries("Close", lineData(frame.Prices()))

	for _, window := range frameMAWindows(frame) {
		line.AddSeries(fmt.Sprintf("MA%d", window), lineData(column(frame, func(r types.IndicatorRow) float64 {
			v, _ := r.MovingAverage(window)

			return v
		})))
	}

	return line
}

// rsiChart renders RSI with the oversold and overbought guides.
func rsiChart(frame types.IndicatorFrame) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s RSI", frame.Symbol)}),
	)

	line.SetXAxis(frameAxis(frame)).
		AddSeries("RSI", lineData(column(frame, func(r types.IndicatorRow) float64 { return r.RSI }))).
		AddSeries("Oversold", lineData(constantSeries(len(frame.Rows), 30))).
		AddSeries("Overbought", lineData(constantSeries(len(frame.Rows), 70)))

	return line
}

// macdChart renders the MACD line, its signal line and the histogram.
func macdChart(frame types.IndicatorFrame) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s MACD", frame.Symbol)}),
	)

	line.SetXAxis(frameAxis(frame)).
		AddSeries("MACD", lineData(column(frame, func(r types.IndicatorRow) float64 { return r.MACD }))).
		AddSeries("Signal", lineData(column(frame, func(r types.IndicatorRow) float64 { return r.MACDSignal }))).
		AddSeries("Histogram", lineData(column(frame, func(r types.IndicatorRow) float64 { return r.MACDHistogram }))).
		AddSeries("Zero", lineData(constantSeries(len(frame.Rows), 0)))

	return line
}

// comparisonChart renders rebased price curves for several symbols on
// one axis. Every curve starts at 100.
func comparisonChart(views []SymbolView) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Relative performance",
			Subtitle: "rebased to 100 at range start",
		}),
	)

	var axis []string

	for _, view := range views {
		if len(view.frame.Rows) > len(axis) {
			axis = frameAxis(view.frame)
		}
	}

	line.SetXAxis(axis)

	for _, view := range views {
		if len(view.Rebased) == 0 {
			continue
		}

		line.AddSeries(view.Symbol, lineData(view.Rebased))
	}

	return line
}

func constantSeries(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}

	return out
}

func frameMAWindows(frame types.IndicatorFrame) []int {
	if len(frame.Rows) == 0 {
		return nil
	}

	windows := make([]int, 0, len(frame.Rows[0].MovingAverages))
	for w := range frame.Rows[0].MovingAverages {
		windows = append(windows, w)
	}

	sort.Ints(windows)

	return windows
}

func lastTime(frame types.IndicatorFrame) time.Time {
	row, ok := frame.Last()
	if !ok {
		return time.Time{}
	}

	return row.Time
}

func renderChart(w io.Writer, line *charts.Line) error {
	return line.Render(w)
}
