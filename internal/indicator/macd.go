package indicator

import "math"

// macdSeries computes the MACD line (fast EMA minus slow EMA), its
// signal line (EMA of MACD over the signal period), and the histogram
// (MACD minus signal). The MACD line is undefined until the slow EMA has
// a full window; the signal and histogram need a further signal-period
// window of MACD values.
func macdSeries(prices []float64, fast, slow, signalPeriod int) (macd, signal, hist []float64) {
	n := len(prices)
	macd = nanSeries(n)
	signal = nanSeries(n)
	hist = nanSeries(n)

	fastEMA := emaSeries(prices, fast)
	slowEMA := emaSeries(prices, slow)

	for i := 0; i < n; i++ {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			continue
		}

		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signal = emaSeries(macd, signalPeriod)

	for i := 0; i < n; i++ {
		if math.IsNaN(macd[i]) || math.IsNaN(signal[i]) {
			continue
		}

		hist[i] = macd[i] - signal[i]
	}

	return macd, signal, hist
}
