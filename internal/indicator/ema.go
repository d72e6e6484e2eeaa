package indicator

import "math"

// emaSeries computes an exponential moving average seeded with the
// simple average of the first full window, then smoothed with
// alpha = 2/(period+1) to match the pandas ewm implementation with
// adjust=False. Leading undefined input values are skipped, which lets
// the same routine smooth both raw prices and derived columns such as
// MACD.
func emaSeries(values []float64, period int) []float64 {
	n := len(values)
	out := nanSeries(n)

	if period <= 0 {
		return out
	}

	first := 0
	for first < n && math.IsNaN(values[first]) {
		first++
	}

	if n-first < period {
		return out
	}

	seed := 0.0
	for i := first; i < first+period; i++ {
		seed += values[i]
	}

	seed /= float64(period)
	out[first+period-1] = seed

	alpha := 2.0 / float64(period+1)

	for i := first + period; i < n; i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}

	return out
}
