package indicator

import "math"

// returnSeries computes the simple percent change
// (price[i] - price[i-1]) / price[i-1], undefined at index 0.
func returnSeries(prices []float64) []float64 {
	out := nanSeries(len(prices))

	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i] - prices[i-1]) / prices[i-1]
	}

	return out
}

// rollingStdSeries computes the rolling sample standard deviation over
// the given window. An entry is defined once the trailing window holds
// only defined values, matching the pandas rolling().std() convention.
func rollingStdSeries(values []float64, window int) []float64 {
	n := len(values)
	out := nanSeries(n)

	if window < 2 || n < window {
		return out
	}

	for i := window - 1; i < n; i++ {
		sum := 0.0
		ok := true

		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false

				break
			}

			sum += values[j]
		}

		if !ok {
			continue
		}

		mean := sum / float64(window)
		variance := 0.0

		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}

		out[i] = math.Sqrt(variance / float64(window-1))
	}

	return out
}
