package indicator

// smaSeries computes a simple moving average over the given window.
// Values are undefined until the window is full, so a series of length L
// yields L-window+1 defined entries.
func smaSeries(prices []float64, window int) []float64 {
	n := len(prices)
	out := nanSeries(n)

	if window <= 0 || n < window {
		return out
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += prices[i]
	}

	out[window-1] = sum / float64(window)

	for i := window; i < n; i++ {
		sum += prices[i] - prices[i-window]
		out[i] = sum / float64(window)
	}

	return out
}
