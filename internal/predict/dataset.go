package predict

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// Example is one supervised training row: a window of scaled prices
// and a binary label telling whether the next scaled price went up.
type Example struct {
	Window []float64
	Label  int
}

// BuildExamples turns a price series into sliding-window training
// examples. The whole series is scaled once, then for every index i
// from window to len-1 the preceding window becomes the input and the
// label is 1 when scaled[i] > scaled[i-1].
func BuildExamples(series types.PriceSeries, window int) ([]Example, error) {
	if window <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindow, "window must be positive, got %d", window)
	}

	prices := series.Prices()
	if len(prices) <= window {
		return nil, errors.Newf(errors.ErrCodeInsufficientData, "need more than %d observations to build examples, have %d", window, len(prices))
	}

	var scaler MinMaxScaler
	if err := scaler.Fit(prices); err != nil {
		return nil, err
	}

	scaled := scaler.TransformAll(prices)

	out := make([]Example, 0, len(scaled)-window)

	for i := window; i < len(scaled); i++ {
		w := make([]float64, window)
		copy(w, scaled[i-window:i])

		label := 0
		if scaled[i] > scaled[i-1] {
			label = 1
		}

		out = append(out, Example{Window: w, Label: label})
	}

	return out, nil
}

// WriteExamplesCSV writes examples as csv: one column per window step
// plus a trailing label column.
func WriteExamplesCSV(w io.Writer, examples []Example) error {
	if len(examples) == 0 {
		return errors.New(errors.ErrCodeInsufficientData, "no examples to write")
	}

	cw := csv.NewWriter(w)

	window := len(examples[0].Window)

	header := make([]string, 0, window+1)
	for i := 0; i < window; i++ {
		header = append(header, fmt.Sprintf("t%d", i))
	}

	header = append(header, "label")

	if err := cw.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeArtifactWrite, "writing csv header", err)
	}

	row := make([]string, window+1)

	for _, e := range examples {
		for i, v := range e.Window {
			row[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}

		row[window] = strconv.Itoa(e.Label)

		if err := cw.Write(row); err != nil {
			return errors.Wrap(errors.ErrCodeArtifactWrite, "writing csv row", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeArtifactWrite, "flushing csv", err)
	}

	return nil
}
