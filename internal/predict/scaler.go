package predict

import (
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// MinMaxScaler rescales values into [0, 1] against the range observed
// during Fit. A degenerate range (all values equal) transforms to 0.
type MinMaxScaler struct {
	min    float64
	max    float64
	fitted bool
}

// Fit records the observed range of the values.
func (s *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return errors.New(errors.ErrCodeInsufficientData, "cannot fit scaler on an empty series")
	}

	s.min, s.max = values[0], values[0]
	for _, v := range values[1:] {
		if v < s.min {
			s.min = v
		}

		if v > s.max {
			s.max = v
		}
	}

	s.fitted = true

	return nil
}

// Transform maps one value into the fitted range.
func (s *MinMaxScaler) Transform(v float64) float64 {
	if !s.fitted || s.max == s.min {
		return 0
	}

	return (v - s.min) / (s.max - s.min)
}

// TransformAll maps a slice of values into the fitted range.
func (s *MinMaxScaler) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Transform(v)
	}

	return out
}
