package calculator

import (
	"errors"
	"fmt"

	"github.com/guregu/null/v5"
)

// SMASeries computes the rolling simple moving average of values over window.
// The output has the same length as the input; positions with fewer than
// window observations are invalid.
func SMASeries(values []float64, window int) ([]null.Float, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]null.Float, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = null.FloatFrom(sum / float64(window))
		}
	}
	return out, nil
}

// CalculateSMA returns the simple moving average of the last window values.
func CalculateSMA(values []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	if len(values) < window {
		return 0, fmt.Errorf("need %d values for SMA, have %d", window, len(values))
	}
	sum := 0.0
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window), nil
}
