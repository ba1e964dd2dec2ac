package stats

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindowSize is used when callers do not pick a window.
const DefaultWindowSize = 5

// RollingAverage writes a centered moving average. For a window w the row i
// averages rows [i+(w-1)/2+1-w, i+(w-1)/2], truncated at the series edges, so
// every row has at least one sample. NaN samples are skipped.
func RollingAverage(f *sonify.Frame, on, to string, window int) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("rolling average: %w", err)
	}
	n := len(values)
	if window < 1 {
		return nil, fmt.Errorf("rolling average: %w: window size %d must be positive", sonify.ErrInvalidParameter, window)
	}
	if window > n {
		return nil, fmt.Errorf("rolling average: %w: series of %d samples is shorter than window size %d",
			sonify.ErrInvalidParameter, n, window)
	}

	offset := (window - 1) / 2
	averages := make([]float64, n)
	samples := make([]float64, 0, window)
	for i := range values {
		hi := min(i+offset, n-1)
		lo := max(i+offset+1-window, 0)
		samples = samples[:0]
		for _, v := range values[lo : hi+1] {
			if !math.IsNaN(v) {
				samples = append(samples, v)
			}
		}
		if len(samples) == 0 {
			averages[i] = math.NaN()
			continue
		}
		averages[i] = stat.Mean(samples, nil)
	}

	return f.WithFloats(columnName(to, on, "rolling_average"), averages)
}
