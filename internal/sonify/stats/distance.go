package stats

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
)

// DistanceToBefore writes |v[i] - v[i-1]|. The first row is compared with the
// last one. When to is empty the column is named "<on>_distance_to_before".
func DistanceToBefore(f *sonify.Frame, on, to string) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("distance to before: %w", err)
	}
	n := len(values)
	distances := make([]float64, n)
	for i := 1; i < n; i++ {
		distances[i] = math.Abs(values[i] - values[i-1])
	}
	distances[0] = math.Abs(values[0] - values[n-1])
	fillNaN(distances)

	return f.WithFloats(columnName(to, on, "distance_to_before"), distances)
}

// DistanceToNext writes |v[i+1] - v[i]|. The last row is compared with the
// first one.
func DistanceToNext(f *sonify.Frame, on, to string) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("distance to next: %w", err)
	}
	n := len(values)
	distances := make([]float64, n)
	for i := 0; i < n-1; i++ {
		distances[i] = math.Abs(values[i+1] - values[i])
	}
	distances[n-1] = math.Abs(values[0] - values[n-1])
	fillNaN(distances)

	return f.WithFloats(columnName(to, on, "distance_to_next"), distances)
}

// fillNaN replaces NaN entries with the smallest finite entry, if any.
func fillNaN(values []float64) {
	lowest := math.Inf(1)
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v < lowest {
			lowest = v
		}
	}
	if math.IsInf(lowest, 1) {
		return
	}
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = lowest
		}
	}
}

func columnName(to, on, suffix string) string {
	if to != "" {
		return to
	}
	return on + "_" + suffix
}
