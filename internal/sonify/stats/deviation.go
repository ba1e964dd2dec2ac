package stats

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
)

// Deviation writes |on - reference| row by row. The reference is usually the
// output of another operation of this package.
func Deviation(f *sonify.Frame, on, reference, to string) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("deviation: %w", err)
	}
	ref, err := f.Floats(reference)
	if err != nil {
		return nil, fmt.Errorf("deviation: %w", err)
	}

	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.Abs(values[i] - ref[i])
	}
	return f.WithFloats(columnName(to, on, reference+"_deviation"), out)
}
