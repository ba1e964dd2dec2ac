package midimap

import (
	"fmt"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"gonum.org/v1/gonum/floats"
)

// Range is the target interval of a linear mapping, e.g. MIDI velocities or
// CC values. Reverse maps the column maximum onto Min instead of Max.
type Range struct {
	Min     int
	Max     int
	Reverse bool
}

// FullRange covers every 7-bit MIDI data value.
var FullRange = Range{Min: 0, Max: 127}

// Map rescales values from their observed [min, max] into [r.Min, r.Max],
// truncating toward zero. A constant column maps every value to r.Min.
func (r Range) Map(values []float64) []int {
	out := make([]int, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		for i := range out {
			out[i] = r.Min
		}
		return out
	}

	span := float64(r.Max - r.Min)
	for i, v := range values {
		pos := v - lo
		if r.Reverse {
			pos = hi - v
		}
		out[i] = int(pos/(hi-lo)*span + float64(r.Min))
	}
	return out
}

// MapRange writes the range mapping of a column. Velocities and CC values are
// both produced by it.
func MapRange(f *sonify.Frame, on, to string, r Range) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("map range: %w", err)
	}
	return f.WithFloats(to, toFloats(r.Map(values)))
}
