// Package midimap turns numeric columns into bounded integer musical
// parameters: note numbers, chords, velocities, CC values and durations.
package midimap

import (
	"fmt"
	"math"
	"slices"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
)

// ValueIndex ranks the distinct values of a column in ascending order. Equal
// values share one rank, and the ranks only depend on the set of values, not
// on their order.
type ValueIndex struct {
	values []float64
	ranks  map[float64]int
}

// NewValueIndex builds the index over values. NaN samples are ignored.
func NewValueIndex(values []float64) ValueIndex {
	distinct := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			distinct = append(distinct, v)
		}
	}
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)

	ranks := make(map[float64]int, len(distinct))
	for i, v := range distinct {
		ranks[v] = i
	}
	return ValueIndex{values: distinct, ranks: ranks}
}

// Len returns the number of distinct values.
func (vi ValueIndex) Len() int { return len(vi.values) }

// Rank returns the zero-based rank of v.
func (vi ValueIndex) Rank(v float64) (int, bool) {
	r, ok := vi.ranks[v]
	return r, ok
}

// Values returns the distinct values in ascending order.
func (vi ValueIndex) Values() []float64 { return slices.Clone(vi.values) }

// Notes maps every value to start + rank(value).
func Notes(values []float64, start int) ([]int, error) {
	index := NewValueIndex(values)
	notes := make([]int, len(values))
	for i, v := range values {
		rank, ok := index.Rank(v)
		if !ok {
			return nil, fmt.Errorf("%w: value at row %d is not a number", sonify.ErrTypeMismatch, i)
		}
		notes[i] = start + rank
	}
	return notes, nil
}

// SetNotes writes start + rank(value) for every row of the column.
func SetNotes(f *sonify.Frame, on, to string, start int) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("set notes: %w", err)
	}
	notes, err := Notes(values, start)
	if err != nil {
		return nil, fmt.Errorf("set notes: %w", err)
	}
	return f.WithFloats(to, toFloats(notes))
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// Ints converts a column written by this package back to integers.
func Ints(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
