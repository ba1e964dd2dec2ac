package midimap

import (
	"fmt"
	"math"
	"slices"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"gonum.org/v1/gonum/floats"
)

// ProportionalDurations splits totalS seconds across events in proportion to
// their weights.
func ProportionalDurations(weights []float64, totalS float64) ([]float64, error) {
	sum := floats.Sum(weights)
	if sum == 0 {
		return nil, sonify.ErrZeroWeightSum
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum * totalS
	}
	return out, nil
}

// SetDurations writes proportional durations for the weights in column on.
func SetDurations(f *sonify.Frame, on, to string, totalS float64) (*sonify.Frame, error) {
	weights, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("set durations: %w", err)
	}
	durations, err := ProportionalDurations(weights, totalS)
	if err != nil {
		return nil, fmt.Errorf("set durations: %w", err)
	}
	return f.WithFloats(to, durations)
}

// MaxGridLength bounds the number of points of a fixed-interval grid.
const MaxGridLength = 10 * sonify.MaxSeriesLength

// ResampledEvent is one event on the fixed-interval grid.
type ResampledEvent struct {
	Time  float64
	Value int
}

type resampleRow struct {
	key   float64
	value float64
	known bool
}

// ResampleFixedInterval moves column on onto the grid 0, s, 2s, ... < totalS.
// Grids longer than MaxGridLength fail with sonify.ErrSizeLimitExceeded.
//
// Events are keyed by the whole seconds of their position on the time axis.
// When the grid has at most as many points as there are events, the result
// follows the grid (a grid point matching several events keeps all of them).
// Otherwise events and grid points are merged and sorted by key, so neither
// tail is dropped. Gaps are interpolated linearly by position and held at the
// last value past the end; values are truncated to integers.
func ResampleFixedInterval(f *sonify.Frame, on string, intervalS, totalS float64) ([]ResampledEvent, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	if intervalS <= 0 || math.IsNaN(intervalS) {
		return nil, fmt.Errorf("resample: %w: interval %v must be positive", sonify.ErrInvalidParameter, intervalS)
	}
	if totalS <= 0 || math.IsNaN(totalS) {
		return nil, fmt.Errorf("resample: %w: duration %v must be positive", sonify.ErrInvalidParameter, totalS)
	}

	times := sonify.Linspace(0, totalS, len(values))
	events := make(map[float64][]int, len(values))
	for i, t := range times {
		key := math.Trunc(t)
		events[key] = append(events[key], i)
	}

	points := math.Ceil(totalS / intervalS)
	if points > MaxGridLength {
		return nil, fmt.Errorf("resample: %w: interval %v over %vs needs %v points, limit %d",
			sonify.ErrSizeLimitExceeded, intervalS, totalS, points, MaxGridLength)
	}
	gridLen := int(points)
	grid := make([]float64, gridLen)
	for i := range grid {
		grid[i] = float64(i) * intervalS
	}

	var rows []resampleRow
	if gridLen <= len(values) {
		for _, key := range grid {
			matches, ok := events[key]
			if !ok {
				rows = append(rows, resampleRow{key: key})
				continue
			}
			for _, i := range matches {
				rows = append(rows, resampleRow{key: key, value: values[i], known: true})
			}
		}
	} else {
		for i, t := range times {
			rows = append(rows, resampleRow{key: math.Trunc(t), value: values[i], known: true})
		}
		for _, key := range grid {
			if _, ok := events[key]; !ok {
				rows = append(rows, resampleRow{key: key})
			}
		}
		slices.SortStableFunc(rows, func(a, b resampleRow) int {
			switch {
			case a.key < b.key:
				return -1
			case a.key > b.key:
				return 1
			default:
				return 0
			}
		})
	}

	interpolated := interpolateRows(rows)
	out := make([]ResampledEvent, len(rows))
	for i, r := range rows {
		out[i] = ResampledEvent{Time: r.key, Value: int(interpolated[i])}
	}
	return out, nil
}

// interpolateRows fills unknown rows linearly between the surrounding known
// rows, by position. Rows before the first known value take that value, rows
// after the last one keep the last value.
func interpolateRows(rows []resampleRow) []float64 {
	out := make([]float64, len(rows))
	prev := -1
	for i, r := range rows {
		if !r.known {
			continue
		}
		out[i] = r.value
		switch {
		case prev < 0:
			for k := 0; k < i; k++ {
				out[k] = r.value
			}
		case i-prev > 1:
			step := (r.value - out[prev]) / float64(i-prev)
			for k := prev + 1; k < i; k++ {
				out[k] = out[prev] + step*float64(k-prev)
			}
		}
		prev = i
	}
	if prev >= 0 {
		for k := prev + 1; k < len(rows); k++ {
			out[k] = out[prev]
		}
	}
	return out
}
