package sonify

import (
	"fmt"
	"math"
	"slices"
)

const (
	// MaxSeriesLength bounds every series accepted by the engine.
	MaxSeriesLength = 1000

	// TimeColumn holds the uniform time axis spanning [0, duration_s].
	TimeColumn = "time"
)

type columnKind int

const (
	numericColumn columnKind = iota
	chordColumn
)

func (k columnKind) String() string {
	if k == chordColumn {
		return "chord"
	}
	return "numeric"
}

type column struct {
	kind   columnKind
	floats []float64
	chords [][]int
}

// Column is a named numeric input column.
type Column struct {
	Name   string
	Values []float64
}

// Frame is a table of equally long named columns. A Frame is never mutated once
// built: the With* methods return a new Frame sharing the untouched columns.
type Frame struct {
	length int
	names  []string
	cols   map[string]column
}

// NewSeriesFrame builds a frame over a uniform time axis of durationS seconds.
// All columns must have the same length, at most MaxSeriesLength.
func NewSeriesFrame(durationS float64, columns ...Column) (*Frame, error) {
	n := 0
	if len(columns) > 0 {
		n = len(columns[0].Values)
	}
	for _, c := range columns {
		if len(c.Values) > MaxSeriesLength {
			return nil, fmt.Errorf("%w: column %q has %d values, maximum is %d",
				ErrSizeLimitExceeded, c.Name, len(c.Values), MaxSeriesLength)
		}
		if len(c.Values) != n {
			return nil, fmt.Errorf("%w: column %q has %d values, %q has %d",
				ErrLengthMismatch, c.Name, len(c.Values), columns[0].Name, n)
		}
	}

	f := &Frame{length: n, cols: make(map[string]column, len(columns)+1)}
	f.put(TimeColumn, column{kind: numericColumn, floats: Linspace(0, durationS, n)})
	for _, c := range columns {
		f.put(c.Name, column{kind: numericColumn, floats: slices.Clone(c.Values)})
	}
	return f, nil
}

func (f *Frame) put(name string, c column) {
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = c
}

func (f *Frame) clone() *Frame {
	out := &Frame{
		length: f.length,
		names:  slices.Clone(f.names),
		cols:   make(map[string]column, len(f.cols)+1),
	}
	for k, v := range f.cols {
		out.cols[k] = v
	}
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.length }

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string { return slices.Clone(f.names) }

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Floats returns a copy of a numeric column. It fails with ErrEmptyInput on an
// empty frame, ErrMissingColumn when the column is absent and ErrTypeMismatch
// when it holds chords.
func (f *Frame) Floats(name string) ([]float64, error) {
	c, err := f.lookup(name, numericColumn)
	if err != nil {
		return nil, err
	}
	return slices.Clone(c.floats), nil
}

// Chords returns a deep copy of a chord column.
func (f *Frame) Chords(name string) ([][]int, error) {
	c, err := f.lookup(name, chordColumn)
	if err != nil {
		return nil, err
	}
	out := make([][]int, len(c.chords))
	for i, ch := range c.chords {
		out[i] = slices.Clone(ch)
	}
	return out, nil
}

func (f *Frame) lookup(name string, want columnKind) (column, error) {
	if f.length == 0 {
		return column{}, fmt.Errorf("%w: frame has no rows", ErrEmptyInput)
	}
	c, ok := f.cols[name]
	if !ok {
		return column{}, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	if c.kind != want {
		return column{}, fmt.Errorf("%w: column %q is %s, expected %s", ErrTypeMismatch, name, c.kind, want)
	}
	return c, nil
}

// WithFloats returns a new frame with the numeric column set, replacing any
// column of the same name.
func (f *Frame) WithFloats(name string, values []float64) (*Frame, error) {
	if len(values) != f.length {
		return nil, fmt.Errorf("%w: column %q has %d values, frame has %d rows",
			ErrLengthMismatch, name, len(values), f.length)
	}
	out := f.clone()
	out.put(name, column{kind: numericColumn, floats: slices.Clone(values)})
	return out, nil
}

// WithChords returns a new frame with the chord column set. Every row gets its
// own copy so rows never alias each other.
func (f *Frame) WithChords(name string, chords [][]int) (*Frame, error) {
	if len(chords) != f.length {
		return nil, fmt.Errorf("%w: column %q has %d chords, frame has %d rows",
			ErrLengthMismatch, name, len(chords), f.length)
	}
	rows := make([][]int, len(chords))
	for i, ch := range chords {
		rows[i] = slices.Clone(ch)
	}
	out := f.clone()
	out.put(name, column{kind: chordColumn, chords: rows})
	return out, nil
}

// Linspace returns n evenly spaced samples over [start, stop]. A single sample
// is start.
func Linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	if n > 1 {
		out[n-1] = stop
	}
	return out
}

// Round rounds every value to the given number of decimals, ties to even.
func Round(values []float64, decimals int) []float64 {
	scale := math.Pow(10, float64(decimals))
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.RoundToEven(v*scale) / scale
	}
	return out
}
