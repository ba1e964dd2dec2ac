package midimap

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
)

// ChordKind selects the progression rule used by BuildProgression.
type ChordKind string

const (
	Triads  ChordKind = "triads"
	Tetrads ChordKind = "tetrads"
)

// ParseChordKind validates a chord type name.
func ParseChordKind(s string) (ChordKind, error) {
	switch k := ChordKind(s); k {
	case Triads, Tetrads:
		return k, nil
	default:
		return "", sonify.Unsupported("chord type", s)
	}
}

// Chord is an immutable ordered list of MIDI note numbers.
type Chord struct {
	notes []int
}

// NewChord copies notes into a chord.
func NewChord(notes ...int) Chord {
	return Chord{notes: slices.Clone(notes)}
}

// Notes returns a copy of the note numbers.
func (c Chord) Notes() []int { return slices.Clone(c.notes) }

// Len returns the number of notes.
func (c Chord) Len() int { return len(c.notes) }

// Equal reports whether both chords hold the same notes in the same order.
func (c Chord) Equal(other Chord) bool { return slices.Equal(c.notes, other.notes) }

// MarshalJSON encodes the chord as an array of note numbers.
func (c Chord) MarshalJSON() ([]byte, error) {
	if c.notes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.notes)
}

// UnmarshalJSON decodes an array of note numbers.
func (c *Chord) UnmarshalJSON(data []byte) error {
	var notes []int
	if err := json.Unmarshal(data, &notes); err != nil {
		return err
	}
	c.notes = notes
	return nil
}

func (c Chord) raise(index, semitones int) Chord {
	notes := slices.Clone(c.notes)
	notes[index] += semitones
	return Chord{notes: notes}
}

// BuildProgression returns n+1 chords. Chord 0 is the seed chord, every
// following chord raises exactly one note of its predecessor.
//
// Triads start as a minor triad [s, s+3, s+7]; the raised note cycles through
// indices 2, 1, 0 and the step alternates +1, +2, +1, ... semitones.
//
// Tetrads start as [s, s+7, s+9, s+16]; every step raises one note by two
// semitones, cycling through indices 2, 1, 0, 3, 2, 1, 0, 3, ...
func BuildProgression(kind ChordKind, start, n int) ([]Chord, error) {
	chords := make([]Chord, 0, n+1)
	switch kind {
	case Triads:
		chords = append(chords, NewChord(start, start+3, start+7))
		index, halfTone := 2, true
		for range n {
			step := 2
			if halfTone {
				step = 1
			}
			chords = append(chords, chords[len(chords)-1].raise(index, step))
			halfTone = !halfTone
			if index > 0 {
				index--
			} else {
				index = 2
			}
		}
	case Tetrads:
		chords = append(chords, NewChord(start, start+7, start+9, start+16))
		index := 2
		for range n {
			chords = append(chords, chords[len(chords)-1].raise(index, 2))
			if index > 0 {
				index--
			} else {
				index = 3
			}
		}
	default:
		return nil, sonify.Unsupported("chord type", kind)
	}
	return chords, nil
}

// AssignChords gives every value the chord at its rank in the progression
// built over the distinct values.
func AssignChords(values []float64, kind ChordKind, start int) ([]Chord, error) {
	index := NewValueIndex(values)
	progression, err := BuildProgression(kind, start, index.Len())
	if err != nil {
		return nil, err
	}
	out := make([]Chord, len(values))
	for i, v := range values {
		rank, ok := index.Rank(v)
		if !ok {
			return nil, fmt.Errorf("%w: value at row %d is not a number", sonify.ErrTypeMismatch, i)
		}
		out[i] = progression[rank]
	}
	return out, nil
}

// SetChords writes the chord of every row of the column into a chord column.
func SetChords(f *sonify.Frame, on, to string, kind ChordKind, start int) (*sonify.Frame, error) {
	values, err := f.Floats(on)
	if err != nil {
		return nil, fmt.Errorf("set chords: %w", err)
	}
	chords, err := AssignChords(values, kind, start)
	if err != nil {
		return nil, fmt.Errorf("set chords: %w", err)
	}
	return f.WithChords(to, chordRows(chords))
}

func chordRows(chords []Chord) [][]int {
	rows := make([][]int, len(chords))
	for i, c := range chords {
		rows[i] = c.notes
	}
	return rows
}

// ChordsFromRows wraps the rows of a chord column.
func ChordsFromRows(rows [][]int) []Chord {
	out := make([]Chord, len(rows))
	for i, r := range rows {
		out[i] = NewChord(r...)
	}
	return out
}
