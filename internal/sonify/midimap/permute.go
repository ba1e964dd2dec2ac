package midimap

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"
	"slices"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
)

// seedStream is xored into the seed to form the second PCG word.
const seedStream = 0x9E3779B97F4A7C15

// Permute returns a new chord with the notes shuffled by seed. The shuffle is
// part of the output contract and must stay stable:
//
//   - the seed is normalised so -0 and +0 are the same seed;
//   - its IEEE-754 bit pattern b seeds math/rand/v2's PCG with (b, b^0x9E3779B97F4A7C15);
//   - a Fisher-Yates pass runs from the last index down to 1, swapping index i
//     with j = hi64(Uint64() * (i+1)).
//
// Equal seeds always give equal permutations of equally long chords.
func (c Chord) Permute(seed float64) Chord {
	notes := slices.Clone(c.notes)
	src := shuffleSource(seed)
	for i := len(notes) - 1; i > 0; i-- {
		j, _ := bits.Mul64(src.Uint64(), uint64(i+1))
		notes[i], notes[j] = notes[j], notes[i]
	}
	return Chord{notes: notes}
}

func shuffleSource(seed float64) *rand.PCG {
	if seed == 0 {
		seed = 0 // folds -0 into +0
	}
	key := math.Float64bits(seed)
	return rand.NewPCG(key, key^seedStream)
}

// PermuteChords shuffles the chord of every row, seeded by the row's value in
// seedColumn.
func PermuteChords(f *sonify.Frame, seedColumn, chordColumn string) (*sonify.Frame, error) {
	seeds, err := f.Floats(seedColumn)
	if err != nil {
		return nil, fmt.Errorf("permute chords: %w", err)
	}
	rows, err := f.Chords(chordColumn)
	if err != nil {
		return nil, fmt.Errorf("permute chords: %w", err)
	}

	permuted := make([][]int, len(rows))
	for i, row := range rows {
		permuted[i] = NewChord(row...).Permute(seeds[i]).notes
	}
	return f.WithChords(chordColumn, permuted)
}
