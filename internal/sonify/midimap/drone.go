package midimap

import (
	"fmt"
	"slices"

	"github.com/Conceptual-Machines/datson-api/internal/sonify"
)

// DroneVelocity is the fixed velocity of a drone chord.
const DroneVelocity = 100

// DroneOption names one aggregate contributing a note to a drone chord.
type DroneOption string

const (
	DroneMin    DroneOption = "min"
	DroneMean   DroneOption = "mean"
	DroneMedian DroneOption = "median"
	DroneMax    DroneOption = "max"
	DroneMode   DroneOption = "mode"
)

// DefaultDroneOptions is used when a request does not pick any.
var DefaultDroneOptions = []DroneOption{DroneMin, DroneMean, DroneMedian, DroneMax, DroneMode}

// ParseDroneOptions validates option names, keeping their order.
func ParseDroneOptions(names []string) ([]DroneOption, error) {
	out := make([]DroneOption, len(names))
	for i, name := range names {
		opt := DroneOption(name)
		if !slices.Contains(DefaultDroneOptions, opt) {
			return nil, sonify.Unsupported("drone build option", name)
		}
		out[i] = opt
	}
	return out, nil
}

// Drone collapses a note sequence into one chord holding the requested
// aggregates in the requested order. Mean and median are truncated; mode is
// the lowest most frequent note.
func Drone(notes []int, options []DroneOption) (Chord, error) {
	for _, opt := range options {
		if !slices.Contains(DefaultDroneOptions, opt) {
			return Chord{}, sonify.Unsupported("drone build option", opt)
		}
	}
	if len(notes) == 0 {
		return Chord{}, fmt.Errorf("drone: %w", sonify.ErrEmptyInput)
	}

	sorted := slices.Clone(notes)
	slices.Sort(sorted)

	chord := make([]int, len(options))
	for i, opt := range options {
		switch opt {
		case DroneMin:
			chord[i] = sorted[0]
		case DroneMean:
			sum := 0
			for _, n := range sorted {
				sum += n
			}
			chord[i] = int(float64(sum) / float64(len(sorted)))
		case DroneMedian:
			mid := len(sorted) / 2
			if len(sorted)%2 == 1 {
				chord[i] = sorted[mid]
			} else {
				chord[i] = int(float64(sorted[mid-1]+sorted[mid]) / 2)
			}
		case DroneMax:
			chord[i] = sorted[len(sorted)-1]
		case DroneMode:
			chord[i] = modeOf(sorted)
		}
	}
	return Chord{notes: chord}, nil
}

// modeOf expects sorted input and falls back to its minimum.
func modeOf(sorted []int) int {
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}
