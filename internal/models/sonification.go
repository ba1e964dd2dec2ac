package models

import "github.com/Conceptual-Machines/datson-api/internal/sonify/midimap"

// DataRequest carries a single series for the statistics endpoints.
type DataRequest struct {
	Data []float64 `json:"data" binding:"required"`
}

// MidiNotesRequest carries the three parallel series of a note mapping.
type MidiNotesRequest struct {
	DataForNotes    []float64 `json:"data_for_notes" binding:"required"`
	DataForVelocity []float64 `json:"data_for_velocity" binding:"required"`
	DataForDuration []float64 `json:"data_for_duration" binding:"required"`
}

// MidiChordsRequest carries the three parallel series of a chord mapping.
type MidiChordsRequest struct {
	DataForChords   []float64 `json:"data_for_chords" binding:"required"`
	DataForVelocity []float64 `json:"data_for_velocity" binding:"required"`
	DataForDuration []float64 `json:"data_for_duration" binding:"required"`
}

// MidiDroneRequest carries the series collapsed into a drone. An empty
// option list selects min, mean, median, max and mode.
type MidiDroneRequest struct {
	DataForDrone      []float64 `json:"data_for_drone" binding:"required"`
	DroneBuildOptions []string  `json:"drone_build_options"`
}

// MidiCCRequest carries a CC series and optional duration weights.
type MidiCCRequest struct {
	DataForCC        []float64 `json:"data_for_cc" binding:"required"`
	DataForDurations []float64 `json:"data_for_durations"`
}

// StatisticData is a series on its time axis.
type StatisticData struct {
	Time  []float64 `json:"time"`
	Value []float64 `json:"value"`
}

// StatisticDataPoly is a polynomial fit together with its degree.
type StatisticDataPoly struct {
	Time   []float64 `json:"time"`
	Value  []float64 `json:"value"`
	Degree int       `json:"degree"`
}

// NoteEvent is one mapped note.
type NoteEvent struct {
	Time     float64 `json:"time"`
	Value    float64 `json:"value"`
	Note     int     `json:"note"`
	Velocity int     `json:"velocity"`
	Duration float64 `json:"duration"`
}

// ChordEvent is one mapped chord.
type ChordEvent struct {
	Time     float64       `json:"time"`
	Value    float64       `json:"value"`
	Chord    midimap.Chord `json:"chord"`
	Velocity int           `json:"velocity"`
	Duration float64       `json:"duration"`
}

// DroneEvent is a single sustained chord summarising a whole series.
type DroneEvent struct {
	Chord    midimap.Chord `json:"chord"`
	Velocity int           `json:"velocity"`
	Duration float64       `json:"duration"`
}

// CCEvent is one control change message.
type CCEvent struct {
	Time      float64 `json:"time"`
	CCMessage int     `json:"cc_message"`
	Duration  float64 `json:"duration"`
}
