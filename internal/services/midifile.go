package services

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 960
	exportBPM       = 120
	ticksPerSecond  = ticksPerQuarter * exportBPM / 60
	maxChannel      = 15

	// maxTicks is the largest tick a variable length delta can carry.
	maxTicks = 0x0FFFFFFF
)

// timedMessage is a message at an absolute tick. Note-offs sort before
// note-ons on the same tick so back to back notes do not cut each other.
type timedMessage struct {
	tick  uint32
	order int
	msg   midi.Message
}

// BuildMidiFile lays every stream of req onto its own track of a format 1
// file at 960 ticks per quarter and 120 bpm. Events of a stream follow each
// other without gaps, each lasting its duration.
func BuildMidiFile(req models.MidiFileRequest) (*smf.SMF, error) {
	if len(req.NoteTracks)+len(req.ChordTracks)+len(req.CCTracks) == 0 {
		return nil, fmt.Errorf("midi file: %w: no tracks given", sonify.ErrEmptyInput)
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(exportBPM))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return nil, fmt.Errorf("midi file: add tempo track: %w", err)
	}

	var err error
	for i, events := range req.NoteTracks {
		var messages []timedMessage
		var at float64
		for _, e := range events {
			if messages, err = appendNote(messages, at, e.Duration, []int{e.Note}, e.Velocity); err != nil {
				return nil, fmt.Errorf("midi file: notes %d: %w", i+1, err)
			}
			at += e.Duration
		}
		if err := addTrack(sm, fmt.Sprintf("notes %d", i+1), messages); err != nil {
			return nil, err
		}
	}

	for i, events := range req.ChordTracks {
		var messages []timedMessage
		var at float64
		for _, e := range events {
			if messages, err = appendNote(messages, at, e.Duration, e.Chord.Notes(), e.Velocity); err != nil {
				return nil, fmt.Errorf("midi file: chords %d: %w", i+1, err)
			}
			at += e.Duration
		}
		if err := addTrack(sm, fmt.Sprintf("chords %d", i+1), messages); err != nil {
			return nil, err
		}
	}

	for i, track := range req.CCTracks {
		channel := uint8(clamp(track.Channel, 0, maxChannel))
		controller := uint8(clamp(track.Controller, 0, 127))
		var messages []timedMessage
		var at float64
		for _, e := range track.Events {
			tick, err := secondsToTicks(at)
			if err != nil {
				return nil, fmt.Errorf("midi file: cc %d: %w", i+1, err)
			}
			messages = append(messages, timedMessage{
				tick:  tick,
				order: 1,
				msg:   midi.ControlChange(channel, controller, uint8(clamp(e.CCMessage, 0, 127))),
			})
			at += e.Duration
		}
		if err := addTrack(sm, fmt.Sprintf("cc %d", i+1), messages); err != nil {
			return nil, err
		}
	}

	return sm, nil
}

// WriteMidiFile encodes req as a Standard MIDI File into w.
func WriteMidiFile(w io.Writer, req models.MidiFileRequest) error {
	sm, err := BuildMidiFile(req)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("midi file: write: %w", err)
	}
	return nil
}

func appendNote(messages []timedMessage, at, duration float64, notes []int, velocity int) ([]timedMessage, error) {
	on, err := secondsToTicks(at)
	if err != nil {
		return nil, err
	}
	off, err := secondsToTicks(at + duration)
	if err != nil {
		return nil, err
	}
	vel := uint8(clamp(velocity, 0, 127))
	for _, n := range notes {
		key := uint8(clamp(n, 0, 127))
		messages = append(messages,
			timedMessage{tick: on, order: 1, msg: midi.NoteOn(0, key, vel)},
			timedMessage{tick: off, order: 0, msg: midi.NoteOff(0, key)},
		)
	}
	return messages, nil
}

func addTrack(sm *smf.SMF, name string, messages []timedMessage) error {
	slices.SortStableFunc(messages, func(a, b timedMessage) int {
		if a.tick != b.tick {
			if a.tick < b.tick {
				return -1
			}
			return 1
		}
		return a.order - b.order
	})

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(name))
	var last uint32
	for _, m := range messages {
		track.Add(m.tick-last, m.msg)
		last = m.tick
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return fmt.Errorf("midi file: add track %q: %w", name, err)
	}
	return nil
}

// secondsToTicks converts a position in seconds to ticks. Positions past
// maxTicks fail with sonify.ErrSizeLimitExceeded.
func secondsToTicks(s float64) (uint32, error) {
	if s <= 0 || math.IsNaN(s) {
		return 0, nil
	}
	ticks := math.Round(s * ticksPerSecond)
	if ticks > maxTicks {
		return 0, fmt.Errorf("%w: position %vs is past the last tick of a track", sonify.ErrSizeLimitExceeded, s)
	}
	return uint32(ticks), nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
