package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/midimap"
)

var (
	startNote   int
	velocityMin int
	velocityMax int
	reversed    bool
	chordType   string
	ccMin       int
	ccMax       int
	ccInterval  float64
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Map series onto MIDI notes",
	Long: `Map three parallel series onto note events.

Request:
  data_for_notes:    [..]  quantized into notes from --start-note upward
  data_for_velocity: [..]  rescaled into [--velocity-min, --velocity-max]
  data_for_duration: [..]  weights splitting the total duration`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req models.MidiNotesRequest
		if err := loadRequest(&req); err != nil {
			return err
		}
		events, err := newService().Notes(context.Background(), req, noteParams(cmd))
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

var chordsCmd = &cobra.Command{
	Use:   "chords",
	Short: "Map series onto permuted chords",
	Long: `Map three parallel series onto chord events.

Request:
  data_for_chords:   [..]  ranks pick chords of a triad or tetrad progression
  data_for_velocity: [..]
  data_for_duration: [..]

Every chord is shuffled with its source value as seed, so the same input
always gives the same voicing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := midimap.ParseChordKind(chordType)
		if err != nil {
			return err
		}
		var req models.MidiChordsRequest
		if err := loadRequest(&req); err != nil {
			return err
		}
		events, err := newService().Chords(context.Background(), req, services.ChordParams{
			NoteParams: noteParams(cmd),
			Kind:       kind,
		})
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

var droneCmd = &cobra.Command{
	Use:   "drone",
	Short: "Collapse a series into a drone chord",
	Long: `Collapse a series into one chord held for the whole duration.

Request:
  data_for_drone:      [..]
  drone_build_options: [min, mean, median, max, mode]  (default: all)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req models.MidiDroneRequest
		if err := loadRequest(&req); err != nil {
			return err
		}
		options, err := midimap.ParseDroneOptions(req.DroneBuildOptions)
		if err != nil {
			return err
		}
		event, err := newService().Drone(context.Background(), req, services.DroneParams{
			DurationS: durationS,
			StartNote: resolveStartNote(cmd),
			Options:   options,
		})
		if err != nil {
			return err
		}
		return printJSON(event)
	},
}

var ccCmd = &cobra.Command{
	Use:   "cc",
	Short: "Map a series onto CC messages",
	Long: `Map a series onto control change messages.

Request:
  data_for_cc:        [..]  rescaled into [--min, --max]
  data_for_durations: [..]  optional weights splitting the total duration

Without duration data --interval must place the messages on a fixed grid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req models.MidiCCRequest
		if err := loadRequest(&req); err != nil {
			return err
		}
		params := services.CCParams{
			DurationS: durationS,
			Range:     midimap.Range{Min: ccMin, Max: ccMax, Reverse: reversed},
		}
		if cmd.Flags().Changed("interval") {
			params.IntervalS = &ccInterval
		}
		events, err := newService().CC(context.Background(), req, params)
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

func noteParams(cmd *cobra.Command) services.NoteParams {
	return services.NoteParams{
		DurationS: durationS,
		StartNote: resolveStartNote(cmd),
		Velocity:  midimap.Range{Min: velocityMin, Max: velocityMax, Reverse: reversed},
	}
}

func resolveStartNote(cmd *cobra.Command) int {
	if cmd.Flags().Changed("start-note") {
		return startNote
	}
	return cfg.LowestMidiNote
}

func init() {
	for _, cmd := range []*cobra.Command{notesCmd, chordsCmd, droneCmd} {
		cmd.Flags().IntVar(&startNote, "start-note", 36, "lowest MIDI note (default: $LOWEST_MIDI_NOTE)")
	}
	for _, cmd := range []*cobra.Command{notesCmd, chordsCmd} {
		cmd.Flags().IntVar(&velocityMin, "velocity-min", 0, "lowest velocity")
		cmd.Flags().IntVar(&velocityMax, "velocity-max", 127, "highest velocity")
		cmd.Flags().BoolVar(&reversed, "reverse", false, "map high values onto low velocities")
	}
	chordsCmd.Flags().StringVar(&chordType, "chord-type", string(midimap.Tetrads), "triads or tetrads")

	ccCmd.Flags().IntVar(&ccMin, "min", 0, "lowest CC value")
	ccCmd.Flags().IntVar(&ccMax, "max", 127, "highest CC value")
	ccCmd.Flags().BoolVar(&reversed, "reverse", false, "map high values onto low CC values")
	ccCmd.Flags().Float64Var(&ccInterval, "interval", 0, "seconds per CC message on a fixed grid")
}
