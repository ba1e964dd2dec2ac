package commands

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/services"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write mapped streams into a Standard MIDI File",
	Long: `Write note, chord and CC streams into a Standard MIDI File.

Request:
  note_tracks:  [[note events], ...]   output of "datsonctl notes"
  chord_tracks: [[chord events], ...]  output of "datsonctl chords"
  cc_tracks:
    - controller: 74
      channel: 0
      events: [cc events]             output of "datsonctl cc"

Example:
  datsonctl export -f tracks.yaml -o track.mid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFile == "" {
			return fmt.Errorf("output file is required, use -o flag")
		}

		var req models.MidiFileRequest
		if err := loadRequest(&req); err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := services.WriteMidiFile(&buf, req); err != nil {
			return err
		}
		if err := saveToFile(outputFile, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", outputFile, buf.Len())
		return nil
	},
}
