package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ExportMidiFile answers /export_midi_file with a Standard MIDI File built
// from previously mapped note, chord and CC streams.
func ExportMidiFile(c *gin.Context) {
	var req models.MidiFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteMidiFile(&buf, req); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName))
	c.Data(http.StatusOK, midiMIMEType, buf.Bytes())
}
