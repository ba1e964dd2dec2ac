package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/midimap"
	"github.com/gin-gonic/gin"
)

type MidiHandler struct {
	service *services.SonificationService
	cfg     *config.Config
}

func NewMidiHandler(service *services.SonificationService, cfg *config.Config) *MidiHandler {
	return &MidiHandler{service: service, cfg: cfg}
}

type noteQuery struct {
	DurationS               float64 `form:"duration_s"`
	StartMidiNotes          int     `form:"start_midi_notes"`
	VelocityMidiMin         int     `form:"velocity_midi_min"`
	VelocityMidiMax         int     `form:"velocity_midi_max"`
	VelocityMappingReversed bool    `form:"velocity_mapping_reversed"`
	ChordType               string  `form:"chord_type"`
}

func (h *MidiHandler) noteQuery() noteQuery {
	return noteQuery{
		DurationS:       h.cfg.DurationS,
		StartMidiNotes:  h.cfg.LowestMidiNote,
		VelocityMidiMin: midiValueMin,
		VelocityMidiMax: midiValueMax,
		ChordType:       defaultChordType,
	}
}

func (q noteQuery) params() services.NoteParams {
	return services.NoteParams{
		DurationS: q.DurationS,
		StartNote: q.StartMidiNotes,
		Velocity: midimap.Range{
			Min:     q.VelocityMidiMin,
			Max:     q.VelocityMidiMax,
			Reverse: q.VelocityMappingReversed,
		},
	}
}

// Notes answers /map_data_to_midi_notes.
func (h *MidiHandler) Notes(c *gin.Context) {
	query := h.noteQuery()
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	var req models.MidiNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	events, err := h.service.Notes(c.Request.Context(), req, query.params())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// Chords answers /map_data_to_midi_chords.
func (h *MidiHandler) Chords(c *gin.Context) {
	query := h.noteQuery()
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	var req models.MidiChordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	kind, err := midimap.ParseChordKind(query.ChordType)
	if err != nil {
		respondError(c, err)
		return
	}

	events, err := h.service.Chords(c.Request.Context(), req, services.ChordParams{
		NoteParams: query.params(),
		Kind:       kind,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

type droneQuery struct {
	DurationS      float64 `form:"duration_s"`
	StartMidiNotes int     `form:"start_midi_notes"`
}

// Drone answers /map_data_to_midi_drone.
func (h *MidiHandler) Drone(c *gin.Context) {
	query := droneQuery{DurationS: h.cfg.DurationS, StartMidiNotes: h.cfg.LowestMidiNote}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	var req models.MidiDroneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	options, err := midimap.ParseDroneOptions(req.DroneBuildOptions)
	if err != nil {
		respondError(c, err)
		return
	}

	event, err := h.service.Drone(c.Request.Context(), req, services.DroneParams{
		DurationS: query.DurationS,
		StartNote: query.StartMidiNotes,
		Options:   options,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

type ccQuery struct {
	DurationS          float64  `form:"duration_s"`
	MidiMin            int      `form:"midi_min"`
	MidiMax            int      `form:"midi_max"`
	MappingReversed    bool     `form:"mapping_reversed"`
	DurationPerCCValue *float64 `form:"duration_per_cc_value"`
}

// CC answers /map_data_to_midi_cc.
func (h *MidiHandler) CC(c *gin.Context) {
	query := ccQuery{DurationS: h.cfg.DurationS, MidiMin: midiValueMin, MidiMax: midiValueMax}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	var req models.MidiCCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	events, err := h.service.CC(c.Request.Context(), req, services.CCParams{
		DurationS: query.DurationS,
		Range:     midimap.Range{Min: query.MidiMin, Max: query.MidiMax, Reverse: query.MappingReversed},
		IntervalS: query.DurationPerCCValue,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
