package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/datson-api/internal/logger"
	"github.com/Conceptual-Machines/datson-api/internal/metrics"
	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/midimap"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/stats"
)

// StatisticOperation names one of the statistics endpoints.
type StatisticOperation string

const (
	OpDistanceToBefore StatisticOperation = "distance_to_before"
	OpDistanceToNext   StatisticOperation = "distance_to_next"
	OpRollingAverage   StatisticOperation = "rolling_average"
	OpPolynomialFit    StatisticOperation = "polynomial_fit"
	OpSummaryStatistic StatisticOperation = "summary_statistic"
)

// StatisticOperations lists every operation accepted by Statistic.
var StatisticOperations = []StatisticOperation{
	OpDistanceToBefore, OpDistanceToNext, OpRollingAverage, OpPolynomialFit, OpSummaryStatistic,
}

const (
	valueColumn     = "value"
	referenceColumn = "value_abs"
	outputDecimals  = 1
)

// StatisticParams carries the scalar options of the statistics endpoints.
// Fields an operation does not use are ignored.
type StatisticParams struct {
	DurationS   float64
	WindowSize  int
	Degree      *int
	Aggregation stats.Aggregation
	Percentile  *float64
	Deviation   bool
}

// NoteParams configures a note mapping.
type NoteParams struct {
	DurationS float64
	StartNote int
	Velocity  midimap.Range
}

// ChordParams configures a chord mapping.
type ChordParams struct {
	NoteParams
	Kind midimap.ChordKind
}

// DroneParams configures a drone mapping. Empty Options select all of them.
type DroneParams struct {
	DurationS float64
	StartNote int
	Options   []midimap.DroneOption
}

// CCParams configures a CC mapping. IntervalS, when set, places the values on
// a fixed grid instead of using duration weights.
type CCParams struct {
	DurationS float64
	Range     midimap.Range
	IntervalS *float64
}

// SonificationService runs the mapping pipelines behind the HTTP and CLI
// surfaces. It holds no per-request state.
type SonificationService struct {
	sentryMetrics *metrics.SentryMetrics
	metrics       *metrics.Client
	maxDegree     int
}

// NewSonificationService creates the service. Both metrics sinks may be nil.
// maxDegree bounds the automatic polynomial degree search.
func NewSonificationService(sentryMetrics *metrics.SentryMetrics, metricsClient *metrics.Client, maxDegree int) *SonificationService {
	if maxDegree < 1 {
		maxDegree = stats.DefaultMaxDegree
	}
	return &SonificationService{
		sentryMetrics: sentryMetrics,
		metrics:       metricsClient,
		maxDegree:     maxDegree,
	}
}

// Statistic runs one of the statistics operations other than the polynomial
// fit and returns the series rounded to one decimal.
func (s *SonificationService) Statistic(ctx context.Context, op StatisticOperation, data []float64, params StatisticParams) (models.StatisticData, error) {
	if op == OpPolynomialFit {
		fit, err := s.PolynomialFit(ctx, data, params)
		if err != nil {
			return models.StatisticData{}, err
		}
		return models.StatisticData{Time: fit.Time, Value: fit.Value}, nil
	}

	var result models.StatisticData
	err := s.observe(ctx, string(op), len(data), func() error {
		frame, err := sonify.NewSeriesFrame(params.DurationS, sonify.Column{Name: valueColumn, Values: data})
		if err != nil {
			return err
		}

		// Distances have no reference series to deviate from.
		deviation := params.Deviation && op != OpDistanceToBefore && op != OpDistanceToNext
		to := valueColumn
		if deviation {
			to = referenceColumn
		}
		switch op {
		case OpDistanceToBefore:
			frame, err = stats.DistanceToBefore(frame, valueColumn, valueColumn)
		case OpDistanceToNext:
			frame, err = stats.DistanceToNext(frame, valueColumn, valueColumn)
		case OpRollingAverage:
			frame, err = stats.RollingAverage(frame, valueColumn, to, params.WindowSize)
		case OpSummaryStatistic:
			frame, err = stats.SummaryStatistic(frame, valueColumn, to, params.Aggregation, params.Percentile)
		default:
			return sonify.Unsupported("statistic operation", op)
		}
		if err != nil {
			return err
		}

		if deviation {
			if frame, err = stats.Deviation(frame, valueColumn, referenceColumn, valueColumn); err != nil {
				return err
			}
		}

		result, err = roundedSeries(frame)
		return err
	})
	return result, err
}

// PolynomialFit fits a polynomial over the sample index. Without a usable
// degree the best one up to min(maxDegree, n-1) is searched first.
func (s *SonificationService) PolynomialFit(ctx context.Context, data []float64, params StatisticParams) (models.StatisticDataPoly, error) {
	var result models.StatisticDataPoly
	err := s.observe(ctx, string(OpPolynomialFit), len(data), func() error {
		frame, err := sonify.NewSeriesFrame(params.DurationS, sonify.Column{Name: valueColumn, Values: data})
		if err != nil {
			return err
		}

		degree := 0
		if params.Degree != nil {
			degree = *params.Degree
		}
		if params.Degree == nil || degree >= frame.Len() {
			report, err := stats.BestPolynomialFit(frame, valueColumn, min(s.maxDegree, frame.Len()-1))
			if err != nil {
				return err
			}
			degree = report.BestDegree
		}

		to := valueColumn
		if params.Deviation {
			to = referenceColumn
		}
		if frame, err = stats.PolynomialFit(frame, valueColumn, to, degree); err != nil {
			return err
		}
		if params.Deviation {
			if frame, err = stats.Deviation(frame, valueColumn, referenceColumn, valueColumn); err != nil {
				return err
			}
		}

		series, err := roundedSeries(frame)
		if err != nil {
			return err
		}
		result = models.StatisticDataPoly{Time: series.Time, Value: series.Value, Degree: degree}
		return nil
	})
	return result, err
}

// Notes maps three parallel series onto note events: pitch from the quantized
// note data, velocity from the range mapping and duration from the weights.
func (s *SonificationService) Notes(ctx context.Context, req models.MidiNotesRequest, params NoteParams) ([]models.NoteEvent, error) {
	var events []models.NoteEvent
	err := s.observe(ctx, "notes", len(req.DataForNotes), func() error {
		frame, err := sonify.NewSeriesFrame(params.DurationS,
			sonify.Column{Name: "value_notes", Values: req.DataForNotes},
			sonify.Column{Name: "value_velocities", Values: req.DataForVelocity},
			sonify.Column{Name: "value_durations", Values: req.DataForDuration},
		)
		if err != nil {
			return err
		}
		if frame, err = midimap.SetDurations(frame, "value_durations", "duration", params.DurationS); err != nil {
			return err
		}
		if frame, err = midimap.MapRange(frame, "value_velocities", "velocity", params.Velocity); err != nil {
			return err
		}
		if frame, err = midimap.SetNotes(frame, "value_notes", "note", params.StartNote); err != nil {
			return err
		}

		cols, err := floatColumns(frame, sonify.TimeColumn, "value_notes", "note", "velocity", "duration")
		if err != nil {
			return err
		}
		events = make([]models.NoteEvent, frame.Len())
		for i := range events {
			events[i] = models.NoteEvent{
				Time:     cols[0][i],
				Value:    cols[1][i],
				Note:     int(cols[2][i]),
				Velocity: int(cols[3][i]),
				Duration: cols[4][i],
			}
		}
		return nil
	})
	return events, err
}

// Chords maps three parallel series onto chord events. Every chord is
// permuted with its source value as seed.
func (s *SonificationService) Chords(ctx context.Context, req models.MidiChordsRequest, params ChordParams) ([]models.ChordEvent, error) {
	var events []models.ChordEvent
	err := s.observe(ctx, "chords", len(req.DataForChords), func() error {
		frame, err := sonify.NewSeriesFrame(params.DurationS,
			sonify.Column{Name: "value_chords", Values: req.DataForChords},
			sonify.Column{Name: "value_velocities", Values: req.DataForVelocity},
			sonify.Column{Name: "value_durations", Values: req.DataForDuration},
		)
		if err != nil {
			return err
		}
		if frame, err = midimap.SetDurations(frame, "value_durations", "duration", params.DurationS); err != nil {
			return err
		}
		if frame, err = midimap.MapRange(frame, "value_velocities", "velocity", params.Velocity); err != nil {
			return err
		}
		if frame, err = midimap.SetChords(frame, "value_chords", "chord", params.Kind, params.StartNote); err != nil {
			return err
		}
		if frame, err = midimap.PermuteChords(frame, "value_chords", "chord"); err != nil {
			return err
		}

		cols, err := floatColumns(frame, sonify.TimeColumn, "value_chords", "velocity", "duration")
		if err != nil {
			return err
		}
		rows, err := frame.Chords("chord")
		if err != nil {
			return err
		}
		chords := midimap.ChordsFromRows(rows)

		events = make([]models.ChordEvent, frame.Len())
		for i := range events {
			events[i] = models.ChordEvent{
				Time:     cols[0][i],
				Value:    cols[1][i],
				Chord:    chords[i],
				Velocity: int(cols[2][i]),
				Duration: cols[3][i],
			}
		}
		return nil
	})
	return events, err
}

// Drone collapses a series into a single chord sustained for the whole
// duration.
func (s *SonificationService) Drone(ctx context.Context, req models.MidiDroneRequest, params DroneParams) (models.DroneEvent, error) {
	var event models.DroneEvent
	err := s.observe(ctx, "drone", len(req.DataForDrone), func() error {
		options := params.Options
		if len(options) == 0 {
			options = midimap.DefaultDroneOptions
		}

		frame, err := sonify.NewSeriesFrame(params.DurationS, sonify.Column{Name: valueColumn, Values: req.DataForDrone})
		if err != nil {
			return err
		}
		if frame, err = midimap.SetNotes(frame, valueColumn, "value_notes", params.StartNote); err != nil {
			return err
		}
		notes, err := frame.Floats("value_notes")
		if err != nil {
			return err
		}
		chord, err := midimap.Drone(midimap.Ints(notes), options)
		if err != nil {
			return err
		}

		event = models.DroneEvent{Chord: chord, Velocity: midimap.DroneVelocity, Duration: params.DurationS}
		return nil
	})
	return event, err
}

// CC maps a series onto control change messages. With a fixed interval the
// messages are resampled onto a regular grid; otherwise the duration weights
// are required and split the total duration.
func (s *SonificationService) CC(ctx context.Context, req models.MidiCCRequest, params CCParams) ([]models.CCEvent, error) {
	var events []models.CCEvent
	err := s.observe(ctx, "cc", len(req.DataForCC), func() error {
		if params.IntervalS == nil && len(req.DataForDurations) == 0 {
			return fmt.Errorf("%w: either duration data or a duration per CC value is required", sonify.ErrInvalidParameter)
		}

		columns := []sonify.Column{{Name: "value_cc", Values: req.DataForCC}}
		if len(req.DataForDurations) > 0 {
			columns = append(columns, sonify.Column{Name: "duration_cc", Values: req.DataForDurations})
		}
		frame, err := sonify.NewSeriesFrame(params.DurationS, columns...)
		if err != nil {
			return err
		}
		if frame, err = midimap.MapRange(frame, "value_cc", "cc_message", params.Range); err != nil {
			return err
		}

		if params.IntervalS != nil {
			resampled, err := midimap.ResampleFixedInterval(frame, "cc_message", *params.IntervalS, params.DurationS)
			if err != nil {
				return err
			}
			events = make([]models.CCEvent, len(resampled))
			for i, e := range resampled {
				events[i] = models.CCEvent{Time: e.Time, CCMessage: e.Value, Duration: *params.IntervalS}
			}
			return nil
		}

		if frame, err = midimap.SetDurations(frame, "duration_cc", "duration", params.DurationS); err != nil {
			return err
		}
		cols, err := floatColumns(frame, sonify.TimeColumn, "cc_message", "duration")
		if err != nil {
			return err
		}
		events = make([]models.CCEvent, frame.Len())
		for i := range events {
			events[i] = models.CCEvent{Time: cols[0][i], CCMessage: int(cols[1][i]), Duration: cols[2][i]}
		}
		return nil
	})
	return events, err
}

// observe times a pipeline run and reports it to the metrics sinks.
func (s *SonificationService) observe(ctx context.Context, operation string, seriesLength int, run func() error) error {
	start := time.Now()
	err := run()
	duration := time.Since(start)

	s.sentryMetrics.RecordSonification(ctx, operation, seriesLength, duration, err)
	s.metrics.RecordSonification(operation, seriesLength, duration, err == nil)

	fields := logger.Fields{"success": err == nil}
	if err != nil {
		fields["kind"] = sonify.KindOf(err)
	}
	logger.LogSonification(ctx, operation, seriesLength, duration, fields)

	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func roundedSeries(frame *sonify.Frame) (models.StatisticData, error) {
	cols, err := floatColumns(frame, sonify.TimeColumn, valueColumn)
	if err != nil {
		return models.StatisticData{}, err
	}
	return models.StatisticData{
		Time:  sonify.Round(cols[0], outputDecimals),
		Value: sonify.Round(cols[1], outputDecimals),
	}, nil
}

func floatColumns(frame *sonify.Frame, names ...string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		values, err := frame.Floats(name)
		if err != nil {
			return nil, err
		}
		out[i] = values
	}
	return out, nil
}
