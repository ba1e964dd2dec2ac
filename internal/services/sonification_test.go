package services

import (
	"context"
	"testing"

	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/midimap"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *SonificationService {
	return NewSonificationService(nil, nil, 0)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestStatistic(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		op     StatisticOperation
		data   []float64
		params StatisticParams
		want   models.StatisticData
	}{
		{
			name:   "distance to before",
			op:     OpDistanceToBefore,
			data:   []float64{1, 3, 6},
			params: StatisticParams{DurationS: 10},
			want:   models.StatisticData{Time: []float64{0, 5, 10}, Value: []float64{5, 2, 3}},
		},
		{
			name:   "distance ignores deviation",
			op:     OpDistanceToNext,
			data:   []float64{1, 3, 6},
			params: StatisticParams{DurationS: 10, Deviation: true},
			want:   models.StatisticData{Time: []float64{0, 5, 10}, Value: []float64{2, 3, 5}},
		},
		{
			name:   "rolling average",
			op:     OpRollingAverage,
			data:   []float64{1, 2, 3, 4, 5},
			params: StatisticParams{DurationS: 4, WindowSize: 3},
			want:   models.StatisticData{Time: []float64{0, 1, 2, 3, 4}, Value: []float64{1.5, 2, 3, 4, 4.5}},
		},
		{
			name:   "rolling average deviation",
			op:     OpRollingAverage,
			data:   []float64{1, 2, 3, 4, 5},
			params: StatisticParams{DurationS: 4, WindowSize: 3, Deviation: true},
			want:   models.StatisticData{Time: []float64{0, 1, 2, 3, 4}, Value: []float64{0.5, 0, 0, 0, 0.5}},
		},
		{
			name:   "summary statistic",
			op:     OpSummaryStatistic,
			data:   []float64{2, 4, 9},
			params: StatisticParams{DurationS: 2, Aggregation: stats.AggregationMean},
			want:   models.StatisticData{Time: []float64{0, 1, 2}, Value: []float64{5, 5, 5}},
		},
		{
			name:   "summary statistic deviation",
			op:     OpSummaryStatistic,
			data:   []float64{2, 4, 9},
			params: StatisticParams{DurationS: 2, Aggregation: stats.AggregationMean, Deviation: true},
			want:   models.StatisticData{Time: []float64{0, 1, 2}, Value: []float64{3, 1, 4}},
		},
		{
			name:   "output rounded to one decimal",
			op:     OpSummaryStatistic,
			data:   []float64{1, 2, 2},
			params: StatisticParams{DurationS: 1, Aggregation: stats.AggregationMean},
			want:   models.StatisticData{Time: []float64{0, 0.5, 1}, Value: []float64{1.7, 1.7, 1.7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Statistic(ctx, tt.op, tt.data, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Time, got.Time)
			assert.InDeltaSlice(t, tt.want.Value, got.Value, 1e-9)
		})
	}
}

func TestStatisticErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Statistic(ctx, OpRollingAverage, []float64{1, 2}, StatisticParams{DurationS: 1, WindowSize: 0})
	require.ErrorIs(t, err, sonify.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "rolling_average:")

	_, err = svc.Statistic(ctx, OpSummaryStatistic, []float64{1, 2}, StatisticParams{DurationS: 1, Aggregation: stats.AggregationPercentile})
	assert.ErrorIs(t, err, sonify.ErrInvalidPercentile)

	_, err = svc.Statistic(ctx, OpDistanceToBefore, nil, StatisticParams{DurationS: 1})
	assert.ErrorIs(t, err, sonify.ErrEmptyInput)

	_, err = svc.Statistic(ctx, OpDistanceToBefore, make([]float64, sonify.MaxSeriesLength+1), StatisticParams{DurationS: 1})
	assert.ErrorIs(t, err, sonify.ErrSizeLimitExceeded)

	_, err = svc.Statistic(ctx, StatisticOperation("integral"), []float64{1}, StatisticParams{DurationS: 1})
	assert.ErrorIs(t, err, sonify.ErrUnsupportedOption)
}

func TestPolynomialFit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	data := make([]float64, 10)
	for i := range data {
		data[i] = 2*float64(i) + 1
	}

	t.Run("searches degree when none given", func(t *testing.T) {
		got, err := svc.PolynomialFit(ctx, data, StatisticParams{DurationS: 9})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Degree)
		assert.InDeltaSlice(t, data, got.Value, 1e-9)
		assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got.Time)
	})

	t.Run("keeps explicit degree", func(t *testing.T) {
		got, err := svc.PolynomialFit(ctx, data, StatisticParams{DurationS: 9, Degree: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, 2, got.Degree)
	})

	t.Run("searches when degree is too high", func(t *testing.T) {
		got, err := svc.PolynomialFit(ctx, data, StatisticParams{DurationS: 9, Degree: intPtr(50)})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Degree)
	})

	t.Run("deviation of an exact fit is zero", func(t *testing.T) {
		got, err := svc.PolynomialFit(ctx, data, StatisticParams{DurationS: 9, Degree: intPtr(1), Deviation: true})
		require.NoError(t, err)
		assert.InDeltaSlice(t, make([]float64, len(data)), got.Value, 1e-9)
	})

	t.Run("statistic delegates", func(t *testing.T) {
		got, err := svc.Statistic(ctx, OpPolynomialFit, data, StatisticParams{DurationS: 9, Degree: intPtr(1)})
		require.NoError(t, err)
		assert.InDeltaSlice(t, data, got.Value, 1e-9)
	})

	t.Run("single sample is degenerate", func(t *testing.T) {
		_, err := svc.PolynomialFit(ctx, []float64{4}, StatisticParams{DurationS: 1})
		assert.ErrorIs(t, err, sonify.ErrDegenerateFit)
	})
}

func TestNotes(t *testing.T) {
	svc := newTestService()

	events, err := svc.Notes(context.Background(), models.MidiNotesRequest{
		DataForNotes:    []float64{3, 1, 2},
		DataForVelocity: []float64{0, 5, 10},
		DataForDuration: []float64{1, 1, 2},
	}, NoteParams{DurationS: 8, StartNote: 60, Velocity: midimap.FullRange})
	require.NoError(t, err)

	assert.Equal(t, []models.NoteEvent{
		{Time: 0, Value: 3, Note: 62, Velocity: 0, Duration: 2},
		{Time: 4, Value: 1, Note: 60, Velocity: 63, Duration: 2},
		{Time: 8, Value: 2, Note: 61, Velocity: 127, Duration: 4},
	}, events)
}

func TestNotesRejectsMismatchedSeries(t *testing.T) {
	_, err := newTestService().Notes(context.Background(), models.MidiNotesRequest{
		DataForNotes:    []float64{1, 2, 3},
		DataForVelocity: []float64{1, 2},
		DataForDuration: []float64{1, 2, 3},
	}, NoteParams{DurationS: 8, StartNote: 60, Velocity: midimap.FullRange})
	assert.ErrorIs(t, err, sonify.ErrLengthMismatch)
}

func TestChords(t *testing.T) {
	svc := newTestService()
	req := models.MidiChordsRequest{
		DataForChords:   []float64{1, 2, 1},
		DataForVelocity: []float64{0, 1, 2},
		DataForDuration: []float64{1, 1, 2},
	}
	params := ChordParams{
		NoteParams: NoteParams{DurationS: 4, StartNote: 36, Velocity: midimap.Range{Min: 20, Max: 100}},
		Kind:       midimap.Triads,
	}

	events, err := svc.Chords(context.Background(), req, params)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.ElementsMatch(t, []int{36, 39, 43}, events[0].Chord.Notes())
	assert.ElementsMatch(t, []int{36, 39, 44}, events[1].Chord.Notes())
	assert.True(t, events[0].Chord.Equal(events[2].Chord))
	assert.Equal(t, []int{20, 60, 100}, []int{events[0].Velocity, events[1].Velocity, events[2].Velocity})
	assert.Equal(t, []float64{1, 1, 2}, []float64{events[0].Duration, events[1].Duration, events[2].Duration})

	again, err := svc.Chords(context.Background(), req, params)
	require.NoError(t, err)
	assert.Equal(t, events, again)
}

func TestDrone(t *testing.T) {
	svc := newTestService()

	event, err := svc.Drone(context.Background(), models.MidiDroneRequest{
		DataForDrone: []float64{10, 20, 20, 40},
	}, DroneParams{DurationS: 30, StartNote: 60})
	require.NoError(t, err)

	assert.Equal(t, []int{60, 61, 61, 62, 61}, event.Chord.Notes())
	assert.Equal(t, midimap.DroneVelocity, event.Velocity)
	assert.Equal(t, 30.0, event.Duration)

	event, err = svc.Drone(context.Background(), models.MidiDroneRequest{
		DataForDrone: []float64{10, 20, 20, 40},
	}, DroneParams{DurationS: 30, StartNote: 60, Options: []midimap.DroneOption{midimap.DroneMax}})
	require.NoError(t, err)
	assert.Equal(t, []int{62}, event.Chord.Notes())
}

func TestCC(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	req := models.MidiCCRequest{
		DataForCC:        []float64{0, 5, 10},
		DataForDurations: []float64{1, 1, 2},
	}

	t.Run("duration weights", func(t *testing.T) {
		events, err := svc.CC(ctx, req, CCParams{DurationS: 8, Range: midimap.FullRange})
		require.NoError(t, err)
		assert.Equal(t, []models.CCEvent{
			{Time: 0, CCMessage: 0, Duration: 2},
			{Time: 4, CCMessage: 63, Duration: 2},
			{Time: 8, CCMessage: 127, Duration: 4},
		}, events)
	})

	t.Run("fixed interval", func(t *testing.T) {
		events, err := svc.CC(ctx, models.MidiCCRequest{DataForCC: req.DataForCC},
			CCParams{DurationS: 8, Range: midimap.FullRange, IntervalS: floatPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, []models.CCEvent{
			{Time: 0, CCMessage: 0, Duration: 2},
			{Time: 2, CCMessage: 31, Duration: 2},
			{Time: 4, CCMessage: 63, Duration: 2},
			{Time: 6, CCMessage: 95, Duration: 2},
			{Time: 8, CCMessage: 127, Duration: 2},
		}, events)
	})

	t.Run("needs durations or interval", func(t *testing.T) {
		_, err := svc.CC(ctx, models.MidiCCRequest{DataForCC: req.DataForCC},
			CCParams{DurationS: 8, Range: midimap.FullRange})
		assert.ErrorIs(t, err, sonify.ErrInvalidParameter)
	})
}
