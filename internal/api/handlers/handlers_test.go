package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:         "test",
		Longitude:           8.01,
		Latitude:            50.12,
		StartDate:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		HistoryCacheSize:    4,
		UpstreamTimeout:     5 * time.Second,
		WindowSize:          3,
		DurationS:           10,
		LowestMidiNote:      36,
		MaxPolynomialDegree: 8,
	}
}

// setupTestRouter wires the mapping endpoints without the middleware stack.
func setupTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	svc := services.NewSonificationService(nil, nil, cfg.MaxPolynomialDegree)
	statisticsHandler := NewStatisticsHandler(svc, cfg)
	router.POST("/api/get_distance_to_before", statisticsHandler.Statistic(services.OpDistanceToBefore))
	router.POST("/api/get_rolling_average", statisticsHandler.Statistic(services.OpRollingAverage))
	router.POST("/api/get_summary_statistic", statisticsHandler.Statistic(services.OpSummaryStatistic))
	router.POST("/api/get_polynomial_fit", statisticsHandler.PolynomialFit)

	midiHandler := NewMidiHandler(svc, cfg)
	router.POST("/api/map_data_to_midi_notes", midiHandler.Notes)
	router.POST("/api/map_data_to_midi_chords", midiHandler.Chords)
	router.POST("/api/map_data_to_midi_drone", midiHandler.Drone)
	router.POST("/api/map_data_to_midi_cc", midiHandler.CC)
	router.POST("/api/export_midi_file", ExportMidiFile)

	router.GET("/health", HealthCheck)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(testConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
}

func TestStatisticsEndpoints(t *testing.T) {
	router := setupTestRouter(testConfig())

	tests := []struct {
		name           string
		url            string
		body           any
		expectedStatus int
		expectedBody   string
		expectedKind   string
	}{
		{
			name:           "distance to before",
			url:            "/api/get_distance_to_before",
			body:           models.DataRequest{Data: []float64{1, 3, 6}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"time": [0, 5, 10], "value": [5, 2, 3]}`,
		},
		{
			name:           "duration from query",
			url:            "/api/get_distance_to_before?duration_s=4",
			body:           models.DataRequest{Data: []float64{1, 3, 6}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"time": [0, 2, 4], "value": [5, 2, 3]}`,
		},
		{
			name:           "rolling average uses configured window",
			url:            "/api/get_rolling_average?duration_s=4",
			body:           models.DataRequest{Data: []float64{1, 2, 3, 4, 5}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"time": [0, 1, 2, 3, 4], "value": [1.5, 2, 3, 4, 4.5]}`,
		},
		{
			name:           "summary statistic defaults to min",
			url:            "/api/get_summary_statistic?duration_s=2",
			body:           models.DataRequest{Data: []float64{4, 2, 9}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"time": [0, 1, 2], "value": [2, 2, 2]}`,
		},
		{
			name:           "percentile",
			url:            "/api/get_summary_statistic?duration_s=2&aggregation_type=percentile&percentile=0.5",
			body:           models.DataRequest{Data: []float64{4, 2, 9}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"time": [0, 1, 2], "value": [4, 4, 4]}`,
		},
		{
			name:           "polynomial fit reports degree",
			url:            "/api/get_polynomial_fit?duration_s=4&degree=1",
			body:           models.DataRequest{Data: []float64{1, 3, 5, 7, 9}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"time": [0, 1, 2, 3, 4], "value": [1, 3, 5, 7, 9], "degree": 1}`,
		},
		{
			name:           "missing data",
			url:            "/api/get_distance_to_before",
			body:           map[string]any{},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   kindBadRequest,
		},
		{
			name:           "malformed query",
			url:            "/api/get_rolling_average?window_size=three",
			body:           models.DataRequest{Data: []float64{1, 2, 3}},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   kindBadRequest,
		},
		{
			name:           "window larger than series",
			url:            "/api/get_rolling_average?window_size=10",
			body:           models.DataRequest{Data: []float64{1, 2, 3}},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedKind:   "invalid_parameter",
		},
		{
			name:           "unknown aggregation",
			url:            "/api/get_summary_statistic?aggregation_type=average",
			body:           models.DataRequest{Data: []float64{1, 2, 3}},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedKind:   "unsupported_option",
		},
		{
			name:           "percentile out of range",
			url:            "/api/get_summary_statistic?aggregation_type=percentile&percentile=2",
			body:           models.DataRequest{Data: []float64{1, 2, 3}},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedKind:   "invalid_percentile",
		},
		{
			name:           "series too long",
			url:            "/api/get_distance_to_before",
			body:           models.DataRequest{Data: make([]float64, 1001)},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "size_limit_exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, tt.url, tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, decodeError(t, w).Kind)
			}
		})
	}
}

func TestMidiEndpoints(t *testing.T) {
	router := setupTestRouter(testConfig())

	t.Run("notes", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_notes?duration_s=8&start_midi_notes=60", models.MidiNotesRequest{
			DataForNotes:    []float64{3, 1, 2},
			DataForVelocity: []float64{0, 5, 10},
			DataForDuration: []float64{1, 1, 2},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `[
			{"time": 0, "value": 3, "note": 62, "velocity": 0, "duration": 2},
			{"time": 4, "value": 1, "note": 60, "velocity": 63, "duration": 2},
			{"time": 8, "value": 2, "note": 61, "velocity": 127, "duration": 4}
		]`, w.Body.String())
	})

	t.Run("notes with reversed velocity", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_notes?velocity_midi_min=20&velocity_midi_max=100&velocity_mapping_reversed=true", models.MidiNotesRequest{
			DataForNotes:    []float64{1, 2},
			DataForVelocity: []float64{0, 10},
			DataForDuration: []float64{1, 1},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var events []models.NoteEvent
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
		require.Len(t, events, 2)
		assert.Equal(t, 100, events[0].Velocity)
		assert.Equal(t, 20, events[1].Velocity)
		assert.Equal(t, 36, events[0].Note)
	})

	t.Run("notes with mismatched series", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_notes", models.MidiNotesRequest{
			DataForNotes:    []float64{1, 2},
			DataForVelocity: []float64{1},
			DataForDuration: []float64{1, 2},
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "length_mismatch", decodeError(t, w).Kind)
	})

	t.Run("chords", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_chords?chord_type=triads", models.MidiChordsRequest{
			DataForChords:   []float64{1, 2},
			DataForVelocity: []float64{1, 2},
			DataForDuration: []float64{1, 1},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var events []struct {
			Chord []int `json:"chord"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
		require.Len(t, events, 2)
		assert.ElementsMatch(t, []int{36, 39, 43}, events[0].Chord)
		assert.ElementsMatch(t, []int{36, 39, 44}, events[1].Chord)
	})

	t.Run("unknown chord type", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_chords?chord_type=nonads", models.MidiChordsRequest{
			DataForChords:   []float64{1},
			DataForVelocity: []float64{1},
			DataForDuration: []float64{1},
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "unsupported_option", decodeError(t, w).Kind)
	})

	t.Run("drone", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_drone?start_midi_notes=60&duration_s=30", models.MidiDroneRequest{
			DataForDrone:      []float64{10, 20, 20, 40},
			DroneBuildOptions: []string{"max", "min"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"chord": [62, 60], "velocity": 100, "duration": 30}`, w.Body.String())
	})

	t.Run("drone with unknown option", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_drone", models.MidiDroneRequest{
			DataForDrone:      []float64{1},
			DroneBuildOptions: []string{"loudest"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("cc on fixed interval", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_cc?duration_s=8&duration_per_cc_value=2", models.MidiCCRequest{
			DataForCC: []float64{0, 5, 10},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var events []models.CCEvent
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
		assert.Len(t, events, 5)
	})

	t.Run("cc interval too small for duration", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_cc?duration_s=300&duration_per_cc_value=1e-9", models.MidiCCRequest{
			DataForCC: []float64{0, 5, 10},
		})
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, "size_limit_exceeded", decodeError(t, w).Kind)
	})

	t.Run("cc without durations", func(t *testing.T) {
		w := postJSON(t, router, "/api/map_data_to_midi_cc", models.MidiCCRequest{
			DataForCC: []float64{0, 5, 10},
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_parameter", decodeError(t, w).Kind)
	})
}

func TestExportMidiFile(t *testing.T) {
	router := setupTestRouter(testConfig())

	w := postJSON(t, router, "/api/export_midi_file", models.MidiFileRequest{
		NoteTracks: [][]models.NoteEvent{{{Note: 60, Velocity: 90, Duration: 1}}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, midiMIMEType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), exportFileName)
	assert.True(t, strings.HasPrefix(w.Body.String(), "MThd"))

	w = postJSON(t, router, "/api/export_midi_file", models.MidiFileRequest{})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "empty_input", decodeError(t, w).Kind)
}

func TestWeatherEndpoints(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		if strings.HasSuffix(r.URL.Path, "/forecast") {
			_, _ = w.Write([]byte(`{"current": {"temperature_2m": 4.2}}`))
			return
		}
		_, _ = w.Write([]byte(`{"daily": {"time": ["2024-01-01", "2024-01-02"], "temperature_2m": [1.0, 2.5]}}`))
	}))
	defer upstream.Close()

	cfg := testConfig()
	client, err := services.NewWeatherClient(services.WeatherConfig{
		HistoricalURL: upstream.URL + "/v1/archive",
		CurrentURL:    upstream.URL + "/v1/forecast",
		CacheSize:     cfg.HistoryCacheSize,
		Timeout:       cfg.UpstreamTimeout,
	}, nil, nil)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	weatherHandler := NewWeatherHandler(client, cfg)
	router.GET("/api/get_data", weatherHandler.GetData)
	router.GET("/api/get_current_data", weatherHandler.GetCurrentData)

	get := func(url string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		return w
	}

	w := get("/api/get_data?interval=d&start_date=2024-01-01&end_date=2024-01-02")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"time": ["2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z"], "value": [1, 2.5]}`, w.Body.String())

	w = get("/api/get_current_data")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"data_field": "temperature_2m", "value": 4.2}`, w.Body.String())

	w = get("/api/get_data?data_field=pressure_msl")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = get("/api/get_data?start_date=01.01.2024")
	require.Equal(t, http.StatusBadRequest, w.Code)

	status.Store(http.StatusServiceUnavailable)
	w = get("/api/get_current_data")
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, kindUpstream, decodeError(t, w).Kind)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>index</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.NoRoute(StaticFiles(dir))

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "asset", method: http.MethodGet, path: "/app.js", expectedStatus: http.StatusOK, expectedBody: "console.log(1)"},
		{name: "client route", method: http.MethodGet, path: "/charts/temperature", expectedStatus: http.StatusOK, expectedBody: "<html>index</html>"},
		{name: "traversal rejected", method: http.MethodGet, path: "/../../etc/passwd", expectedStatus: http.StatusBadRequest},
		{name: "unknown api route", method: http.MethodGet, path: "/api/nope", expectedStatus: http.StatusNotFound},
		{name: "post", method: http.MethodPost, path: "/app.js", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "1.50s", formatUptime(1500*time.Millisecond))
	assert.Equal(t, "2m3.00s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h0m5.00s", formatUptime(time.Hour+5*time.Second))
}

func TestGetMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	t.Run("without weather client", func(t *testing.T) {
		router := gin.New()
		router.GET("/api/metrics", NewMetricsHandler(cfg, nil, "v1.2.3").GetMetrics)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp MetricsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "v1.2.3", resp.Version)
		assert.Equal(t, "test", resp.Environment)
		assert.Equal(t, EngineLimits{MaxSeriesLength: 1000, MaxGridLength: 10000, MaxPolynomialDegree: 8}, resp.Limits)
		assert.Nil(t, resp.Weather)
	})

	t.Run("reports cache fill", func(t *testing.T) {
		weather, err := services.NewWeatherClient(services.WeatherConfig{
			HistoricalURL: "http://127.0.0.1:0/v1/archive",
			CurrentURL:    "http://127.0.0.1:0/v1/forecast",
			CacheSize:     cfg.HistoryCacheSize,
			Timeout:       time.Second,
		}, nil, nil)
		require.NoError(t, err)

		router := gin.New()
		router.GET("/api/metrics", NewMetricsHandler(cfg, weather, "v1.2.3").GetMetrics)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cached_series": 0, "cache_size": 4}`, mustField(t, w.Body.Bytes(), "weather"))
	})
}

func mustField(t *testing.T, body []byte, name string) string {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	raw, ok := fields[name]
	require.True(t, ok, "missing field %q", name)
	return string(raw)
}
