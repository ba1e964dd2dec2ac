package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:         "test",
		StaticDir:           t.TempDir(),
		AllowedOrigins:      []string{"http://localhost:5173"},
		HistoricalDataURL:   "http://127.0.0.1:0/v1/archive",
		CurrentDataURL:      "http://127.0.0.1:0/v1/forecast",
		HistoryCacheSize:    2,
		UpstreamTimeout:     time.Second,
		WindowSize:          5,
		DurationS:           10,
		LowestMidiNote:      36,
		MaxPolynomialDegree: 6,
	}
	weather, err := services.NewWeatherClient(services.WeatherConfig{
		HistoricalURL: cfg.HistoricalDataURL,
		CurrentURL:    cfg.CurrentDataURL,
		CacheSize:     cfg.HistoryCacheSize,
		Timeout:       cfg.UpstreamTimeout,
	}, nil, nil)
	require.NoError(t, err)

	return SetupRouter(cfg, services.NewSonificationService(nil, nil, cfg.MaxPolynomialDegree), weather, nil, "test")
}

func TestRouterAssignsRequestID(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	id := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
}

func TestRouterCORS(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/get_distance_to_before", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/get_distance_to_before", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterServesMappingEndpoints(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/get_distance_to_next?duration_s=2", bytes.NewBufferString(`{"data": [1, 3, 6]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"time": [0, 1, 2], "value": [2, 3, 5]}`, w.Body.String())
}

func TestRouterUnknownAPIRoute(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/does_not_exist", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "route not found", "kind": "not_found"}`, w.Body.String())
}

func TestRouterUpstreamUnavailable(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/get_current_data", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
