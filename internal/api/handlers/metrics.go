package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/midimap"
	"github.com/gin-gonic/gin"
)

// MetricsHandler reports uptime, engine limits and the weather cache fill.
type MetricsHandler struct {
	startTime time.Time
	version   string
	cfg       *config.Config
	weather   *services.WeatherClient
}

// NewMetricsHandler creates the handler. weather may be nil, in which case
// no cache figures are reported.
func NewMetricsHandler(cfg *config.Config, weather *services.WeatherClient, version string) *MetricsHandler {
	return &MetricsHandler{
		startTime: time.Now(),
		version:   version,
		cfg:       cfg,
		weather:   weather,
	}
}

// formatUptime formats d with seconds rounded to 2 decimal places.
func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := (d - time.Duration(hours)*time.Hour - time.Duration(minutes)*time.Minute).Seconds()

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm%.2fs", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%.2fs", minutes, seconds)
	default:
		return fmt.Sprintf("%.2fs", seconds)
	}
}

type MetricsResponse struct {
	Status      string       `json:"status"`
	Version     string       `json:"version"`
	Environment string       `json:"environment"`
	Uptime      string       `json:"uptime"`
	StartTime   string       `json:"start_time"`
	Limits      EngineLimits `json:"limits"`
	Weather     *CacheStats  `json:"weather,omitempty"`
}

// EngineLimits are the bounds every mapping request is checked against.
type EngineLimits struct {
	MaxSeriesLength     int `json:"max_series_length"`
	MaxGridLength       int `json:"max_grid_length"`
	MaxPolynomialDegree int `json:"max_polynomial_degree"`
}

type CacheStats struct {
	CachedSeries int `json:"cached_series"`
	CacheSize    int `json:"cache_size"`
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	resp := MetricsResponse{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.cfg.Environment,
		Uptime:      formatUptime(time.Since(h.startTime)),
		StartTime:   h.startTime.UTC().Format(time.RFC3339),
		Limits: EngineLimits{
			MaxSeriesLength:     sonify.MaxSeriesLength,
			MaxGridLength:       midimap.MaxGridLength,
			MaxPolynomialDegree: h.cfg.MaxPolynomialDegree,
		},
	}
	if h.weather != nil {
		resp.Weather = &CacheStats{
			CachedSeries: h.weather.CachedSeries(),
			CacheSize:    h.cfg.HistoryCacheSize,
		}
	}
	c.JSON(http.StatusOK, resp)
}
