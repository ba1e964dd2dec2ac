package api

import (
	"github.com/Conceptual-Machines/datson-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/datson-api/internal/api/middleware"
	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/metrics"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/gin-gonic/gin"
)

func SetupRouter(
	cfg *config.Config,
	sonification *services.SonificationService,
	weather *services.WeatherClient,
	metricsClient *metrics.Client,
	version string,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(metricsClient))

	// CORS middleware
	router.Use(apimiddleware.CORS(cfg.AllowedOrigins))

	// Health check
	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	{
		metricsHandler := handlers.NewMetricsHandler(cfg, weather, version)
		api.GET("/metrics", metricsHandler.GetMetrics)

		// Weather data
		weatherHandler := handlers.NewWeatherHandler(weather, cfg)
		api.GET("/get_data", weatherHandler.GetData)
		api.GET("/get_current_data", weatherHandler.GetCurrentData)

		// Statistical preprocessing
		statisticsHandler := handlers.NewStatisticsHandler(sonification, cfg)
		api.POST("/get_distance_to_before", statisticsHandler.Statistic(services.OpDistanceToBefore))
		api.POST("/get_distance_to_next", statisticsHandler.Statistic(services.OpDistanceToNext))
		api.POST("/get_polynomial_fit", statisticsHandler.PolynomialFit)
		api.POST("/get_rolling_average", statisticsHandler.Statistic(services.OpRollingAverage))
		api.POST("/get_summary_statistic", statisticsHandler.Statistic(services.OpSummaryStatistic))

		// MIDI mapping
		midiHandler := handlers.NewMidiHandler(sonification, cfg)
		api.POST("/map_data_to_midi_notes", midiHandler.Notes)
		api.POST("/map_data_to_midi_chords", midiHandler.Chords)
		api.POST("/map_data_to_midi_drone", midiHandler.Drone)
		api.POST("/map_data_to_midi_cc", midiHandler.CC)

		// Standard MIDI File export
		api.POST("/export_midi_file", handlers.ExportMidiFile)
	}

	// Front end bundle for everything else
	router.NoRoute(handlers.StaticFiles(cfg.StaticDir))

	return router
}
