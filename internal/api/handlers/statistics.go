package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/Conceptual-Machines/datson-api/internal/sonify/stats"
	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	service *services.SonificationService
	cfg     *config.Config
}

func NewStatisticsHandler(service *services.SonificationService, cfg *config.Config) *StatisticsHandler {
	return &StatisticsHandler{service: service, cfg: cfg}
}

// statisticQuery holds the query options shared by the statistics endpoints.
// Absent parameters keep the defaults filled in before binding.
type statisticQuery struct {
	DurationS       float64  `form:"duration_s"`
	WindowSize      int      `form:"window_size"`
	Degree          *int     `form:"degree"`
	AggregationType string   `form:"aggregation_type"`
	Percentile      *float64 `form:"percentile"`
	Deviation       bool     `form:"deviation"`
}

func (h *StatisticsHandler) bind(c *gin.Context) (models.DataRequest, services.StatisticParams, bool) {
	query := statisticQuery{
		DurationS:       h.cfg.DurationS,
		WindowSize:      h.cfg.WindowSize,
		AggregationType: defaultAggregation,
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return models.DataRequest{}, services.StatisticParams{}, false
	}

	var req models.DataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return models.DataRequest{}, services.StatisticParams{}, false
	}

	aggregation, err := stats.ParseAggregation(query.AggregationType)
	if err != nil {
		respondError(c, err)
		return models.DataRequest{}, services.StatisticParams{}, false
	}

	return req, services.StatisticParams{
		DurationS:   query.DurationS,
		WindowSize:  query.WindowSize,
		Degree:      query.Degree,
		Aggregation: aggregation,
		Percentile:  query.Percentile,
		Deviation:   query.Deviation,
	}, true
}

// Statistic returns the handler of one statistics endpoint.
func (h *StatisticsHandler) Statistic(op services.StatisticOperation) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, params, ok := h.bind(c)
		if !ok {
			return
		}

		result, err := h.service.Statistic(c.Request.Context(), op, req.Data, params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// PolynomialFit answers /get_polynomial_fit, including the degree used.
func (h *StatisticsHandler) PolynomialFit(c *gin.Context) {
	req, params, ok := h.bind(c)
	if !ok {
		return
	}

	result, err := h.service.PolynomialFit(c.Request.Context(), req.Data, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
