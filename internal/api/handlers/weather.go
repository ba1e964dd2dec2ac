package handlers

import (
	"net/http"
	"time"

	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/gin-gonic/gin"
)

type WeatherHandler struct {
	client *services.WeatherClient
	cfg    *config.Config
}

func NewWeatherHandler(client *services.WeatherClient, cfg *config.Config) *WeatherHandler {
	return &WeatherHandler{client: client, cfg: cfg}
}

type historyQuery struct {
	Lon       float64   `form:"lon"`
	Lat       float64   `form:"lat"`
	StartDate time.Time `form:"start_date" time_format:"2006-01-02" time_utc:"1"`
	EndDate   time.Time `form:"end_date" time_format:"2006-01-02" time_utc:"1"`
	DataField string    `form:"data_field"`
	Interval  string    `form:"interval"`
}

// GetData answers /get_data with a historical series.
func (h *WeatherHandler) GetData(c *gin.Context) {
	query := historyQuery{
		Lon:       h.cfg.Longitude,
		Lat:       h.cfg.Latitude,
		StartDate: h.cfg.StartDate,
		EndDate:   h.cfg.EndDate,
		DataField: defaultDataField,
		Interval:  defaultInterval,
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	field, err := services.ParseDataField(query.DataField)
	if err != nil {
		respondError(c, err)
		return
	}
	interval, err := services.ParseInterval(query.Interval)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.client.Historical(c.Request.Context(), services.HistoryQuery{
		Lon:      query.Lon,
		Lat:      query.Lat,
		Field:    field,
		Start:    query.StartDate,
		End:      query.EndDate,
		Interval: interval,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

type currentQuery struct {
	Lon       float64 `form:"lon"`
	Lat       float64 `form:"lat"`
	DataField string  `form:"data_field"`
}

// GetCurrentData answers /get_current_data with the latest reading.
func (h *WeatherHandler) GetCurrentData(c *gin.Context) {
	query := currentQuery{Lon: h.cfg.Longitude, Lat: h.cfg.Latitude, DataField: defaultDataField}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	field, err := services.ParseDataField(query.DataField)
	if err != nil {
		respondError(c, err)
		return
	}

	value, err := h.client.Current(c.Request.Context(), query.Lon, query.Lat, field)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, value)
}
