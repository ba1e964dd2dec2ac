package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/datson-api/internal/logger"
	"github.com/Conceptual-Machines/datson-api/internal/services"
	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

const (
	kindBadRequest = "bad_request"
	kindUpstream   = "upstream"
	kindInternal   = "internal"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps an error onto its HTTP status and kind.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, sonify.ErrSizeLimitExceeded):
		return http.StatusBadRequest, sonify.KindOf(err)
	case sonify.IsInputError(err):
		return http.StatusUnprocessableEntity, sonify.KindOf(err)
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway, kindUpstream
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

func respondError(c *gin.Context, err error) {
	status, kind := statusFor(err)

	fields := logger.WithContext(c)
	fields["kind"] = kind
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		logger.Error("Request failed", err, fields)
	case status == http.StatusBadGateway:
		fields["error"] = err.Error()
		logger.Warn("Weather provider failed", fields)
		logger.LogToSentry(sentry.LevelWarning, "Weather provider failed", fields)
	default:
		fields["error"] = err.Error()
		logger.Debug("Rejected request", fields)
	}

	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: kindBadRequest})
}
