package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordSonification records one run of a mapping pipeline. A non-nil err
// marks the span as rejected input.
func (m *SentryMetrics) RecordSonification(ctx context.Context, operation string, seriesLength int, duration time.Duration, err error) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "sonify."+operation)
	defer span.Finish()

	span.SetTag("operation", operation)
	span.SetTag("success", fmt.Sprintf("%t", err == nil))

	span.SetData("series_length", seriesLength)
	span.SetData("duration_ms", duration.Milliseconds())

	if err != nil {
		span.SetData("error", err.Error())
		span.Status = sentry.SpanStatusInvalidArgument
	} else {
		span.Status = sentry.SpanStatusOK
	}

	span.Description = fmt.Sprintf("Sonification: %s", operation)
}

// RecordWeatherFetch records a historical data lookup and whether the memo
// cache answered it.
func (m *SentryMetrics) RecordWeatherFetch(ctx context.Context, field string, cacheHit bool, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "weather.fetch")
	defer span.Finish()

	span.SetTag("data_field", field)
	span.SetTag("cache_hit", fmt.Sprintf("%t", cacheHit))
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Weather Fetch: %s", field)
}
