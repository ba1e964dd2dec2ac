package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/datson-api/internal/logger"
	"github.com/Conceptual-Machines/datson-api/internal/metrics"
	"github.com/Conceptual-Machines/datson-api/internal/models"
	"github.com/Conceptual-Machines/datson-api/internal/sonify"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUpstream marks a failure of the weather data provider.
var ErrUpstream = errors.New("weather: upstream request failed")

// DataField is a weather variable served by the provider.
type DataField string

const (
	FieldTemperature DataField = "temperature_2m"
	FieldWindSpeed   DataField = "wind_speed_10m"
	FieldHumidity    DataField = "relative_humidity_2m"
)

// DataFields lists every supported weather variable.
var DataFields = []DataField{FieldTemperature, FieldWindSpeed, FieldHumidity}

// ParseDataField validates a weather variable name.
func ParseDataField(s string) (DataField, error) {
	field := DataField(s)
	if !slices.Contains(DataFields, field) {
		return "", sonify.Unsupported("data field", s)
	}
	return field, nil
}

// Interval is the sampling interval of a historical series.
type Interval string

const (
	Hourly Interval = "hourly"
	Daily  Interval = "daily"
)

// ParseInterval accepts "hourly"/"daily" and the short forms "h"/"d".
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "hourly", "h":
		return Hourly, nil
	case "daily", "d":
		return Daily, nil
	default:
		return "", sonify.Unsupported("interval", s)
	}
}

const dateLayout = "2006-01-02"

// HistoryQuery selects a historical series.
type HistoryQuery struct {
	Lon      float64
	Lat      float64
	Field    DataField
	Start    time.Time
	End      time.Time
	Interval Interval
}

type historyKey struct {
	lon, lat   float64
	field      DataField
	start, end string
	interval   Interval
}

func (q HistoryQuery) key() historyKey {
	return historyKey{
		lon:      q.Lon,
		lat:      q.Lat,
		field:    q.Field,
		start:    q.Start.Format(dateLayout),
		end:      q.End.Format(dateLayout),
		interval: q.Interval,
	}
}

// WeatherClient fetches series from the open-meteo archive and forecast APIs.
// Historical series are memoised in an LRU cache; there is no other
// invalidation, so the same query keeps its first answer until evicted.
type WeatherClient struct {
	httpClient    *http.Client
	historicalURL string
	currentURL    string
	cache         *lru.Cache[historyKey, models.WeatherData]
	sentryMetrics *metrics.SentryMetrics
	metrics       *metrics.Client
	now           func() time.Time
}

// WeatherConfig configures a WeatherClient.
type WeatherConfig struct {
	HistoricalURL string
	CurrentURL    string
	CacheSize     int
	Timeout       time.Duration
}

// NewWeatherClient creates a client. Both metrics sinks may be nil.
func NewWeatherClient(cfg WeatherConfig, sentryMetrics *metrics.SentryMetrics, metricsClient *metrics.Client) (*WeatherClient, error) {
	cache, err := lru.New[historyKey, models.WeatherData](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create history cache: %w", err)
	}
	return &WeatherClient{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		historicalURL: cfg.HistoricalURL,
		currentURL:    cfg.CurrentURL,
		cache:         cache,
		sentryMetrics: sentryMetrics,
		metrics:       metricsClient,
		now:           time.Now,
	}, nil
}

// CachedSeries reports how many historical series are memoised.
func (w *WeatherClient) CachedSeries() int {
	return w.cache.Len()
}

// Historical returns the series for q. Null samples and samples later than
// now are dropped.
func (w *WeatherClient) Historical(ctx context.Context, q HistoryQuery) (models.WeatherData, error) {
	start := time.Now()
	key := q.key()

	if cached, ok := w.cache.Get(key); ok {
		w.sentryMetrics.RecordWeatherFetch(ctx, string(q.Field), true, time.Since(start))
		w.metrics.RecordCacheLookup(true)
		return copyWeatherData(cached), nil
	}

	params := url.Values{}
	params.Set("latitude", formatCoordinate(q.Lat))
	params.Set("longitude", formatCoordinate(q.Lon))
	params.Set("start_date", key.start)
	params.Set("end_date", key.end)
	params.Set(string(q.Interval), string(q.Field))

	var body map[string]json.RawMessage
	if err := w.getJSON(ctx, w.historicalURL, params, &body); err != nil {
		return models.WeatherData{}, err
	}

	var block struct {
		Time []string `json:"time"`
	}
	raw, ok := body[string(q.Interval)]
	if !ok {
		return models.WeatherData{}, fmt.Errorf("%w: response has no %s block", ErrUpstream, q.Interval)
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return models.WeatherData{}, fmt.Errorf("%w: decode %s block: %v", ErrUpstream, q.Interval, err)
	}
	samples, err := decodeField(raw, q.Field)
	if err != nil {
		return models.WeatherData{}, err
	}
	if len(samples) != len(block.Time) {
		return models.WeatherData{}, fmt.Errorf("%w: %d timestamps but %d values", ErrUpstream, len(block.Time), len(samples))
	}

	now := w.now()
	data := models.WeatherData{Time: []time.Time{}, Value: []float64{}}
	for i, s := range block.Time {
		t, err := parseTimestamp(s)
		if err != nil {
			return models.WeatherData{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if samples[i] == nil || t.After(now) {
			continue
		}
		data.Time = append(data.Time, t)
		data.Value = append(data.Value, sonify.Round([]float64{*samples[i]}, 1)[0])
	}

	w.cache.Add(key, data)
	w.sentryMetrics.RecordWeatherFetch(ctx, string(q.Field), false, time.Since(start))
	w.metrics.RecordCacheLookup(false)
	logger.Debug("Fetched historical weather data", logger.Fields{
		"data_field": string(q.Field),
		"interval":   string(q.Interval),
		"samples":    len(data.Value),
	})
	return copyWeatherData(data), nil
}

// Current returns the latest reading of a field. It is never cached.
func (w *WeatherClient) Current(ctx context.Context, lon, lat float64, field DataField) (models.CurrentValue, error) {
	params := url.Values{}
	params.Set("latitude", formatCoordinate(lat))
	params.Set("longitude", formatCoordinate(lon))
	params.Set("current", string(field))

	var body struct {
		Current map[string]json.RawMessage `json:"current"`
	}
	if err := w.getJSON(ctx, w.currentURL, params, &body); err != nil {
		return models.CurrentValue{}, err
	}
	raw, ok := body.Current[string(field)]
	if !ok {
		return models.CurrentValue{}, fmt.Errorf("%w: no current value for %s", ErrUpstream, field)
	}
	var value *float64
	if err := json.Unmarshal(raw, &value); err != nil || value == nil {
		return models.CurrentValue{}, fmt.Errorf("%w: current value for %s is not a number", ErrUpstream, field)
	}
	return models.CurrentValue{DataField: string(field), Value: *value}, nil
}

func (w *WeatherClient) getJSON(ctx context.Context, baseURL string, params url.Values, out any) error {
	endpoint, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url %q: %v", ErrUpstream, baseURL, err)
	}
	query := endpoint.Query()
	for k, v := range params {
		query[k] = v
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}

func decodeField(block json.RawMessage, field DataField) ([]*float64, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(block, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	raw, ok := fields[string(field)]
	if !ok {
		return nil, fmt.Errorf("%w: response has no %s values", ErrUpstream, field)
	}
	var samples []*float64
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("%w: decode %s values: %v", ErrUpstream, field, err)
	}
	return samples, nil
}

// parseTimestamp reads hourly ("2006-01-02T15:04") and daily timestamps.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func copyWeatherData(d models.WeatherData) models.WeatherData {
	return models.WeatherData{Time: slices.Clone(d.Time), Value: slices.Clone(d.Value)}
}
