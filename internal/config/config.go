package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Config holds the application configuration
// Note: the mapping engine itself never reads it; handlers pass every value
// explicitly so the engine stays usable without environment setup.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Front end bundle served for every non-API path
	StaticDir      string
	AllowedOrigins []string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Weather data source (open-meteo)
	HistoricalDataURL string
	CurrentDataURL    string
	Longitude         float64
	Latitude          float64
	Timezone          string
	StartDate         time.Time
	EndDate           time.Time
	HistoryCacheSize  int           // Entries kept by the historical data memo cache
	UpstreamTimeout   time.Duration // Timeout for weather API calls

	// Mapping defaults
	WindowSize          int     // Rolling average window
	DurationS           float64 // Total duration of a sonification in seconds
	LowestMidiNote      int     // First note of the quantized scale
	MaxPolynomialDegree int     // Upper bound of the polynomial degree search
}

func Load() *Config {
	timezone := getEnv("TIMEZONE", "CET")
	endDate := yesterday(timezone)

	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		StaticDir:           getEnv("STATIC_DIR", "dist"),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:8000", "http://localhost:5173"}),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		HistoricalDataURL:   getEnv("HISTORICAL_DATA_URL", "https://archive-api.open-meteo.com/v1/archive"),
		CurrentDataURL:      getEnv("CURRENT_DATA_URL", "https://api.open-meteo.com/v1/forecast"),
		Longitude:           getEnvFloat("LONGITUDE", 8.01),
		Latitude:            getEnvFloat("LATITUDE", 50.12),
		Timezone:            timezone,
		EndDate:             getEnvDate("END_DATE", endDate),
		StartDate:           getEnvDate("START_DATE", endDate.AddDate(0, 0, -1)),
		HistoryCacheSize:    getEnvInt("HISTORY_CACHE_SIZE", 512),
		UpstreamTimeout:     getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		WindowSize:          getEnvInt("WINDOW_SIZE", 5),
		DurationS:           getEnvFloat("DURATION", 300),
		LowestMidiNote:      getEnvInt("LOWEST_MIDI_NOTE", 36),
		MaxPolynomialDegree: getEnvInt("MAX_POLYNOMIAL_DEGREE", 24),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %g", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDate(key string, defaultValue time.Time) time.Time {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %s", key, value, defaultValue.Format(dateLayout))
		return defaultValue
	}
	return parsed
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// yesterday returns the previous calendar day in the given zone, as a UTC date.
func yesterday(timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
