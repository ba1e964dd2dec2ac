package models

import "time"

// WeatherData is a historical series as returned by /api/get_data.
type WeatherData struct {
	Time  []time.Time `json:"time"`
	Value []float64   `json:"value"`
}

// CurrentValue is the latest reading of one weather field.
type CurrentValue struct {
	DataField string  `json:"data_field"`
	Value     float64 `json:"value"`
}
