package handlers

const (
	// Full 7-bit range used when a request names no velocity or CC bounds
	midiValueMin = 0
	midiValueMax = 127

	defaultAggregation = "min"
	defaultChordType   = "tetrads"
	defaultDataField   = "temperature_2m"
	defaultInterval    = "hourly"

	exportFileName = "datson-track.mid"
	midiMIMEType   = "audio/midi"
)
