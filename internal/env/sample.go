package env

// Sample represents a single barometric measurement suitable for JSON and MQTT.
type Sample struct {
	Source string `json:"source"` // "primary", "secondary" or "sim"

	Temperature float64 `json:"temp_c"`       // °C
	PressureHPa float64 `json:"pressure_hpa"` // hPa
	PressurePa  float64 `json:"pressure_pa"`  // Pa
	Altitude    float64 `json:"altitude_m"`   // m above the configured sea-level reference
	Time        string  `json:"time"`         // RFC3339
}

// Source is anything that can provide samples over time: real sensor,
// simulated source, maybe a replay source from a log later.
type Source interface {
	Next() (Sample, error)
}
