package gps

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
// Position and motion come from RMC; altitude, fix quality and satellite
// count come from GGA.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "2026-08-24"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void), etc.

	AltitudeM  float64 `json:"alt_m"`      // antenna altitude from GGA
	Quality    int64   `json:"quality"`    // GGA fix quality (0=invalid, 1=GPS, 2=DGPS)
	Satellites int64   `json:"satellites"` // satellites in use
}
