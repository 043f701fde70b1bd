// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/baro_computer/internal/dps310"
	"github.com/relabs-tech/baro_computer/internal/env"
)

type simSource struct {
	start       time.Time
	seaLevelHPa float64
}

// NewSimSource creates a simulated barometer source that generates smooth
// changing values around standard atmosphere, for development without
// hardware.
func NewSimSource() env.Source {
	return &simSource{start: time.Now(), seaLevelHPa: 1013.25}
}

func (s *simSource) Next() (env.Sample, error) {
	elapsed := time.Since(s.start).Seconds()

	pressure := 1013.25 + 2.5*math.Sin(elapsed/30)
	temperature := 21.0 + 1.5*math.Cos(elapsed/45)

	return env.Sample{
		Source:      "sim",
		Temperature: temperature,
		PressureHPa: pressure,
		PressurePa:  pressure * 100,
		Altitude:    dps310.AltitudeFromPressure(pressure, s.seaLevelHPa),
		Time:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}
