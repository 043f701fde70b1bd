// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/baro_computer/internal/sensors"
)

// RunSimConsole prints samples from the simulated barometer source, for
// development without hardware or a broker.
func RunSimConsole() error {
	src := sensors.NewSimSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			return err
		}

		fmt.Printf(
			"PRESS=%8.2fhPa  TEMP=%6.2f°C  ALT=%7.1fm\n",
			s.PressureHPa,
			s.Temperature,
			s.Altitude,
		)
	}
	return nil
}
