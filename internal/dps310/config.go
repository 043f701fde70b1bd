// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dps310

import "strconv"

// Rate selects the output data rate of a measurement channel.
type Rate uint8

// Register values 0..7 map to 1..128 Hz.
const (
	Rate1Hz Rate = iota
	Rate2Hz
	Rate4Hz
	Rate8Hz
	Rate16Hz
	Rate32Hz
	Rate64Hz
	Rate128Hz
)

var rateHz = [8]int{1, 2, 4, 8, 16, 32, 64, 128}

// Hz returns the output data rate in Hertz, or 0 for an invalid value.
func (r Rate) Hz() int {
	if r > Rate128Hz {
		return 0
	}
	return rateHz[r]
}

func (r Rate) String() string {
	if r > Rate128Hz {
		return "invalid rate"
	}
	return strconv.Itoa(rateHz[r]) + " Hz"
}

// Oversample selects how many raw conversions are averaged per reading.
type Oversample uint8

// Register values 0..7 map to 1..128 samples.
const (
	Oversample1 Oversample = iota
	Oversample2
	Oversample4
	Oversample8
	Oversample16
	Oversample32
	Oversample64
	Oversample128
)

var oversampleCount = [8]int{1, 2, 4, 8, 16, 32, 64, 128}

// Compensation scale factor kP/kT per oversample level, datasheet table 9.
var oversampleScale = [8]float64{
	524288, 1572864, 3670016, 7864320,
	253952, 516096, 1040384, 2088960,
}

// Samples returns the averaged sample count, or 0 for an invalid value.
func (o Oversample) Samples() int {
	if o > Oversample128 {
		return 0
	}
	return oversampleCount[o]
}

func (o Oversample) String() string {
	if o > Oversample128 {
		return "invalid oversample"
	}
	return strconv.Itoa(oversampleCount[o]) + "x"
}

// Mode is the measurement mode field in MEAS_CFG.
type Mode uint8

// The six modes the device accepts. Values 3 and 4 are reserved.
const (
	Idle                          Mode = 0
	OnePressure                   Mode = 1
	OneTemperature                Mode = 2
	ContinuousPressure            Mode = 5
	ContinuousTemperature         Mode = 6
	ContinuousPressureTemperature Mode = 7
)

func (m Mode) valid() bool {
	switch m {
	case Idle, OnePressure, OneTemperature,
		ContinuousPressure, ContinuousTemperature, ContinuousPressureTemperature:
		return true
	}
	return false
}

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case OnePressure:
		return "one-shot pressure"
	case OneTemperature:
		return "one-shot temperature"
	case ContinuousPressure:
		return "continuous pressure"
	case ContinuousTemperature:
		return "continuous temperature"
	case ContinuousPressureTemperature:
		return "continuous pressure and temperature"
	}
	return "invalid mode"
}
