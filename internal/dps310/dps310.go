// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dps310 drives the Infineon DPS310 barometric pressure and
// temperature sensor over I2C.
//
// The device reports raw 24-bit counts that must be combined with nine
// factory calibration coefficients through the datasheet compensation
// polynomial. New only verifies the device identity; call Initialize to
// reset the sensor, load calibration and start continuous measurement.
package dps310

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Default I2C address.
const DefaultAddr = 0x77

// Errors returned by the driver. Bus failures are wrapped and propagated
// as-is, never retried.
var (
	ErrDeviceNotFound    = errors.New("dps310: device not found")
	ErrInvalidMode       = errors.New("dps310: invalid measurement mode")
	ErrInvalidRate       = errors.New("dps310: invalid rate")
	ErrInvalidOversample = errors.New("dps310: invalid oversample count")
	ErrNotInitialized    = errors.New("dps310: not initialized")
	ErrTimeout           = errors.New("dps310: timed out waiting for device")
)

const (
	defaultTimeout = 3 * time.Second
	pollInterval   = time.Millisecond
	resetSettle    = 10 * time.Millisecond
)

// Opts holds initialization options.
//
// Addr: I2C address, default 0x77.
// Timeout: upper bound on every readiness wait (reset completion,
// coefficient load, first measurement), default 3s.
type Opts struct {
	Addr    uint16
	Timeout time.Duration
}

// Dev represents a DPS310 device.
//
// All methods serialize their bus transactions through one mutex, so a Dev
// is safe to share between goroutines. The multi-byte calibration and raw
// sample reads are never interleaved with other transactions.
type Dev struct {
	mu      sync.Mutex
	dev     i2c.Dev
	timeout time.Duration

	coeffs        calibration
	calibrated    bool
	pressureScale float64
	tempScale     float64
}

// New verifies the device identity on the bus and returns a handle.
// The sensor is not reset or configured; call Initialize before reading.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	d := &Dev{
		dev:     i2c.Dev{Addr: addr, Bus: bus},
		timeout: timeout,
	}

	id, err := d.readReg(regProdID)
	if err != nil {
		return nil, fmt.Errorf("dps310: reading product ID at 0x%02X: %w", addr, err)
	}
	if id != productID {
		return nil, fmt.Errorf("%w: product ID 0x%02X, want 0x%02X", ErrDeviceNotFound, id, productID)
	}
	return d, nil
}

// Initialize resets the sensor and brings it to continuous pressure and
// temperature measurement at 64 Hz with 64x oversampling, waiting for the
// first good sample of each channel.
func (d *Dev) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reset(); err != nil {
		return err
	}
	time.Sleep(resetSettle)
	if err := d.readCalibration(); err != nil {
		return err
	}
	if err := d.configurePressure(Rate64Hz, Oversample64); err != nil {
		return err
	}
	if err := d.configureTemperature(Rate64Hz, Oversample64); err != nil {
		return err
	}
	if err := d.setMode(ContinuousPressureTemperature); err != nil {
		return err
	}
	return d.waitStatus(measCfgPrsRdy|measCfgTmpRdy, "first measurement")
}

// Reset performs a soft reset and waits for the sensor to come back up.
// Calibration and channel configuration are invalidated; the device must be
// re-initialized before measuring.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reset()
}

func (d *Dev) reset() error {
	d.calibrated = false
	d.pressureScale = 0
	d.tempScale = 0

	if err := d.writeReg(regReset, resetValue); err != nil {
		return fmt.Errorf("dps310: soft reset: %w", err)
	}
	return d.waitStatus(measCfgSensorRdy, "sensor ready after reset")
}

// waitStatus polls MEAS_CFG until all bits in mask are set, bounded by the
// configured timeout.
func (d *Dev) waitStatus(mask byte, what string) error {
	deadline := time.Now().Add(d.timeout)
	for {
		v, err := d.readReg(regMeasCfg)
		if err != nil {
			return fmt.Errorf("dps310: polling for %s: %w", what, err)
		}
		if v&mask == mask {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrTimeout, what)
		}
		time.Sleep(pollInterval)
	}
}

// readCalibration waits for the coefficients to be loaded by the device,
// then reads and decodes the 18-byte calibration block. All 18 bytes are
// read before any field is decoded since fields span byte boundaries.
func (d *Dev) readCalibration() error {
	if err := d.waitStatus(measCfgCoefRdy, "calibration coefficients"); err != nil {
		return err
	}

	var raw [coefLen]byte
	for i := range raw {
		b, err := d.readReg(regCoef + byte(i))
		if err != nil {
			return fmt.Errorf("dps310: reading coefficient byte %d: %w", i, err)
		}
		raw[i] = b
	}

	d.coeffs = decodeCalibration(raw[:])
	d.calibrated = true
	return nil
}

// ConfigurePressure sets the pressure channel rate and oversample count.
// The call is idempotent and fully overwrites the previous configuration;
// on failure the previously recorded scale factor is kept.
func (d *Dev) ConfigurePressure(rate Rate, os Oversample) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configurePressure(rate, os)
}

func (d *Dev) configurePressure(rate Rate, os Oversample) error {
	if rate > Rate128Hz {
		return fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if os > Oversample128 {
		return fmt.Errorf("%w: %d", ErrInvalidOversample, os)
	}

	if err := d.writeReg(regPrsCfg, byte(rate)<<4|byte(os)); err != nil {
		return fmt.Errorf("dps310: writing pressure config: %w", err)
	}
	if err := d.setShift(cfgPrsShift, os > Oversample8); err != nil {
		return err
	}
	d.pressureScale = oversampleScale[os]
	return nil
}

// ConfigureTemperature sets the temperature channel rate and oversample
// count. The measurement source is copied from the calibration source
// register so compensation uses the sensor the factory coefficients were
// computed against.
func (d *Dev) ConfigureTemperature(rate Rate, os Oversample) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configureTemperature(rate, os)
}

func (d *Dev) configureTemperature(rate Rate, os Oversample) error {
	if rate > Rate128Hz {
		return fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if os > Oversample128 {
		return fmt.Errorf("%w: %d", ErrInvalidOversample, os)
	}

	src, err := d.readReg(regCoefSrc)
	if err != nil {
		return fmt.Errorf("dps310: reading coefficient source: %w", err)
	}
	cfg := src&coefSrcTmpExt | byte(rate)<<4 | byte(os)
	if err := d.writeReg(regTmpCfg, cfg); err != nil {
		return fmt.Errorf("dps310: writing temperature config: %w", err)
	}
	if err := d.setShift(cfgTmpShift, os > Oversample8); err != nil {
		return err
	}
	d.tempScale = oversampleScale[os]
	return nil
}

// setShift updates one result shift bit in CFG_REG, preserving the rest of
// the register.
func (d *Dev) setShift(bit byte, on bool) error {
	v, err := d.readReg(regCfg)
	if err != nil {
		return fmt.Errorf("dps310: reading CFG_REG: %w", err)
	}
	if on {
		v |= bit
	} else {
		v &^= bit
	}
	if err := d.writeReg(regCfg, v); err != nil {
		return fmt.Errorf("dps310: writing CFG_REG: %w", err)
	}
	return nil
}

// SetMode selects the measurement mode. Invalid modes are rejected before
// any bus write, leaving the device untouched.
func (d *Dev) SetMode(m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMode(m)
}

func (d *Dev) setMode(m Mode) error {
	if !m.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, m)
	}
	v, err := d.readReg(regMeasCfg)
	if err != nil {
		return fmt.Errorf("dps310: reading measurement config: %w", err)
	}
	v = v&^measCfgModeMask | byte(m)
	if err := d.writeReg(regMeasCfg, v); err != nil {
		return fmt.Errorf("dps310: writing measurement mode: %w", err)
	}
	return nil
}

// ReadTemperature returns the compensated temperature in °C.
func (d *Dev) ReadTemperature() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.calibrated || d.tempScale == 0 {
		return 0, fmt.Errorf("%w: temperature read before calibration", ErrNotInitialized)
	}
	raw, err := d.readRaw(regTmpB2)
	if err != nil {
		return 0, fmt.Errorf("dps310: reading raw temperature: %w", err)
	}
	return d.compensateTemperature(float64(raw) / d.tempScale), nil
}

// ReadPressure returns the compensated pressure in hPa.
func (d *Dev) ReadPressure() (float64, error) {
	p, _, err := d.Sense()
	return p, err
}

// Sense reads both channels in one transaction pair and returns the
// compensated pressure in hPa and temperature in °C.
func (d *Dev) Sense() (pressure, temperature float64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.calibrated || d.pressureScale == 0 || d.tempScale == 0 {
		return 0, 0, fmt.Errorf("%w: measurement before calibration", ErrNotInitialized)
	}

	rawP, err := d.readRaw(regPrsB2)
	if err != nil {
		return 0, 0, fmt.Errorf("dps310: reading raw pressure: %w", err)
	}
	rawT, err := d.readRaw(regTmpB2)
	if err != nil {
		return 0, 0, fmt.Errorf("dps310: reading raw temperature: %w", err)
	}

	tScaled := float64(rawT) / d.tempScale
	pScaled := float64(rawP) / d.pressureScale
	return d.compensatePressure(pScaled, tScaled), d.compensateTemperature(tScaled), nil
}

func (d *Dev) compensateTemperature(tScaled float64) float64 {
	return tScaled*float64(d.coeffs.c1) + float64(d.coeffs.c0)/2
}

// compensatePressure evaluates the datasheet polynomial (pages 14-15) and
// converts the Pa result to hPa.
func (d *Dev) compensatePressure(pScaled, tScaled float64) float64 {
	c := &d.coeffs
	pa := float64(c.c00) +
		pScaled*(float64(c.c10)+pScaled*(float64(c.c20)+pScaled*float64(c.c30))) +
		tScaled*(float64(c.c01)+pScaled*(float64(c.c11)+pScaled*float64(c.c21)))
	return pa / 100
}

// Altitude returns the altitude in meters for the given sea-level reference
// pressure in hPa.
func (d *Dev) Altitude(seaLevelHPa float64) (float64, error) {
	p, _, err := d.Sense()
	if err != nil {
		return 0, err
	}
	return AltitudeFromPressure(p, seaLevelHPa), nil
}

// AltitudeFromPressure converts a pressure reading in hPa to altitude in
// meters via the hypsometric formula.
func AltitudeFromPressure(pressureHPa, seaLevelHPa float64) float64 {
	return 44330 * (1 - math.Pow(pressureHPa/seaLevelHPa, 0.1903))
}

// SensorReady reports whether the sensor has finished its startup sequence.
func (d *Dev) SensorReady() (bool, error) {
	return d.status(measCfgSensorRdy)
}

// PressureReady reports whether a new pressure sample is available.
func (d *Dev) PressureReady() (bool, error) {
	return d.status(measCfgPrsRdy)
}

// TemperatureReady reports whether a new temperature sample is available.
func (d *Dev) TemperatureReady() (bool, error) {
	return d.status(measCfgTmpRdy)
}

// CoefficientsReady reports whether the calibration block can be read.
func (d *Dev) CoefficientsReady() (bool, error) {
	return d.status(measCfgCoefRdy)
}

func (d *Dev) status(mask byte) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readReg(regMeasCfg)
	if err != nil {
		return false, fmt.Errorf("dps310: reading status: %w", err)
	}
	return v&mask != 0, nil
}

// ReadRegister reads a single register. Intended for debug tooling.
func (d *Dev) ReadRegister(addr byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readReg(addr)
}

// WriteRegister writes a single register. Intended for debug tooling; the
// driver's cached scale factors are not updated.
func (d *Dev) WriteRegister(addr, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(addr, value)
}

func (d *Dev) writeReg(addr, val byte) error {
	return d.dev.Tx([]byte{addr, val}, nil)
}

func (d *Dev) readReg(addr byte) (byte, error) {
	var b [1]byte
	if err := d.dev.Tx([]byte{addr}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readRaw reads a 24-bit two's-complement sample, MSB first, in a single
// write-then-read transaction.
func (d *Dev) readRaw(addr byte) (int32, error) {
	var buf [3]byte
	if err := d.dev.Tx([]byte{addr}, buf[:]); err != nil {
		return 0, err
	}
	return rawSample(buf[:]), nil
}
