// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/baro_computer/internal/config"
	"github.com/relabs-tech/baro_computer/internal/dps310"
	"github.com/relabs-tech/baro_computer/internal/env"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// BaroManager owns the I2C bus and the DPS310 sensors. The primary sensor
// (default 0x77) is required; a secondary sensor (typically 0x76) is
// optional and only opened when configured.
type BaroManager struct {
	mu        sync.Mutex
	bus       i2c.BusCloser
	primary   *dps310.Dev
	secondary *dps310.Dev
}

var (
	baroManager *BaroManager
	baroOnce    sync.Once
)

// GetBaroManager returns the singleton barometer manager.
func GetBaroManager() *BaroManager {
	baroOnce.Do(func() {
		baroManager = &BaroManager{}
	})
	return baroManager
}

// Init opens the configured I2C bus and initializes the sensors. A missing
// secondary sensor is logged and skipped; a missing primary sensor is an
// error.
func (m *BaroManager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.primary != nil {
		return nil
	}

	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("baro: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.BaroI2CBus)
	if err != nil {
		return fmt.Errorf("baro: I2C open (%s): %w", cfg.BaroI2CBus, err)
	}
	if cfg.BaroI2CSpeedKHz > 0 {
		speed := physic.KiloHertz * physic.Frequency(cfg.BaroI2CSpeedKHz)
		if err := bus.SetSpeed(speed); err != nil {
			log.Printf("baro: WARNING: could not set bus speed to %s: %v", speed, err)
		}
	}
	m.bus = bus

	opts := dps310.Opts{Addr: cfg.BaroPrimaryAddr}
	if opts.Addr == 0 {
		opts.Addr = dps310.DefaultAddr
	}
	if cfg.BaroInitTimeoutMS > 0 {
		opts.Timeout = time.Duration(cfg.BaroInitTimeoutMS) * time.Millisecond
	}

	primary, err := m.initSensor("primary", bus, opts, cfg)
	if err != nil {
		bus.Close()
		m.bus = nil
		return err
	}
	m.primary = primary

	if cfg.BaroSecondaryAddr != 0 {
		secOpts := opts
		secOpts.Addr = cfg.BaroSecondaryAddr
		secondary, err := m.initSensor("secondary", bus, secOpts, cfg)
		if err != nil {
			log.Printf("baro: WARNING: secondary sensor unavailable: %v", err)
		} else {
			m.secondary = secondary
		}
	}

	return nil
}

// initSensor probes, resets and configures one DPS310 per the configured
// channel settings.
func (m *BaroManager) initSensor(name string, bus i2c.Bus, opts dps310.Opts, cfg *config.Config) (*dps310.Dev, error) {
	dev, err := dps310.New(bus, opts)
	if err != nil {
		return nil, fmt.Errorf("baro: %s sensor at 0x%02X: %w", name, opts.Addr, err)
	}
	if err := dev.Initialize(); err != nil {
		return nil, fmt.Errorf("baro: %s sensor init: %w", name, err)
	}

	// Initialize brings the sensor up at 64 Hz / 64x; apply the configured
	// channel settings on top when they differ.
	prsRate := dps310.Rate(cfg.BaroPressureRate)
	prsOs := dps310.Oversample(cfg.BaroPressureOversample)
	if prsRate != dps310.Rate64Hz || prsOs != dps310.Oversample64 {
		if err := dev.ConfigurePressure(prsRate, prsOs); err != nil {
			return nil, fmt.Errorf("baro: %s pressure config: %w", name, err)
		}
	}
	tmpRate := dps310.Rate(cfg.BaroTempRate)
	tmpOs := dps310.Oversample(cfg.BaroTempOversample)
	if tmpRate != dps310.Rate64Hz || tmpOs != dps310.Oversample64 {
		if err := dev.ConfigureTemperature(tmpRate, tmpOs); err != nil {
			return nil, fmt.Errorf("baro: %s temperature config: %w", name, err)
		}
	}

	log.Printf("baro: %s sensor ready at 0x%02X (pressure %s/%s, temperature %s/%s)",
		name, opts.Addr, prsRate, prsOs, tmpRate, tmpOs)
	return dev, nil
}

// IsPrimaryAvailable reports whether the primary sensor initialized.
func (m *BaroManager) IsPrimaryAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.primary != nil
}

// IsSecondaryAvailable reports whether the secondary sensor initialized.
func (m *BaroManager) IsSecondaryAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secondary != nil
}

// ReadPrimary reads the primary sensor into an env.Sample.
func (m *BaroManager) ReadPrimary() (env.Sample, error) {
	return m.read("primary")
}

// ReadSecondary reads the secondary sensor into an env.Sample.
func (m *BaroManager) ReadSecondary() (env.Sample, error) {
	return m.read("secondary")
}

func (m *BaroManager) read(name string) (env.Sample, error) {
	dev, err := m.sensor(name)
	if err != nil {
		return env.Sample{}, err
	}

	pressure, temperature, err := dev.Sense()
	if err != nil {
		return env.Sample{}, fmt.Errorf("baro: %s sense: %w", name, err)
	}

	seaLevel := config.Get().SeaLevelHPa
	if seaLevel == 0 {
		seaLevel = 1013.25
	}

	return env.Sample{
		Source:      name,
		Temperature: temperature,
		PressureHPa: pressure,
		PressurePa:  pressure * 100,
		Altitude:    dps310.AltitudeFromPressure(pressure, seaLevel),
		Time:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (m *BaroManager) sensor(name string) (*dps310.Dev, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case "primary":
		if m.primary == nil {
			return nil, fmt.Errorf("baro: primary sensor not initialized")
		}
		return m.primary, nil
	case "secondary":
		if m.secondary == nil {
			return nil, fmt.Errorf("baro: secondary sensor not initialized")
		}
		return m.secondary, nil
	}
	return nil, fmt.Errorf("baro: unknown sensor %q", name)
}

// ReadRegister reads one register of the named sensor. Debug tooling only.
func (m *BaroManager) ReadRegister(name string, addr byte) (byte, error) {
	dev, err := m.sensor(name)
	if err != nil {
		return 0, err
	}
	return dev.ReadRegister(addr)
}

// WriteRegister writes one register of the named sensor. Debug tooling only;
// callers are expected to have checked the configured allow-list.
func (m *BaroManager) WriteRegister(name string, addr, value byte) error {
	dev, err := m.sensor(name)
	if err != nil {
		return err
	}
	return dev.WriteRegister(addr, value)
}

// ReadAllRegisters dumps the documented register space (0x00-0x28) of the
// named sensor.
func (m *BaroManager) ReadAllRegisters(name string) (map[byte]byte, error) {
	dev, err := m.sensor(name)
	if err != nil {
		return nil, err
	}

	regs := make(map[byte]byte)
	for addr := byte(0x00); addr <= 0x28; addr++ {
		v, err := dev.ReadRegister(addr)
		if err != nil {
			return nil, fmt.Errorf("baro: %s register 0x%02X: %w", name, addr, err)
		}
		regs[addr] = v
	}
	return regs, nil
}

// Reinitialize resets and re-initializes the named sensor, reloading its
// calibration.
func (m *BaroManager) Reinitialize(name string) error {
	dev, err := m.sensor(name)
	if err != nil {
		return err
	}
	if err := dev.Initialize(); err != nil {
		return fmt.Errorf("baro: %s reinit: %w", name, err)
	}
	return nil
}

// Close releases the I2C bus.
func (m *BaroManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primary = nil
	m.secondary = nil
	if m.bus != nil {
		err := m.bus.Close()
		m.bus = nil
		return err
	}
	return nil
}
