package dps310

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

type regWrite struct {
	addr  byte
	value byte
}

// fakeBus emulates the DPS310 register file behind an i2c.Bus. A one-byte
// write selects a register for the following read; a two-byte write stores
// a value and is recorded in the write log.
type fakeBus struct {
	regs    [0x29]byte
	writes  []regWrite
	txCount int
	err     error
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.txCount++
	if b.err != nil {
		return b.err
	}
	switch {
	case len(w) == 1 && len(r) > 0:
		for i := range r {
			r[i] = b.regs[int(w[0])+i]
		}
	case len(w) == 2 && len(r) == 0:
		b.regs[w[0]] = w[1]
		b.writes = append(b.writes, regWrite{w[0], w[1]})
	default:
		return fmt.Errorf("fakeBus: unexpected transaction w=%d r=%d", len(w), len(r))
	}
	return nil
}

func (b *fakeBus) String() string { return "fake" }

func (b *fakeBus) SetSpeed(f physic.Frequency) error { return nil }

// newFakeBus returns a bus with a healthy device: identity present, all
// readiness bits set, calibration fixture loaded, fixed raw samples.
func newFakeBus() *fakeBus {
	b := &fakeBus{}
	b.regs[regProdID] = productID
	b.regs[regMeasCfg] = measCfgCoefRdy | measCfgSensorRdy | measCfgTmpRdy | measCfgPrsRdy
	b.regs[regCoefSrc] = coefSrcTmpExt
	copy(b.regs[regCoef:], calibFixture)
	copy(b.regs[regPrsB2:], []byte{0x12, 0x34, 0x56})
	copy(b.regs[regTmpB2:], []byte{0x65, 0x43, 0x21})
	return b
}

func newTestDev(t *testing.T, b *fakeBus) *Dev {
	t.Helper()
	d, err := New(b, Opts{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	return d
}

func TestNewVerifiesIdentity(t *testing.T) {
	b := newFakeBus()
	d, err := New(b, Opts{})
	require.NoError(t, err)
	assert.Equal(t, uint16(DefaultAddr), d.dev.Addr)

	b.regs[regProdID] = 0x55
	_, err = New(b, Opts{})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestOversampleScaleMapping(t *testing.T) {
	want := []float64{524288, 1572864, 3670016, 7864320, 253952, 516096, 1040384, 2088960}

	for i := Oversample1; i <= Oversample128; i++ {
		b := newFakeBus()
		d := newTestDev(t, b)

		require.NoError(t, d.ConfigurePressure(Rate64Hz, i))
		assert.Equal(t, want[i], d.pressureScale, "oversample %s", i)
		assert.Equal(t, byte(Rate64Hz)<<4|byte(i), b.regs[regPrsCfg], "oversample %s", i)

		shift := b.regs[regCfg]&cfgPrsShift != 0
		assert.Equal(t, i > Oversample8, shift, "oversample %s shift bit", i)
	}
}

func TestConfigureTemperatureCopiesSourceBit(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)

	require.NoError(t, d.ConfigureTemperature(Rate8Hz, Oversample16))
	assert.Equal(t, coefSrcTmpExt|byte(Rate8Hz)<<4|byte(Oversample16), b.regs[regTmpCfg])
	assert.NotZero(t, b.regs[regCfg]&cfgTmpShift)
	assert.Equal(t, float64(253952), d.tempScale)

	// Source bit clear on the device means it stays clear in TMP_CFG.
	b.regs[regCoefSrc] = 0
	require.NoError(t, d.ConfigureTemperature(Rate8Hz, Oversample4))
	assert.Equal(t, byte(Rate8Hz)<<4|byte(Oversample4), b.regs[regTmpCfg])
	assert.Zero(t, b.regs[regCfg]&cfgTmpShift)
}

func TestConfigureRejectsOutOfRange(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)
	require.NoError(t, d.ConfigurePressure(Rate64Hz, Oversample64))
	writes := len(b.writes)

	err := d.ConfigurePressure(Rate(8), Oversample64)
	assert.ErrorIs(t, err, ErrInvalidRate)
	err = d.ConfigurePressure(Rate64Hz, Oversample(8))
	assert.ErrorIs(t, err, ErrInvalidOversample)
	err = d.ConfigureTemperature(Rate(200), Oversample1)
	assert.ErrorIs(t, err, ErrInvalidRate)

	// Nothing written, previous scale factor untouched.
	assert.Len(t, b.writes, writes)
	assert.Equal(t, float64(1040384), d.pressureScale)
}

func TestSetModeValidation(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)

	for _, m := range []Mode{Idle, OnePressure, OneTemperature,
		ContinuousPressure, ContinuousTemperature, ContinuousPressureTemperature} {
		require.NoError(t, d.SetMode(m), "mode %s", m)
		assert.Equal(t, byte(m), b.regs[regMeasCfg]&measCfgModeMask, "mode %s", m)
		// Readiness bits are preserved by the read-modify-write.
		assert.Equal(t, byte(0xF0), b.regs[regMeasCfg]&0xF0, "mode %s", m)
	}

	before := b.regs[regMeasCfg]
	writes := len(b.writes)
	for _, m := range []Mode{3, 4, 8, 255} {
		err := d.SetMode(m)
		assert.ErrorIs(t, err, ErrInvalidMode, "mode %d", m)
	}
	assert.Equal(t, before, b.regs[regMeasCfg])
	assert.Len(t, b.writes, writes)
}

func TestMeasurementGolden(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)
	require.NoError(t, d.Initialize())

	// Hand-computed from the calibration fixture with raw pressure
	// 0x123456, raw temperature 0x654321 and 64x oversampling on both
	// channels.
	temp, err := d.ReadTemperature()
	require.NoError(t, err)
	assert.InDelta(t, -2768.546476108821, temp, 1e-9)

	press, err := d.ReadPressure()
	require.NoError(t, err)
	assert.InDelta(t, -318.114644141250, press, 1e-9)

	p, tc, err := d.Sense()
	require.NoError(t, err)
	assert.InDelta(t, press, p, 1e-9)
	assert.InDelta(t, temp, tc, 1e-9)
}

func TestReadBeforeInitialize(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)
	before := b.txCount

	_, err := d.ReadPressure()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = d.ReadTemperature()
	assert.ErrorIs(t, err, ErrNotInitialized)

	// Precondition failures must not touch the bus.
	assert.Equal(t, before, b.txCount)
}

func TestResetInvalidatesCalibration(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)
	require.NoError(t, d.Initialize())

	require.NoError(t, d.Reset())
	assert.Equal(t, regWrite{regReset, resetValue}, b.writes[len(b.writes)-1])

	_, err := d.ReadPressure()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestWaitTimesOut(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)

	// Sensor never reports ready after the reset write.
	b.regs[regMeasCfg] = 0
	err := d.Reset()
	assert.ErrorIs(t, err, ErrTimeout)

	b.regs[regMeasCfg] = measCfgSensorRdy // coefficients never ready
	err = d.Initialize()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBusErrorPropagates(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)

	busErr := errors.New("remote I/O error")
	b.err = busErr
	err := d.Initialize()
	assert.ErrorIs(t, err, busErr)
}

func TestReadinessQueries(t *testing.T) {
	b := newFakeBus()
	d := newTestDev(t, b)
	writes := len(b.writes)

	for _, q := range []func() (bool, error){
		d.SensorReady, d.PressureReady, d.TemperatureReady, d.CoefficientsReady,
	} {
		ok, err := q()
		require.NoError(t, err)
		assert.True(t, ok)
	}

	b.regs[regMeasCfg] = 0
	ok, err := d.SensorReady()
	require.NoError(t, err)
	assert.False(t, ok)

	// Status queries are read-only.
	assert.Len(t, b.writes, writes)
}

func TestAltitudeFromPressure(t *testing.T) {
	assert.InDelta(t, 988.672467533, AltitudeFromPressure(900, 1013.25), 1e-6)
	assert.InDelta(t, 0, AltitudeFromPressure(1013.25, 1013.25), 1e-9)
	assert.Less(t, AltitudeFromPressure(1030, 1013.25), 0.0)
}
