package sensors

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimSourceProducesPlausibleSamples(t *testing.T) {
	src := NewSimSource()

	prev, err := src.Next()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		s, err := src.Next()
		require.NoError(t, err)

		assert.Equal(t, "sim", s.Source)
		assert.InDelta(t, 1013.25, s.PressureHPa, 3)
		assert.InDelta(t, 21.0, s.Temperature, 2)
		assert.Equal(t, s.PressureHPa*100, s.PressurePa)

		// Smooth signal: consecutive samples stay close.
		assert.InDelta(t, prev.PressureHPa, s.PressureHPa, 0.5)
		prev = s

		_, err = time.Parse(time.RFC3339, s.Time)
		assert.NoError(t, err)
	}
}

func TestDPS310RegisterMapCoversDocumentedSpace(t *testing.T) {
	regs := GetDPS310RegisterMap()

	seen := make(map[string]bool)
	for _, r := range regs {
		assert.False(t, seen[r.Address], "duplicate address %s", r.Address)
		seen[r.Address] = true

		addr, err := strconv.ParseUint(r.Address, 0, 8)
		require.NoError(t, err, "address %s", r.Address)
		assert.LessOrEqual(t, addr, uint64(0x28))

		assert.NotEmpty(t, r.Name, "address %s", r.Address)
		assert.Contains(t, []string{"R", "W", "RW"}, r.Access, "address %s", r.Address)
	}

	// Every register the driver touches must be documented.
	for _, addr := range []string{"0x00", "0x03", "0x06", "0x07", "0x08", "0x09", "0x0C", "0x0D", "0x10", "0x21", "0x28"} {
		assert.True(t, seen[addr], "missing register %s", addr)
	}
}
