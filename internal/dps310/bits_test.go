package dps310

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var fieldWidths = []uint{12, 16, 20, 24}

func TestTwosComplementIdentityBelowSignBit(t *testing.T) {
	for _, w := range fieldWidths {
		half := uint32(1) << (w - 1)
		for _, v := range []uint32{0, 1, half / 2, half - 1} {
			assert.Equal(t, int32(v), twosComplement(v, w), "width %d value %d", w, v)
		}
	}
}

func TestTwosComplementNegativeRange(t *testing.T) {
	for _, w := range fieldWidths {
		half := int32(1) << (w - 1)
		full := uint32(1) << w

		// Sign bit set: result is value - 2^w, always in [-2^(w-1), -1].
		assert.Equal(t, -half, twosComplement(uint32(half), w), "width %d", w)
		assert.Equal(t, int32(-1), twosComplement(full-1, w), "width %d", w)

		for _, v := range []uint32{uint32(half), uint32(half) + 1, full - 2, full - 1} {
			got := twosComplement(v, w)
			assert.GreaterOrEqual(t, got, -half, "width %d value %d", w, v)
			assert.Less(t, got, half, "width %d value %d", w, v)
		}
	}
}

func TestTwosComplementRoundTrip(t *testing.T) {
	for _, w := range fieldWidths {
		half := int32(1) << (w - 1)
		mask := uint32(1)<<w - 1
		for _, v := range []int32{-half, -half + 1, -1000, -1, 0, 1, 1000, half - 2, half - 1} {
			pattern := uint32(v) & mask
			assert.Equal(t, v, twosComplement(pattern, w), "width %d value %d", w, v)
		}
	}
}

func TestRawSample(t *testing.T) {
	assert.Equal(t, int32(0x123456), rawSample([]byte{0x12, 0x34, 0x56}))
	assert.Equal(t, int32(-1), rawSample([]byte{0xFF, 0xFF, 0xFF}))
	assert.Equal(t, int32(-8388608), rawSample([]byte{0x80, 0x00, 0x00}))
}

// Fixed 18-byte calibration block with hand-computed expected coefficients.
var calibFixture = []byte{
	0x0B, 0xFE, 0x3F, 0x5C, 0x72, 0x1B, 0x9E, 0x42, 0xD8,
	0x25, 0xFF, 0x1C, 0xEC, 0x40, 0xFB, 0xC5, 0x03, 0x6A,
}

func TestDecodeCalibrationGolden(t *testing.T) {
	c := decodeCalibration(calibFixture)

	assert.Equal(t, int32(191), c.c0)
	assert.Equal(t, int32(-449), c.c1)
	assert.Equal(t, int32(378657), c.c00)
	assert.Equal(t, int32(-287166), c.c10)
	assert.Equal(t, int32(-10203), c.c01)
	assert.Equal(t, int32(-228), c.c11)
	assert.Equal(t, int32(-5056), c.c20)
	assert.Equal(t, int32(-1083), c.c21)
	assert.Equal(t, int32(874), c.c30)
}

func TestDecodeCalibrationDeterministic(t *testing.T) {
	assert.Equal(t, decodeCalibration(calibFixture), decodeCalibration(calibFixture))
}
