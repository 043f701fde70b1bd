// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dps310

// twosComplement reinterprets the low bits of v as a signed two's-complement
// value of the given width. Used for the 12/16/20-bit calibration fields and
// the 24-bit raw samples.
func twosComplement(v uint32, bits uint) int32 {
	if v&(1<<(bits-1)) != 0 {
		return int32(v) - int32(1)<<bits
	}
	return int32(v)
}

// rawSample assembles a 24-bit two's-complement sample from three bytes,
// MSB first.
func rawSample(buf []byte) int32 {
	return twosComplement(uint32(buf[0])<<16|uint32(buf[1])<<8|uint32(buf[2]), 24)
}

// calibration holds the nine factory coefficients, sign-extended.
// c0 and c1 are 12-bit, c00 and c10 are 20-bit, the rest are 16-bit.
type calibration struct {
	c0, c1                  int32
	c00, c10                int32
	c01, c11, c20, c21, c30 int32
}

// decodeCalibration unpacks the nine coefficients from the 18-byte
// calibration block. Field boundaries per datasheet page 37: c0/c1 share
// byte 1, c00/c10 share byte 5.
func decodeCalibration(raw []byte) calibration {
	var c calibration
	c.c0 = twosComplement(uint32(raw[0])<<4|(uint32(raw[1])>>4)&0x0F, 12)
	c.c1 = twosComplement((uint32(raw[1])&0x0F)<<8|uint32(raw[2]), 12)
	c.c00 = twosComplement(uint32(raw[3])<<12|uint32(raw[4])<<4|(uint32(raw[5])>>4)&0x0F, 20)
	c.c10 = twosComplement((uint32(raw[5])&0x0F)<<16|uint32(raw[6])<<8|uint32(raw[7]), 20)
	c.c01 = twosComplement(uint32(raw[8])<<8|uint32(raw[9]), 16)
	c.c11 = twosComplement(uint32(raw[10])<<8|uint32(raw[11]), 16)
	c.c20 = twosComplement(uint32(raw[12])<<8|uint32(raw[13]), 16)
	c.c21 = twosComplement(uint32(raw[14])<<8|uint32(raw[15]), 16)
	c.c30 = twosComplement(uint32(raw[16])<<8|uint32(raw[17]), 16)
	return c
}
