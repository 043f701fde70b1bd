// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dps310

// I2C register map for the DPS310.
const (
	regPrsB2   = 0x00 // pressure MSB, 3 bytes total
	regTmpB2   = 0x03 // temperature MSB, 3 bytes total
	regPrsCfg  = 0x06 // rate bits 6:4, oversample bits 3:0
	regTmpCfg  = 0x07 // src bit 7, rate bits 6:4, oversample bits 3:0
	regMeasCfg = 0x08 // mode bits 2:0, readiness bits 7:4
	regCfg     = 0x09 // interrupt/FIFO config, result shift bits
	regReset   = 0x0C // write 0x89 for soft reset
	regProdID  = 0x0D // product and revision ID
	regCoef    = 0x10 // calibration coefficients, 18 bytes up to 0x21
	regCoefSrc = 0x28 // temperature source the coefficients were computed with
)

// MEAS_CFG bits.
const (
	measCfgCoefRdy   = 1 << 7
	measCfgSensorRdy = 1 << 6
	measCfgTmpRdy    = 1 << 5
	measCfgPrsRdy    = 1 << 4
	measCfgModeMask  = 0x07
)

// CFG_REG result shift bits, required when oversampling above 8 samples.
const (
	cfgTmpShift = 1 << 3
	cfgPrsShift = 1 << 2
)

const (
	coefSrcTmpExt = 1 << 7

	resetValue = 0x89
	productID  = 0x10

	coefLen = 18
)
