// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// BitField describes one field inside a register for the debug UI.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo describes one register for the debug UI.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// GetDPS310RegisterMap returns metadata for all DPS310 registers.
// This provides register names, descriptions, access types, and bit field definitions.
func GetDPS310RegisterMap() []RegisterInfo {
	regs := []RegisterInfo{
		// Measurement Data Registers (Read-Only, MSB first)
		{Address: "0x00", Name: "PSR_B2", Description: "Pressure Data High Byte", Access: "R"},
		{Address: "0x01", Name: "PSR_B1", Description: "Pressure Data Middle Byte", Access: "R"},
		{Address: "0x02", Name: "PSR_B0", Description: "Pressure Data Low Byte", Access: "R"},
		{Address: "0x03", Name: "TMP_B2", Description: "Temperature Data High Byte", Access: "R"},
		{Address: "0x04", Name: "TMP_B1", Description: "Temperature Data Middle Byte", Access: "R"},
		{Address: "0x05", Name: "TMP_B0", Description: "Temperature Data Low Byte", Access: "R"},

		// Configuration Registers
		{Address: "0x06", Name: "PRS_CFG", Description: "Pressure Measurement Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "6:4", Name: "PM_RATE", Description: "Pressure measurement rate", Values: "0=1Hz, 1=2Hz, 2=4Hz, 3=8Hz, 4=16Hz, 5=32Hz, 6=64Hz, 7=128Hz"},
				{Bits: "3:0", Name: "PM_PRC", Description: "Pressure oversampling", Values: "0=1x, 1=2x, 2=4x, 3=8x, 4=16x, 5=32x, 6=64x, 7=128x"},
			}},
		{Address: "0x07", Name: "TMP_CFG", Description: "Temperature Measurement Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "TMP_EXT", Description: "Temperature measurement source", Values: "0=ASIC sensor, 1=MEMS element"},
				{Bits: "6:4", Name: "TMP_RATE", Description: "Temperature measurement rate", Values: "0=1Hz, 1=2Hz, 2=4Hz, 3=8Hz, 4=16Hz, 5=32Hz, 6=64Hz, 7=128Hz"},
				{Bits: "3:0", Name: "TMP_PRC", Description: "Temperature oversampling", Values: "0=1x, 1=2x, 2=4x, 3=8x, 4=16x, 5=32x, 6=64x, 7=128x"},
			}},
		{Address: "0x08", Name: "MEAS_CFG", Description: "Sensor Operating Mode and Status", Access: "RW", Default: "0xC0",
			BitFields: []BitField{
				{Bits: "7", Name: "COEF_RDY", Description: "Calibration coefficients available", Values: "0=Not ready, 1=Ready"},
				{Bits: "6", Name: "SENSOR_RDY", Description: "Sensor initialization complete", Values: "0=Not ready, 1=Ready"},
				{Bits: "5", Name: "TMP_RDY", Description: "New temperature measurement ready", Values: "0=Not ready, 1=Ready"},
				{Bits: "4", Name: "PRS_RDY", Description: "New pressure measurement ready", Values: "0=Not ready, 1=Ready"},
				{Bits: "2:0", Name: "MEAS_CTRL", Description: "Measurement mode", Values: "0=Idle, 1=Pressure, 2=Temperature, 5=Cont. pressure, 6=Cont. temperature, 7=Cont. both"},
			}},
		{Address: "0x09", Name: "CFG_REG", Description: "Interrupt and FIFO Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "INT_HL", Description: "Interrupt pin active level", Values: "0=Active low, 1=Active high"},
				{Bits: "6", Name: "INT_FIFO", Description: "Interrupt on FIFO full", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "INT_TMP", Description: "Interrupt on temperature ready", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4", Name: "INT_PRS", Description: "Interrupt on pressure ready", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "T_SHIFT", Description: "Temperature result shift", Values: "Required for oversampling > 8x"},
				{Bits: "2", Name: "P_SHIFT", Description: "Pressure result shift", Values: "Required for oversampling > 8x"},
				{Bits: "1", Name: "FIFO_EN", Description: "FIFO enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "SPI_MODE", Description: "SPI wire mode", Values: "0=4-wire, 1=3-wire"},
			}},
		{Address: "0x0A", Name: "INT_STS", Description: "Interrupt Status", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "2", Name: "INT_FIFO_FULL", Description: "FIFO full interrupt status", Values: ""},
				{Bits: "1", Name: "INT_TMP", Description: "Temperature measurement interrupt status", Values: ""},
				{Bits: "0", Name: "INT_PRS", Description: "Pressure measurement interrupt status", Values: ""},
			}},
		{Address: "0x0B", Name: "FIFO_STS", Description: "FIFO Status", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "1", Name: "FIFO_FULL", Description: "FIFO is full", Values: ""},
				{Bits: "0", Name: "FIFO_EMPTY", Description: "FIFO is empty", Values: ""},
			}},
		{Address: "0x0C", Name: "RESET", Description: "Soft Reset and FIFO Flush", Access: "W",
			BitFields: []BitField{
				{Bits: "7", Name: "FIFO_FLUSH", Description: "Empty the FIFO", Values: "1=Flush"},
				{Bits: "3:0", Name: "SOFT_RST", Description: "Soft reset", Values: "0b1001=Reset (write 0x89 for both)"},
			}},
		{Address: "0x0D", Name: "PROD_ID", Description: "Product and Revision ID", Access: "R", Default: "0x10",
			BitFields: []BitField{
				{Bits: "7:4", Name: "REV_ID", Description: "Revision ID", Values: "1"},
				{Bits: "3:0", Name: "PROD_ID", Description: "Product ID", Values: "0"},
			}},
	}

	// Calibration coefficient block, 18 read-only bytes. The nine signed
	// coefficients c0..c30 are packed across byte boundaries at 12/16/20-bit
	// widths.
	for i := 0; i < 18; i++ {
		regs = append(regs, RegisterInfo{
			Address:     fmt.Sprintf("0x%02X", 0x10+i),
			Name:        fmt.Sprintf("COEF_%d", i),
			Description: "Calibration Coefficient Byte",
			Access:      "R",
		})
	}

	regs = append(regs, RegisterInfo{
		Address: "0x28", Name: "COEF_SRCE", Description: "Calibration Coefficient Source", Access: "R",
		BitFields: []BitField{
			{Bits: "7", Name: "TMP_COEF_SRCE", Description: "Temperature sensor the coefficients were calibrated with", Values: "0=ASIC sensor, 1=MEMS element"},
		}})

	return regs
}
