// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package board is the NUCLEO-H7S3L8 configuration: crystal, clock plan,
// memory map, LEDs and Ethernet parameters.
package board

import (
	"net"

	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/gpio"
	"github.com/platinasystems/h7s3/pwr"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/xspi"
)

const (
	HSE = 24000000

	CPUHz = 600000000
	BusHz = 300000000
	APBHz = 150000000

	// XSPI2 kernel clock, PLL2 T.
	XSPIHz = 200000000
)

// Boot vector tables: internal flash for the loader, the memory mapped
// octal flash for the application.
const (
	BootVectors = 0x08000000
	AppVectors  = xspi.Window2
)

const (
	Supply       = pwr.SupplyLDO
	VoltageScale = pwr.ScaleHigh

	FlashLatency    = 7
	FlashWrHighFreq = 3
)

// BootClockPlan runs the CPU at 600 MHz from PLL1 and XSPI2 at 200 MHz
// from PLL2 T, both from the 24 MHz crystal.
var BootClockPlan = rcc.Plan{
	HSE:       true,
	CSS:       true,
	PLLSource: rcc.PLLSourceHSE,
	DIVM1:     12, // 2 MHz
	DIVM2:     4,  // 6 MHz
	PLL1: rcc.PLL{
		Enable: true,
		VCO:    rcc.VCOHigh,
		Range:  rcc.Range1to2MHz,
		DIVN:   300,
		DIVP:   1,
	},
	PLL2: rcc.PLL{
		Enable: true,
		VCO:    rcc.VCOHigh,
		Range:  rcc.Range4to8MHz,
		DIVN:   100,
		DIVT:   3,
	},
	CPU:   rcc.NotDivided,
	Bus:   rcc.Div2,
	APB1:  rcc.APBDiv2,
	APB2:  rcc.APBDiv2,
	APB4:  rcc.APBDiv2,
	APB5:  rcc.APBDiv2,
	Clock: rcc.CPUSourcePLL1,
}

var (
	LEDGreen  = gpio.P('D', 10)
	LEDYellow = gpio.P('D', 13)
	LEDRed    = gpio.P('B', 7)
)

var LEDs = gpio.PinMap{
	"green":  LEDGreen,
	"yellow": LEDYellow,
	"red":    LEDRed,
}

// Ethernet descriptors and buffers live in the last 64 KiB of AXI SRAM,
// which the MPU maps non-cacheable.
const (
	DMABase = 0x24060000
	DMASize = 0x10000

	TxCount = 4
	RxCount = 4
)

var MAC = net.HardwareAddr{0x00, 0x80, 0xe1, 0x00, 0x00, 0x00}

func ETHConfig() eth.Config {
	return eth.Config{
		Addr:           MAC,
		TxCount:        TxCount,
		RxCount:        RxCount,
		BufSize:        eth.DefaultBufSize,
		BusHz:          BusHz,
		MDIOClockRange: eth.MDIOCR100,
	}
}
