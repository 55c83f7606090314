// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package sbs drives the system bus security block: Ethernet PHY
// interface selection and I/O compensation.
package sbs

import "github.com/platinasystems/h7s3/elib/hw"

const Base = 0x58000400

const (
	PMCR  hw.Reg = 0x100
	CCCSR hw.Reg = 0x110
)

// PMCR [23:21]
var ETHPHYSEL = hw.Field{Shift: 21, Width: 3}

const (
	PHYSelMII  = 0
	PHYSelRMII = 4
)

// CCCSR
const XSPI2IOHSLV = 1 << 17

type SBS struct{ hw.Block }

func New(bus hw.Bus) SBS { return SBS{hw.Block{Bus: bus, Base: Base}} }

// SelectPHY picks the MAC to PHY interface.  The read back lets the
// selection settle before the MAC is released from reset.
func (s SBS) SelectPHY(sel uint32) {
	ETHPHYSEL.Set(s.Block, PMCR, sel)
	_ = PMCR.Get(s.Block)
}

func (s SBS) PHY() uint32 { return ETHPHYSEL.Read(s.Block, PMCR) }

// XSPI2HighSpeedLowVoltage enables the I/O speed optimization of port 2.
func (s SBS) XSPI2HighSpeedLowVoltage() { CCCSR.Or(s.Block, XSPI2IOHSLV) }
