// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package pwr configures the supply and the core voltage scale.
package pwr

import (
	"fmt"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/tick"
)

const Base = 0x58024800

const (
	SR1  hw.Reg = 0x04
	CSR2 hw.Reg = 0x0c
	CSR4 hw.Reg = 0x14
)

const (
	ACTVOSRDY = 1 << 1  // SR1
	ENXSPIM2  = 1 << 15 // CSR2
	VOS       = 1 << 0  // CSR4
	VOSRDY    = 1 << 1  // CSR4
)

// CSR2 supply configuration, written whole.
type Supply uint32

const (
	SupplyDefault          Supply = 0x06
	SupplyLDO              Supply = 0x02
	SupplyDirectSMPS       Supply = 0x04
	SupplySMPSExtLDOExt    Supply = 0x1e
	SupplySMPSExtLDOBypass Supply = 0x1d
	SupplySMPSDisLDOBypass Supply = 0x01
)

const supplyMask = 0x3f

type Scale uint8

const (
	ScaleLow Scale = iota
	ScaleHigh
)

const Timeout = 1000

type PWR struct {
	hw.Block
	Tick tick.Source
}

func New(bus hw.Bus, src tick.Source) *PWR {
	return &PWR{hw.Block{Bus: bus, Base: Base}, src}
}

// Init writes the supply configuration and voltage scale, each followed
// by its ready wait.
func (p *PWR) Init(s Supply, v Scale) error {
	CSR2.Modify(p.Block, supplyMask, uint32(s))
	if err := tick.Until(p.Tick, Timeout, func() bool {
		return SR1.IsSet(p.Block, ACTVOSRDY)
	}, nil); err != nil {
		return fmt.Errorf("pwr: supply %#x: %w", uint32(s), err)
	}
	CSR4.Modify(p.Block, VOS, uint32(v))
	if err := tick.Until(p.Tick, Timeout, func() bool {
		return CSR4.IsSet(p.Block, VOSRDY)
	}, nil); err != nil {
		return fmt.Errorf("pwr: voltage scale %d: %w", v, err)
	}
	return nil
}

// EnableXSPIM2 powers the XSPI port 2 I/O.
func (p *PWR) EnableXSPIM2() { CSR2.Or(p.Block, ENXSPIM2) }
