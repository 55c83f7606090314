// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package scb reaches the Cortex-M7 system control block.
package scb

import "github.com/platinasystems/h7s3/elib/hw"

const Base = 0xe000ed00

const (
	VTOR  hw.Reg = 0x08
	CPACR hw.Reg = 0x88
)

// CP10 and CP11 full access
const FPUAccess = 3<<20 | 3<<22

type SCB struct{ hw.Block }

func New(bus hw.Bus) SCB { return SCB{hw.Block{Bus: bus, Base: Base}} }

// SetVectorTable relocates the exception vectors.  The caller masks
// interrupts around it.
func (s SCB) SetVectorTable(addr uint32) { VTOR.Set(s.Block, addr) }

func (s SCB) VectorTable() uint32 { return VTOR.Get(s.Block) }

func (s SCB) EnableFPU() { CPACR.Or(s.Block, FPUAccess) }

func (s SCB) FPUEnabled() bool { return CPACR.Get(s.Block)&FPUAccess == FPUAccess }
