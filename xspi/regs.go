// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package xspi

import "github.com/platinasystems/h7s3/elib/hw"

const (
	XSPI1Base = 0x52005000
	XSPI2Base = 0x5200a000
	XSPIMBase = 0x5200b400

	// XSPI2 memory-mapped window
	Window2 = 0x70000000
)

const (
	CR   hw.Reg = 0x000
	DCR1 hw.Reg = 0x008
	DCR2 hw.Reg = 0x00c
	SR   hw.Reg = 0x020
	FCR  hw.Reg = 0x024
	DLR  hw.Reg = 0x040
	AR   hw.Reg = 0x048
	DR   hw.Reg = 0x050
	CCR  hw.Reg = 0x100
	TCR  hw.Reg = 0x108
	IR   hw.Reg = 0x110
	WCCR hw.Reg = 0x180
	WTCR hw.Reg = 0x188
	WIR  hw.Reg = 0x190
)

// CR
const (
	EN    = 1 << 0
	ABORT = 1 << 1
	CSSEL = 1 << 24
)

var (
	FTHRES = hw.Field{Shift: 8, Width: 6}
	FMODE  = hw.Field{Shift: 28, Width: 2}
	MSEL   = hw.Field{Shift: 30, Width: 2}
)

// FMODE
const (
	IndirectWrite = iota
	IndirectRead
	AutoPoll
	MemoryMapped
)

const CKMODE = 1 << 0 // DCR1

var (
	CSHT      = hw.Field{Shift: 8, Width: 3}  // DCR1
	DEVSIZE   = hw.Field{Shift: 16, Width: 5} // DCR1
	MTYP      = hw.Field{Shift: 24, Width: 3} // DCR1
	PRESCALER = hw.Field{Shift: 0, Width: 8}  // DCR2
)

// MTYP
const (
	MicronMode = iota
	MacronixMode
)

// SR, FCR
const (
	TEF  = 1 << 0
	TCF  = 1 << 1
	FTF  = 1 << 2
	BUSY = 1 << 5

	CTEF = 1 << 0
	CTCF = 1 << 1
)

// CCR and WCCR share one layout, as do TCR and WTCR.
var (
	IMODE  = hw.Field{Shift: 0, Width: 3}
	ISIZE  = hw.Field{Shift: 4, Width: 2}
	ADMODE = hw.Field{Shift: 8, Width: 3}
	ADSIZE = hw.Field{Shift: 12, Width: 2}
	DMODE  = hw.Field{Shift: 24, Width: 3}
	DCYC   = hw.Field{Shift: 0, Width: 5}
)

const (
	IDTR  = 1 << 3
	ADDTR = 1 << 11
	DDTR  = 1 << 27
	DQSE  = 1 << 29
	DHQC  = 1 << 28
)

// XSPIM CR
const (
	CSSELOvrEN = 1 << 4
	CSSELOvrO1 = 1 << 5
	CSSELOvrO2 = 1 << 6
)
