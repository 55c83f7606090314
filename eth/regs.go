// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package eth

import "github.com/platinasystems/h7s3/elib/hw"

const Base = 0x40028000

// MAC
const (
	MACCR     hw.Reg = 0x0000
	MACECR    hw.Reg = 0x0004
	MACPFR    hw.Reg = 0x0008
	MACWTR    hw.Reg = 0x000c
	MACTFCR   hw.Reg = 0x0070
	MACRFCR   hw.Reg = 0x0090
	MAC1USTCR hw.Reg = 0x00dc
	MACMDIOAR hw.Reg = 0x0200
	MACMDIODR hw.Reg = 0x0204
	MACA0HR   hw.Reg = 0x0300
	MACA0LR   hw.Reg = 0x0304
	MMCRIMR   hw.Reg = 0x070c
	MMCTIMR   hw.Reg = 0x0710
)

// MTL
const (
	MTLTQOMR hw.Reg = 0x0d00
	MTLRQOMR hw.Reg = 0x0d30
)

// DMA
const (
	DMAMR     hw.Reg = 0x1000
	DMASBMR   hw.Reg = 0x1004
	DMACCR    hw.Reg = 0x1100
	DMACTCR   hw.Reg = 0x1104
	DMACRCR   hw.Reg = 0x1108
	DMACTDLAR hw.Reg = 0x1114
	DMACRDLAR hw.Reg = 0x111c
	DMACTDTPR hw.Reg = 0x1120
	DMACRDTPR hw.Reg = 0x1128
	DMACTDRLR hw.Reg = 0x112c
	DMACRDRLR hw.Reg = 0x1130
	DMACSR    hw.Reg = 0x1160
)

// MACCR
const (
	RE  = 1 << 0
	TE  = 1 << 1
	DM  = 1 << 13 // full duplex
	FES = 1 << 14 // 100 Mb/s
	ACS = 1 << 20
	CST = 1 << 21
	IPC = 1 << 27
)

var (
	SARC = hw.Field{Shift: 28, Width: 3}
	GPSL = hw.Field{Shift: 0, Width: 14} // MACECR
)

// MACMDIOAR
const (
	MB        = 1 << 0
	GOCWrite  = 1
	GOCRead   = 3
	MDIOCR100 = 5 // CSR clock 250 to 300 MHz, /124
)

var (
	GOC = hw.Field{Shift: 2, Width: 2}
	CR  = hw.Field{Shift: 8, Width: 4}
	RDA = hw.Field{Shift: 16, Width: 5}
	PA  = hw.Field{Shift: 21, Width: 5}
)

// MMC interrupt masks
const (
	RXCRCERPIM  = 1 << 5
	RXALGNERPIM = 1 << 6
	RXUCGPIM    = 1 << 17
	RXLPIUSCIM  = 1 << 26
	RXLPITRCIM  = 1 << 27

	TXSCOLGPIM = 1 << 14
	TXMCOLGPIM = 1 << 15
	TXGPKTIM   = 1 << 21
	TXLPIUSCIM = 1 << 26
	TXLPITRCIM = 1 << 27
)

// MTL queue operating modes
const (
	TSF = 1 << 1 // MTLTQOMR
	RSF = 1 << 5 // MTLRQOMR
)

// DMA mode and channel control
const (
	SWR = 1 << 0 // DMAMR
	FB  = 1 << 0 // DMASBMR
	AAL = 1 << 12
	ST  = 1 << 0 // DMACTCR
	SR  = 1 << 0 // DMACRCR
)

var (
	DSL  = hw.Field{Shift: 18, Width: 3} // DMACCR
	TPBL = hw.Field{Shift: 16, Width: 6} // DMACTCR
	RPBL = hw.Field{Shift: 16, Width: 6} // DMACRCR
	RBSZ = hw.Field{Shift: 1, Width: 14} // DMACRCR, bytes
	RDRL = hw.Field{Shift: 0, Width: 10} // DMACRDRLR
	TDRL = hw.Field{Shift: 0, Width: 10} // DMACTDRLR
)
