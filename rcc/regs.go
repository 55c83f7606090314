// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rcc

import "github.com/platinasystems/h7s3/elib/hw"

const Base = 0x58024400

const (
	CR        hw.Reg = 0x000
	CFGR      hw.Reg = 0x010
	CDCFGR    hw.Reg = 0x018
	BMCFGR    hw.Reg = 0x01c
	APBCFGR   hw.Reg = 0x020
	PLLCKSELR hw.Reg = 0x028
	PLLCFGR   hw.Reg = 0x02c
	PLL1DIVR1 hw.Reg = 0x030
	PLL1FRACR hw.Reg = 0x034
	PLL2DIVR1 hw.Reg = 0x038
	PLL2FRACR hw.Reg = 0x03c
	PLL3DIVR1 hw.Reg = 0x040
	PLL3FRACR hw.Reg = 0x044
	CCIPR1    hw.Reg = 0x04c
	AHB5ENR   hw.Reg = 0x134
	AHB1ENR   hw.Reg = 0x138
	AHB2ENR   hw.Reg = 0x13c
	AHB4ENR   hw.Reg = 0x140
	APB4ENR   hw.Reg = 0x154
	PLL1DIVR2 hw.Reg = 0x1c0
	PLL2DIVR2 hw.Reg = 0x1c4
	PLL3DIVR2 hw.Reg = 0x1c8
	CKPROTR   hw.Reg = 0x1e0
)

// CR
const (
	HSION    = 1 << 0
	HSIRDY   = 1 << 2
	CSION    = 1 << 7
	CSIRDY   = 1 << 8
	HSEON    = 1 << 16
	HSERDY   = 1 << 17
	HSECSSON = 1 << 19
	PLL1ON   = 1 << 24
	PLL1RDY  = 1 << 25
	PLL2ON   = 1 << 26
	PLL2RDY  = 1 << 27
	PLL3ON   = 1 << 28
	PLL3RDY  = 1 << 29
)

var (
	// CFGR [1:0] system clock switch, [4:3] its status mirror
	SW  = hw.Field{Shift: 0, Width: 2}
	SWS = hw.Field{Shift: 3, Width: 2}

	CPRE  = hw.Field{Shift: 0, Width: 4}  // CDCFGR
	BMPRE = hw.Field{Shift: 0, Width: 4}  // BMCFGR
	PPRE1 = hw.Field{Shift: 0, Width: 3}  // APBCFGR
	PPRE2 = hw.Field{Shift: 4, Width: 3}  // APBCFGR
	PPRE4 = hw.Field{Shift: 8, Width: 3}  // APBCFGR
	PPRE5 = hw.Field{Shift: 12, Width: 3} // APBCFGR

	// PLLCKSELR
	PLLSRC = hw.Field{Shift: 0, Width: 2}
	DIVM1  = hw.Field{Shift: 4, Width: 6}
	DIVM2  = hw.Field{Shift: 12, Width: 6}
	DIVM3  = hw.Field{Shift: 20, Width: 6}

	// PLLxDIVR1
	DIVN = hw.Field{Shift: 0, Width: 9}
	DIVP = hw.Field{Shift: 9, Width: 7}
	DIVQ = hw.Field{Shift: 16, Width: 7}
	DIVR = hw.Field{Shift: 24, Width: 7}

	// PLLxDIVR2
	DIVS = hw.Field{Shift: 0, Width: 3}
	DIVT = hw.Field{Shift: 8, Width: 3}

	// PLLxFRACR [15:3]
	FRACN = hw.Field{Shift: 3, Width: 13}

	// CCIPR1
	XSPI2SEL = hw.Field{Shift: 6, Width: 2}
)

// CCIPR1
const ETH1PHYCKSEL = 1 << 24

// CKPROTR
const XSPICKP = 1 << 1

// PLLCFGR holds four configuration bits per PLL in its low half and
// five output enables per PLL from bit 16.
func fracen(n int) uint32              { return 1 << (4 * (n - 1)) }
func vcosel(n int) hw.Field            { return hw.Field{Shift: uint8(4*(n-1) + 1), Width: 1} }
func pllrge(n int) hw.Field            { return hw.Field{Shift: uint8(4*(n-1) + 2), Width: 2} }
func outEnable(n int, o Output) uint32 { return 1 << (16 + 5*(n-1) + int(o)) }

// Output names a PLL post divider.
type Output int

const (
	P Output = iota
	Q
	R
	S
	T
)

var outputNames = [...]string{"P", "Q", "R", "S", "T"}

func (o Output) String() string { return outputNames[o] }

// Per PLL register set and CR bits.
type pllRegs struct {
	divr1, fracr, divr2 hw.Reg
	on, rdy             uint32
}

var pllRegSets = [4]pllRegs{
	1: {PLL1DIVR1, PLL1FRACR, PLL1DIVR2, PLL1ON, PLL1RDY},
	2: {PLL2DIVR1, PLL2FRACR, PLL2DIVR2, PLL2ON, PLL2RDY},
	3: {PLL3DIVR1, PLL3FRACR, PLL3DIVR2, PLL3ON, PLL3RDY},
}

// Peripheral clock enables.
const (
	// AHB1ENR
	ETH1MACEN = 1 << 15
	ETH1TXEN  = 1 << 16
	ETH1RXEN  = 1 << 17

	// APB4ENR
	SBSEN = 1 << 1

	// AHB5ENR
	XSPI1EN = 1 << 5
	XSPI2EN = 1 << 12
	XSPIMEN = 1 << 14
)

// GPIOEN is the AHB4ENR bit of GPIO port 'A' + port.
func GPIOEN(port int) uint32 {
	switch {
	case port <= 7:
		return 1 << uint(port)
	case port >= 12 && port <= 15:
		return 1 << uint(port)
	}
	return 0
}
