// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rcc

import "fmt"

// The enumerations carry their register encoding.

type PLLSource uint8

const (
	PLLSourceHSI PLLSource = iota
	PLLSourceCSI
	PLLSourceHSE
	PLLSourceNone
)

func (s PLLSource) String() string {
	return [...]string{"hsi", "csi", "hse", "none", "invalid"}[min(int(s), 4)]
}

type VCO uint8

const (
	VCOHigh VCO = iota // wide range, 192 to 836 MHz
	VCOLow             // 150 to 420 MHz
)

// Range is the PLL reference input frequency range.
type Range uint8

const (
	Range1to2MHz Range = iota
	Range2to4MHz
	Range4to8MHz
	Range8to16MHz
)

// Prescaler is a CPU or bus matrix divider code.
type Prescaler uint8

const (
	NotDivided Prescaler = 0
	Div2       Prescaler = 8
	Div4       Prescaler = 9
	Div8       Prescaler = 10
	Div16      Prescaler = 11
	Div64      Prescaler = 12
	Div128     Prescaler = 13
	Div256     Prescaler = 14
	Div512     Prescaler = 15
)

// Divisor returns the division ratio of p, or 0 for a reserved code.
func (p Prescaler) Divisor() uint32 {
	switch {
	case p == NotDivided:
		return 1
	case p >= Div2 && p <= Div16:
		return 2 << (p - Div2)
	case p >= Div64 && p <= Div512:
		return 64 << (p - Div64)
	}
	return 0
}

// APBPrescaler is an APB domain divider code.
type APBPrescaler uint8

const (
	APBNotDivided APBPrescaler = 0
	APBDiv2       APBPrescaler = 4
	APBDiv4       APBPrescaler = 5
	APBDiv8       APBPrescaler = 6
	APBDiv16      APBPrescaler = 7
)

func (p APBPrescaler) Divisor() uint32 {
	switch {
	case p == APBNotDivided:
		return 1
	case p >= APBDiv2 && p <= APBDiv16:
		return 2 << (p - APBDiv2)
	}
	return 0
}

type CPUSource uint8

const (
	CPUSourceHSI CPUSource = iota
	CPUSourceCSI
	CPUSourceHSE
	CPUSourcePLL1
)

func (s CPUSource) String() string {
	return [...]string{"hsi", "csi", "hse", "pll1"}[s&3]
}

// PLL is one PLL block.  A post divider of 0 leaves that output off; so
// does any value the hardware can not take.  DIVT exists only on PLL2.
type PLL struct {
	Enable bool
	VCO    VCO
	Range  Range
	// Multiplier, 8 to 420.  Out of range values leave DIVN untouched.
	DIVN uint16
	// Post dividers: P, Q, R take 1 to 128 (P excludes 2); S and T 1 to 8.
	DIVP, DIVQ, DIVR, DIVS, DIVT uint8
	// Fractional part of the multiplier in 1/8192 steps.
	FRACN uint16
}

type Plan struct {
	HSE bool
	CSS bool

	PLLSource        PLLSource
	DIVM1, DIVM2     uint8
	DIVM3            uint8
	PLL1, PLL2, PLL3 PLL

	CPU   Prescaler
	Bus   Prescaler
	APB1  APBPrescaler
	APB2  APBPrescaler
	APB4  APBPrescaler
	APB5  APBPrescaler
	Clock CPUSource
}

func (p *Plan) pll(n int) *PLL {
	return [...]*PLL{nil, &p.PLL1, &p.PLL2, &p.PLL3}[n]
}

func (p *Plan) divm(n int) uint8 {
	return [...]uint8{0, p.DIVM1, p.DIVM2, p.DIVM3}[n]
}

// Validate rejects plans that no register encoding can express or that
// would switch the CPU onto a clock the plan leaves off.  Out of range
// multipliers and post dividers are not errors; the sequencer turns
// them into untouched fields and disabled outputs.
func (p *Plan) Validate() error {
	bad := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: "+format,
			append([]interface{}{ErrInvalidConfiguration}, args...)...)
	}
	if p.PLLSource > PLLSourceNone {
		return bad("pll source %d", p.PLLSource)
	}
	for n := 1; n <= 3; n++ {
		if m := p.divm(n); m > 63 {
			return bad("divm%d %d", n, m)
		}
		pll := p.pll(n)
		if !pll.Enable {
			continue
		}
		if pll.VCO > VCOLow {
			return bad("pll%d vco %d", n, pll.VCO)
		}
		if pll.Range > Range8to16MHz {
			return bad("pll%d range %d", n, pll.Range)
		}
		if p.PLLSource == PLLSourceNone {
			return bad("pll%d enabled without a source", n)
		}
		if p.divm(n) == 0 {
			return bad("pll%d enabled with divm%d 0", n, n)
		}
		if pll.FRACN >= 1<<13 {
			return bad("pll%d fracn %d", n, pll.FRACN)
		}
	}
	if p.PLLSource == PLLSourceHSE && !p.HSE && p.anyPLL() {
		return bad("pll source hse with hse off")
	}
	if p.CPU.Divisor() == 0 {
		return bad("cpu prescaler %d", p.CPU)
	}
	if p.Bus.Divisor() == 0 {
		return bad("bus prescaler %d", p.Bus)
	}
	for i, a := range []APBPrescaler{p.APB1, p.APB2, p.APB4, p.APB5} {
		if a.Divisor() == 0 {
			return bad("apb%d prescaler %d", []int{1, 2, 4, 5}[i], a)
		}
	}
	switch p.Clock {
	case CPUSourceHSI, CPUSourceCSI:
	case CPUSourceHSE:
		if !p.HSE {
			return bad("cpu on hse with hse off")
		}
	case CPUSourcePLL1:
		if !p.PLL1.Enable || !divPEnabled(p.PLL1.DIVP) {
			return bad("cpu on pll1 with pll1 p output off")
		}
	default:
		return bad("cpu source %d", p.Clock)
	}
	return nil
}

func (p *Plan) anyPLL() bool {
	return p.PLL1.Enable || p.PLL2.Enable || p.PLL3.Enable
}

func divNInRange(n uint16) bool { return n >= 8 && n <= 420 }

// DIVP=2 is not a valid P ratio.
func divPEnabled(d uint8) bool  { return d != 0 && d != 2 && d <= 128 }
func divQREnabled(d uint8) bool { return d != 0 && d <= 128 }
func divSTEnabled(d uint8) bool { return d != 0 && d <= 8 }

func (o Output) enabled(d uint8) bool {
	switch o {
	case P:
		return divPEnabled(d)
	case Q, R:
		return divQREnabled(d)
	}
	return divSTEnabled(d)
}

func (pll *PLL) divider(o Output) uint8 {
	return [...]uint8{pll.DIVP, pll.DIVQ, pll.DIVR, pll.DIVS, pll.DIVT}[o]
}
