// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rcc

import (
	"errors"
	"fmt"
	"strings"
)

const (
	HSIHz = 64000000
	CSIHz = 4000000
)

var ErrUnknownFrequency = errors.New("frequency not determined by plan")

// State is the set of frequencies a Plan produces, in Hz.  An output
// that is off reads 0.
type State struct {
	CPU, Bus               uint32
	APB1, APB2, APB4, APB5 uint32
	// PLL[n][o] is output o of PLL n; index 0 is unused.
	PLL [4][5]uint32
	VCO [4]uint32
}

// Frequencies computes the State of p with an external oscillator of hse
// Hz.  It fails where the sequencer would leave a field untouched, since
// the result would depend on what was there before.
func Frequencies(p Plan, hse uint32) (st State, err error) {
	if err = p.Validate(); err != nil {
		return
	}
	var ref uint32
	switch p.PLLSource {
	case PLLSourceHSI:
		ref = HSIHz
	case PLLSourceCSI:
		ref = CSIHz
	case PLLSourceHSE:
		ref = hse
	}
	for n := 1; n <= 3; n++ {
		pll := p.pll(n)
		if !pll.Enable {
			continue
		}
		if !divNInRange(pll.DIVN) {
			err = fmt.Errorf("%w: pll%d divn %d", ErrUnknownFrequency,
				n, pll.DIVN)
			return
		}
		in := uint64(ref) / uint64(p.divm(n))
		// vco = in * (divn + fracn/8192)
		vco := (in*uint64(pll.DIVN)*8192 + in*uint64(pll.FRACN)) / 8192
		st.VCO[n] = uint32(vco)
		for o := P; o <= T; o++ {
			if o == T && n != 2 {
				break
			}
			if d := pll.divider(o); o.enabled(d) {
				st.PLL[n][o] = uint32(vco / uint64(d))
			}
		}
	}
	var sys uint32
	switch p.Clock {
	case CPUSourceHSI:
		sys = HSIHz
	case CPUSourceCSI:
		sys = CSIHz
	case CPUSourceHSE:
		sys = hse
	case CPUSourcePLL1:
		sys = st.PLL[1][P]
	}
	st.CPU = sys / p.CPU.Divisor()
	st.Bus = st.CPU / p.Bus.Divisor()
	st.APB1 = st.Bus / p.APB1.Divisor()
	st.APB2 = st.Bus / p.APB2.Divisor()
	st.APB4 = st.Bus / p.APB4.Divisor()
	st.APB5 = st.Bus / p.APB5.Divisor()
	return
}

func mhz(hz uint32) string {
	if hz%1000000 == 0 {
		return fmt.Sprint(hz/1000000, "MHz")
	}
	return fmt.Sprintf("%.3fMHz", float64(hz)/1e6)
}

func (st State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cpu %s bus %s apb1 %s apb2 %s apb4 %s apb5 %s",
		mhz(st.CPU), mhz(st.Bus), mhz(st.APB1), mhz(st.APB2),
		mhz(st.APB4), mhz(st.APB5))
	for n := 1; n <= 3; n++ {
		if st.VCO[n] == 0 {
			continue
		}
		fmt.Fprintf(&b, "\npll%d vco %s", n, mhz(st.VCO[n]))
		for o := P; o <= T; o++ {
			if f := st.PLL[n][o]; f != 0 {
				fmt.Fprintf(&b, " %v %s", o, mhz(f))
			}
		}
	}
	return b.String()
}
