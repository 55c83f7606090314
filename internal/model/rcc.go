// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package model

import (
	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/rcc"
)

// RCC reset values the sequencer is expected to overwrite or, for out of
// range requests, leave alone.
const (
	ResetPLLCKSELR = 0x02020200
	ResetPLLDIVR1  = 0x01010280
	ResetPLLDIVR2  = 0x00000101
)

// RCC follows the oscillator and PLL enables with their ready flags and
// the clock switch with its status mirror.  Clearing HSE makes the
// crystal dead; Stuck PLLs never lock; a stuck switch never confirms.
type RCC struct {
	Journal
	Bus         *sim.Bus
	HSE         bool
	StuckPLL    [4]bool
	StuckSwitch bool
}

func NewRCC(bus *sim.Bus) *RCC {
	m := &RCC{Bus: bus, HSE: true}
	a := func(r hw.Reg) uint32 { return rcc.Base + r.Offset() }

	bus.Put(a(rcc.CR), rcc.HSION|rcc.HSIRDY)
	bus.Put(a(rcc.PLLCKSELR), ResetPLLCKSELR)
	for _, r := range []hw.Reg{rcc.PLL1DIVR1, rcc.PLL2DIVR1, rcc.PLL3DIVR1} {
		bus.Put(a(r), ResetPLLDIVR1)
	}
	for _, r := range []hw.Reg{rcc.PLL1DIVR2, rcc.PLL2DIVR2, rcc.PLL3DIVR2} {
		bus.Put(a(r), ResetPLLDIVR2)
	}

	const rdy = rcc.HSIRDY | rcc.CSIRDY | rcc.HSERDY |
		rcc.PLL1RDY | rcc.PLL2RDY | rcc.PLL3RDY
	bus.OnWrite(a(rcc.CR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		v &^= rdy
		if v&rcc.HSION != 0 {
			v |= rcc.HSIRDY
		}
		if v&rcc.CSION != 0 {
			v |= rcc.CSIRDY
		}
		if v&rcc.HSEON != 0 && m.HSE {
			v |= rcc.HSERDY
		}
		sws := rcc.SWS.Get(b.Peek(a(rcc.CFGR)))
		for n, bits := range [][2]uint32{
			1: {rcc.PLL1ON, rcc.PLL1RDY},
			2: {rcc.PLL2ON, rcc.PLL2RDY},
			3: {rcc.PLL3ON, rcc.PLL3RDY},
		} {
			if n == 0 {
				continue
			}
			on := v&bits[0] != 0
			if n == 1 && !on && sws == uint32(rcc.CPUSourcePLL1) {
				m.violate("pll1 stopped while clocking the cpu")
				v |= bits[0]
				on = true
			}
			if on && !m.StuckPLL[n] && m.pllInputReady(b, v) {
				v |= bits[1]
			}
		}
		return v
	})

	bus.OnWrite(a(rcc.CFGR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		sw := rcc.SW.Get(v)
		sws := rcc.SWS.Get(old)
		cr := b.Peek(a(rcc.CR))
		ok := false
		switch rcc.CPUSource(sw) {
		case rcc.CPUSourceHSI:
			ok = cr&rcc.HSIRDY != 0
		case rcc.CPUSourceCSI:
			ok = cr&rcc.CSIRDY != 0
		case rcc.CPUSourceHSE:
			ok = cr&rcc.HSERDY != 0
		case rcc.CPUSourcePLL1:
			ok = cr&rcc.PLL1RDY != 0
		}
		if ok && !m.StuckSwitch {
			sws = sw
		}
		return v&^rcc.SWS.Mask() | rcc.SWS.Put(sws)
	})

	// Configuration of a running PLL is ignored by the hardware.
	guard := func(n string, on uint32) sim.WriteHook {
		return func(b *sim.Bus, addr, old, v uint32) uint32 {
			m.write(addr, v)
			if b.Peek(a(rcc.CR))&on != 0 && v != old {
				m.violate("pll%s reconfigured while on: %#x", n, addr)
				return old
			}
			return v
		}
	}
	bus.OnWrite(a(rcc.PLL1DIVR1), guard("1", rcc.PLL1ON))
	bus.OnWrite(a(rcc.PLL2DIVR1), guard("2", rcc.PLL2ON))
	bus.OnWrite(a(rcc.PLL3DIVR1), guard("3", rcc.PLL3ON))
	bus.OnWrite(a(rcc.PLL1DIVR2), guard("1", rcc.PLL1ON))
	bus.OnWrite(a(rcc.PLL2DIVR2), guard("2", rcc.PLL2ON))
	bus.OnWrite(a(rcc.PLL3DIVR2), guard("3", rcc.PLL3ON))
	bus.OnWrite(a(rcc.PLL1FRACR), guard("1", rcc.PLL1ON))
	bus.OnWrite(a(rcc.PLL2FRACR), guard("2", rcc.PLL2ON))
	bus.OnWrite(a(rcc.PLL3FRACR), guard("3", rcc.PLL3ON))
	bus.OnWrite(a(rcc.PLLCKSELR), guard("s", rcc.PLL1ON|rcc.PLL2ON|rcc.PLL3ON))
	for _, r := range []hw.Reg{
		rcc.PLLCFGR, rcc.CDCFGR, rcc.BMCFGR, rcc.APBCFGR, rcc.CCIPR1,
		rcc.AHB1ENR, rcc.AHB4ENR, rcc.AHB5ENR, rcc.APB4ENR, rcc.CKPROTR,
	} {
		bus.OnWrite(a(r), keep(&m.Journal, 0))
	}
	return m
}

func (m *RCC) pllInputReady(b *sim.Bus, cr uint32) bool {
	src := rcc.PLLSRC.Get(b.Peek(rcc.Base + rcc.PLLCKSELR.Offset()))
	switch rcc.PLLSource(src) {
	case rcc.PLLSourceHSI:
		return cr&rcc.HSIRDY != 0
	case rcc.PLLSourceCSI:
		return cr&rcc.CSIRDY != 0
	case rcc.PLLSourceHSE:
		return cr&rcc.HSERDY != 0
	}
	return false
}

// Reg reads an RCC register without side effects.
func (m *RCC) Reg(r hw.Reg) uint32 {
	return m.Bus.Get(rcc.Base + r.Offset())
}

// Config is the whole RCC register file.
func (m *RCC) Config() map[uint32]uint32 {
	return m.Bus.Snapshot(rcc.Base, rcc.Base+0x400)
}
