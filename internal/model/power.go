// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package model

import (
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/flash"
	"github.com/platinasystems/h7s3/pwr"
)

// PWR sets the ready flags as soon as a configuration is written.
type PWR struct {
	Journal
	Bus *sim.Bus
	// Unstable keeps the supply from ever reporting ready.
	Unstable bool
}

func NewPWR(bus *sim.Bus) *PWR {
	m := &PWR{Bus: bus}
	bus.Put(pwr.Base+pwr.CSR2.Offset(), uint32(pwr.SupplyDefault))
	bus.OnWrite(pwr.Base+pwr.CSR2.Offset(), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		b.PokeBits(pwr.Base+pwr.SR1.Offset(), pwr.ACTVOSRDY, !m.Unstable)
		return v
	})
	bus.OnWrite(pwr.Base+pwr.CSR4.Offset(), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		return v | pwr.VOSRDY
	})
	return m
}

// Flash models the option byte unlock and program sequence.  A program
// keeps QW set for QWReads reads of SR.
type Flash struct {
	Journal
	Bus     *sim.Bus
	QWReads int

	keys, qw int
}

func NewFlash(bus *sim.Bus) *Flash {
	m := &Flash{Bus: bus, QWReads: 2}
	a := func(off uint32) uint32 { return flash.Base + off }
	bus.Put(a(flash.OPTCR.Offset()), flash.OPTLOCK)
	bus.OnWrite(a(flash.OPTKEYR.Offset()), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		switch {
		case m.keys == 0 && v == flash.OptKey1:
			m.keys = 1
		case m.keys == 1 && v == flash.OptKey2:
			m.keys = 0
			b.PokeBits(a(flash.OPTCR.Offset()), flash.OPTLOCK, false)
		default:
			m.keys = 0
			m.violate("bad option key sequence %#x", v)
		}
		return 0
	})
	bus.OnWrite(a(flash.OPTCR.Offset()), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		if old&flash.OPTLOCK != 0 {
			if v != old {
				m.violate("option control written while locked")
			}
			return old
		}
		return v
	})
	bus.OnWrite(a(flash.OBW1SRP.Offset()), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		if b.Peek(a(flash.OPTCR.Offset()))&(flash.OPTLOCK|flash.PGOPT) != flash.PGOPT {
			m.violate("option byte written without program enable")
			return old
		}
		b.Poke(a(flash.OBW1SR.Offset()), v)
		b.PokeBits(a(flash.SR.Offset()), flash.QW, true)
		m.qw = m.QWReads
		return v
	})
	bus.OnRead(a(flash.SR.Offset()), func(b *sim.Bus, addr, v uint32) uint32 {
		if m.qw > 0 {
			m.qw--
			if m.qw == 0 {
				b.PokeBits(addr, flash.QW, false)
			}
		}
		return v
	})
	return m
}

// HSLV reports the XSPI2 high speed low voltage option.
func (m *Flash) HSLV() bool {
	return m.Bus.Get(flash.Base+flash.OBW1SR.Offset())&flash.XSPI2HSLV != 0
}
