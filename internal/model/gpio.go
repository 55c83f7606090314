// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package model

import (
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/gpio"
)

// GPIO applies BSRR to ODR and reads IDR as the output latch or'ed with
// the externally driven Inputs of each port.
type GPIO struct {
	Bus    *sim.Bus
	Inputs [gpio.NPorts]uint32
}

func NewGPIO(bus *sim.Bus) *GPIO {
	m := &GPIO{Bus: bus}
	for port := 0; port < gpio.NPorts; port++ {
		base := uint32(gpio.BaseA + port*gpio.Stride)
		odr := base + gpio.ODR.Offset()
		bus.OnWrite(base+gpio.BSRR.Offset(), func(b *sim.Bus, addr, old, v uint32) uint32 {
			o := b.Peek(odr)
			o |= v & 0xffff
			o &^= v >> 16 &^ (v & 0xffff)
			b.Poke(odr, o)
			return 0
		})
		bus.OnRead(base+gpio.IDR.Offset(), func(b *sim.Bus, addr, v uint32) uint32 {
			return b.Peek(odr)&0xffff | m.Inputs[port]
		})
	}
	return m
}
