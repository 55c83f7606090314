// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package gpio configures and drives the STM32H7S3 general purpose i/o
// ports.
package gpio

import (
	"fmt"
	"sort"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/rcc"
)

const (
	BaseA  = 0x58020000
	Stride = 0x400
	NPorts = 16
)

const (
	MODER   hw.Reg = 0x00
	OTYPER  hw.Reg = 0x04
	OSPEEDR hw.Reg = 0x08
	PUPDR   hw.Reg = 0x0c
	IDR     hw.Reg = 0x10
	ODR     hw.Reg = 0x14
	BSRR    hw.Reg = 0x18
	AFRL    hw.Reg = 0x20
	AFRH    hw.Reg = 0x24
)

type Mode uint32

const (
	Input Mode = iota
	Output
	Alternate
	Analog
)

type OutputType uint32

const (
	PushPull OutputType = iota
	OpenDrain
)

type Speed uint32

const (
	Low Speed = iota
	Medium
	High
	VeryHigh
)

type Pull uint32

const (
	NoPull Pull = iota
	PullUp
	PullDown
)

type Config struct {
	Mode  Mode
	Type  OutputType
	Speed Speed
	Pull  Pull
	// AF is the alternate function number; used in Alternate mode only.
	AF uint32
}

// Pin is a port letter index in the high bits and the pin index in the
// low four.
type Pin uint32

const PinIndexMask Pin = 0xf

func P(port byte, n int) Pin { return Pin(port-'A')<<4 | Pin(n)&PinIndexMask }

func (p Pin) Port() int  { return int(p >> 4) }
func (p Pin) Index() int { return int(p & PinIndexMask) }
func (p Pin) Mask() uint32 {
	return 1 << uint(p.Index())
}

func (p Pin) String() string {
	return fmt.Sprintf("P%c%d", 'A'+byte(p.Port()), p.Index())
}

type PinMap map[string]Pin

func (m PinMap) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type GPIO struct {
	Bus   hw.Bus
	Gates rcc.Gates
}

func New(bus hw.Bus) *GPIO {
	return &GPIO{Bus: bus, Gates: rcc.NewGates(bus)}
}

func (g *GPIO) Port(port int) hw.Block {
	return hw.Block{Bus: g.Bus, Base: BaseA + uint32(port)*Stride}
}

func (g *GPIO) EnableClock(pins ...Pin) {
	var mask uint32
	for _, p := range pins {
		mask |= rcc.GPIOEN(p.Port())
	}
	g.Gates.Enable(rcc.AHB4ENR, mask)
}

// Configure programs mode, output type, speed, pull and, in alternate
// mode, the function of each pin, in that order.
func (g *GPIO) Configure(c Config, pins ...Pin) {
	for _, p := range pins {
		b := g.Port(p.Port())
		i := uint8(p.Index())
		two := hw.Field{Shift: 2 * i, Width: 2}
		two.Set(b, MODER, uint32(c.Mode))
		hw.Field{Shift: i, Width: 1}.Set(b, OTYPER, uint32(c.Type))
		two.Set(b, OSPEEDR, uint32(c.Speed))
		two.Set(b, PUPDR, uint32(c.Pull))
		if c.Mode == Alternate {
			afr := AFRL
			if i >= 8 {
				afr, i = AFRH, i-8
			}
			hw.Field{Shift: 4 * i, Width: 4}.Set(b, afr, c.AF)
		}
	}
}

func (g *GPIO) Set(p Pin)   { BSRR.Set(g.Port(p.Port()), p.Mask()) }
func (g *GPIO) Reset(p Pin) { BSRR.Set(g.Port(p.Port()), p.Mask()<<16) }

func (g *GPIO) Write(p Pin, v bool) {
	if v {
		g.Set(p)
	} else {
		g.Reset(p)
	}
}

func (g *GPIO) Toggle(p Pin) {
	b := g.Port(p.Port())
	ODR.Set(b, ODR.Get(b)^p.Mask())
}

// Get reads the input data register.
func (g *GPIO) Get(p Pin) bool { return IDR.IsSet(g.Port(p.Port()), p.Mask()) }

// Output reads back the output data register.
func (g *GPIO) Output(p Pin) bool { return ODR.IsSet(g.Port(p.Port()), p.Mask()) }

// Mode reads back the configured mode of p.
func (g *GPIO) Mode(p Pin) Mode {
	return Mode(hw.Field{Shift: 2 * uint8(p.Index()), Width: 2}.Read(g.Port(p.Port()), MODER))
}

// Octospi are the XSPI2 port N pins of the NUCLEO-H7S3L8 octal flash.
var Octospi = PinMap{
	"dqs": P('N', 0),
	"ncs": P('N', 1),
	"io0": P('N', 2),
	"io1": P('N', 3),
	"io2": P('N', 4),
	"io3": P('N', 5),
	"clk": P('N', 6),
	"io4": P('N', 8),
	"io5": P('N', 9),
	"io6": P('N', 10),
	"io7": P('N', 11),
}

var OctospiConfig = Config{
	Mode:  Alternate,
	Type:  PushPull,
	Speed: VeryHigh,
	Pull:  NoPull,
	AF:    9,
}

// InitOctospi clocks ports A and N and configures the octospi pins.
func (g *GPIO) InitOctospi() {
	g.EnableClock(P('A', 0), P('N', 0))
	for _, name := range Octospi.Names() {
		g.Configure(OctospiConfig, Octospi[name])
	}
}

// LED is an active high output pin.
type LED struct {
	*GPIO
	Pin Pin
}

var LEDConfig = Config{Mode: Output, Type: PushPull, Speed: Low, Pull: NoPull}

func (l LED) Init() {
	l.EnableClock(l.Pin)
	l.Reset(l.Pin)
	l.Configure(LEDConfig, l.Pin)
}

func (l LED) On()        { l.Set(l.Pin) }
func (l LED) Off()       { l.Reset(l.Pin) }
func (l LED) Toggle()    { l.GPIO.Toggle(l.Pin) }
func (l LED) IsOn() bool { return l.Output(l.Pin) }
