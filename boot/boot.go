// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package boot is the first stage loader: it brings the clocks, supply
// and octal flash up, maps the flash and jumps to the image there.
package boot

import (
	"errors"
	"fmt"

	"github.com/platinasystems/log"

	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/flash"
	"github.com/platinasystems/h7s3/gpio"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/mx25uw"
	"github.com/platinasystems/h7s3/pwr"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/scb"
	"github.com/platinasystems/h7s3/tick"
	"github.com/platinasystems/h7s3/xspi"
)

var ErrNoImage = errors.New("no image")

// Jumper transfers control to an image given its initial stack pointer
// and reset vector.  On target it does not return.
type Jumper interface {
	Jump(sp, pc uint32)
}

type JumperFunc func(sp, pc uint32)

func (f JumperFunc) Jump(sp, pc uint32) { f(sp, pc) }

type Boot struct {
	Bus     hw.Bus
	SysTick *tick.SysTick
	// Tick times every wait.  On target it is SysTick.
	Tick   tick.Source
	Halter halt.Halter
	Jumper Jumper
	Plan   rcc.Plan

	RCC   *rcc.Sequencer
	XSPI  *xspi.Controller
	Flash *mx25uw.MX25UW
	// Programmed reports that Run set the XSPI2 HSLV option byte.
	Programmed bool
}

func New(bus hw.Bus, h halt.Halter, j Jumper) *Boot {
	st := tick.NewSysTick(bus)
	b := &Boot{
		Bus:     bus,
		SysTick: st,
		Tick:    st,
		Halter:  h,
		Jumper:  j,
		Plan:    board.BootClockPlan,
	}
	b.RCC = rcc.New(bus, st)
	b.XSPI = xspi.New(bus, xspi.XSPI2Base, st)
	b.Flash = mx25uw.New(b.XSPI)
	return b
}

// SetTick replaces the time base of every driver.
func (b *Boot) SetTick(src tick.Source) {
	b.Tick = src
	b.RCC.Tick = src
	b.XSPI.Tick = src
}

type step struct {
	name string
	f    func() error
}

func (b *Boot) steps() []step {
	return []step{
		{"vectors", b.vectors},
		{"systick hsi", func() error { return b.SysTick.Configure(rcc.HSIHz) }},
		{"pwr", func() error {
			return pwr.New(b.Bus, b.Tick).Init(board.Supply, board.VoltageScale)
		}},
		{"flash", b.flash},
		{"rcc", func() error { return b.RCC.Init(b.Plan) }},
		{"systick cpu", b.cpuTick},
		{"gpio", func() error {
			gpio.New(b.Bus).InitOctospi()
			return nil
		}},
		{"xspi", func() error {
			b.XSPI.Init()
			return nil
		}},
		{"mx25uw", b.Flash.Init},
		{"opi dtr", b.opiDTR},
		{"memory mapped", func() error {
			b.XSPI.MaxFrequency()
			return b.Flash.MemoryMapped()
		}},
		{"jump", b.jump},
	}
}

// Run brings the board up and jumps to the mapped image.  The first
// failure is handed to the Halter and returned.
func (b *Boot) Run() error {
	for _, s := range b.steps() {
		log.Print("info", "boot: ", s.name)
		if err := s.f(); err != nil {
			err = fmt.Errorf("boot: %s: %w", s.name, err)
			b.Halter.Halt(err)
			return err
		}
	}
	return nil
}

func (b *Boot) vectors() error {
	s := scb.New(b.Bus)
	s.SetVectorTable(board.BootVectors)
	s.EnableFPU()
	return nil
}

func (b *Boot) flash() (err error) {
	f := flash.New(b.Bus, b.Tick)
	f.Init(board.FlashLatency, board.FlashWrHighFreq)
	if b.Programmed, err = f.EnsureXSPI2HSLV(); b.Programmed {
		log.Print("info", "boot: programmed xspi2 hslv option")
	}
	return
}

func (b *Boot) cpuTick() error {
	st, err := rcc.Frequencies(b.Plan, board.HSE)
	if err != nil {
		return err
	}
	log.Print("info", "boot: ", st)
	return b.SysTick.Configure(st.CPU)
}

// opiDTR switches the flash to octal DTR and reads the identification
// back over the new interface.
func (b *Boot) opiDTR() error {
	log.Print("info", fmt.Sprintf("boot: mx25uw id % x", b.Flash.ID[:]))
	if err := b.Flash.SetupOPIDTR(); err != nil {
		return err
	}
	return b.Flash.Init()
}

func (b *Boot) jump() error {
	sp := b.Bus.Load32(xspi.Window2)
	pc := b.Bus.Load32(xspi.Window2 + 4)
	if sp == 0xffffffff || pc == 0xffffffff || pc == 0 {
		return fmt.Errorf("%w at %#x", ErrNoImage, uint32(xspi.Window2))
	}
	log.Print("info", fmt.Sprintf("boot: sp %#x pc %#x", sp, pc))
	b.Jumper.Jump(sp, pc)
	return nil
}
