// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package firmware builds the loader and the application for a target
// with the production fatal policy: interrupts masked, red lit, spin.
package firmware

import (
	"sync/atomic"

	"github.com/platinasystems/h7s3/app"
	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/boot"
	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/gpio"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/tick"
)

// Target is what differs between the core and a host run.
type Target struct {
	Bus               hw.Bus
	DisableInterrupts func()
	// Jumper leaves the loader; the application has none.
	Jumper boot.Jumper
	// Spin is called each pass of the halt loop.
	Spin func()
}

func (t Target) halter(indicate func()) halt.Loop {
	return halt.Loop{
		DisableInterrupts: t.DisableInterrupts,
		Indicate:          indicate,
		Spin:              t.Spin,
	}
}

var systick atomic.Pointer[tick.SysTick]

// SysTick is the body of the SysTick exception vector.  It counts for
// whichever image was built last.
func SysTick() {
	if st := systick.Load(); st != nil {
		st.Handler()
	}
}

// Boot returns the loader.  The loader drives no LEDs of its own, so a
// halt brings the red one up from reset state.
func Boot(t Target) *boot.Boot {
	b := boot.New(t.Bus, nil, t.Jumper)
	b.Halter = t.halter(func() { Indicate(t.Bus) })
	systick.Store(b.SysTick)
	return b
}

// App returns the application; a halt lights red with its LEDs.
func App(t Target) *app.App {
	a := app.New(t.Bus, nil)
	a.Halter = t.halter(a.Indicate)
	systick.Store(a.SysTick)
	return a
}

// Indicate lights the red LED alone.
func Indicate(bus hw.Bus) {
	g := gpio.New(bus)
	for _, p := range []gpio.Pin{board.LEDGreen, board.LEDYellow, board.LEDRed} {
		gpio.LED{GPIO: g, Pin: p}.Init()
	}
	g.Set(board.LEDRed)
}
