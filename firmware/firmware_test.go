// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package firmware_test

import (
	"errors"
	"testing"

	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/boot"
	. "github.com/platinasystems/h7s3/firmware"
	"github.com/platinasystems/h7s3/gpio"
	"github.com/platinasystems/h7s3/internal/model"
)

var errSpun = errors.New("spun")

type fixture struct {
	b      *model.Board
	masked int
	jumps  [][2]uint32
	t      Target
}

func setup() *fixture {
	f := &fixture{b: model.NewBoard()}
	f.t = Target{
		Bus:               f.b.Bus,
		DisableInterrupts: func() { f.masked++ },
		Jumper: boot.JumperFunc(func(sp, pc uint32) {
			f.jumps = append(f.jumps, [2]uint32{sp, pc})
		}),
		Spin: func() { panic(errSpun) },
	}
	return f
}

// halted runs f and reports whether it ended in the halt loop.
func halted(f func() error) (spun bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if r != errSpun {
				panic(r)
			}
			spun = true
		}
	}()
	err = f()
	return
}

func (f *fixture) led(p gpio.Pin) bool { return gpio.New(f.b.Bus).Output(p) }

func TestBoot(t *testing.T) {
	f := setup()
	b := Boot(f.t)
	b.SetTick(f.b.Tick)
	if spun, err := halted(b.Run); spun || err != nil {
		t.Fatal(spun, err)
	}
	if len(f.jumps) != 1 || f.jumps[0] != [2]uint32{model.ImageSP, model.ImagePC} {
		t.Errorf("jumps %#x", f.jumps)
	}
	if f.masked != 0 {
		t.Error("interrupts masked")
	}
	n := b.SysTick.Tick()
	SysTick()
	SysTick()
	if got := b.SysTick.Tick() - n; got != 2 {
		t.Error("systick counted", got)
	}
}

func TestBootHalt(t *testing.T) {
	f := setup()
	f.b.RCC.HSE = false
	b := Boot(f.t)
	b.SetTick(f.b.Tick)
	spun, err := halted(b.Run)
	if !spun {
		t.Fatal("returned", err)
	}
	if f.masked != 1 {
		t.Error("masked", f.masked)
	}
	if !f.led(board.LEDRed) || f.led(board.LEDGreen) || f.led(board.LEDYellow) {
		t.Error("red not alone")
	}
	if len(f.jumps) != 0 {
		t.Error("jumped")
	}
}

func TestApp(t *testing.T) {
	f := setup()
	a := App(f.t)
	a.SetTick(f.b.Tick)
	if spun, err := halted(a.Run); spun || err != nil {
		t.Fatal(spun, err)
	}
	if !a.MAC.Running() || a.MAC.Rx.Built() != board.RxCount {
		t.Error("rx not running with buffers", a.MAC.Rx.Built())
	}
	n := a.SysTick.Tick()
	SysTick()
	if a.SysTick.Tick() != n+1 {
		t.Error("systick not routed to app")
	}
}

func TestAppHalt(t *testing.T) {
	f := setup()
	delete(f.b.ETH.PHYs, 0)
	a := App(f.t)
	a.SetTick(f.b.Tick)
	if spun, err := halted(a.Run); !spun {
		t.Fatal("returned", err)
	}
	if f.masked != 1 || !a.Red.IsOn() || a.Yellow.IsOn() || a.Green.IsOn() {
		t.Error("wrong halt", f.masked, a.Red.IsOn(), a.Yellow.IsOn())
	}
	if a.MAC.Running() {
		t.Error("started")
	}
}
