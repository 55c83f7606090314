// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package boot_test

import (
	"errors"
	"testing"

	"github.com/platinasystems/h7s3/board"
	. "github.com/platinasystems/h7s3/boot"
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/flash"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/mx25uw"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/scb"
	"github.com/platinasystems/h7s3/tick"
	"github.com/platinasystems/h7s3/xspi"
)

type fixture struct {
	bus   *sim.Bus
	rcc   *model.RCC
	flash *model.Flash
	xspi  *model.XSPI
	h     *halt.Recorder
	boot  *Boot
	sp    []uint32
}

// image is the start of a vector table: initial stack and reset.
var image = []byte{0x00, 0x10, 0x02, 0x24, 0x91, 0x01, 0x00, 0x70}

func setup() *fixture {
	b := &fixture{bus: sim.New(), h: new(halt.Recorder)}
	b.rcc = model.NewRCC(b.bus)
	model.NewPWR(b.bus)
	b.flash = model.NewFlash(b.bus)
	model.NewGPIO(b.bus)
	f := model.NewMX25UW()
	for i, c := range image {
		f.Mem[uint32(i)] = c
	}
	b.xspi = model.NewXSPI(b.bus, f)
	b.boot = New(b.bus, b.h, JumperFunc(func(sp, pc uint32) {
		b.sp = append(b.sp, sp, pc)
	}))
	b.boot.SetTick(tick.NewStepper(0, 1))
	return b
}

func TestRun(t *testing.T) {
	b := setup()
	if err := b.boot.Run(); err != nil {
		t.Fatal(err)
	}
	if b.h.Count() != 0 {
		t.Error("halted:", b.h.Err())
	}
	if len(b.sp) != 2 || b.sp[0] != 0x24021000 || b.sp[1] != 0x70000191 {
		t.Errorf("jump %#x", b.sp)
	}
	s := scb.New(b.bus)
	if s.VectorTable() != board.BootVectors || !s.FPUEnabled() {
		t.Errorf("vtor %#x", s.VectorTable())
	}
	if got := b.boot.SysTick.Reload(); got != board.CPUHz/1000-1 {
		t.Error("systick reload", got)
	}
	if !b.flash.HSLV() || !b.boot.Programmed {
		t.Error("hslv not programmed")
	}
	if got := flash.New(b.bus, nil).Latency(); got != board.FlashLatency {
		t.Error("latency", got)
	}
	if got := b.boot.RCC.CPUSource(); got != rcc.CPUSourcePLL1 {
		t.Error("cpu source", got)
	}
	if b.xspi.Flash.Interface != mx25uw.OPIDTR || b.boot.Flash.Interface != mx25uw.OPIDTR {
		t.Error("flash interface", b.xspi.Flash.Interface)
	}
	if !b.xspi.Mapped || b.boot.XSPI.Mode() != xspi.MemoryMapped {
		t.Error("not mapped")
	}
	if p := b.boot.XSPI.Prescaler(); p != 0 {
		t.Error("prescaler", p)
	}
	for _, v := range append(b.rcc.Violations(), b.xspi.Violations()...) {
		t.Error(v)
	}
	for _, v := range b.flash.Violations() {
		t.Error(v)
	}
}

func TestRunProgrammedHSLV(t *testing.T) {
	b := setup()
	b.bus.Put(flash.Base+flash.OBW1SR.Offset(), flash.XSPI2HSLV)
	if err := b.boot.Run(); err != nil {
		t.Fatal(err)
	}
	if b.boot.Programmed {
		t.Error("reprogrammed option byte")
	}
}

func TestRunErrors(t *testing.T) {
	b := setup()
	b.rcc.HSE = false
	err := b.boot.Run()
	if !errors.Is(err, rcc.ErrTimedOut) {
		t.Error("dead crystal wrong:", err)
	}
	if b.h.Count() != 1 || b.h.Err() != err {
		t.Error("halter", b.h.Count(), b.h.Err())
	}
	if len(b.sp) != 0 {
		t.Error("jumped")
	}

	b = setup()
	b.xspi.Flash.ID[0] = 0xef
	if err = b.boot.Run(); !errors.Is(err, mx25uw.ErrID) {
		t.Error("foreign flash wrong:", err)
	}

	b = setup()
	for a := range b.xspi.Flash.Mem {
		delete(b.xspi.Flash.Mem, a)
	}
	if err = b.boot.Run(); !errors.Is(err, ErrNoImage) {
		t.Error("erased flash wrong:", err)
	}
	if len(b.sp) != 0 {
		t.Error("jumped")
	}
}
