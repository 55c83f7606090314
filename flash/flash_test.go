// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package flash_test

import (
	"errors"
	"testing"

	"github.com/platinasystems/h7s3/elib/hw/sim"
	. "github.com/platinasystems/h7s3/flash"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/tick"
)

func TestInit(t *testing.T) {
	bus := sim.New()
	f := New(bus, nil)
	f.Init(7, 3)
	if got := f.Latency(); got != 7 {
		t.Error("latency", got)
	}
	if got := WRHIGHFREQ.Read(f.Block, ACR); got != 3 {
		t.Error("wrhighfreq", got)
	}
}

func TestEnsureXSPI2HSLV(t *testing.T) {
	bus := sim.New()
	m := model.NewFlash(bus)
	f := New(bus, tick.NewStepper(0, 1))
	programmed, err := f.EnsureXSPI2HSLV()
	if err != nil || !programmed {
		t.Fatal(programmed, err)
	}
	if !m.HSLV() {
		t.Error("option not set")
	}
	if !OPTCR.IsSet(f.Block, OPTLOCK) || OPTCR.IsSet(f.Block, PGOPT) {
		t.Errorf("optcr left %#x", OPTCR.Get(f.Block))
	}
	if programmed, err = f.EnsureXSPI2HSLV(); err != nil || programmed {
		t.Error("reprogrammed", programmed, err)
	}
	for _, v := range m.Violations() {
		t.Error(v)
	}
}

func TestEnsureXSPI2HSLVStuck(t *testing.T) {
	bus := sim.New()
	m := model.NewFlash(bus)
	m.QWReads = -1
	f := New(bus, tick.NewStepper(0, 10))
	if _, err := f.EnsureXSPI2HSLV(); !errors.Is(err, tick.ErrTimeout) {
		t.Error("stuck program wrong:", err)
	}
	if !OPTCR.IsSet(f.Block, OPTLOCK) {
		t.Error("left unlocked")
	}
}
