// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package app_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/soypat/lneto/phy"

	. "github.com/platinasystems/h7s3/app"
	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/lan8742"
	"github.com/platinasystems/h7s3/scb"
	"github.com/platinasystems/h7s3/tick"
)

type fixture struct {
	bus *sim.Bus
	eth *model.ETH
	phy *model.PHY
	h   *halt.Recorder
	app *App
}

func setup(link bool) *fixture {
	f := &fixture{bus: sim.New(), h: new(halt.Recorder)}
	f.eth = model.NewETH(f.bus)
	model.NewGPIO(f.bus)
	f.phy = model.NewPHY(0)
	f.phy.Link, f.phy.AutoDone = link, link
	f.eth.Attach(f.phy)
	f.app = New(f.bus, f.h)
	f.app.SetTick(tick.NewStepper(0, 1))
	f.h.Indicate = f.app.Indicate
	return f
}

func TestRun(t *testing.T) {
	f := setup(true)
	f.phy.Mode = phy.Link10FDX
	a := f.app
	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	if f.h.Count() != 0 {
		t.Error("halted:", f.h.Err())
	}
	if a.Link != phy.Link10FDX {
		t.Error("link", a.Link)
	}
	if mbps, full := a.MAC.Link(); mbps != 10 || !full {
		t.Error("mac link", mbps, full)
	}
	if !a.MAC.Running() {
		t.Error("mac not started")
	}
	if a.Yellow.IsOn() || a.Red.IsOn() || a.Green.IsOn() {
		t.Error("leds", a.Green.IsOn(), a.Yellow.IsOn(), a.Red.IsOn())
	}
	if v := scb.New(f.bus).VectorTable(); v != board.AppVectors {
		t.Errorf("vtor %#x", v)
	}
	if got := a.SysTick.Reload(); got != board.CPUHz/1000-1 {
		t.Error("systick reload", got)
	}
	if f.phy.Resets != 1 {
		t.Error("phy resets", f.phy.Resets)
	}
	rx := a.MAC.Rx
	if rx.Built() != board.RxCount || rx.Pending() != 0 {
		t.Error("rx built", rx.Built(), "pending", rx.Pending())
	}
	if rx.Tail() != rx.Addr(board.RxCount-1) {
		t.Errorf("rx tail %#x", rx.Tail())
	}
	for i := 0; i < rx.Capacity(); i++ {
		if rx.Word(i, eth.DES3)&eth.RDES3OWN == 0 {
			t.Error("descriptor", i, "not owned by dma")
		}
	}
	a.Heartbeat(1)
	if !a.Green.IsOn() {
		t.Error("no heartbeat")
	}
	a.Heartbeat(1)
	if a.Green.IsOn() {
		t.Error("heartbeat stuck on")
	}
	for _, v := range f.eth.Violations() {
		t.Error(v)
	}
}

func TestRunErrors(t *testing.T) {
	f := setup(true)
	delete(f.eth.PHYs, 0)
	err := f.app.Run()
	if !errors.Is(err, lan8742.ErrAddress) {
		t.Error("no phy wrong:", err)
	}
	if f.h.Err() != err {
		t.Error("halter", f.h.Err())
	}
	if !f.app.Red.IsOn() || f.app.Yellow.IsOn() {
		t.Error("error not indicated")
	}

	f = setup(false)
	f.app.LinkTimeout = 3000
	if err = f.app.Run(); !errors.Is(err, eth.ErrLinkDown) {
		t.Error("no link wrong:", err)
	}
	if f.app.MAC.Running() || !f.app.Red.IsOn() {
		t.Error("started without link")
	}

	f = setup(false)
	f.phy.Link = true
	f.app.LinkTimeout = 3000
	if err = f.app.Run(); !errors.Is(err, eth.ErrLinkDown) {
		t.Error("negotiation stuck wrong:", err)
	}

	f = setup(true)
	f.eth.StuckReset = true
	if err = f.app.Run(); !errors.Is(err, tick.ErrTimeout) {
		t.Error("dma reset wrong:", err)
	}
}

func TestPoll(t *testing.T) {
	f := setup(true)
	a := f.app
	if err := a.Run(); err != nil {
		t.Fatal(err)
	}
	var want [][]byte
	for i := 0; i < 2*board.RxCount; i++ {
		p := make([]byte, 60+i)
		for j := range p {
			p[j] = byte(i + j)
		}
		if !f.eth.Deliver(p) {
			t.Fatal("frame", i, "dropped")
		}
		want = append(want, p)
		if i%2 == 1 {
			got := a.Poll()
			if len(got) != 2 || !bytes.Equal(got[0], want[0]) || !bytes.Equal(got[1], want[1]) {
				t.Fatalf("frames %d: %x", i, got)
			}
			want = want[:0]
		}
	}
	if a.Received != 2*board.RxCount {
		t.Error("received", a.Received)
	}
	if a.MAC.Rx.Built() != board.RxCount {
		t.Error("not refilled", a.MAC.Rx.Built())
	}
	for _, v := range f.eth.Violations() {
		t.Error(v)
	}
}
