// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lan8742_test

import (
	"errors"
	"testing"

	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/lan8742"
	"github.com/platinasystems/h7s3/tick"
)

func setup(addrs ...uint8) (*lan8742.LAN8742, []*model.PHY, *tick.Stepper) {
	bus := sim.New()
	m := model.NewETH(bus)
	src := tick.NewStepper(0, 1)
	mac := eth.New(bus, src, hw.NewDmaRegion(0x24000000, 0x1000))
	var phys []*model.PHY
	for _, a := range addrs {
		p := model.NewPHY(a)
		m.Attach(p)
		phys = append(phys, p)
	}
	return lan8742.New(mac, src), phys, src
}

func TestInit(t *testing.T) {
	p, phys, src := setup(1)
	var steps []string
	p.Trace = func(step string, addr uint8) {
		if addr != 1 {
			t.Error("trace addr", addr)
		}
		steps = append(steps, step)
	}
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	if p.PHYAddr() != 1 {
		t.Error("addr", p.PHYAddr())
	}
	if phys[0].Resets != 1 {
		t.Error("resets", phys[0].Resets)
	}
	if src.Now() < lan8742.Settle {
		t.Error("did not settle:", src.Now())
	}
	if len(steps) != 3 || steps[0] != "found" || steps[2] != "settled" {
		t.Error("steps", steps)
	}
	if id, err := p.ID1(); err != nil || id != 0x0007 {
		t.Error("id1", id, err)
	}
}

func TestInitErrors(t *testing.T) {
	p, _, _ := setup()
	if err := p.Init(); !errors.Is(err, lan8742.ErrAddress) {
		t.Error("no phy wrong:", err)
	}
	p, phys, _ := setup(0)
	phys[0].ResetReads = -1
	if err := p.Init(); !errors.Is(err, tick.ErrTimeout) {
		t.Error("stuck reset wrong:", err)
	}
}

func TestLinkState(t *testing.T) {
	p, phys, _ := setup(0)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	m := phys[0]
	if l, err := p.LinkState(); err != nil || l != phy.LinkDown {
		t.Error("down", l, err)
	}
	m.Link = true
	if _, err := p.LinkState(); !errors.Is(err, lan8742.ErrAutoNegotiationNotDone) {
		t.Error("not done wrong:", err)
	}
	m.AutoDone = true
	for _, l := range []phy.LinkMode{phy.Link100FDX, phy.Link100HDX, phy.Link10FDX, phy.Link10HDX} {
		m.Mode = l
		if got, err := p.LinkState(); err != nil || got != l {
			t.Error(l, "wrong:", got, err)
		}
	}
	for _, x := range []struct {
		bmcr phy.BMCR
		l    phy.LinkMode
	}{
		{phy.BMCRSpeed100 | phy.BMCRFullDuplex, phy.Link100FDX},
		{phy.BMCRSpeed100, phy.Link100HDX},
		{phy.BMCRFullDuplex, phy.Link10FDX},
		{0, phy.Link10HDX},
	} {
		m.Regs[phy.AddrBMCR] = uint16(x.bmcr)
		if got, err := p.LinkState(); err != nil || got != x.l {
			t.Error("forced", x.l, "wrong:", got, err)
		}
	}
}

func TestEnableAutoNegotiation(t *testing.T) {
	p, phys, _ := setup(0)
	if err := p.Init(); err != nil {
		t.Fatal(err)
	}
	phys[0].Regs[phy.AddrBMCR] = 0
	if err := p.EnableAutoNegotiation(); err != nil {
		t.Fatal(err)
	}
	if phys[0].Regs[phy.AddrBMCR]&uint16(phy.BMCRANEnable) == 0 {
		t.Error("auto-negotiation off")
	}
}
