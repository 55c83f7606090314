// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lan8742 drives the Microchip LAN8742A RMII PHY over MDIO.
package lan8742

import (
	"errors"
	"fmt"

	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/tick"
)

// Vendor registers
const (
	SMR     = 0x12 // special modes
	PHYSCSR = 0x1f // special control/status
)

const (
	SMRAddr = 0x1f

	PHYSCSRAutoDone = 0x1000
	PHYSCSRSpeed    = 0x001c
	PHYSCSR100FD    = 0x0018
	PHYSCSR100HD    = 0x0008
	PHYSCSR10FD     = 0x0014
	PHYSCSR10HD     = 0x0004
)

const (
	MaxAddr      = 30
	ResetTimeout = 500
	// Settle is how long the PHY needs after reset before it answers
	// reliably.
	Settle = 2000
)

var (
	ErrAddress                = errors.New("no lan8742 on mdio bus")
	ErrAutoNegotiationNotDone = errors.New("auto-negotiation not done")
)

type LAN8742 struct {
	phy.Device
	Bus  phy.MDIOBus
	Tick tick.Source
	// Trace, if set, sees each step of Init.
	Trace func(step string, addr uint8)
}

func New(bus phy.MDIOBus, src tick.Source) *LAN8742 {
	return &LAN8742{Bus: bus, Tick: src}
}

func (p *LAN8742) trace(step string) {
	if p.Trace != nil {
		p.Trace(step, p.PHYAddr())
	}
}

// Init finds the PHY by its strapped address, soft resets it and waits
// for it to settle.
func (p *LAN8742) Init() error {
	addr, err := p.Scan()
	if err != nil {
		return err
	}
	if err = p.ConfigureAs22(p.Bus, addr); err != nil {
		return fmt.Errorf("lan8742: %w", err)
	}
	p.trace("found")
	if err = p.Reset(); err != nil {
		return err
	}
	p.trace("reset")
	tick.Delay(p.Tick, Settle)
	p.trace("settled")
	return nil
}

// Scan returns the first address 0..MaxAddr whose special modes register
// reports that same address.
func (p *LAN8742) Scan() (uint8, error) {
	for a := uint8(0); a <= MaxAddr; a++ {
		v, err := p.Bus.Read(a, 0, SMR)
		if err != nil {
			return 0, fmt.Errorf("lan8742: scan %d: %w", a, err)
		}
		if uint8(v&SMRAddr) == a {
			return a, nil
		}
	}
	return 0, ErrAddress
}

// Reset sets BMCR reset and waits for the PHY to clear it.
func (p *LAN8742) Reset() error {
	if err := p.Bus.Write(p.PHYAddr(), 0, phy.AddrBMCR, uint16(phy.BMCRReset)); err != nil {
		return fmt.Errorf("lan8742: reset: %w", err)
	}
	var rerr error
	err := tick.Until(p.Tick, ResetTimeout, func() bool {
		c, err := p.BasicControl()
		if err != nil {
			rerr = err
			return true
		}
		return c&phy.BMCRReset == 0
	}, nil)
	if rerr != nil {
		err = rerr
	}
	if err != nil {
		return fmt.Errorf("lan8742: reset: %w", err)
	}
	return nil
}

func (p *LAN8742) EnableAutoNegotiation() error {
	if err := p.Device.EnableAutoNegotiation(true); err != nil {
		return fmt.Errorf("lan8742: auto-negotiation: %w", err)
	}
	return nil
}

// LinkState reports the current link.  With auto-negotiation on, the
// result comes from the PHY's resolved speed indication; otherwise from
// the forced BMCR settings.
func (p *LAN8742) LinkState() (phy.LinkMode, error) {
	st, err := p.BasicStatus()
	if err != nil {
		return phy.LinkDown, fmt.Errorf("lan8742: status: %w", err)
	}
	if st&phy.BMSRLinkStatus == 0 {
		return phy.LinkDown, nil
	}
	c, err := p.BasicControl()
	if err != nil {
		return phy.LinkDown, fmt.Errorf("lan8742: control: %w", err)
	}
	if c&phy.BMCRANEnable == 0 {
		switch {
		case c&phy.BMCRSpeed100 != 0 && c&phy.BMCRFullDuplex != 0:
			return phy.Link100FDX, nil
		case c&phy.BMCRSpeed100 != 0:
			return phy.Link100HDX, nil
		case c&phy.BMCRFullDuplex != 0:
			return phy.Link10FDX, nil
		}
		return phy.Link10HDX, nil
	}
	s, err := p.Bus.Read(p.PHYAddr(), 0, PHYSCSR)
	if err != nil {
		return phy.LinkDown, fmt.Errorf("lan8742: special status: %w", err)
	}
	if s&PHYSCSRAutoDone == 0 {
		return phy.LinkDown, ErrAutoNegotiationNotDone
	}
	switch s & PHYSCSRSpeed {
	case PHYSCSR100FD:
		return phy.Link100FDX, nil
	case PHYSCSR100HD:
		return phy.Link100HDX, nil
	case PHYSCSR10FD:
		return phy.Link10FDX, nil
	}
	return phy.Link10HDX, nil
}
