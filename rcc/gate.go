// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rcc

import "github.com/platinasystems/h7s3/elib/hw"

// Gates is the peripheral clock enable and kernel clock selection side
// of the RCC.  It does not need a tick source.
type Gates struct {
	hw.Block
}

func NewGates(bus hw.Bus) Gates {
	return Gates{hw.Block{Bus: bus, Base: Base}}
}

// Enable sets mask in enable register r and reads it back; the read
// delays the first access to the peripheral past the enable.
func (g Gates) Enable(r hw.Reg, mask uint32) {
	r.Or(g.Block, mask)
	_ = r.Get(g.Block)
}

func (g Gates) Disable(r hw.Reg, mask uint32) { r.AndNot(g.Block, mask) }

func (g Gates) Enabled(r hw.Reg, mask uint32) bool {
	return r.Get(g.Block)&mask == mask
}

func (g Gates) EnableGPIO(port int) { g.Enable(AHB4ENR, GPIOEN(port)) }

func (g Gates) EnableETH() { g.Enable(AHB1ENR, ETH1MACEN|ETH1TXEN|ETH1RXEN) }

func (g Gates) EnableSBS() { g.Enable(APB4ENR, SBSEN) }

// XSPI2 kernel clock source, CCIPR1.XSPI2SEL.
const (
	XSPIKernelHCLK  = 0
	XSPIKernelPLL2S = 1
	XSPIKernelPLL2T = 2
)

func (g Gates) SelectXSPI2Kernel(sel uint32) { XSPI2SEL.Set(g.Block, CCIPR1, sel) }

// ProtectXSPIKernel keeps the XSPI kernel clock running across the
// memory mapped handover to the application.
func (g Gates) ProtectXSPIKernel() { CKPROTR.Or(g.Block, XSPICKP) }

// SelectETHPHYClock routes the 50 MHz reference out to the PHY.
func (g Gates) SelectETHPHYClock(on bool) {
	if on {
		CCIPR1.Or(g.Block, ETH1PHYCKSEL)
	} else {
		CCIPR1.AndNot(g.Block, ETH1PHYCKSEL)
	}
}
