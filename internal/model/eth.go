// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package model

import (
	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/lan8742"
)

// ETH models the DMA soft reset, the MDIO master and a DMA engine that
// walks the descriptor rings when told to.  The engine follows the
// hardware rules: it only touches descriptors with OWN set, transmit
// stops at the tail pointer, and write-back clears OWN last.
type ETH struct {
	Journal
	Bus  *sim.Bus
	PHYs map[uint8]*PHY
	// StuckReset keeps DMAMR.SWR set; MDIOStuck keeps MACMDIOAR.MB set.
	StuckReset, MDIOStuck bool
	// TxError and RxError set the error summary on write-back.
	TxError, RxError bool

	tx, rx int
}

func ethReg(r hw.Reg) uint32 { return eth.Base + r.Offset() }

func NewETH(bus *sim.Bus) *ETH {
	m := &ETH{Bus: bus, PHYs: make(map[uint8]*PHY)}
	bus.OnWrite(ethReg(eth.DMAMR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		if !m.StuckReset {
			v &^= eth.SWR
		}
		return v
	})
	bus.OnWrite(ethReg(eth.DMACTDLAR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		m.tx = 0
		return v
	})
	bus.OnWrite(ethReg(eth.DMACRDLAR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		m.rx = 0
		return v
	})
	bus.OnWrite(ethReg(eth.MACMDIOAR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		if v&eth.MB == 0 || m.MDIOStuck {
			return v
		}
		pa := uint8(eth.PA.Get(v))
		ra := uint16(eth.RDA.Get(v))
		p := m.PHYs[pa]
		switch eth.GOC.Get(v) {
		case eth.GOCRead:
			d := uint32(0xffff)
			if p != nil {
				d = uint32(p.read(ra))
			}
			b.Poke(ethReg(eth.MACMDIODR), d)
		case eth.GOCWrite:
			if p != nil {
				p.write(ra, uint16(b.Peek(ethReg(eth.MACMDIODR))))
			}
		default:
			m.violate("mdio: bad goc %d", eth.GOC.Get(v))
		}
		return v &^ eth.MB
	})
	return m
}

// Attach puts p on the MDIO bus at its strapped address.
func (m *ETH) Attach(p *PHY) {
	m.Bus.Locked(func() { m.PHYs[p.Addr] = p })
}

// Reg reads an ETH register without side effects.
func (m *ETH) Reg(r hw.Reg) uint32 { return m.Bus.Get(ethReg(r)) }

func (m *ETH) desc(b *sim.Bus, lar, rlr hw.Reg, i int) uint32 {
	n := int(b.Peek(ethReg(rlr))&eth.TDRL.Mask()) + 1
	stride := 16 + 4*eth.DSL.Get(b.Peek(ethReg(eth.DMACCR)))
	return b.Peek(ethReg(lar)) + uint32(i%n)*stride
}

func (m *ETH) txNext(b *sim.Bus) int {
	n := int(b.Peek(ethReg(eth.DMACTDRLR))&eth.TDRL.Mask()) + 1
	return (m.tx + 1) % n
}

// StepTx processes every descriptor the transmit DMA may take and returns
// the frames sent.
func (m *ETH) StepTx() (frames [][]byte) {
	m.Bus.Locked(func() {
		b := m.Bus
		if b.Peek(ethReg(eth.DMACTCR))&eth.ST == 0 {
			return
		}
		var f []byte
		for {
			d := m.desc(b, eth.DMACTDLAR, eth.DMACTDRLR, m.tx)
			if d == b.Peek(ethReg(eth.DMACTDTPR)) {
				return
			}
			des3 := b.Peek(d + eth.DES3)
			if des3&eth.TDES3OWN == 0 {
				return
			}
			des2 := b.Peek(d + eth.DES2)
			if des3&eth.TDES3FD != 0 {
				f = nil
			}
			f = append(f, b.PeekBytes(b.Peek(d+eth.DES0), int(eth.TDES2B1L.Get(des2)))...)
			f = append(f, b.PeekBytes(b.Peek(d+eth.DES1), int(eth.TDES2B2L.Get(des2)))...)
			wb := des3 & (eth.TDES3FD | eth.TDES3LD)
			if des3&eth.TDES3LD != 0 {
				frames = append(frames, f)
				f = nil
				if m.TxError {
					wb |= eth.TDES3ES
				}
			}
			b.Poke(d+eth.DES0, 0)
			b.Poke(d+eth.DES1, 0)
			b.Poke(d+eth.DES2, 0)
			b.Poke(d+eth.DES3, wb)
			m.tx = m.txNext(b)
		}
	})
	return
}

// Deliver writes frame into the receive ring.  It reports false, and
// leaves the ring untouched, when the descriptors owned by the DMA cannot
// hold the whole frame.
func (m *ETH) Deliver(frame []byte) (ok bool) {
	m.Bus.Locked(func() {
		b := m.Bus
		if b.Peek(ethReg(eth.DMACRCR))&eth.SR == 0 || len(frame) == 0 {
			return
		}
		n := int(b.Peek(ethReg(eth.DMACRDRLR))&eth.RDRL.Mask()) + 1
		bs := int(eth.RBSZ.Get(b.Peek(ethReg(eth.DMACRCR))))
		need, room := 0, 0
		for room < len(frame) {
			if need == n {
				return
			}
			d := m.desc(b, eth.DMACRDLAR, eth.DMACRDRLR, m.rx+need)
			des3 := b.Peek(d + eth.DES3)
			if des3&eth.RDES3OWN == 0 {
				return
			}
			if des3&eth.RDES3BUF1V != 0 {
				room += bs
			}
			if des3&eth.RDES3BUF2V != 0 {
				room += bs
			}
			need++
		}
		p := frame
		for j := 0; j < need; j++ {
			d := m.desc(b, eth.DMACRDLAR, eth.DMACRDRLR, m.rx)
			des3 := b.Peek(d + eth.DES3)
			for _, w := range []struct {
				v   uint32
				off uint32
			}{{eth.RDES3BUF1V, eth.DES0}, {eth.RDES3BUF2V, eth.DES2}} {
				if des3&w.v == 0 || len(p) == 0 {
					continue
				}
				k := min(bs, len(p))
				b.PokeBytes(b.Peek(d+w.off), p[:k])
				p = p[k:]
			}
			var wb uint32
			if j == 0 {
				wb |= eth.RDES3FD
			}
			if j == need-1 {
				wb |= eth.RDES3LD | eth.RDES3PL.Put(uint32(len(frame)))
				if m.RxError {
					wb |= eth.RDES3ES
				}
			}
			b.Poke(d+eth.DES0, 0)
			b.Poke(d+eth.DES1, 0)
			b.Poke(d+eth.DES2, 0)
			b.Poke(d+eth.DES3, wb)
			m.rx = (m.rx + 1) % n
		}
		ok = true
	})
	return
}

// PHY is a LAN8742A behind the MDIO model.  A soft reset stays in
// progress for ResetReads reads of BMCR; ResetReads < 0 never finishes.
type PHY struct {
	Addr       uint8
	ResetReads int
	Link       bool
	AutoDone   bool
	// Mode is the link the PHY resolves to once auto-negotiation is done.
	Mode phy.LinkMode

	Regs      [32]uint16
	Resets    int
	resetLeft int
}

const (
	resetBMCR = uint16(phy.BMCRSpeed100 | phy.BMCRANEnable | phy.BMCRFullDuplex)
	resetBMSR = uint16(phy.BMSR100Full | phy.BMSR100Half | phy.BMSR10Full |
		phy.BMSR10Half | phy.BMSRANCap | phy.BMSRExtCap)
)

func NewPHY(addr uint8) *PHY {
	p := &PHY{Addr: addr, ResetReads: 2, Mode: phy.Link100FDX}
	p.Regs[phy.AddrBMCR] = resetBMCR
	p.Regs[phy.AddrBMSR] = resetBMSR
	p.Regs[2] = 0x0007
	p.Regs[3] = 0xc131
	p.Regs[lan8742.SMR] = 0x00e0 | uint16(addr)&lan8742.SMRAddr
	return p
}

func (p *PHY) read(r uint16) uint16 {
	switch r {
	case phy.AddrBMCR:
		if p.resetLeft > 0 {
			p.resetLeft--
			if p.resetLeft == 0 {
				p.Regs[phy.AddrBMCR] = resetBMCR
			}
		}
	case phy.AddrBMSR:
		v := p.Regs[phy.AddrBMSR] &^ uint16(phy.BMSRLinkStatus|phy.BMSRANComplete)
		if p.Link {
			v |= uint16(phy.BMSRLinkStatus)
		}
		if p.AutoDone {
			v |= uint16(phy.BMSRANComplete)
		}
		return v
	case lan8742.PHYSCSR:
		var v uint16
		if p.AutoDone {
			v |= lan8742.PHYSCSRAutoDone
		}
		switch p.Mode {
		case phy.Link100FDX:
			v |= lan8742.PHYSCSR100FD
		case phy.Link100HDX:
			v |= lan8742.PHYSCSR100HD
		case phy.Link10FDX:
			v |= lan8742.PHYSCSR10FD
		default:
			v |= lan8742.PHYSCSR10HD
		}
		return v
	}
	return p.Regs[r&0x1f]
}

func (p *PHY) write(r, v uint16) {
	switch r {
	case phy.AddrBMCR:
		if v&uint16(phy.BMCRReset) != 0 {
			p.Resets++
			p.resetLeft = p.ResetReads
			if p.ResetReads == 0 {
				p.Regs[phy.AddrBMCR] = resetBMCR
				return
			}
		}
	case phy.AddrBMSR, 2, 3:
		return
	}
	p.Regs[r&0x1f] = v
}
