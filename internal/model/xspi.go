// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package model

import (
	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/mx25uw"
	"github.com/platinasystems/h7s3/xspi"
)

// XSPI models the XSPI2 indirect engine with an MX25UW on the far side.
// A command starts on the IR write, or on the AR write when it has an
// address phase.  Reads fill a FIFO of DLR+1 bytes; writes with a data
// phase run once DLR+1 bytes have been pushed through DR.  Entering
// memory-mapped mode copies the flash contents into the XSPI2 window.
type XSPI struct {
	Journal
	Bus   *sim.Bus
	Flash *MX25UW
	// StuckBusy holds SR.BUSY; TransferError fails the next command.
	StuckBusy, TransferError bool
	Mapped                   bool

	rx      []byte
	tx      []byte
	want    int
	pending func(data []byte)
	tcf     bool
	tef     bool
}

// MX25UW is the flash state: the identification, the array (erased
// bytes are absent), the write enable latch and configuration register
// 2.  A program or erase keeps WIP set for BusyReads status reads.
type MX25UW struct {
	Interface mx25uw.Interface
	ID        [3]byte
	Mem       map[uint32]byte
	WEL       bool
	CR2       map[uint32]byte
	BusyReads int

	// Ops are the opcodes executed, in order.
	Ops              []uint32
	Programs, Erases int

	wip int
}

func NewMX25UW() *MX25UW {
	return &MX25UW{
		ID:        [3]byte{mx25uw.ManufacturerID, 0x81, 0x3a},
		Mem:       make(map[uint32]byte),
		CR2:       make(map[uint32]byte),
		BusyReads: 2,
	}
}

func xspiReg(r hw.Reg) uint32 { return xspi.XSPI2Base + r.Offset() }

func NewXSPI(bus *sim.Bus, f *MX25UW) *XSPI {
	m := &XSPI{Bus: bus, Flash: f}
	bus.OnWrite(xspiReg(xspi.CR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		if xspi.FMODE.Get(v) == xspi.MemoryMapped && xspi.FMODE.Get(old) != xspi.MemoryMapped {
			m.mapWindow(b)
		}
		return v &^ xspi.ABORT
	})
	bus.OnWrite(xspiReg(xspi.IR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		b.Poke(addr, v)
		if xspi.ADMODE.Get(b.Peek(xspiReg(xspi.CCR))) == uint32(xspi.None) {
			m.start(b)
		}
		return v
	})
	bus.OnWrite(xspiReg(xspi.AR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		m.write(addr, v)
		b.Poke(addr, v)
		m.start(b)
		return v
	})
	bus.OnWrite(xspiReg(xspi.FCR), func(b *sim.Bus, addr, old, v uint32) uint32 {
		if v&xspi.CTCF != 0 {
			m.tcf = false
		}
		if v&xspi.CTEF != 0 {
			m.tef = false
		}
		return 0
	})
	bus.OnRead(xspiReg(xspi.SR), func(b *sim.Bus, addr, v uint32) uint32 {
		v &^= xspi.TEF | xspi.TCF | xspi.FTF | xspi.BUSY
		writing := m.want > 0 && len(m.tx) < m.want
		if m.tef {
			v |= xspi.TEF
		}
		if m.tcf {
			v |= xspi.TCF
		}
		if len(m.rx) > 0 || writing {
			v |= xspi.FTF | xspi.BUSY
		}
		if m.StuckBusy {
			v |= xspi.BUSY
		}
		return v
	})
	bus.OnByte(xspiReg(xspi.DR), func(b *sim.Bus, addr uint32) uint8 {
		if len(m.rx) == 0 {
			m.violate("xspi: read of empty fifo")
			return 0
		}
		c := m.rx[0]
		m.rx = m.rx[1:]
		if len(m.rx) == 0 {
			m.tcf = true
		}
		return c
	}, func(b *sim.Bus, addr uint32, c uint8) {
		if m.want == 0 || len(m.tx) >= m.want {
			m.violate("xspi: write %#02x with no data phase pending", c)
			return
		}
		m.tx = append(m.tx, c)
		if len(m.tx) == m.want {
			m.pending(m.tx)
			m.tx, m.want, m.pending = nil, 0, nil
			m.tcf = true
		}
	})
	return m
}

// frame checks the instruction phase against the flash interface and
// returns the opcode.
func (m *XSPI) frame(ccr, ir uint32) (op uint32, ok bool) {
	imode, isize := xspi.IMODE.Get(ccr), xspi.ISIZE.Get(ccr)
	idtr := ccr&xspi.IDTR != 0
	switch m.Flash.Interface {
	case mx25uw.SPI:
		return ir & 0xff, imode == uint32(xspi.Single) && isize == 0 && !idtr
	case mx25uw.OPISTR, mx25uw.OPIDTR:
		dtr := m.Flash.Interface == mx25uw.OPIDTR
		op = ir >> 8 & 0xff
		ok = imode == uint32(xspi.Octal) && isize == 1 &&
			ir&0xff == ^op&0xff && idtr == dtr
		if dtr && xspi.ADMODE.Get(ccr) != uint32(xspi.None) {
			ok = ok && ccr&xspi.ADDTR != 0
		}
	}
	return
}

func (m *XSPI) start(b *sim.Bus) {
	cr := b.Peek(xspiReg(xspi.CR))
	if xspi.FMODE.Get(cr) == xspi.MemoryMapped {
		return
	}
	ccr := b.Peek(xspiReg(xspi.CCR))
	n := int(b.Peek(xspiReg(xspi.DLR))) + 1
	if xspi.DMODE.Get(ccr) == uint32(xspi.None) {
		n = 0
	}
	m.rx, m.tx, m.want, m.pending = nil, nil, 0, nil
	if m.TransferError {
		m.TransferError = false
		m.tef = true
		return
	}
	op, ok := m.frame(ccr, b.Peek(xspiReg(xspi.IR)))
	addr := b.Peek(xspiReg(xspi.AR))
	if xspi.ADSIZE.Get(ccr) < 3 {
		addr &= 1<<(8*(xspi.ADSIZE.Get(ccr)+1)) - 1
	}
	read := xspi.FMODE.Get(cr) == xspi.IndirectRead
	if !ok {
		m.violate("xspi: instruction %#x ccr %#x framed wrong for %v",
			b.Peek(xspiReg(xspi.IR)), ccr, m.Flash.Interface)
		if read {
			m.rx = fill(n, 0xff)
		} else {
			m.tcf = n == 0
			m.want, m.pending = n, func([]byte) {}
		}
		return
	}
	f := m.Flash
	if f.wip > 0 && op != mx25uw.ReadStatusCmd {
		m.violate("mx25uw: %#02x while write in progress", op)
	}
	f.Ops = append(f.Ops, op)
	if read {
		m.rx = f.read(op, addr, n)
		if len(m.rx) == 0 {
			m.tcf = true
		}
		return
	}
	if n == 0 {
		f.exec(m, op, addr, nil)
		m.tcf = true
		return
	}
	m.want = n
	m.pending = func(data []byte) { f.exec(m, op, addr, data) }
}

func fill(n int, c byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = c
	}
	return p
}

func (f *MX25UW) status() byte {
	var s byte
	if f.wip > 0 {
		s |= mx25uw.WIP
		f.wip--
	}
	if f.WEL {
		s |= mx25uw.WEL
	}
	return s
}

func (f *MX25UW) byteAt(a uint32) byte {
	if c, ok := f.Mem[a%mx25uw.FlashSize]; ok {
		return c
	}
	return 0xff
}

func (f *MX25UW) read(op, addr uint32, n int) []byte {
	p := fill(n, 0xff)
	switch op {
	case mx25uw.ReadIDCmd:
		for i := range p {
			p[i] = f.ID[i%len(f.ID)]
		}
	case mx25uw.ReadStatusCmd:
		s := f.status()
		for i := range p {
			p[i] = s
		}
	case mx25uw.FastReadCmd, mx25uw.FastRead4BCmd,
		mx25uw.OPIReadCmd >> 8, mx25uw.OPIReadDTRCmd >> 8:
		for i := range p {
			p[i] = f.byteAt(addr + uint32(i))
		}
	}
	return p
}

func (f *MX25UW) exec(m *XSPI, op, addr uint32, data []byte) {
	needWEL := func() bool {
		if !f.WEL {
			m.violate("mx25uw: %#02x without write enable", op)
			return false
		}
		f.WEL = false
		return true
	}
	switch op {
	case mx25uw.WriteEnableCmd:
		f.WEL = true
	case mx25uw.WriteCfgReg2Cmd:
		if needWEL() && len(data) > 0 {
			f.CR2[addr] = data[0]
			if addr == mx25uw.CR2ModeAddr {
				f.Interface = mx25uw.Interface(data[0] & 3)
			}
		}
	case mx25uw.PageProgCmd, mx25uw.PageProg4BCmd:
		if !needWEL() {
			return
		}
		page := addr &^ (mx25uw.PageSize - 1)
		for i, c := range data {
			a := page + (addr+uint32(i))%mx25uw.PageSize
			f.Mem[a] = f.byteAt(a) & c
		}
		f.Programs++
		f.wip = f.BusyReads
	case mx25uw.SectorErase4B, 0x20:
		if !needWEL() {
			return
		}
		sector := addr &^ (mx25uw.SectorSize - 1)
		for a := range f.Mem {
			if a&^(mx25uw.SectorSize-1) == sector {
				delete(f.Mem, a)
			}
		}
		f.Erases++
		f.wip = f.BusyReads
	default:
		m.violate("mx25uw: unknown command %#02x", op)
	}
}

// mapWindow checks the mapped read command and exposes the flash array
// at the XSPI2 window.
func (m *XSPI) mapWindow(b *sim.Bus) {
	op, ok := m.frame(b.Peek(xspiReg(xspi.CCR)), b.Peek(xspiReg(xspi.IR)))
	switch {
	case !ok:
		m.violate("xspi: mapped read framed wrong for %v", m.Flash.Interface)
		return
	case op != mx25uw.FastReadCmd && op != mx25uw.FastRead4BCmd &&
		op != mx25uw.OPIReadCmd>>8 && op != mx25uw.OPIReadDTRCmd>>8:
		m.violate("xspi: mapped read opcode %#02x", op)
		return
	}
	m.Mapped = true
	for a, c := range m.Flash.Mem {
		b.PokeBytes(xspi.Window2+a, []byte{c})
	}
}
