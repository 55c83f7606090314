// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package eth brings up the STM32H7S3 Ethernet MAC and manages its DMA
// descriptor rings.
//
// Descriptor memory must be naturally aligned and either non-cacheable or
// cache maintained by the caller around every ownership change; the
// DmaRegion handed to New is assumed to be such memory.
package eth

import (
	"errors"
	"fmt"
	"net"

	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/sbs"
	"github.com/platinasystems/h7s3/tick"
)

var (
	ErrLinkDown = errors.New("link down")
	ErrAddress  = errors.New("mac address must be 6 bytes")
)

const (
	ResetTimeout = 500
	// Giant packet size limit.
	GiantPacketLimit = 0x618
	BurstLength      = 32
	DefaultBufSize   = 0x800
)

type Config struct {
	Addr    net.HardwareAddr
	TxCount int
	RxCount int
	// BufSize is the receive buffer size in bytes; RBSZ.
	BufSize uint32
	// BusHz clocks the CSR interface and the 1 us tick counter.
	BusHz uint32
	// MDIOClockRange is the MACMDIOAR CR code for BusHz.
	MDIOClockRange uint32
}

type MAC struct {
	hw.Block
	Mem   hw.Bus // descriptor and buffer memory
	DMA   *hw.DmaRegion
	Tick  tick.Source
	SBS   sbs.SBS
	Gates rcc.Gates

	Tx *TxRing
	Rx *RxRing

	// MDIOTimeout bounds each MDIO transaction.
	MDIOTimeout uint32
}

func New(bus hw.Bus, src tick.Source, dma *hw.DmaRegion) *MAC {
	return &MAC{
		Block:       hw.Block{Bus: bus, Base: Base},
		Mem:         bus,
		DMA:         dma,
		Tick:        src,
		SBS:         sbs.New(bus),
		Gates:       rcc.NewGates(bus),
		MDIOTimeout: MDIOTimeout,
	}
}

// Init resets the DMA, builds both rings and programs the MAC for 100
// Mb/s full duplex.  Neither direction is started.
func (m *MAC) Init(c Config) (err error) {
	if len(c.Addr) != 6 {
		return fmt.Errorf("eth: %w: %v", ErrAddress, c.Addr)
	}
	if c.BufSize == 0 {
		c.BufSize = DefaultBufSize
	}
	if m.Tx == nil {
		if m.Tx, err = NewTxRing(m.Block, m.Mem, m.DMA, c.TxCount); err != nil {
			return fmt.Errorf("eth: tx ring: %w", err)
		}
	}
	if m.Rx == nil {
		m.Rx, err = NewRxRing(m.Block, m.Mem, m.DMA, c.RxCount, c.BufSize)
		if err != nil {
			return fmt.Errorf("eth: rx ring: %w", err)
		}
	}

	m.Gates.EnableSBS()
	m.SBS.SelectPHY(sbs.PHYSelRMII)
	m.Gates.EnableETH()
	m.Gates.SelectETHPHYClock(true)

	DMAMR.Or(m.Block, SWR)
	if err = tick.Until(m.Tick, ResetTimeout, func() bool {
		return !DMAMR.IsSet(m.Block, SWR)
	}, nil); err != nil {
		return fmt.Errorf("eth: dma reset: %w", err)
	}
	DMAMR.Set(m.Block, 0)
	DMASBMR.Set(m.Block, AAL|FB)

	m.Tx.Init()
	m.Rx.Init()

	DMACCR.Set(m.Block, DSL.Put(descSkipDSL))
	if err = hw.CheckRegAddr("eth: descriptor stride",
		16+4*DSL.Read(m.Block, DMACCR), DescStride); err != nil {
		return
	}
	DMACTCR.Set(m.Block, TPBL.Put(BurstLength))
	DMACRCR.Set(m.Block, RBSZ.Put(c.BufSize)|RPBL.Put(BurstLength))

	MTLTQOMR.Set(m.Block, TSF)
	MTLRQOMR.Set(m.Block, RSF)

	m.SetHardwareAddr(c.Addr)
	CR.Set(m.Block, MACMDIOAR, c.MDIOClockRange)
	MAC1USTCR.Set(m.Block, c.BusHz/1000000-1)
	MACCR.Set(m.Block, SARC.Put(3)|IPC|CST|ACS|FES|DM)
	GPSL.Set(m.Block, MACECR, GiantPacketLimit)
	MACWTR.Set(m.Block, 0)
	MACTFCR.Set(m.Block, 0)
	MACRFCR.Set(m.Block, 0)

	MMCRIMR.Or(m.Block, RXLPITRCIM|RXLPIUSCIM|RXUCGPIM|RXALGNERPIM|RXCRCERPIM)
	MMCTIMR.Or(m.Block, TXLPITRCIM|TXLPIUSCIM|TXGPKTIM|TXMCOLGPIM|TXSCOLGPIM)
	return nil
}

func (m *MAC) SetHardwareAddr(a net.HardwareAddr) {
	MACA0HR.Set(m.Block, uint32(a[5])<<8|uint32(a[4]))
	MACA0LR.Set(m.Block, uint32(a[3])<<24|uint32(a[2])<<16|
		uint32(a[1])<<8|uint32(a[0]))
}

func (m *MAC) HardwareAddr() net.HardwareAddr {
	h, l := MACA0HR.Get(m.Block), MACA0LR.Get(m.Block)
	return net.HardwareAddr{byte(l), byte(l >> 8), byte(l >> 16),
		byte(l >> 24), byte(h), byte(h >> 8)}
}

// SetLink matches the MAC speed and duplex to the negotiated link.
func (m *MAC) SetLink(l phy.LinkMode) error {
	if l == phy.LinkDown {
		return ErrLinkDown
	}
	var cr uint32
	if l.SpeedMbps() == 100 {
		cr |= FES
	}
	if l.IsFullDuplex() {
		cr |= DM
	}
	MACCR.Modify(m.Block, FES|DM, cr)
	return nil
}

// Link reports speed and duplex as programmed in the MAC.
func (m *MAC) Link() (mbps int, full bool) {
	cr := MACCR.Get(m.Block)
	mbps = 10
	if cr&FES != 0 {
		mbps = 100
	}
	return mbps, cr&DM != 0
}

// Start enables the DMA channels before the MAC so that no frame is
// accepted without a descriptor to go to.
func (m *MAC) Start() {
	DMACTCR.Or(m.Block, ST)
	DMACRCR.Or(m.Block, SR)
	MACCR.Or(m.Block, TE|RE)
}

func (m *MAC) Stop() {
	MACCR.AndNot(m.Block, TE|RE)
	DMACTCR.AndNot(m.Block, ST)
	DMACRCR.AndNot(m.Block, SR)
}

func (m *MAC) Running() bool {
	return MACCR.Get(m.Block)&(TE|RE) == TE|RE &&
		DMACTCR.IsSet(m.Block, ST) && DMACRCR.IsSet(m.Block, SR)
}
