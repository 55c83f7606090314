// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package xspi drives the STM32H7S3 extended SPI controller in indirect
// and memory-mapped mode.
package xspi

import (
	"errors"
	"fmt"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/pwr"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/sbs"
	"github.com/platinasystems/h7s3/tick"
)

// Timeout bounds one whole operation, from the first busy check to the
// transfer complete flag.
const Timeout = 5000

const (
	// Prescaler is the bring-up kernel clock divisor less one.
	Prescaler = 3
	// DeviceSize is log2 of the device size in bytes less one.
	DeviceSize     = 0x18
	ChipSelectHigh = 1
	FIFOThreshold  = 3
)

var ErrTransfer = errors.New("transfer error")

// Lines is the number of data lines of a command phase; None skips it.
type Lines uint32

const (
	None Lines = iota
	Single
	Dual
	Quad
	Octal
)

func (l Lines) String() string {
	switch l {
	case None:
		return "none"
	case Single:
		return "single"
	case Dual:
		return "dual"
	case Quad:
		return "quad"
	case Octal:
		return "octal"
	}
	return fmt.Sprintf("lines(%d)", uint32(l))
}

// Command describes the phases of one transaction.  Sizes are in bytes.
type Command struct {
	Instruction     uint32
	InstructionMode Lines
	InstructionSize uint32
	InstructionDTR  bool

	Address     uint32
	AddressMode Lines
	AddressSize uint32
	AddressDTR  bool

	DataMode Lines
	DataDTR  bool

	DummyCycles uint32
	DQS         bool
	// DHQC delays data output a quarter cycle; DTR octal only.
	DHQC bool
}

func size(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return n - 1
}

// CCR is the communication configuration word of c.
func (c Command) CCR() (v uint32) {
	v = IMODE.Put(uint32(c.InstructionMode)) |
		ISIZE.Put(size(c.InstructionSize)) |
		ADMODE.Put(uint32(c.AddressMode)) |
		DMODE.Put(uint32(c.DataMode))
	if c.AddressMode != None {
		v |= ADSIZE.Put(size(c.AddressSize))
	}
	if c.InstructionDTR {
		v |= IDTR
	}
	if c.AddressDTR {
		v |= ADDTR
	}
	if c.DataDTR {
		v |= DDTR
	}
	if c.DQS {
		v |= DQSE
	}
	return
}

// TCR is the timing configuration word of c.
func (c Command) TCR() (v uint32) {
	v = DCYC.Put(c.DummyCycles)
	if c.DHQC {
		v |= DHQC
	}
	return
}

type Controller struct {
	hw.Block
	Tick    tick.Source
	Timeout uint32

	PWR   *pwr.PWR
	SBS   sbs.SBS
	Gates rcc.Gates
}

func New(bus hw.Bus, base uint32, src tick.Source) *Controller {
	return &Controller{
		Block:   hw.Block{Bus: bus, Base: base},
		Tick:    src,
		Timeout: Timeout,
		PWR:     pwr.New(bus, src),
		SBS:     sbs.New(bus),
		Gates:   rcc.NewGates(bus),
	}
}

// Init powers the XSPIM2 i/o, clocks the controller from PLL2 T, routes
// XSPI2 to port 2 with NCS1 and brings the controller up at
// kernel/(Prescaler+1) for a Macronix octal device.
func (c *Controller) Init() {
	c.PWR.EnableXSPIM2()
	c.Gates.EnableSBS()
	c.SBS.XSPI2HighSpeedLowVoltage()
	c.Gates.Enable(rcc.AHB5ENR, rcc.XSPIMEN)
	c.Gates.SelectXSPI2Kernel(rcc.XSPIKernelPLL2T)
	c.Gates.Enable(rcc.AHB5ENR, rcc.XSPI2EN)
	c.Gates.ProtectXSPIKernel()

	b := c.Block
	CR.AndNot(hw.Block{Bus: b.Bus, Base: XSPI1Base}, EN)
	CR.AndNot(b, EN)
	CR.Set(hw.Block{Bus: b.Bus, Base: XSPIMBase}, CSSELOvrO1|CSSELOvrEN)

	DCR1.AndNot(b, CKMODE)
	PRESCALER.Set(b, DCR2, Prescaler)
	DCR1.Modify(b, MTYP.Mask()|DEVSIZE.Mask(),
		MTYP.Put(MacronixMode)|DEVSIZE.Put(DeviceSize))
	CR.AndNot(b, MSEL.Mask()|CSSEL)
	CSHT.Set(b, DCR1, ChipSelectHigh)
	FTHRES.Set(b, CR, FIFOThreshold)
	CR.Or(b, EN)
}

func (c *Controller) SetPrescaler(p uint32) { PRESCALER.Set(c.Block, DCR2, p) }
func (c *Controller) Prescaler() uint32     { return PRESCALER.Read(c.Block, DCR2) }

// MaxFrequency runs the bus at the kernel clock.
func (c *Controller) MaxFrequency() { c.SetPrescaler(0) }

func (c *Controller) Mode() uint32 { return FMODE.Read(c.Block, CR) }

type waiter struct {
	c     *Controller
	start uint32
}

func (w waiter) wait(what string, ready func(sr uint32) bool) error {
	c := w.c
	for {
		sr := SR.Get(c.Block)
		if sr&TEF != 0 {
			FCR.Set(c.Block, CTEF)
			return fmt.Errorf("xspi %s: %w", what, ErrTransfer)
		}
		if ready(sr) {
			return nil
		}
		if tick.Elapsed(w.start, c.Tick.Tick()) >= c.Timeout {
			return fmt.Errorf("xspi %s: %w", what, tick.ErrTimeout)
		}
	}
}

func (w waiter) idle() error {
	return w.wait("busy", func(sr uint32) bool { return sr&BUSY == 0 })
}

// Exec runs cmd in indirect mode.  A non-nil rx makes it a read of
// len(rx) bytes; otherwise tx, which may be empty, is written.
func (c *Controller) Exec(cmd Command, rx, tx []byte) error {
	w := waiter{c, c.Tick.Tick()}
	if err := w.idle(); err != nil {
		return err
	}
	n := len(tx)
	mode := uint32(IndirectWrite)
	if rx != nil {
		n, mode = len(rx), IndirectRead
	}
	if n > 0 && cmd.DataMode == None {
		return fmt.Errorf("xspi: %d data bytes without a data phase", n)
	}
	FMODE.Set(c.Block, CR, mode)
	DLR.Set(c.Block, size(uint32(n)))
	TCR.Set(c.Block, cmd.TCR())
	CCR.Set(c.Block, cmd.CCR())
	IR.Set(c.Block, cmd.Instruction)
	if cmd.AddressMode != None {
		AR.Set(c.Block, cmd.Address)
	}
	dr := c.Addr(DR)
	for i := range tx {
		if err := w.wait("write", func(sr uint32) bool { return sr&FTF != 0 }); err != nil {
			return err
		}
		c.Bus.Store8(dr, tx[i])
	}
	for i := range rx {
		if err := w.wait("read", func(sr uint32) bool { return sr&(FTF|TCF) != 0 }); err != nil {
			return err
		}
		rx[i] = c.Bus.Load8(dr)
	}
	if err := w.wait("complete", func(sr uint32) bool { return sr&TCF != 0 }); err != nil {
		return err
	}
	FCR.Set(c.Block, CTCF)
	return nil
}

// MemoryMapped maps the device at the XSPI window with read and write
// describing the access commands.  Addresses in the commands are unused.
func (c *Controller) MemoryMapped(read, write Command) error {
	w := waiter{c, c.Tick.Tick()}
	if err := w.idle(); err != nil {
		return err
	}
	FMODE.Set(c.Block, CR, IndirectWrite)
	TCR.Set(c.Block, read.TCR())
	CCR.Set(c.Block, read.CCR())
	IR.Set(c.Block, read.Instruction)
	WTCR.Set(c.Block, write.TCR())
	WCCR.Set(c.Block, write.CCR())
	WIR.Set(c.Block, write.Instruction)
	if err := w.idle(); err != nil {
		return err
	}
	FMODE.Set(c.Block, CR, MemoryMapped)
	return nil
}
