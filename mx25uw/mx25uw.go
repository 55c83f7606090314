// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package mx25uw drives a Macronix MX25UW octal NOR flash behind an XSPI
// controller, in single line SPI and in octal STR and DTR modes.
package mx25uw

import (
	"errors"
	"fmt"

	"github.com/platinasystems/h7s3/tick"
	"github.com/platinasystems/h7s3/xspi"
)

const (
	ManufacturerID = 0xc2

	FlashSize  = 0x2000000
	BlockSize  = 0x10000
	SectorSize = 0x1000
	PageSize   = 0x100
)

// Single line commands
const (
	ReadIDCmd       = 0x9f
	WriteEnableCmd  = 0x06
	WriteCfgReg2Cmd = 0x72
	ReadStatusCmd   = 0x05
	FastReadCmd     = 0x0b
	FastRead4BCmd   = 0x0c
	PageProgCmd     = 0x02
	PageProg4BCmd   = 0x12
	SectorErase4B   = 0x21
)

// Octal commands: the opcode followed by its complement.
const (
	OPIReadIDCmd       = 0x9f60
	OPIWriteEnableCmd  = 0x06f9
	OPIWriteCfgReg2Cmd = 0x728d
	OPIReadStatusCmd   = 0x05fa
	OPIReadCmd         = 0xec13
	OPIReadDTRCmd      = 0xee11
	OPIPageProgCmd     = 0x12ed
	OPISectorEraseCmd  = 0x21de
)

// Status register
const (
	WIP = 1 << 0
	WEL = 1 << 1
)

const (
	// Dummy cycles
	SPIReadDummy  = 8
	OPIRegDummy   = 4
	OPIReadDummy  = 0x14
	CR2ModeAddr   = 0
	Timeout       = xspi.Timeout
	readIDLen     = 3
	dtrStatusSize = 2
)

type Interface uint8

const (
	SPI Interface = iota
	OPISTR
	OPIDTR
)

func (i Interface) String() string {
	switch i {
	case SPI:
		return "spi"
	case OPISTR:
		return "opi-str"
	case OPIDTR:
		return "opi-dtr"
	}
	return fmt.Sprintf("interface(%d)", uint8(i))
}

var (
	ErrID        = errors.New("unexpected manufacturer id")
	ErrInterface = errors.New("unknown interface")
	ErrPage      = errors.New("program crosses page boundary")
	ErrAlign     = errors.New("unaligned sector address")
)

type MX25UW struct {
	XSPI      *xspi.Controller
	Interface Interface
	ID        [readIDLen]byte
}

func New(c *xspi.Controller) *MX25UW { return &MX25UW{XSPI: c} }

// instruction returns the instruction phase for the current interface.
func (f *MX25UW) instruction(spi, opi uint32) (c xspi.Command, err error) {
	switch f.Interface {
	case SPI:
		c.Instruction = spi
		c.InstructionMode = xspi.Single
		c.InstructionSize = 1
	case OPISTR, OPIDTR:
		c.Instruction = opi
		c.InstructionMode = xspi.Octal
		c.InstructionSize = 2
		c.InstructionDTR = f.Interface == OPIDTR
	default:
		err = fmt.Errorf("mx25uw: %w: %v", ErrInterface, f.Interface)
	}
	return
}

// address adds a 4 byte address phase and a data phase on the lines of
// the current interface.
func (f *MX25UW) address(c *xspi.Command, addr uint32, data bool) {
	c.Address = addr
	c.AddressSize = 4
	c.AddressMode = c.InstructionMode
	c.AddressDTR = c.InstructionDTR
	if data {
		c.DataMode = c.InstructionMode
		c.DataDTR = c.InstructionDTR
	}
}

// Init reads the device identification and checks the manufacturer.
func (f *MX25UW) Init() error {
	if err := f.ReadID(); err != nil {
		return err
	}
	if f.ID[0] != ManufacturerID {
		return fmt.Errorf("mx25uw: %w: %#02x", ErrID, f.ID[0])
	}
	return nil
}

func (f *MX25UW) ReadID() error {
	c, err := f.instruction(ReadIDCmd, OPIReadIDCmd)
	if err != nil {
		return err
	}
	if f.Interface == SPI {
		c.DataMode = xspi.Single
	} else {
		f.address(&c, 0, true)
		c.DummyCycles = OPIRegDummy
		if f.Interface == OPIDTR {
			c.DataDTR = false
			c.DQS = true
			c.DHQC = true
		}
	}
	if err = f.XSPI.Exec(c, f.ID[:], nil); err != nil {
		return fmt.Errorf("mx25uw: read id: %w", err)
	}
	return nil
}

func (f *MX25UW) WriteEnable() error {
	c, err := f.instruction(WriteEnableCmd, OPIWriteEnableCmd)
	if err != nil {
		return err
	}
	c.DHQC = f.Interface == OPIDTR
	if err = f.XSPI.Exec(c, nil, nil); err != nil {
		return fmt.Errorf("mx25uw: write enable: %w", err)
	}
	return nil
}

// WriteConfig2 writes v to configuration register 2 at addr.  Write
// enable must precede it.
func (f *MX25UW) WriteConfig2(addr uint32, v uint8) error {
	c, err := f.instruction(WriteCfgReg2Cmd, OPIWriteCfgReg2Cmd)
	if err != nil {
		return err
	}
	f.address(&c, addr, true)
	if err = f.XSPI.Exec(c, nil, []byte{v}); err != nil {
		return fmt.Errorf("mx25uw: write cr2 %#x: %w", addr, err)
	}
	return nil
}

// SetupOPIDTR switches the device to octal DTR.
func (f *MX25UW) SetupOPIDTR() error {
	if err := f.WriteEnable(); err != nil {
		return err
	}
	if err := f.WriteConfig2(CR2ModeAddr, uint8(OPIDTR)); err != nil {
		return err
	}
	f.Interface = OPIDTR
	return nil
}

func (f *MX25UW) readCommand(addr uint32) (c xspi.Command, err error) {
	cmd := uint32(OPIReadCmd)
	if f.Interface == OPIDTR {
		cmd = OPIReadDTRCmd
	}
	if c, err = f.instruction(FastRead4BCmd, cmd); err != nil {
		return
	}
	f.address(&c, addr, true)
	if f.Interface == SPI {
		c.DummyCycles = SPIReadDummy
	} else {
		c.DummyCycles = OPIReadDummy
		c.DQS = true
		c.DHQC = f.Interface == OPIDTR
	}
	return
}

// MemoryMapped maps the device read and page program commands into the
// XSPI window.  In SPI mode the 3 byte address commands are used.
func (f *MX25UW) MemoryMapped() error {
	read, err := f.readCommand(0)
	if err != nil {
		return err
	}
	write, _ := f.instruction(PageProgCmd, OPIPageProgCmd)
	f.address(&write, 0, true)
	if f.Interface == SPI {
		read.Instruction = FastReadCmd
		read.AddressSize = 3
		write.AddressSize = 3
	}
	if err = f.XSPI.MemoryMapped(read, write); err != nil {
		return fmt.Errorf("mx25uw: memory mapped: %w", err)
	}
	return nil
}

func (f *MX25UW) ReadStatus() (uint8, error) {
	c, err := f.instruction(ReadStatusCmd, OPIReadStatusCmd)
	if err != nil {
		return 0, err
	}
	n := 1
	switch f.Interface {
	case SPI:
		c.DataMode = xspi.Single
	case OPIDTR:
		n = dtrStatusSize
		c.DQS = true
		c.DHQC = true
		fallthrough
	default:
		f.address(&c, 0, true)
		c.DummyCycles = OPIRegDummy
	}
	p := make([]byte, n)
	if err = f.XSPI.Exec(c, p, nil); err != nil {
		return 0, fmt.Errorf("mx25uw: read status: %w", err)
	}
	return p[0], nil
}

// WaitReady polls the status register until no write is in progress.
func (f *MX25UW) WaitReady() error {
	start := f.XSPI.Tick.Tick()
	for {
		s, err := f.ReadStatus()
		if err != nil {
			return err
		}
		if s&WIP == 0 {
			return nil
		}
		if tick.Elapsed(start, f.XSPI.Tick.Tick()) >= Timeout {
			return fmt.Errorf("mx25uw: write in progress: %w", tick.ErrTimeout)
		}
	}
}

// Read fills p from addr in indirect mode.
func (f *MX25UW) Read(addr uint32, p []byte) error {
	c, err := f.readCommand(addr)
	if err != nil {
		return err
	}
	if err = f.XSPI.Exec(c, p, nil); err != nil {
		return fmt.Errorf("mx25uw: read %#x: %w", addr, err)
	}
	return nil
}

// PageProgram programs p at addr and waits for completion.  p may not
// cross a page boundary.
func (f *MX25UW) PageProgram(addr uint32, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if addr%PageSize+uint32(len(p)) > PageSize {
		return fmt.Errorf("mx25uw: %w: %#x+%d", ErrPage, addr, len(p))
	}
	if err := f.WriteEnable(); err != nil {
		return err
	}
	c, err := f.instruction(PageProg4BCmd, OPIPageProgCmd)
	if err != nil {
		return err
	}
	f.address(&c, addr, true)
	if err = f.XSPI.Exec(c, nil, p); err != nil {
		return fmt.Errorf("mx25uw: program %#x: %w", addr, err)
	}
	return f.WaitReady()
}

// EraseSector erases the 4 KiB sector at addr and waits for completion.
func (f *MX25UW) EraseSector(addr uint32) error {
	if addr%SectorSize != 0 {
		return fmt.Errorf("mx25uw: %w: %#x", ErrAlign, addr)
	}
	if err := f.WriteEnable(); err != nil {
		return err
	}
	c, err := f.instruction(SectorErase4B, OPISectorEraseCmd)
	if err != nil {
		return err
	}
	f.address(&c, addr, false)
	if err = f.XSPI.Exec(c, nil, nil); err != nil {
		return fmt.Errorf("mx25uw: erase %#x: %w", addr, err)
	}
	return f.WaitReady()
}
