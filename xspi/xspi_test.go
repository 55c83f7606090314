// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package xspi_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/mx25uw"
	"github.com/platinasystems/h7s3/pwr"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/sbs"
	"github.com/platinasystems/h7s3/tick"
	. "github.com/platinasystems/h7s3/xspi"
)

func setup() (*Controller, *model.XSPI, *sim.Bus) {
	bus := sim.New()
	m := model.NewXSPI(bus, model.NewMX25UW())
	c := New(bus, XSPI2Base, tick.NewStepper(0, 1))
	c.Init()
	return c, m, bus
}

func TestInit(t *testing.T) {
	c, _, bus := setup()
	at := func(base uint32, r hw.Reg) uint32 { return bus.Get(base + r.Offset()) }
	cr := at(XSPI2Base, CR)
	if cr&EN == 0 || FTHRES.Get(cr) != FIFOThreshold || MSEL.Get(cr) != 0 || cr&CSSEL != 0 {
		t.Errorf("cr %#x", cr)
	}
	dcr1 := at(XSPI2Base, DCR1)
	if MTYP.Get(dcr1) != MacronixMode || DEVSIZE.Get(dcr1) != DeviceSize ||
		CSHT.Get(dcr1) != ChipSelectHigh || dcr1&CKMODE != 0 {
		t.Errorf("dcr1 %#x", dcr1)
	}
	if p := c.Prescaler(); p != Prescaler {
		t.Error("prescaler", p)
	}
	if v := at(XSPIMBase, CR); v != CSSELOvrO1|CSSELOvrEN {
		t.Errorf("xspim cr %#x", v)
	}
	if v := at(rcc.Base, rcc.AHB5ENR); v&(rcc.XSPI2EN|rcc.XSPIMEN) != rcc.XSPI2EN|rcc.XSPIMEN {
		t.Errorf("ahb5enr %#x", v)
	}
	if v := rcc.XSPI2SEL.Get(at(rcc.Base, rcc.CCIPR1)); v != rcc.XSPIKernelPLL2T {
		t.Error("kernel clock", v)
	}
	if at(pwr.Base, pwr.CSR2)&pwr.ENXSPIM2 == 0 {
		t.Error("port 2 supply off")
	}
	if at(sbs.Base, sbs.CCCSR)&sbs.XSPI2IOHSLV == 0 {
		t.Error("hslv off")
	}
	c.MaxFrequency()
	if p := c.Prescaler(); p != 0 {
		t.Error("max frequency prescaler", p)
	}
}

func TestCommand(t *testing.T) {
	c := Command{
		Instruction:     0xee11,
		InstructionMode: Octal,
		InstructionSize: 2,
		InstructionDTR:  true,
		AddressMode:     Octal,
		AddressSize:     4,
		AddressDTR:      true,
		DataMode:        Octal,
		DataDTR:         true,
		DummyCycles:     0x14,
		DQS:             true,
		DHQC:            true,
	}
	ccr := c.CCR()
	if IMODE.Get(ccr) != 4 || ISIZE.Get(ccr) != 1 || ADMODE.Get(ccr) != 4 ||
		ADSIZE.Get(ccr) != 3 || DMODE.Get(ccr) != 4 {
		t.Errorf("ccr fields %#x", ccr)
	}
	if ccr&(IDTR|ADDTR|DDTR|DQSE) != IDTR|ADDTR|DDTR|DQSE {
		t.Errorf("ccr dtr %#x", ccr)
	}
	if tcr := c.TCR(); DCYC.Get(tcr) != 0x14 || tcr&DHQC == 0 {
		t.Errorf("tcr %#x", tcr)
	}
	// no address phase, no address size
	c = Command{Instruction: 0x06, InstructionMode: Single, InstructionSize: 1, AddressSize: 4}
	if ccr := c.CCR(); ccr != IMODE.Put(1) {
		t.Errorf("single ccr %#x", ccr)
	}
	if Octal.String() != "octal" || Lines(9).String() != "lines(9)" {
		t.Error("lines string")
	}
}

func readID() Command {
	return Command{
		Instruction:     mx25uw.ReadIDCmd,
		InstructionMode: Single,
		InstructionSize: 1,
		DataMode:        Single,
	}
}

func TestExec(t *testing.T) {
	c, m, bus := setup()
	id := make([]byte, 3)
	if err := c.Exec(readID(), id, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(id, m.Flash.ID[:]) {
		t.Errorf("id % x", id)
	}
	if c.Mode() != IndirectRead {
		t.Error("mode", c.Mode())
	}
	if v := bus.Get(XSPI2Base + DLR.Offset()); v != 2 {
		t.Error("dlr", v)
	}
	we := Command{Instruction: mx25uw.WriteEnableCmd, InstructionMode: Single, InstructionSize: 1}
	if err := c.Exec(we, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !m.Flash.WEL {
		t.Error("write enable not latched")
	}
	if err := c.Exec(we, nil, []byte{1}); err == nil {
		t.Error("data without a data phase")
	}
	if v := m.Violations(); len(v) > 0 {
		t.Error(v)
	}
}

func TestExecErrors(t *testing.T) {
	c, m, _ := setup()
	m.TransferError = true
	if err := c.Exec(readID(), make([]byte, 3), nil); !errors.Is(err, ErrTransfer) {
		t.Error("transfer error wrong:", err)
	}
	if err := c.Exec(readID(), make([]byte, 3), nil); err != nil {
		t.Error("after transfer error:", err)
	}
	m.StuckBusy = true
	c.Timeout = 50
	if err := c.Exec(readID(), make([]byte, 3), nil); !errors.Is(err, tick.ErrTimeout) {
		t.Error("stuck busy wrong:", err)
	}
	if err := c.MemoryMapped(readID(), readID()); !errors.Is(err, tick.ErrTimeout) {
		t.Error("stuck busy mapped wrong:", err)
	}
}

func TestMemoryMapped(t *testing.T) {
	c, m, bus := setup()
	m.Flash.Mem[0] = 0x5a
	m.Flash.Mem[0x1001] = 0xa5
	read := Command{
		Instruction:     mx25uw.FastReadCmd,
		InstructionMode: Single,
		InstructionSize: 1,
		AddressMode:     Single,
		AddressSize:     3,
		DataMode:        Single,
		DummyCycles:     8,
	}
	write := read
	write.Instruction, write.DummyCycles = mx25uw.PageProgCmd, 0
	if err := c.MemoryMapped(read, write); err != nil {
		t.Fatal(err)
	}
	if c.Mode() != MemoryMapped || !m.Mapped {
		t.Error("not mapped")
	}
	if v := bus.Get(XSPI2Base + WIR.Offset()); v != mx25uw.PageProgCmd {
		t.Errorf("wir %#x", v)
	}
	if v := DCYC.Get(bus.Get(XSPI2Base + TCR.Offset())); v != 8 {
		t.Error("dummy cycles", v)
	}
	p := bus.ReadBytes(Window2, 2)
	q := bus.ReadBytes(Window2+0x1000, 2)
	if p[0] != 0x5a || q[1] != 0xa5 {
		t.Errorf("window % x % x", p, q)
	}
	if len(m.Flash.Ops) != 0 {
		t.Error("mapping ran a command", m.Flash.Ops)
	}
}
