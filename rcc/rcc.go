// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package rcc sequences the STM32H7S3 reset and clock controller from
// reset to a Plan: oscillators, the three PLLs, the domain prescalers and
// finally the CPU clock switch.
//
// The sequencer never halts.  It returns an *Error naming the stage that
// failed, and the caller hands it to its halt.Halter.
package rcc

import (
	"errors"
	"fmt"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/tick"
)

var (
	ErrTimedOut             = errors.New("timed out")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

type Stage int

const (
	Reset Stage = iota
	HSEEnable
	HSEReady
	CSSEnable
	PLLSourceSelect
	PLLConfigure
	PLLEnable
	PLLReady
	BusDividers
	CPUSourceSelect
	CPUSourceConfirmed
)

var stageNames = [...]string{
	Reset:              "reset",
	HSEEnable:          "hse enable",
	HSEReady:           "hse ready",
	CSSEnable:          "css enable",
	PLLSourceSelect:    "pll source select",
	PLLConfigure:       "pll configure",
	PLLEnable:          "pll enable",
	PLLReady:           "pll ready",
	BusDividers:        "bus dividers",
	CPUSourceSelect:    "cpu source select",
	CPUSourceConfirmed: "cpu source confirmed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

type Error struct {
	Stage Stage
	PLL   int // 1 to 3 for the PLL stages
	Err   error
}

func (e *Error) Error() string {
	if e.PLL != 0 {
		return fmt.Sprintf("rcc: %s pll%d: %v", e.Stage, e.PLL, e.Err)
	}
	return fmt.Sprintf("rcc: %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeouts in ticks.  HSE is the boot contract; the PLL lock and clock
// switch waits were unbounded on earlier firmware, tick.Forever restores
// that.
type Timeouts struct {
	HSE         uint32
	PLLReady    uint32
	ClockSwitch uint32
}

var DefaultTimeouts = Timeouts{
	HSE:         100,
	PLLReady:    100,
	ClockSwitch: 100,
}

// Sequencer is one RCC instance.  It holds no clock state of its own;
// everything it knows is read back from the registers.
type Sequencer struct {
	hw.Block
	Tick     tick.Source
	Timeouts Timeouts
	// Trace, if set, sees each stage as it is entered.
	Trace func(s Stage, pll int)

	stage Stage
	pll   int
}

func New(bus hw.Bus, src tick.Source) *Sequencer {
	return &Sequencer{
		Block:    hw.Block{Bus: bus, Base: Base},
		Tick:     src,
		Timeouts: DefaultTimeouts,
	}
}

// Stage is the last stage entered by Init.
func (s *Sequencer) Stage() Stage { return s.stage }

func (s *Sequencer) enter(st Stage, pll int) {
	s.stage, s.pll = st, pll
	if s.Trace != nil {
		s.Trace(st, pll)
	}
}

func (s *Sequencer) fail(err error) error {
	return &Error{Stage: s.stage, PLL: s.pll, Err: err}
}

func (s *Sequencer) wait(timeout uint32, ready func() bool) error {
	return tick.Until(s.Tick, timeout, ready, func() error {
		return s.fail(ErrTimedOut)
	})
}

// Init applies p.  A nil return means the CPU runs on p.Clock.
func (s *Sequencer) Init(p Plan) error {
	s.enter(Reset, 0)
	if err := p.Validate(); err != nil {
		return s.fail(err)
	}
	// PLL1 can not be stopped while it clocks the CPU.
	if SWS.Read(s.Block, CFGR) == uint32(CPUSourcePLL1) {
		if err := s.switchTo(CPUSourceHSI); err != nil {
			return err
		}
	}

	s.enter(HSEEnable, 0)
	if p.HSE {
		CR.Or(s.Block, HSEON)
		s.enter(HSEReady, 0)
		if err := s.wait(s.Timeouts.HSE, func() bool {
			return CR.IsSet(s.Block, HSERDY)
		}); err != nil {
			return err
		}
	} else {
		CR.AndNot(s.Block, HSEON)
	}

	s.enter(CSSEnable, 0)
	if p.CSS {
		CR.Or(s.Block, HSECSSON)
	} else {
		CR.AndNot(s.Block, HSECSSON)
	}

	s.enter(PLLSourceSelect, 0)
	for n := 1; n <= 3; n++ {
		CR.AndNot(s.Block, pllRegSets[n].on)
	}
	PLLSRC.Set(s.Block, PLLCKSELR, uint32(p.PLLSource))
	DIVM1.Set(s.Block, PLLCKSELR, uint32(p.DIVM1))
	DIVM2.Set(s.Block, PLLCKSELR, uint32(p.DIVM2))
	DIVM3.Set(s.Block, PLLCKSELR, uint32(p.DIVM3))

	for n := 1; n <= 3; n++ {
		if err := s.initPLL(n, p.pll(n)); err != nil {
			return err
		}
	}

	s.enter(BusDividers, 0)
	CPRE.Set(s.Block, CDCFGR, uint32(p.CPU))
	BMPRE.Set(s.Block, BMCFGR, uint32(p.Bus))
	PPRE1.Set(s.Block, APBCFGR, uint32(p.APB1))
	PPRE2.Set(s.Block, APBCFGR, uint32(p.APB2))
	PPRE4.Set(s.Block, APBCFGR, uint32(p.APB4))
	PPRE5.Set(s.Block, APBCFGR, uint32(p.APB5))

	return s.switchCPU(p.Clock)
}

func (s *Sequencer) switchCPU(src CPUSource) error {
	s.enter(CPUSourceSelect, 0)
	SW.Set(s.Block, CFGR, uint32(src))
	s.enter(CPUSourceConfirmed, 0)
	return s.confirm(src)
}

func (s *Sequencer) switchTo(src CPUSource) error {
	SW.Set(s.Block, CFGR, uint32(src))
	return s.confirm(src)
}

func (s *Sequencer) confirm(src CPUSource) error {
	return s.wait(s.Timeouts.ClockSwitch, func() bool {
		return SWS.Read(s.Block, CFGR) == uint32(src)
	})
}

// InitOrHalt is Init with the fatal policy applied: any failure goes to
// h, which does not return on target.
func (s *Sequencer) InitOrHalt(p Plan, h halt.Halter) error {
	err := s.Init(p)
	if err != nil {
		h.Halt(err)
	}
	return err
}

func (s *Sequencer) initPLL(n int, pll *PLL) error {
	if !pll.Enable {
		return nil
	}
	regs := pllRegSets[n]
	s.enter(PLLConfigure, n)
	vcosel(n).Set(s.Block, PLLCFGR, uint32(pll.VCO))
	pllrge(n).Set(s.Block, PLLCFGR, uint32(pll.Range))
	s.SetDIVN(n, pll.DIVN)
	for o := P; o <= T; o++ {
		if hasOutput(n, o) {
			s.SetOutput(n, o, pll.divider(o))
		}
	}
	s.SetFractional(n, pll.FRACN)

	s.enter(PLLEnable, n)
	CR.Or(s.Block, regs.on)
	s.enter(PLLReady, n)
	return s.wait(s.Timeouts.PLLReady, func() bool {
		return CR.IsSet(s.Block, regs.rdy)
	})
}

// NPLL is the number of PLLs, numbered from 1.
const NPLL = 3

func validPLL(n int) bool { return n >= 1 && n <= NPLL }

// hasOutput reports whether PLL n has post divider o; only PLL2 has T.
func hasOutput(n int, o Output) bool {
	return validPLL(n) && o >= P && o <= T && (o != T || n == 2)
}

// SetDIVN programs multiplier d of PLL n as d-1.  Values outside 8 to
// 420, and PLLs other than 1 to 3, leave the registers as they were.
func (s *Sequencer) SetDIVN(n int, d uint16) {
	if !validPLL(n) || !divNInRange(d) {
		return
	}
	DIVN.Set(s.Block, pllRegSets[n].divr1, uint32(d-1))
}

// SetOutput programs post divider o of PLL n.  A divider the output can
// not take clears its enable and leaves the field as it was.  An output
// the PLL does not have is ignored.
func (s *Sequencer) SetOutput(n int, o Output, d uint8) {
	if !hasOutput(n, o) {
		return
	}
	en := outEnable(n, o)
	if !o.enabled(d) {
		PLLCFGR.AndNot(s.Block, en)
		return
	}
	PLLCFGR.Or(s.Block, en)
	r, f := outputField(n, o)
	f.Set(s.Block, r, uint32(d-1))
}

func outputField(n int, o Output) (hw.Reg, hw.Field) {
	regs := pllRegSets[n]
	switch o {
	case P:
		return regs.divr1, DIVP
	case Q:
		return regs.divr1, DIVQ
	case R:
		return regs.divr1, DIVR
	case S:
		return regs.divr2, DIVS
	}
	return regs.divr2, DIVT
}

// SetFractional re-latches the fractional multiplier: FRACEN off, new
// FRACN, FRACEN on, then at least one tick before the PLL may be enabled.
func (s *Sequencer) SetFractional(n int, fracn uint16) {
	if !validPLL(n) {
		return
	}
	PLLCFGR.AndNot(s.Block, fracen(n))
	FRACN.Set(s.Block, pllRegSets[n].fracr, uint32(fracn))
	PLLCFGR.Or(s.Block, fracen(n))
	tick.Delay(s.Tick, 1)
}

// CPUSource is the clock the CPU currently runs on.
func (s *Sequencer) CPUSource() CPUSource {
	return CPUSource(SWS.Read(s.Block, CFGR))
}

// Ready reports the oscillator and PLL ready flags.
func (s *Sequencer) Ready() (hse, pll1, pll2, pll3 bool) {
	cr := CR.Get(s.Block)
	return cr&HSERDY != 0, cr&PLL1RDY != 0, cr&PLL2RDY != 0, cr&PLL3RDY != 0
}
