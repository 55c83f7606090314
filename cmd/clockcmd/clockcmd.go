// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clockcmd

import (
	"fmt"
	"strconv"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"

	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/lang"
	"github.com/platinasystems/h7s3/rcc"
)

type Command struct {
	Board *model.Board
}

func (Command) String() string { return "clocks" }

func (Command) Usage() string {
	return "clocks [-init] [-v] [-hse HZ] [-divn1 N] [-divp1 N]"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print or apply the clock tree plan",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Print the frequencies of the boot clock plan.  The plan may be
	changed with the PLL1 multiplier and P divider, or computed for
	another crystal.

OPTIONS
	-init	run the clock sequencer with the plan on the board
	-v	trace each sequencer stage
	-hse HZ	crystal frequency, default 24000000
	-divn1 N	PLL1 multiplier
	-divp1 N	PLL1 P divider`,
	}
}

func (c Command) Main(args ...string) (err error) {
	flag, args := flags.New(args, "-init", "-v")
	parm, args := parms.New(args, "-hse", "-divn1", "-divp1")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	plan := board.BootClockPlan
	hse := uint64(board.HSE)
	for _, x := range []struct {
		name string
		bits int
		set  func(uint64)
	}{
		{"-hse", 32, func(v uint64) { hse = v }},
		{"-divn1", 9, func(v uint64) { plan.PLL1.DIVN = uint16(v) }},
		{"-divp1", 8, func(v uint64) { plan.PLL1.DIVP = uint8(v) }},
	} {
		s := parm.ByName[x.name]
		if len(s) == 0 {
			continue
		}
		v, err := strconv.ParseUint(s, 0, x.bits)
		if err != nil {
			return fmt.Errorf("%s: %v", s, err)
		}
		x.set(v)
	}
	st, err := rcc.Frequencies(plan, uint32(hse))
	if err != nil {
		return err
	}
	fmt.Fprintln(goes.Stdout, st)
	if !flag.ByName["-init"] {
		return nil
	}
	s := rcc.New(c.Board.Bus, c.Board.Tick)
	if flag.ByName["-v"] {
		s.Trace = func(st rcc.Stage, pll int) {
			log.Print("info", "rcc: ", st, " pll", pll)
		}
	}
	if err = s.Init(plan); err != nil {
		return err
	}
	hseOk, pll1, pll2, pll3 := s.Ready()
	fmt.Fprintf(goes.Stdout, "cpu %v hse %t pll1 %t pll2 %t pll3 %t\n",
		s.CPUSource(), hseOk, pll1, pll2, pll3)
	return nil
}
