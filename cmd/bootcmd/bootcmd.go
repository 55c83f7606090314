// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package bootcmd

import (
	"fmt"
	"strings"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"

	"github.com/platinasystems/h7s3/boot"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/lang"
	"github.com/platinasystems/h7s3/rcc"
)

type Command struct {
	Board *model.Board
}

func (Command) String() string { return "boot" }

func (Command) Usage() string {
	return "boot [-v] [-no-hse] [-erased]"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "run the first stage loader",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Run the boot sequence on the board: supply, flash wait states,
	clock tree, octal flash in DTR mode, memory mapped at 0x70000000,
	then print the stack pointer and reset vector it would jump to.

OPTIONS
	-v	trace each clock sequencer stage
	-no-hse	boot with a dead crystal
	-erased	erase the external flash first`,
	}
}

func (c Command) Main(args ...string) error {
	flag, args := flags.New(args, "-v", "-no-hse", "-erased")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	b := c.Board
	if flag.ByName["-no-hse"] {
		b.RCC.HSE = false
		defer func() { b.RCC.HSE = true }()
	}
	if flag.ByName["-erased"] {
		b.Bus.Locked(func() {
			for a := range b.XSPI.Flash.Mem {
				delete(b.XSPI.Flash.Mem, a)
			}
		})
	}
	h := new(halt.Recorder)
	var jumped bool
	var sp, pc uint32
	bt := boot.New(b.Bus, h, boot.JumperFunc(func(s, p uint32) {
		jumped, sp, pc = true, s, p
	}))
	bt.SetTick(b.Tick)
	if flag.ByName["-v"] {
		bt.RCC.Trace = func(st rcc.Stage, pll int) {
			if pll == 0 {
				log.Print("info", "rcc: ", st)
			} else {
				log.Print("info", "rcc: ", st, " pll", pll)
			}
		}
	}
	if err := bt.Run(); err != nil {
		return err
	}
	if v := b.Violations(); len(v) > 0 {
		return fmt.Errorf("%s", strings.Join(v, "; "))
	}
	if !jumped {
		return fmt.Errorf("no jump")
	}
	fmt.Fprintf(goes.Stdout, "flash %s id % x\n", bt.Flash.Interface,
		bt.Flash.ID[:])
	fmt.Fprintf(goes.Stdout, "jump sp %#x pc %#x\n", sp, pc)
	return nil
}
