// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package regcmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"

	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/flash"
	"github.com/platinasystems/h7s3/gpio"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/lang"
	"github.com/platinasystems/h7s3/pwr"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/sbs"
	"github.com/platinasystems/h7s3/scb"
	"github.com/platinasystems/h7s3/tick"
	"github.com/platinasystems/h7s3/xspi"
)

// Blocks may stand for the base of an ADDRESS, as in rcc+0x10.
var Blocks = map[string]uint32{
	"eth":     eth.Base,
	"flash":   flash.Base,
	"gpioa":   gpio.BaseA,
	"pwr":     pwr.Base,
	"rcc":     rcc.Base,
	"sbs":     sbs.Base,
	"scb":     scb.Base,
	"systick": tick.SysTickBase,
	"xspi1":   xspi.XSPI1Base,
	"xspi2":   xspi.XSPI2Base,
	"xspim":   xspi.XSPIMBase,
}

// BlockSize bytes are printed by -dump.
const BlockSize = 0x400

type Command struct {
	Board *model.Board
}

func (Command) String() string { return "reg" }

func (Command) Usage() string {
	return "reg [[-r] | -w] ADDRESS [-D DATA] [-n COUNT] | -dump BLOCK | -counts"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "read/write the board's memory mapped registers",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	This command reads and writes 32 bit registers.
	  -r to read, default
	  -w to write
	     ADDRESS is a hex value, or a block name and offset,
	     e.g. rcc+0x10
	  -D DATA is a hex value
	  -n COUNT reads COUNT words; output to a terminal has four words
	     a line, otherwise each word is an address, tab, value line
	  -dump prints the non-zero words of a block's first BlockSize
	     bytes without side effects
	  -counts prints the loads and stores issued so far`,
	}
}

func (c Command) Main(args ...string) (err error) {
	flag, args := flags.New(args, "-r", "-w", "-counts")
	parm, args := parms.New(args, "-D", "-n", "-dump")
	bus := c.Board.Bus
	if flag.ByName["-counts"] {
		loads, stores := bus.Counts()
		fmt.Fprintf(goes.Stdout, "loads %d stores %d\n", loads, stores)
		return nil
	}
	if s := parm.ByName["-dump"]; len(s) > 0 {
		base, found := Blocks[strings.ToLower(s)]
		if !found {
			return fmt.Errorf("%s: not one of %s", s,
				strings.Join(Names(), ", "))
		}
		fmt.Fprint(goes.Stdout, bus.Dump(base, base+BlockSize))
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("ADDRESS: missing")
	}
	if len(args) > 1 {
		return fmt.Errorf("%v: unexpected", args[1:])
	}
	if parm.ByName["-D"] == "" {
		parm.ByName["-D"] = "0x0"
	}
	if parm.ByName["-n"] == "" {
		parm.ByName["-n"] = "1"
	}

	var a uint32
	var d, n uint64

	if a, err = Parse(args[0]); err != nil {
		return
	}
	if a&3 != 0 {
		return fmt.Errorf("%s: unaligned", args[0])
	}
	if d, err = strconv.ParseUint(parm.ByName["-D"], 0, 32); err != nil {
		return fmt.Errorf("%s: %v", parm.ByName["-D"], err)
	}
	if n, err = strconv.ParseUint(parm.ByName["-n"], 0, 16); err != nil {
		return fmt.Errorf("%s: %v", parm.ByName["-n"], err)
	}

	if flag.ByName["-w"] {
		bus.Store32(a, uint32(d))
		return nil
	}
	w := goes.Stdout
	if goes.IsTerminal(w) {
		for i := uint64(0); i < n; i++ {
			if i%4 == 0 {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%08x:", a)
			}
			fmt.Fprintf(w, " %08x", bus.Load32(a))
			a += 4
		}
		fmt.Fprintln(w)
		return nil
	}
	for i := uint64(0); i < n; i++ {
		fmt.Fprintf(w, "%#08x\t%#08x\n", a, bus.Load32(a))
		a += 4
	}
	return nil
}

// Parse an ADDRESS: a number, or a Blocks name optionally followed by
// +OFFSET.
func Parse(s string) (uint32, error) {
	name, off, plus := strings.Cut(s, "+")
	base, found := Blocks[strings.ToLower(name)]
	if !found {
		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("%s: %v; blocks are %s", s, err,
				strings.Join(Names(), ", "))
		}
		return uint32(v), nil
	}
	if !plus {
		return base, nil
	}
	v, err := strconv.ParseUint(off, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", s, err)
	}
	return base + uint32(v), nil
}

// Names of Blocks, sorted.
func Names() []string {
	names := make([]string, 0, len(Blocks))
	for k := range Blocks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
