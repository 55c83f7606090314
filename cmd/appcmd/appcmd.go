// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package appcmd

import (
	"fmt"
	"strconv"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/app"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/lang"
)

// Modes are the -mode values, the link the PHY negotiates.
var Modes = map[string]phy.LinkMode{
	"100fdx": phy.Link100FDX,
	"100hdx": phy.Link100HDX,
	"10fdx":  phy.Link10FDX,
	"10hdx":  phy.Link10HDX,
}

type Command struct {
	Board *model.Board
}

func (Command) String() string { return "app" }

func (Command) Usage() string {
	return "app [-no-link] [-mode MODE] [-timeout MS] [-beats N]"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "run the application network bring-up",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Run the application on the board: LEDs, Ethernet MAC and DMA
	rings, LAN8742 reset and auto-negotiation, then wait for the link
	and start the MAC.

OPTIONS
	-no-link	leave the cable unplugged
	-mode MODE	negotiate 100fdx (default), 100hdx, 10fdx or 10hdx
	-timeout MS	give up on the link after MS milliseconds
	-beats N	toggle the heartbeat LED N times once up`,
	}
}

func (c Command) Main(args ...string) (err error) {
	flag, args := flags.New(args, "-no-link")
	parm, args := parms.New(args, "-mode", "-timeout", "-beats")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	mode := phy.Link100FDX
	if s := parm.ByName["-mode"]; len(s) > 0 {
		var found bool
		if mode, found = Modes[s]; !found {
			return fmt.Errorf("%s: unknown mode", s)
		}
	}
	var timeout, beats uint64
	if s := parm.ByName["-timeout"]; len(s) > 0 {
		if timeout, err = strconv.ParseUint(s, 0, 32); err != nil {
			return fmt.Errorf("%s: %v", s, err)
		}
	}
	if s := parm.ByName["-beats"]; len(s) > 0 {
		if beats, err = strconv.ParseUint(s, 0, 16); err != nil {
			return fmt.Errorf("%s: %v", s, err)
		}
	}

	b := c.Board
	b.Bus.Locked(func() {
		b.PHY.Link = !flag.ByName["-no-link"]
		b.PHY.AutoDone = b.PHY.Link
		b.PHY.Mode = mode
	})
	h := new(halt.Recorder)
	a := app.New(b.Bus, h)
	a.SetTick(b.Tick)
	h.Indicate = a.Indicate
	if timeout > 0 {
		a.LinkTimeout = uint32(timeout)
	}
	defer func() {
		fmt.Fprintf(goes.Stdout, "leds green %t yellow %t red %t\n",
			a.Green.IsOn(), a.Yellow.IsOn(), a.Red.IsOn())
	}()
	if err = a.Run(); err != nil {
		return
	}
	mbps, full := a.MAC.Link()
	fmt.Fprintf(goes.Stdout, "link %dM full-duplex %t mac %v\n", mbps, full,
		a.MAC.HardwareAddr())
	if beats > 0 {
		a.Heartbeat(int(beats))
	}
	return
}
