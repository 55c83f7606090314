// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package app is the image run from the mapped octal flash: it brings
// the Ethernet MAC and PHY up and keeps a heartbeat on the green LED.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/log"
	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/gpio"
	"github.com/platinasystems/h7s3/halt"
	"github.com/platinasystems/h7s3/lan8742"
	"github.com/platinasystems/h7s3/scb"
	"github.com/platinasystems/h7s3/tick"
)

const (
	// LinkTimeout bounds WaitLink.
	LinkTimeout     = 10000
	HeartbeatPeriod = 1000
)

// Link polls back off from LinkPollMin to LinkPollMax.
var (
	LinkPollMin = 10 * time.Millisecond
	LinkPollMax = 500 * time.Millisecond
)

type App struct {
	Bus     hw.Bus
	SysTick *tick.SysTick
	Tick    tick.Source
	Halter  halt.Halter
	Config  eth.Config

	LinkTimeout uint32

	MAC                *eth.MAC
	PHY                *lan8742.LAN8742
	GPIO               *gpio.GPIO
	Green, Yellow, Red gpio.LED

	// Link is the negotiated mode once Run returns.
	Link phy.LinkMode

	// rxBufs are all receive buffers, free those not given to the ring.
	rxBufs, free []uint32
	// Received counts frames drained by Poll.
	Received int
}

func New(bus hw.Bus, h halt.Halter) *App {
	st := tick.NewSysTick(bus)
	g := gpio.New(bus)
	a := &App{
		Bus:         bus,
		SysTick:     st,
		Halter:      h,
		Config:      board.ETHConfig(),
		LinkTimeout: LinkTimeout,
		GPIO:        g,
		Green:       gpio.LED{GPIO: g, Pin: board.LEDGreen},
		Yellow:      gpio.LED{GPIO: g, Pin: board.LEDYellow},
		Red:         gpio.LED{GPIO: g, Pin: board.LEDRed},
	}
	a.MAC = eth.New(bus, st, hw.NewDmaRegion(board.DMABase, board.DMASize))
	a.PHY = lan8742.New(a.MAC, st)
	a.SetTick(st)
	return a
}

func (a *App) SetTick(src tick.Source) {
	a.Tick = src
	a.MAC.Tick = src
	a.PHY.Tick = src
}

// Indicate is the fatal error display: red on, the others off.
func (a *App) Indicate() {
	a.Green.Off()
	a.Yellow.Off()
	a.Red.On()
}

// Run brings the network up.  Yellow is lit until the link is up.  The
// first failure is handed to the Halter and returned.
func (a *App) Run() error {
	for _, s := range []struct {
		name string
		f    func() error
	}{
		{"vectors", a.vectors},
		{"systick", func() error { return a.SysTick.Configure(board.CPUHz) }},
		{"leds", a.leds},
		{"eth", func() error { return a.MAC.Init(a.Config) }},
		{"rx buffers", a.rxBuffers},
		{"lan8742", a.initPHY},
		{"link", a.link},
	} {
		log.Print("info", "app: ", s.name)
		if err := s.f(); err != nil {
			err = fmt.Errorf("app: %s: %w", s.name, err)
			a.Halter.Halt(err)
			return err
		}
	}
	return nil
}

func (a *App) vectors() error {
	s := scb.New(a.Bus)
	s.SetVectorTable(board.AppVectors)
	s.EnableFPU()
	return nil
}

func (a *App) leds() error {
	for _, l := range []gpio.LED{a.Green, a.Yellow, a.Red} {
		l.Init()
	}
	a.Yellow.On()
	return nil
}

// rxBuffers fills every receive descriptor before the DMA is started.
func (a *App) rxBuffers() error {
	if a.rxBufs == nil {
		n, size := a.MAC.Rx.Capacity(), a.MAC.Rx.BufSize()
		for i := 0; i < n; i++ {
			b, err := a.MAC.DMA.DmaAllocAligned(size, 2)
			if err != nil {
				return err
			}
			a.rxBufs = append(a.rxBufs, b)
		}
	}
	a.free = append(a.free[:0], a.rxBufs...)
	a.refill()
	if a.MAC.Rx.Pending() != 0 {
		return fmt.Errorf("%d of %d descriptors built", a.MAC.Rx.Built(),
			a.MAC.Rx.Capacity())
	}
	return nil
}

func (a *App) refill() int {
	return a.MAC.Rx.Refill(func() (b1, b2 uint32, ok bool) {
		if len(a.free) == 0 {
			return
		}
		b1, a.free = a.free[len(a.free)-1], a.free[:len(a.free)-1]
		return b1, 0, true
	})
}

// Poll drains every received frame, hands its buffers back to the ring
// and returns the frames' bytes.
func (a *App) Poll() (frames [][]byte) {
	if a.MAC.Rx == nil {
		return
	}
	for {
		f, ok := a.MAC.Rx.Receive()
		if !ok {
			break
		}
		if !f.Err {
			frames = append(frames, f.Bytes(a.MAC.Mem))
		}
		for _, b := range f.Buffers {
			a.free = append(a.free, b.Addr)
		}
		a.Received++
	}
	a.MAC.Tx.Reclaim()
	a.refill()
	return
}

func (a *App) initPHY() error {
	if err := a.PHY.Init(); err != nil {
		return err
	}
	log.Print("info", "app: lan8742 at ", a.PHY.PHYAddr())
	return a.PHY.EnableAutoNegotiation()
}

func (a *App) link() (err error) {
	if a.Link, err = a.WaitLink(); err != nil {
		return
	}
	if err = a.MAC.SetLink(a.Link); err != nil {
		return
	}
	a.MAC.Start()
	a.Yellow.Off()
	log.Print("info", "app: link ", a.Link)
	return
}

// WaitLink polls the PHY until auto-negotiation settles on a link,
// backing off between polls, for at most LinkTimeout ticks.
func (a *App) WaitLink() (phy.LinkMode, error) {
	b := &backoff.Backoff{Min: LinkPollMin, Max: LinkPollMax, Factor: 2}
	start := a.Tick.Tick()
	for {
		l, err := a.PHY.LinkState()
		switch {
		case err == nil && l != phy.LinkDown:
			return l, nil
		case err != nil && !errors.Is(err, lan8742.ErrAutoNegotiationNotDone):
			return phy.LinkDown, err
		}
		if tick.Elapsed(start, a.Tick.Tick()) >= a.LinkTimeout {
			return phy.LinkDown, fmt.Errorf("%w after %d polls", eth.ErrLinkDown,
				int(b.Attempt()))
		}
		tick.Delay(a.Tick, uint32(b.Duration()/time.Millisecond))
	}
}

// Heartbeat toggles green every HeartbeatPeriod ticks, n times or, for
// n <= 0, forever.  The receive ring is polled on every beat.
func (a *App) Heartbeat(n int) {
	for i := 0; n <= 0 || i < n; i++ {
		tick.Delay(a.Tick, HeartbeatPeriod)
		a.Poll()
		a.Green.Toggle()
	}
}
