// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package ringcmd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/platinasystems/parms"
	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/lang"
)

const (
	MinLen = 14
	MaxLen = 1518
)

type Command struct {
	Board *model.Board
}

func (Command) String() string { return "rings" }

func (Command) Usage() string {
	return "rings [-send N] [-recv N] [-len BYTES]"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "exercise and print the Ethernet DMA descriptor rings",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Initialize and start the MAC, fill the receive ring, then send and
	receive frames through the DMA engine and print both rings.
	Output to a terminal is aligned; otherwise each descriptor is a
	line of tab separated fields.

OPTIONS
	-send N		transmit N frames
	-recv N		receive N frames
	-len BYTES	frame length, 14 to 1518, default 60`,
	}
}

func (c Command) Main(args ...string) (err error) {
	parm, args := parms.New(args, "-send", "-recv", "-len")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	var send, recv uint64
	n := uint64(60)
	for _, x := range []struct {
		name string
		v    *uint64
	}{
		{"-send", &send},
		{"-recv", &recv},
		{"-len", &n},
	} {
		if s := parm.ByName[x.name]; len(s) > 0 {
			if *x.v, err = strconv.ParseUint(s, 0, 16); err != nil {
				return fmt.Errorf("%s: %v", s, err)
			}
		}
	}
	if n < MinLen || n > MaxLen {
		return fmt.Errorf("%d: frame length out of range", n)
	}

	b := c.Board
	m := eth.New(b.Bus, b.Tick, hw.NewDmaRegion(board.DMABase, board.DMASize))
	cfg := board.ETHConfig()
	if err = m.Init(cfg); err != nil {
		return
	}
	if err = m.SetLink(phy.Link100FDX); err != nil {
		return
	}
	var free []uint32
	for i := 0; i < cfg.RxCount; i++ {
		a, err := m.DMA.DmaAlloc(cfg.BufSize)
		if err != nil {
			return err
		}
		free = append(free, a)
	}
	alloc := func() (b1, b2 uint32, ok bool) {
		if len(free) == 0 {
			return
		}
		b1, free, ok = free[0], free[1:], true
		return
	}
	m.Rx.Refill(alloc)
	m.Start()

	txBuf, err := m.DMA.DmaAlloc(uint32(n))
	if err != nil {
		return
	}
	var sent int
	for i := 0; i < int(send); i++ {
		hw.CopyIn(m.Mem, txBuf, frame(i, int(n)))
		if err = m.Tx.Transmit(hw.Buffer{Addr: txBuf, Len: uint32(n)}); err != nil {
			return
		}
		sent += len(b.ETH.StepTx())
		m.Tx.Reclaim()
	}

	var received int
	for i := 0; i < int(recv); i++ {
		p := frame(i, int(n))
		if !b.ETH.Deliver(p) {
			return fmt.Errorf("frame %d: %w", i, eth.ErrRingFull)
		}
		f, ok := m.Rx.Receive()
		if !ok {
			return fmt.Errorf("frame %d: not received", i)
		}
		if !bytes.Equal(f.Bytes(m.Mem), p) {
			return fmt.Errorf("frame %d: corrupt", i)
		}
		received++
		for _, buf := range f.Buffers {
			free = append(free, buf.Addr)
		}
		m.Rx.Refill(alloc)
	}

	w := goes.Stdout
	fmt.Fprintf(w, "tx %d frames %d errors\n", sent, m.Tx.Errors)
	fmt.Fprintf(w, "rx %d frames %d errors\n", received, m.Rx.Errors)
	tty := goes.IsTerminal(w)
	for _, r := range []struct {
		name  string
		tail  uint32
		descs []string
	}{
		{"tx", m.Tx.Tail(), m.Tx.Descriptors()},
		{"rx", m.Rx.Tail(), m.Rx.Descriptors()},
	} {
		fmt.Fprintf(w, "%s tail %#08x\n", r.name, r.tail)
		for _, s := range r.descs {
			if !tty {
				s = strings.Join(strings.Fields(strings.NewReplacer(
					":", "", "[", "", "]", "").Replace(s)), "\t")
			}
			fmt.Fprintln(w, s)
		}
	}
	return nil
}

// frame is a broadcast frame of n bytes whose payload is its sequence.
func frame(seq, n int) []byte {
	p := make([]byte, n)
	for i := 0; i < 6; i++ {
		p[i] = 0xff
	}
	copy(p[6:12], board.MAC)
	for i := 12; i < n; i++ {
		p[i] = byte(seq + i)
	}
	return p
}
