// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package eth

import (
	"fmt"

	"github.com/platinasystems/h7s3/elib/hw"
)

// A descriptor is four words the DMA reads and writes back, followed by
// two words only software uses: the buffer addresses, which write-back
// overwrites in the hardware words.  DMACCR.DSL skips the software words.
const (
	DescWords   = 6
	DescStride  = 4 * DescWords
	descSkipDSL = 2 // bus words skipped after the hardware words
	descAlign   = 5 // log2 bytes
)

// Word offsets
const (
	DES0 = 0
	DES1 = 4
	DES2 = 8
	DES3 = 12
	buf1 = 16
	buf2 = 20
)

// Transmit descriptor, read format
const (
	TDES2IOC  = 1 << 31
	TDES3OWN  = 1 << 31
	TDES3FD   = 1 << 29
	TDES3LD   = 1 << 28
	TDES3ES   = 1 << 15 // write-back error summary
	maxBufLen = 1<<14 - 1
)

var (
	TDES2B1L = hw.Field{Shift: 0, Width: 14}
	TDES2B2L = hw.Field{Shift: 16, Width: 14}
	TDES3FL  = hw.Field{Shift: 0, Width: 15}
)

// Receive descriptor, read format.  RDES0 is buffer 1, RDES2 buffer 2.
const (
	RDES3OWN   = 1 << 31
	RDES3IOC   = 1 << 30
	RDES3BUF2V = 1 << 25
	RDES3BUF1V = 1 << 24
)

// Receive descriptor, write-back format
const (
	RDES3CTXT = 1 << 30
	RDES3FD   = 1 << 29
	RDES3LD   = 1 << 28
	RDES3ES   = 1 << 15
)

var RDES3PL = hw.Field{Shift: 0, Width: 15}

// The hardware words and the DSL skip make up the stride.
var _ [DescStride - 16 - 4*descSkipDSL]struct{} = [0]struct{}{}

// ring is the part of a descriptor ring common to both directions: the
// descriptor table and the index arithmetic over it.
type ring struct {
	hw.Block        // ETH registers
	mem      hw.Bus // descriptor memory
	base     uint32
	addr     []uint32
	cur      int
}

func newRing(eth hw.Block, mem hw.Bus, dma *hw.DmaRegion, n int) (r ring, err error) {
	if n < 2 || n > int(TDRL.Mask())+1 {
		err = fmt.Errorf("%w: %d", ErrInvalidCapacity, n)
		return
	}
	r.Block, r.mem = eth, mem
	r.base, err = dma.DmaAllocAligned(uint32(n*DescStride), descAlign)
	if err != nil {
		return
	}
	r.addr = make([]uint32, n)
	return
}

func (r *ring) Capacity() int { return len(r.addr) }

// Next is the index after i, modulo capacity.
func (r *ring) Next(i int) int { return r.Add(i, 1) }

// Add is i+n modulo capacity, for any sign of n.
func (r *ring) Add(i, n int) int {
	c := len(r.addr)
	return ((i+n)%c + c) % c
}

// Addr is the address of descriptor i modulo capacity.
func (r *ring) Addr(i int) uint32 {
	return r.base + uint32(r.Add(i, 0))*DescStride
}

func (r *ring) Base() uint32 { return r.base }
func (r *ring) Current() int { return r.cur }
func (r *ring) advance()     { r.cur = r.Next(r.cur) }
func (r *ring) get(i int, w uint32) uint32 {
	return r.mem.Load32(r.Addr(i) + w)
}
func (r *ring) set(i int, w, v uint32) { r.mem.Store32(r.Addr(i)+w, v) }

// Word returns word w of descriptor i.
func (r *ring) Word(i int, w uint32) uint32 { return r.get(i, w) }

// reset zeroes every descriptor, fills the address table and programs
// length and base.
func (r *ring) reset(rlr, lar hw.Reg) {
	for i := range r.addr {
		r.addr[i] = r.Addr(i)
		hw.Zero(r.mem, r.addr[i], DescWords)
	}
	r.cur = 0
	rlr.Set(r.Block, uint32(len(r.addr)-1))
	lar.Set(r.Block, r.base)
}

// Descriptors formats each descriptor's words, one per line.
func (r *ring) Descriptors() []string {
	s := make([]string, len(r.addr))
	for i := range s {
		s[i] = fmt.Sprintf("%d %#08x: %08x %08x %08x %08x [%08x %08x]",
			i, r.Addr(i), r.get(i, DES0), r.get(i, DES1),
			r.get(i, DES2), r.get(i, DES3), r.get(i, buf1), r.get(i, buf2))
	}
	return s
}
