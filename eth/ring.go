// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package eth

import (
	"errors"
	"fmt"

	"github.com/platinasystems/h7s3/elib/hw"
)

var (
	ErrInvalidCapacity = errors.New("descriptor ring capacity must be at least 2")
	ErrRingFull        = errors.New("descriptor ring full")
	ErrEmptyFrame      = errors.New("empty frame")
	ErrBufferTooLong   = errors.New("buffer too long for descriptor")
)

// TxRing hands frames to the transmit DMA.
//
// Descriptors from Dirty up to Current belong to the hardware until it
// clears their OWN bit; the rest belong to software.  The tail register
// always holds the address one past the last descriptor handed over, so
// the hardware stops where software stopped.  One descriptor stays
// unused: a full ring would put the tail back on the hardware's own
// position and read as empty.
type TxRing struct {
	ring
	dirty    int
	inFlight int
	lens     [][2]uint32
	// Errors counts completed descriptors with the error summary set.
	Errors int
	it     bool
}

func NewTxRing(eth hw.Block, mem hw.Bus, dma *hw.DmaRegion, n int) (*TxRing, error) {
	r, err := newRing(eth, mem, dma, n)
	if err != nil {
		return nil, err
	}
	return &TxRing{ring: r, lens: make([][2]uint32, n)}, nil
}

// Init zeroes the ring and points the hardware at an empty ring: tail
// equals base.  Completion is polled until SetInterruptMode.
func (t *TxRing) Init() {
	t.reset(DMACTDRLR, DMACTDLAR)
	t.dirty, t.inFlight, t.Errors = 0, 0, 0
	t.it = false
	for i := range t.lens {
		t.lens[i] = [2]uint32{}
	}
	DMACTDTPR.Set(t.Block, t.Addr(t.cur))
}

func (t *TxRing) Dirty() int    { return t.dirty }
func (t *TxRing) InFlight() int { return t.inFlight }
func (t *TxRing) Free() int     { return t.Capacity() - 1 - t.inFlight }
func (t *TxRing) Tail() uint32  { return DMACTDTPR.Get(t.Block) }

func (t *TxRing) InterruptMode() bool { return t.it }

// SetInterruptMode requests a completion interrupt on the last
// descriptor of each later frame.
func (t *TxRing) SetInterruptMode(on bool) { t.it = on }

// Transmit posts one frame made of segs, two segments per descriptor.
// Every descriptor is complete before the first one's OWN bit is set, and
// the tail moves only after that.
func (t *TxRing) Transmit(segs ...hw.Buffer) error {
	if len(segs) == 0 {
		return ErrEmptyFrame
	}
	var total uint32
	for _, s := range segs {
		if s.Len > maxBufLen {
			return fmt.Errorf("%w: %d bytes", ErrBufferTooLong, s.Len)
		}
		total += s.Len
	}
	if total > TDES3FL.Mask() {
		return fmt.Errorf("%w: frame %d bytes", ErrBufferTooLong, total)
	}
	n := (len(segs) + 1) / 2
	if n > t.Free() {
		return fmt.Errorf("%w: need %d have %d", ErrRingFull, n, t.Free())
	}
	first := t.cur
	for j := 0; j < n; j++ {
		b1 := segs[2*j]
		var b2 hw.Buffer
		if 2*j+1 < len(segs) {
			b2 = segs[2*j+1]
		}
		i := t.Add(first, j)
		t.set(i, DES0, b1.Addr)
		t.set(i, DES1, b2.Addr)
		t.set(i, buf1, b1.Addr)
		t.set(i, buf2, b2.Addr)
		t.lens[i] = [2]uint32{b1.Len, b2.Len}
		des2 := TDES2B1L.Put(b1.Len) | TDES2B2L.Put(b2.Len)
		des3 := TDES3FL.Put(total)
		if j == 0 {
			des3 |= TDES3FD
		} else {
			des3 |= TDES3OWN
		}
		if j == n-1 {
			des3 |= TDES3LD
			if t.it {
				des2 |= TDES2IOC
			}
		}
		t.set(i, DES2, des2)
		t.set(i, DES3, des3)
	}
	hw.MemoryBarrier()
	t.set(first, DES3, t.get(first, DES3)|TDES3OWN)
	t.cur = t.Add(first, n)
	t.inFlight += n
	hw.MemoryBarrier()
	DMACTDTPR.Set(t.Block, t.Addr(t.cur))
	return nil
}

// Reclaim returns the buffers of descriptors the hardware has finished
// with, oldest first.  It stops at the first one still owned by the
// hardware.
func (t *TxRing) Reclaim() (done []hw.Buffer) {
	for t.inFlight > 0 {
		i := t.dirty
		des3 := t.get(i, DES3)
		if des3&TDES3OWN != 0 {
			break
		}
		if des3&TDES3LD != 0 && des3&TDES3ES != 0 {
			t.Errors++
		}
		if a := t.get(i, buf1); t.lens[i][0] != 0 {
			done = append(done, hw.Buffer{Addr: a, Len: t.lens[i][0]})
		}
		if a := t.get(i, buf2); t.lens[i][1] != 0 {
			done = append(done, hw.Buffer{Addr: a, Len: t.lens[i][1]})
		}
		hw.Zero(t.mem, t.Addr(i), DescWords)
		t.lens[i] = [2]uint32{}
		t.dirty = t.Next(i)
		t.inFlight--
	}
	return
}

// Frame is one received frame, as the buffers it landed in.
type Frame struct {
	Buffers []hw.Buffer
	Len     uint32
	// Err is the write-back error summary of the last descriptor.
	Err bool
}

// Bytes copies the frame out of its buffers.
func (f *Frame) Bytes(mem hw.Bus) []byte {
	p := make([]byte, 0, f.Len)
	for _, b := range f.Buffers {
		q := make([]byte, b.Len)
		hw.CopyOut(mem, b.Addr, q)
		p = append(p, q...)
	}
	return p
}

// Alloc supplies receive buffers for one descriptor.  b2 may be zero; ok
// false stops the refill.
type Alloc func() (b1, b2 uint32, ok bool)

// RxRing hands empty buffers to the receive DMA and drains the frames it
// writes back.
//
// Current is the next descriptor to drain, BuildIndex the next one to
// build.  Built counts descriptors handed to the hardware and not yet
// drained, Pending the drained ones waiting for new buffers.  The tail
// register holds the last built descriptor; at Init that is the last
// descriptor of the ring.
type RxRing struct {
	ring
	bufSize    uint32
	built      int
	buildIndex int
	pending    int
	dataSize   uint32
	it         bool

	frame Frame
	// Frames and Errors count drained frames and those with errors.
	Frames, Errors int
}

func NewRxRing(eth hw.Block, mem hw.Bus, dma *hw.DmaRegion, n int, bufSize uint32) (*RxRing, error) {
	r, err := newRing(eth, mem, dma, n)
	if err != nil {
		return nil, err
	}
	return &RxRing{ring: r, bufSize: bufSize}, nil
}

// Init zeroes the ring.  Every descriptor is pending and the tail is the
// last descriptor.
func (r *RxRing) Init() {
	r.reset(DMACRDRLR, DMACRDLAR)
	r.built, r.buildIndex, r.dataSize = 0, 0, 0
	r.pending = r.Capacity()
	r.it = false
	r.frame = Frame{}
	r.Frames, r.Errors = 0, 0
	DMACRDTPR.Set(r.Block, r.tailAddr())
}

func (r *RxRing) tailAddr() uint32 { return r.Addr(r.Add(r.buildIndex, -1)) }

func (r *RxRing) Built() int          { return r.built }
func (r *RxRing) Pending() int        { return r.pending }
func (r *RxRing) BuildIndex() int     { return r.buildIndex }
func (r *RxRing) DataSize() uint32    { return r.dataSize }
func (r *RxRing) BufSize() uint32     { return r.bufSize }
func (r *RxRing) Tail() uint32        { return DMACRDTPR.Get(r.Block) }
func (r *RxRing) InterruptMode() bool { return r.it }

// SetInterruptMode sets IOC on descriptors built from now on.
func (r *RxRing) SetInterruptMode(on bool) { r.it = on }

// Refill builds pending descriptors with buffers from alloc and returns
// how many it built.
func (r *RxRing) Refill(alloc Alloc) (n int) {
	for r.pending > 0 {
		b1, b2, ok := alloc()
		if !ok {
			break
		}
		i := r.buildIndex
		r.set(i, DES0, b1)
		r.set(i, DES1, 0)
		r.set(i, DES2, b2)
		r.set(i, buf1, b1)
		r.set(i, buf2, b2)
		des3 := uint32(RDES3BUF1V)
		if b2 != 0 {
			des3 |= RDES3BUF2V
		}
		if r.it {
			des3 |= RDES3IOC
		}
		hw.MemoryBarrier()
		r.set(i, DES3, des3|RDES3OWN)
		r.buildIndex = r.Next(i)
		r.pending--
		r.built++
		n++
	}
	if n > 0 {
		hw.MemoryBarrier()
		DMACRDTPR.Set(r.Block, r.tailAddr())
	}
	return
}

// Receive drains written back descriptors up to the end of one frame.
// It reports false when the hardware still owns the next descriptor; a
// partly drained frame is kept for the next call.
func (r *RxRing) Receive() (f Frame, ok bool) {
	for r.built > 0 {
		i := r.cur
		des3 := r.get(i, DES3)
		if des3&RDES3OWN != 0 {
			return
		}
		b1, b2 := r.get(i, buf1), r.get(i, buf2)
		if des3&RDES3CTXT == 0 {
			if des3&RDES3FD != 0 {
				r.frame = Frame{}
				r.dataSize = 0
			}
			n := r.bufSize
			if b2 != 0 {
				n *= 2
			}
			if des3&RDES3LD != 0 {
				n = RDES3PL.Get(des3) - r.dataSize
			}
			for _, b := range []uint32{b1, b2} {
				if b == 0 || n == 0 {
					continue
				}
				l := min(n, r.bufSize)
				r.frame.Buffers = append(r.frame.Buffers, hw.Buffer{Addr: b, Len: l})
				r.dataSize += l
				n -= l
			}
		}
		hw.Zero(r.mem, r.Addr(i), DescWords)
		r.advance()
		r.built--
		r.pending++
		if des3&RDES3CTXT == 0 && des3&RDES3LD != 0 {
			f = r.frame
			f.Len = r.dataSize
			f.Err = des3&RDES3ES != 0
			r.frame = Frame{}
			r.dataSize = 0
			r.Frames++
			if f.Err {
				r.Errors++
			}
			ok = true
			return
		}
	}
	return
}
