// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Memory mapped register read/write
//
// Drivers never dereference device addresses themselves.  They describe a
// peripheral as a Block (bus + base address) and a set of Reg offsets and
// Field bit ranges, and all loads and stores go through a Bus.  MMIO is the
// only Bus that touches real memory; sim.Bus stands in for it in tests.
package hw

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrRegAddr = errors.New("register layout mismatch")

// Bus is a 32 bit physical address space.
type Bus interface {
	Load32(addr uint32) uint32
	Store32(addr uint32, data uint32)
	Load8(addr uint32) uint8
	Store8(addr uint32, data uint8)
}

// Reg is a register byte offset within a Block.
type Reg uint32

func (r Reg) Offset() uint32 { return uint32(r) }

func (r Reg) Get(b Block) uint32    { return b.Bus.Load32(b.Base + uint32(r)) }
func (r Reg) Set(b Block, x uint32) { b.Bus.Store32(b.Base+uint32(r), x) }

func (r Reg) Or(b Block, x uint32) (v uint32) {
	v = r.Get(b) | x
	r.Set(b, v)
	return
}

func (r Reg) AndNot(b Block, x uint32) (v uint32) {
	v = r.Get(b) &^ x
	r.Set(b, v)
	return
}

// Modify replaces the bits under mask with x.
func (r Reg) Modify(b Block, mask, x uint32) (v uint32) {
	v = (r.Get(b) &^ mask) | (x & mask)
	r.Set(b, v)
	return
}

// IsSet reports whether any bit of mask is set.
func (r Reg) IsSet(b Block, mask uint32) bool { return r.Get(b)&mask != 0 }

// Block is one peripheral instance.
type Block struct {
	Bus  Bus
	Base uint32
}

func (b Block) Addr(r Reg) uint32 { return b.Base + uint32(r) }

func (b Block) String() string { return fmt.Sprintf("%#08x", b.Base) }

// Field is a bit range [Shift+Width-1:Shift] within a register.
type Field struct {
	Shift, Width uint8
}

func (f Field) Mask() uint32 {
	if f.Width >= 32 {
		return ^uint32(0)
	}
	return (1<<f.Width - 1) << f.Shift
}

// Put positions x in the field; excess high bits are dropped.
func (f Field) Put(x uint32) uint32 { return (x << f.Shift) & f.Mask() }

func (f Field) Get(w uint32) uint32 { return (w & f.Mask()) >> f.Shift }

// Set writes x into field f of register r.
func (f Field) Set(b Block, r Reg, x uint32) uint32 { return r.Modify(b, f.Mask(), f.Put(x)) }

// Read returns field f of register r.
func (f Field) Read(b Block, r Reg) uint32 { return f.Get(r.Get(b)) }

var fence uint32

// MemoryBarrier orders all preceding loads and stores before any
// following ones.  Go atomics are sequentially consistent, so an atomic
// read-modify-write is a full barrier (dmb on arm).
func MemoryBarrier() { atomic.AddUint32(&fence, 1) }

// CheckRegAddr fails unless a layout read back from the hardware matches
// the constant software was built with.
func CheckRegAddr(name string, got, want uint32) error {
	if got != want {
		return fmt.Errorf("%s: %w: got 0x%x want 0x%x", name, ErrRegAddr, got, want)
	}
	return nil
}
