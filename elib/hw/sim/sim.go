// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim is an in-memory hw.Bus with per-register side effects.
//
// Unhooked addresses behave as plain little-endian RAM that reads zero
// until written.  A hook stands in for device logic: a write hook decides
// what value actually lands in the register (self-clearing bits, write-1
// to clear, ...) and may change other registers; a read hook may consume
// state (FIFOs) or synthesize status.  Hooks run with the bus lock held
// and must use Peek/Poke, never Load/Store, on the bus they belong to.
package sim

import (
	"fmt"
	"sort"
	"sync"
)

// WriteHook returns the value to store given the previous and the
// written value.  Byte stores arrive merged into the full word.
type WriteHook func(b *Bus, addr, old, v uint32) uint32

// ReadHook returns the value seen by the reader.
type ReadHook func(b *Bus, addr, v uint32) uint32

type Bus struct {
	mu     sync.Mutex
	mem    map[uint32]uint32
	writes map[uint32]WriteHook
	reads  map[uint32]ReadHook
	// byte hooks see the lane value instead of the merged word.
	byteReads  map[uint32]func(b *Bus, addr uint32) uint8
	byteWrites map[uint32]func(b *Bus, addr uint32, v uint8)

	nLoad, nStore uint64
}

func New() *Bus {
	return &Bus{
		mem:        make(map[uint32]uint32),
		writes:     make(map[uint32]WriteHook),
		reads:      make(map[uint32]ReadHook),
		byteReads:  make(map[uint32]func(*Bus, uint32) uint8),
		byteWrites: make(map[uint32]func(*Bus, uint32, uint8)),
	}
}

func word(addr uint32) uint32 { return addr &^ 3 }

func (b *Bus) OnWrite(addr uint32, h WriteHook) {
	b.mu.Lock()
	b.writes[word(addr)] = h
	b.mu.Unlock()
}

func (b *Bus) OnRead(addr uint32, h ReadHook) {
	b.mu.Lock()
	b.reads[word(addr)] = h
	b.mu.Unlock()
}

// OnByte routes 8 bit accesses of a data register (a FIFO window).
func (b *Bus) OnByte(addr uint32, r func(*Bus, uint32) uint8, w func(*Bus, uint32, uint8)) {
	b.mu.Lock()
	if r != nil {
		b.byteReads[word(addr)] = r
	}
	if w != nil {
		b.byteWrites[word(addr)] = w
	}
	b.mu.Unlock()
}

func (b *Bus) Load32(addr uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nLoad++
	a := word(addr)
	v := b.mem[a]
	if h := b.reads[a]; h != nil {
		v = h(b, a, v)
	}
	return v
}

func (b *Bus) Store32(addr uint32, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nStore++
	b.store(word(addr), v)
}

func (b *Bus) store(a, v uint32) {
	if h := b.writes[a]; h != nil {
		v = h(b, a, b.mem[a], v)
	}
	b.mem[a] = v
}

func (b *Bus) Load8(addr uint32) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nLoad++
	a := word(addr)
	if h := b.byteReads[a]; h != nil {
		return h(b, addr)
	}
	v := b.mem[a]
	if h := b.reads[a]; h != nil {
		v = h(b, a, v)
	}
	return uint8(v >> (8 * (addr & 3)))
}

func (b *Bus) Store8(addr uint32, v uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nStore++
	a := word(addr)
	if h := b.byteWrites[a]; h != nil {
		h(b, addr, v)
		return
	}
	shift := 8 * (addr & 3)
	w := b.mem[a]&^(0xff<<shift) | uint32(v)<<shift
	b.store(a, w)
}

// Peek reads without side effects.  Safe inside hooks.
func (b *Bus) Peek(addr uint32) uint32 { return b.mem[word(addr)] }

// Poke writes without side effects.  Safe inside hooks.
func (b *Bus) Poke(addr, v uint32) { b.mem[word(addr)] = v }

// PokeBits sets or clears mask at addr without side effects.
func (b *Bus) PokeBits(addr, mask uint32, on bool) {
	a := word(addr)
	if on {
		b.mem[a] |= mask
	} else {
		b.mem[a] &^= mask
	}
}

// Locked runs f with the bus lock held; f may Peek and Poke.  Device
// models outside of hooks (a DMA engine goroutine) use this so that
// each of their updates is atomic with respect to the CPU's accesses.
func (b *Bus) Locked(f func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f()
}

// Get is Peek under the lock, for tests inspecting state.
func (b *Bus) Get(addr uint32) (v uint32) {
	b.Locked(func() { v = b.Peek(addr) })
	return
}

// Put is Poke under the lock, for tests seeding state.
func (b *Bus) Put(addr, v uint32) {
	b.Locked(func() { b.Poke(addr, v) })
}

// Snapshot copies all words in [lo, hi).
func (b *Bus) Snapshot(lo, hi uint32) map[uint32]uint32 {
	m := make(map[uint32]uint32)
	b.Locked(func() {
		for a, v := range b.mem {
			if a >= lo && a < hi {
				m[a] = v
			}
		}
	})
	return m
}

// Counts returns the number of loads and stores issued through the Bus
// interface.
func (b *Bus) Counts() (loads, stores uint64) {
	b.Locked(func() { loads, stores = b.nLoad, b.nStore })
	return
}

// Dump formats the non-zero words in [lo, hi) in address order.
func (b *Bus) Dump(lo, hi uint32) (s string) {
	m := b.Snapshot(lo, hi)
	keys := make([]uint32, 0, len(m))
	for a, v := range m {
		if v != 0 {
			keys = append(keys, a)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, a := range keys {
		s += fmt.Sprintf("%#08x: %#08x\n", a, m[a])
	}
	return
}

// WriteBytes copies p to addr under the lock without side effects.
func (b *Bus) WriteBytes(addr uint32, p []byte) {
	b.Locked(func() { b.PokeBytes(addr, p) })
}

// ReadBytes copies n bytes from addr under the lock without side effects.
func (b *Bus) ReadBytes(addr uint32, n int) (p []byte) {
	b.Locked(func() { p = b.PeekBytes(addr, n) })
	return
}

func (b *Bus) PokeBytes(addr uint32, p []byte) {
	for i, c := range p {
		a := addr + uint32(i)
		shift := 8 * (a & 3)
		w := word(a)
		b.mem[w] = b.mem[w]&^(0xff<<shift) | uint32(c)<<shift
	}
}

func (b *Bus) PeekBytes(addr uint32, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		a := addr + uint32(i)
		p[i] = uint8(b.mem[word(a)] >> (8 * (a & 3)))
	}
	return p
}
