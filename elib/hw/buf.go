// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hw

// Buffer is a DMA visible byte range.
type Buffer struct {
	Addr uint32
	Len  uint32
}

func (b Buffer) End() uint32 { return b.Addr + b.Len }

// CopyIn stores p at addr one byte lane at a time.
func CopyIn(bus Bus, addr uint32, p []byte) {
	for i, c := range p {
		bus.Store8(addr+uint32(i), c)
	}
}

// CopyOut loads len(p) bytes from addr.
func CopyOut(bus Bus, addr uint32, p []byte) {
	for i := range p {
		p[i] = bus.Load8(addr + uint32(i))
	}
}

// Zero clears n 32 bit words starting at addr.
func Zero(bus Bus, addr uint32, nWords int) {
	for i := 0; i < nWords; i++ {
		bus.Store32(addr+uint32(4*i), 0)
	}
}
