// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hw

import (
	"errors"
	"fmt"
)

var ErrDmaExhausted = errors.New("dma region exhausted")

// DmaRegion hands out DMA visible memory from a fixed physical window.
// The window must be non-cacheable (or cache maintained by the caller)
// and naturally aligned for the descriptors placed in it; that is a
// property of the linker map, not of this allocator.
// Memory is never returned: rings live for the lifetime of the firmware.
type DmaRegion struct {
	Base, Size uint32
	used       uint32
}

func NewDmaRegion(base, size uint32) *DmaRegion {
	return &DmaRegion{Base: base, Size: size}
}

// DmaAllocAligned returns the physical address of n bytes aligned to
// 1<<log2Align.
func (r *DmaRegion) DmaAllocAligned(n uint32, log2Align uint) (addr uint32, err error) {
	align := uint32(1) << log2Align
	o := (r.Base + r.used + align - 1) &^ (align - 1)
	if o+n > r.Base+r.Size || o < r.Base {
		err = fmt.Errorf("%w: want %d bytes at %s", ErrDmaExhausted, n, r)
		return
	}
	r.used = o + n - r.Base
	addr = o
	return
}

func (r *DmaRegion) DmaAlloc(n uint32) (uint32, error) { return r.DmaAllocAligned(n, 2) }

// DmaHeapUsage returns bytes consumed including alignment padding.
func (r *DmaRegion) DmaHeapUsage() uint32 { return r.used }

func (r *DmaRegion) String() string {
	return fmt.Sprintf("dma %#08x-%#08x used %d", r.Base, r.Base+r.Size, r.used)
}
