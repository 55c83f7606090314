// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hw

import (
	"sync/atomic"
	"unsafe"
)

// MMIO is the device address space of the running core.  It is the one
// place in the tree that turns integers into pointers.  Every access is a
// single volatile bus transaction of the given width.
type MMIO struct{}

func ptr(addr uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(addr))
}

func (MMIO) Load32(addr uint32) uint32 {
	return atomic.LoadUint32((*uint32)(ptr(addr)))
}

func (MMIO) Store32(addr uint32, data uint32) {
	atomic.StoreUint32((*uint32)(ptr(addr)), data)
}

// Byte lanes have no atomic width in sync/atomic; the volatile effect
// comes from the pointer escaping through ptr.
func (MMIO) Load8(addr uint32) uint8 {
	return *(*uint8)(ptr(addr))
}

func (MMIO) Store8(addr uint32, data uint8) {
	*(*uint8)(ptr(addr)) = data
}
