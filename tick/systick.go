// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package tick

import (
	"errors"
	"sync/atomic"

	"github.com/platinasystems/h7s3/elib/hw"
)

const SysTickBase = 0xe000e010

const (
	stCTRL hw.Reg = 0x0
	stLOAD hw.Reg = 0x4
	stVAL  hw.Reg = 0x8
)

// CTRL bits
const (
	stEnable    = 1 << 0
	stTickInt   = 1 << 1
	stClkSource = 1 << 2 // processor clock
)

const stMaxReload = 1<<24 - 1

var ErrReload = errors.New("systick reload out of range")

// SysTick is the Cortex-M system timer run as a 1 kHz Source.  The
// exception vector must call Handler.
type SysTick struct {
	hw.Block
	n uint32
}

func NewSysTick(bus hw.Bus) *SysTick {
	return &SysTick{Block: hw.Block{Bus: bus, Base: SysTickBase}}
}

// Configure reloads the timer for one interrupt per millisecond of a
// core clock of hz.  It may be called again after a clock change; the
// count is preserved.
func (t *SysTick) Configure(hz uint32) error {
	reload := hz/1000 - 1
	if hz < 1000 || reload > stMaxReload {
		return ErrReload
	}
	stCTRL.Set(t.Block, 0)
	stLOAD.Set(t.Block, reload)
	stVAL.Set(t.Block, 0)
	stCTRL.Set(t.Block, stClkSource|stTickInt|stEnable)
	return nil
}

func (t *SysTick) Reload() uint32 { return stLOAD.Get(t.Block) }

func (t *SysTick) Handler()     { atomic.AddUint32(&t.n, 1) }
func (t *SysTick) Tick() uint32 { return atomic.LoadUint32(&t.n) }
