// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package flash sets the embedded flash wait states and programs the one
// option byte the board needs.
package flash

import (
	"fmt"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/tick"
)

const Base = 0x52002000

const (
	ACR     hw.Reg = 0x000
	SR      hw.Reg = 0x014
	OPTKEYR hw.Reg = 0x100
	OPTCR   hw.Reg = 0x104
	OBW1SR  hw.Reg = 0x140
	OBW1SRP hw.Reg = 0x144
)

var (
	LATENCY    = hw.Field{Shift: 0, Width: 4}
	WRHIGHFREQ = hw.Field{Shift: 4, Width: 2}
)

const (
	QW         = 1 << 2 // SR
	OPTLOCK    = 1 << 0 // OPTCR
	PGOPT      = 1 << 1 // OPTCR
	XSPI2HSLV  = 1 << 16
	OptKey1    = 0x08192a3b
	OptKey2    = 0x4c5d6e7f
	OptTimeout = 1000
)

type Flash struct {
	hw.Block
	Tick tick.Source
}

func New(bus hw.Bus, src tick.Source) *Flash {
	return &Flash{hw.Block{Bus: bus, Base: Base}, src}
}

// Init sets the wait states and signal delay for the coming clock.
func (f *Flash) Init(latency, wrhighfreq uint32) {
	ACR.Set(f.Block, LATENCY.Put(latency)|WRHIGHFREQ.Put(wrhighfreq))
}

func (f *Flash) Latency() uint32 { return LATENCY.Read(f.Block, ACR) }

// EnsureXSPI2HSLV programs the XSPI2 high speed low voltage option bit
// unless it already reads set.  It reports whether it programmed.
func (f *Flash) EnsureXSPI2HSLV() (bool, error) {
	if OBW1SR.IsSet(f.Block, XSPI2HSLV) {
		return false, nil
	}
	if err := f.unlock(); err != nil {
		return false, err
	}
	OPTCR.Or(f.Block, PGOPT)
	OBW1SRP.Or(f.Block, XSPI2HSLV)
	err := tick.Until(f.Tick, OptTimeout, func() bool {
		return !SR.IsSet(f.Block, QW)
	}, nil)
	OPTCR.AndNot(f.Block, PGOPT)
	OPTCR.Or(f.Block, OPTLOCK)
	if err != nil {
		return false, fmt.Errorf("flash: option program: %w", err)
	}
	return true, nil
}

func (f *Flash) unlock() error {
	OPTKEYR.Set(f.Block, OptKey1)
	OPTKEYR.Set(f.Block, OptKey2)
	if err := tick.Until(f.Tick, OptTimeout, func() bool {
		return !OPTCR.IsSet(f.Block, OPTLOCK)
	}, nil); err != nil {
		return fmt.Errorf("flash: option unlock: %w", err)
	}
	return nil
}
