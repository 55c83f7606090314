// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package tick provides the millisecond time base used by every bounded
// hardware poll in the tree.
//
// A Source is a free running uint32 counter that wraps silently.  All
// deadline math is done as now-start, which is correct across the wrap.
package tick

import (
	"errors"
	"strconv"
	"sync/atomic"
)

// Forever as a timeout disables the deadline.
const Forever = 0

var ErrTimeout = errors.New("timeout")

type Source interface {
	Tick() uint32
}

// Elapsed is the wraparound-safe distance from start to now.
func Elapsed(start, now uint32) uint32 { return now - start }

// Until polls ready until it returns true or timeout ticks have elapsed
// since the first poll.  On timeout, onTimeout decides the result; a nil
// onTimeout returns ErrTimeout.
func Until(src Source, timeout uint32, ready func() bool, onTimeout func() error) error {
	start := src.Tick()
	for !ready() {
		if timeout != Forever && Elapsed(start, src.Tick()) >= timeout {
			if ready() {
				return nil
			}
			if onTimeout == nil {
				return ErrTimeout
			}
			return onTimeout()
		}
	}
	return nil
}

// Delay waits until the source has advanced by at least n.
func Delay(src Source, n uint32) {
	start := src.Tick()
	for Elapsed(start, src.Tick()) < n {
	}
}

// Manual is a Source advanced explicitly.
type Manual struct{ n uint32 }

func (m *Manual) Tick() uint32       { return atomic.LoadUint32(&m.n) }
func (m *Manual) Advance(d uint32)   { atomic.AddUint32(&m.n, d) }
func (m *Manual) Set(v uint32)       { atomic.StoreUint32(&m.n, v) }
func (m *Manual) Handler()           { m.Advance(1) }
func (m *Manual) String() string     { return strconv.FormatUint(uint64(m.Tick()), 10) }
func NewManual(start uint32) *Manual { return &Manual{n: start} }

// Stepper advances by Step on every read, so that polls in a simulation
// run out their deadline deterministically.
type Stepper struct {
	n    uint32
	Step uint32
}

func NewStepper(start, step uint32) *Stepper { return &Stepper{n: start, Step: step} }

func (s *Stepper) Tick() uint32 {
	step := s.Step
	if step == 0 {
		step = 1
	}
	return atomic.AddUint32(&s.n, step) - step
}

// Now is the current count without advancing it.
func (s *Stepper) Now() uint32 { return atomic.LoadUint32(&s.n) }
