// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package model gives a sim.Bus the register behavior of the STM32H7S3
// peripherals this firmware drives, and of the parts on the NUCLEO board
// behind them (the MX25UW octal flash, the LAN8742 PHY).
//
// Each model installs its hooks in New<Name> and keeps its own state in
// the bus memory wherever the hardware would, so that a register dump of
// the bus is a dump of the device.
package model

import (
	"fmt"
	"sync"

	"github.com/platinasystems/h7s3/elib/hw/sim"
)

// Write is one store seen by a model, in bus order.
type Write struct {
	Addr, Value uint32
}

func (w Write) String() string { return fmt.Sprintf("%#08x <- %#08x", w.Addr, w.Value) }

// Journal records stores and protocol violations.  Hooks append with
// the bus lock held; readers take the journal's own lock.
type Journal struct {
	mu         sync.Mutex
	writes     []Write
	violations []string
}

func (j *Journal) write(addr, v uint32) {
	j.mu.Lock()
	j.writes = append(j.writes, Write{addr, v})
	j.mu.Unlock()
}

func (j *Journal) violate(format string, args ...interface{}) {
	j.mu.Lock()
	j.violations = append(j.violations, fmt.Sprintf(format, args...))
	j.mu.Unlock()
}

func (j *Journal) Writes() []Write {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Write(nil), j.writes...)
}

// Violations are accesses the hardware documents as not allowed.
func (j *Journal) Violations() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.violations...)
}

func (j *Journal) Reset() {
	j.mu.Lock()
	j.writes, j.violations = nil, nil
	j.mu.Unlock()
}

// keep returns a write hook that preserves the read-only bits ro of a
// register and journals the store.
func keep(j *Journal, ro uint32) sim.WriteHook {
	return func(b *sim.Bus, addr, old, v uint32) uint32 {
		j.write(addr, v)
		return v&^ro | old&ro
	}
}
