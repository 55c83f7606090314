// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package halt is the fatal error boundary.  Libraries return errors; the
// outermost sequence hands the first unrecoverable one to a Halter.
package halt

import (
	"sync"

	"github.com/platinasystems/log"
)

type Halter interface {
	// Halt does not return on target.
	Halt(err error)
}

// Loop is the production Halter.  It masks interrupts, lights the
// indicator, and spins.
type Loop struct {
	DisableInterrupts func()
	Indicate          func()
	// Spin is called each pass of the loop; nil spins empty.
	Spin func()
}

func (l Loop) Halt(err error) {
	log.Print("err", "halt: ", err)
	if l.DisableInterrupts != nil {
		l.DisableInterrupts()
	}
	if l.Indicate != nil {
		l.Indicate()
	}
	for {
		if l.Spin != nil {
			l.Spin()
		}
	}
}

// Recorder returns from Halt so that host runs and tests can observe the
// fatal outcome.
type Recorder struct {
	mu   sync.Mutex
	errs []error
	// Indicate, if set, is called on every halt.
	Indicate func()
}

func (r *Recorder) Halt(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	if r.Indicate != nil {
		r.Indicate()
	}
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// Err is the first recorded error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[0]
}

// Check hands a non-nil err to h and reports whether it did.
func Check(h Halter, err error) bool {
	if err == nil {
		return false
	}
	h.Halt(err)
	return true
}
