// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package tick

import (
	"errors"
	"testing"

	"github.com/platinasystems/h7s3/elib/hw/sim"
)

func TestUntilReady(t *testing.T) {
	src := NewStepper(0, 1)
	n := 0
	err := Until(src, 100, func() bool {
		n++
		return n == 3
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Error("wrong:", n)
	}
}

func TestUntilTimeout(t *testing.T) {
	for _, start := range []uint32{0, 1000, 0xffffffff - 40, 0xffffffff} {
		src := NewStepper(start, 1)
		err := Until(src, 100, func() bool { return false }, nil)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("start %#x: %v", start, err)
		}
		if d := Elapsed(start, src.Now()); d < 100 || d > 102 {
			t.Errorf("start %#x: gave up after %d ticks", start, d)
		}
	}
}

func TestUntilOnTimeout(t *testing.T) {
	errStage := errors.New("stage")
	calls := 0
	err := Until(NewStepper(7, 10), 100, func() bool { return false },
		func() error {
			calls++
			return errStage
		})
	if err != errStage || calls != 1 {
		t.Error("wrong:", err, calls)
	}
}

func TestUntilForever(t *testing.T) {
	src := NewStepper(0xfffffff0, 1000)
	n := 0
	err := Until(src, Forever, func() bool {
		n++
		return n > 500
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
}

func TestElapsedWrap(t *testing.T) {
	for _, x := range []struct{ start, now, want uint32 }{
		{0, 0, 0},
		{10, 110, 100},
		{0xffffff9c, 0, 100},
		{0xffffffff, 99, 100},
	} {
		if got := Elapsed(x.start, x.now); got != x.want {
			t.Errorf("Elapsed(%#x, %#x) = %d", x.start, x.now, got)
		}
	}
}

func TestDelay(t *testing.T) {
	src := NewStepper(0xfffffffe, 1)
	Delay(src, 5)
	if d := Elapsed(0xfffffffe, src.Now()); d < 5 {
		t.Error("wrong:", d)
	}
}

func TestSysTick(t *testing.T) {
	bus := sim.New()
	st := NewSysTick(bus)
	if err := st.Configure(64000000); err != nil {
		t.Fatal(err)
	}
	if got := bus.Get(SysTickBase + 4); got != 63999 {
		t.Error("wrong reload:", got)
	}
	if got := bus.Get(SysTickBase); got != 7 {
		t.Error("wrong ctrl:", got)
	}
	if err := st.Configure(500); !errors.Is(err, ErrReload) {
		t.Error("wrong:", err)
	}
	st.Handler()
	st.Handler()
	if st.Tick() != 2 {
		t.Error("wrong:", st.Tick())
	}
}
