// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package regcmd

import (
	"bytes"
	"testing"

	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/rcc"
	"github.com/platinasystems/h7s3/scb"
)

func TestParse(t *testing.T) {
	for _, x := range []struct {
		s    string
		want uint32
	}{
		{"0x24000000", 0x24000000},
		{"rcc", rcc.Base},
		{"RCC+0x10", rcc.Base + 0x10},
		{"scb+8", scb.Base + 8},
	} {
		got, err := Parse(x.s)
		if err != nil || got != x.want {
			t.Errorf("%s: %#x %v, want %#x", x.s, got, err, x.want)
		}
	}
	for _, s := range []string{"", "rcc+", "rcc+x", "nowhere", "0x1ffffffff"} {
		if _, err := Parse(s); err == nil {
			t.Error(s, "accepted")
		}
	}
}

func TestCommand(t *testing.T) {
	buf := new(bytes.Buffer)
	goes.Stdout = buf
	c := Command{model.NewBoard()}
	if err := c.Main("-w", "0x24000000", "-D", "0xdeadbeef"); err != nil {
		t.Fatal(err)
	}
	if err := c.Main("-w", "0x24000004", "-D", "0x12"); err != nil {
		t.Fatal(err)
	}
	if err := c.Main("0x24000000", "-n", "2"); err != nil {
		t.Fatal(err)
	}
	want := "0x24000000\t0xdeadbeef\n0x24000004\t0x000012\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommandErrors(t *testing.T) {
	goes.Stdout = new(bytes.Buffer)
	c := Command{model.NewBoard()}
	for _, args := range [][]string{
		nil,
		{"0x24000002"},
		{"0x24000000", "0x24000004"},
		{"-w", "rcc", "-D", "0x100000000"},
		{"rcc", "-n", "x"},
	} {
		if err := c.Main(args...); err == nil {
			t.Error(args, "accepted")
		}
	}
}

func TestDump(t *testing.T) {
	buf := new(bytes.Buffer)
	goes.Stdout = buf
	c := Command{model.NewBoard()}
	if err := c.Main("-w", "scb+8", "-D", "0x08000000"); err != nil {
		t.Fatal(err)
	}
	if err := c.Main("-dump", "scb"); err != nil {
		t.Fatal(err)
	}
	if want := "0xe000ed08: 0x8000000\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
	buf.Reset()
	if err := c.Main("-counts"); err != nil {
		t.Fatal(err)
	}
	if want := "loads 0 stores 1\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
	if err := c.Main("-dump", "nowhere"); err == nil {
		t.Error("unknown block dumped")
	}
}
