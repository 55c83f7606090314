// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package ringcmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/platinasystems/h7s3/board"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
)

func TestCommand(t *testing.T) {
	buf := new(bytes.Buffer)
	goes.Stdout = buf
	c := Command{model.NewBoard()}
	if err := c.Main("-send", "5", "-recv", "6", "-len", "100"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if want := 4 + board.TxCount + board.RxCount; len(lines) != want {
		t.Fatalf("%d lines, want %d:\n%s", len(lines), want, buf.String())
	}
	for i, want := range []string{
		"tx 5 frames 0 errors",
		"rx 6 frames 0 errors",
		"tx tail 0x24060018",
		"0\t0x24060000\t00000000\t00000000\t00000000\t00000000\t00000000\t00000000",
	} {
		if lines[i] != want {
			t.Errorf("line %d: %q, want %q", i, lines[i], want)
		}
	}
	if !strings.HasPrefix(lines[4+board.TxCount], "rx tail ") {
		t.Error("no rx ring:", lines[4+board.TxCount])
	}
	for _, v := range c.Board.Violations() {
		t.Error(v)
	}
}

func TestCommandErrors(t *testing.T) {
	goes.Stdout = new(bytes.Buffer)
	c := Command{model.NewBoard()}
	for _, args := range [][]string{
		{"-len", "10"},
		{"-len", "2000"},
		{"-send", "many"},
		{"extra"},
	} {
		if err := c.Main(args...); err == nil {
			t.Error(args, "accepted")
		}
	}
}
