// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
)

func TestSequence(t *testing.T) {
	buf := new(bytes.Buffer)
	goes.Stdout = buf
	b := model.NewBoard()
	g := goes.New(Commands(b)...)
	err := g.Main("boot", ";", "app", "-beats", "1", ";",
		"reg", "scb+8")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"jump sp 0x24021000 pc 0x70000191",
		"link 100M full-duplex true",
		"0xe000ed08\t0x70000000",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in %q", want, buf.String())
		}
	}
	for _, v := range b.Violations() {
		t.Error(v)
	}
}

func TestHelp(t *testing.T) {
	buf := new(bytes.Buffer)
	goes.Stdout = buf
	g := goes.New(Commands(model.NewBoard())...)
	if err := g.Main("help"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"app", "boot", "clocks", "reg", "rings"} {
		if !strings.Contains(buf.String(), "\n"+name) {
			t.Error("help missing", name)
		}
	}
	buf.Reset()
	if err := g.Main("rings", "-h"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "usage:\trings [-send N]") {
		t.Error("rings -h:", buf.String())
	}
	if err := g.Main("boot", ";", "nosuch"); err == nil {
		t.Error("unknown command accepted")
	}
}
