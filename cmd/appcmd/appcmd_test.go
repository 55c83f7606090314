// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package appcmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/platinasystems/h7s3/eth"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
)

func TestCommand(t *testing.T) {
	for _, x := range []struct {
		args []string
		want string
	}{
		{nil, "link 100M full-duplex true mac 00:80:e1:00:00:00"},
		{[]string{"-mode", "10hdx"}, "link 10M full-duplex false"},
		{[]string{"-beats", "1"}, "leds green true yellow false red false"},
		{[]string{"-beats", "2"}, "leds green false yellow false red false"},
	} {
		buf := new(bytes.Buffer)
		goes.Stdout = buf
		c := Command{model.NewBoard()}
		if err := c.Main(x.args...); err != nil {
			t.Error(x.args, err)
			continue
		}
		if !strings.Contains(buf.String(), x.want) {
			t.Errorf("%v: missing %q in %q", x.args, x.want, buf.String())
		}
	}
}

func TestCommandErrors(t *testing.T) {
	buf := new(bytes.Buffer)
	goes.Stdout = buf
	c := Command{model.NewBoard()}
	err := c.Main("-no-link", "-timeout", "2000")
	if !errors.Is(err, eth.ErrLinkDown) {
		t.Error("no link wrong:", err)
	}
	if want := "leds green false yellow false red true"; !strings.Contains(buf.String(), want) {
		t.Errorf("missing %q in %q", want, buf.String())
	}
	for _, args := range [][]string{
		{"-mode", "1000fdx"},
		{"-timeout", "soon"},
		{"extra"},
	} {
		if err = c.Main(args...); err == nil {
			t.Error(args, "accepted")
		}
	}
}
