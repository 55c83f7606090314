// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clockcmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
	"github.com/platinasystems/h7s3/rcc"
)

func TestCommand(t *testing.T) {
	for _, x := range []struct {
		args []string
		want []string
	}{
		{nil, []string{"cpu 600MHz bus 300MHz apb1 150MHz"}},
		{[]string{"-divp1", "2"}, nil},
		{[]string{"-divn1", "250"}, []string{"cpu 500MHz"}},
		{[]string{"-hse", "48000000", "-divn1", "150"}, []string{"cpu 600MHz"}},
		{[]string{"-init"}, []string{"cpu 600MHz", "cpu pll1 hse true pll1 true pll2 true pll3 false"}},
	} {
		buf := new(bytes.Buffer)
		goes.Stdout = buf
		c := Command{model.NewBoard()}
		err := c.Main(x.args...)
		if x.want == nil {
			if !errors.Is(err, rcc.ErrInvalidConfiguration) {
				t.Error(x.args, "wrong:", err)
			}
			continue
		}
		if err != nil {
			t.Error(x.args, err)
			continue
		}
		for _, want := range x.want {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("%v: missing %q in %q", x.args, want, buf.String())
			}
		}
		for _, v := range c.Board.Violations() {
			t.Error(x.args, v)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	goes.Stdout = new(bytes.Buffer)
	c := Command{model.NewBoard()}
	c.Board.RCC.HSE = false
	if err := c.Main("-init"); !errors.Is(err, rcc.ErrTimedOut) {
		t.Error("dead crystal wrong:", err)
	}
	if err := c.Main("-hse", "lots"); err == nil {
		t.Error("bad hse accepted")
	}
}
