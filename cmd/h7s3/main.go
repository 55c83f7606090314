// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is the host build of the NUCLEO-H7S3L8 firmware: every command
// runs on one simulated board, so that
//
//	h7s3 boot -v \; app -beats 4 \; rings -send 2 -recv 2
//
// boots, brings the network up, and exercises the DMA rings in turn.
package main

import (
	"github.com/platinasystems/h7s3/cmd/appcmd"
	"github.com/platinasystems/h7s3/cmd/bootcmd"
	"github.com/platinasystems/h7s3/cmd/clockcmd"
	"github.com/platinasystems/h7s3/cmd/regcmd"
	"github.com/platinasystems/h7s3/cmd/ringcmd"
	"github.com/platinasystems/h7s3/internal/goes"
	"github.com/platinasystems/h7s3/internal/model"
)

func main() {
	goes.New(Commands(model.NewBoard())...).Main()
}

func Commands(b *model.Board) []interface{} {
	return []interface{}{
		appcmd.Command{Board: b},
		bootcmd.Command{Board: b},
		clockcmd.Command{Board: b},
		regcmd.Command{Board: b},
		ringcmd.Command{Board: b},
	}
}
