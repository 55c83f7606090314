// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build tinygo && baremetal

// This is the application image, run in place from the memory mapped
// octal flash.
package main

import (
	"device/arm"

	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/firmware"
)

//export SysTick_Handler
func sysTickHandler() { firmware.SysTick() }

func main() {
	a := firmware.App(firmware.Target{
		Bus:               hw.MMIO{},
		DisableInterrupts: func() { arm.DisableInterrupts() },
	})
	if a.Run() == nil {
		a.Heartbeat(0)
	}
}
