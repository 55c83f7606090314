// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build tinygo && baremetal

// This is the loader image, linked into internal flash.  It never
// returns: it either jumps to the application in octal flash or halts.
package main

import (
	"device/arm"

	"github.com/platinasystems/h7s3/boot"
	"github.com/platinasystems/h7s3/elib/hw"
	"github.com/platinasystems/h7s3/firmware"
)

//export SysTick_Handler
func sysTickHandler() { firmware.SysTick() }

func main() {
	firmware.Boot(firmware.Target{
		Bus:               hw.MMIO{},
		DisableInterrupts: func() { arm.DisableInterrupts() },
		Jumper:            boot.JumperFunc(jump),
	}).Run()
}

// jump loads the image's initial stack pointer and branches to its reset
// vector.
func jump(sp, pc uint32) {
	arm.DisableInterrupts()
	arm.AsmFull(`
		msr msp, {sp}
		bx {pc}
	`, map[string]interface{}{
		"sp": sp,
		"pc": pc,
	})
}
