// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package model

import (
	"encoding/binary"

	"github.com/platinasystems/h7s3/elib/hw/sim"
	"github.com/platinasystems/h7s3/tick"
)

// Initial stack and reset vector of the image NewBoard puts in flash.
const (
	ImageSP = 0x24021000
	ImagePC = 0x70000191
)

// Board is every model on one bus: a NUCLEO-H7S3L8 with a programmed
// flash and a LAN8742 with link up at address 0.
type Board struct {
	Bus   *sim.Bus
	RCC   *RCC
	PWR   *PWR
	Flash *Flash
	GPIO  *GPIO
	XSPI  *XSPI
	ETH   *ETH
	PHY   *PHY
	// Tick advances one millisecond per read.
	Tick *tick.Stepper
}

func NewBoard() *Board {
	bus := sim.New()
	f := NewMX25UW()
	var image [8]byte
	binary.LittleEndian.PutUint32(image[0:], ImageSP)
	binary.LittleEndian.PutUint32(image[4:], ImagePC)
	for i, c := range image {
		f.Mem[uint32(i)] = c
	}
	b := &Board{
		Bus:   bus,
		RCC:   NewRCC(bus),
		PWR:   NewPWR(bus),
		Flash: NewFlash(bus),
		GPIO:  NewGPIO(bus),
		XSPI:  NewXSPI(bus, f),
		ETH:   NewETH(bus),
		PHY:   NewPHY(0),
		Tick:  tick.NewStepper(0, 1),
	}
	b.PHY.Link, b.PHY.AutoDone = true, true
	b.ETH.Attach(b.PHY)
	return b
}

// Violations of every model, in model order.
func (b *Board) Violations() (v []string) {
	for _, j := range []*Journal{&b.RCC.Journal, &b.PWR.Journal,
		&b.Flash.Journal, &b.XSPI.Journal, &b.ETH.Journal} {
		v = append(v, j.Violations()...)
	}
	return
}
