// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package eth

import (
	"errors"
	"fmt"

	"github.com/soypat/lneto/phy"

	"github.com/platinasystems/h7s3/tick"
)

const MDIOTimeout = 1000

var ErrMDIOBusy = errors.New("mdio busy")

var _ phy.MDIOBus = (*MAC)(nil)

// Read is a Clause 22 read; devAddr is ignored.
func (m *MAC) Read(phyAddr, devAddr uint8, regAddr uint16) (uint16, error) {
	if err := m.mdio(phyAddr, regAddr, GOCRead); err != nil {
		return 0, fmt.Errorf("mdio read %d.%d: %w", phyAddr, regAddr, err)
	}
	return uint16(MACMDIODR.Get(m.Block)), nil
}

// Write is a Clause 22 write; devAddr is ignored.
func (m *MAC) Write(phyAddr, devAddr uint8, regAddr, value uint16) error {
	if MACMDIOAR.IsSet(m.Block, MB) {
		return fmt.Errorf("mdio write %d.%d: %w", phyAddr, regAddr, ErrMDIOBusy)
	}
	MACMDIODR.Set(m.Block, uint32(value))
	if err := m.mdio(phyAddr, regAddr, GOCWrite); err != nil {
		return fmt.Errorf("mdio write %d.%d: %w", phyAddr, regAddr, err)
	}
	return nil
}

func (m *MAC) mdio(phyAddr uint8, regAddr uint16, goc uint32) error {
	ar := MACMDIOAR.Get(m.Block)
	if ar&MB != 0 {
		return ErrMDIOBusy
	}
	ar &= CR.Mask()
	ar |= PA.Put(uint32(phyAddr)) | RDA.Put(uint32(regAddr)) |
		GOC.Put(goc) | MB
	MACMDIOAR.Set(m.Block, ar)
	return tick.Until(m.Tick, m.MDIOTimeout, func() bool {
		return !MACMDIOAR.IsSet(m.Block, MB)
	}, nil)
}
