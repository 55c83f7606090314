// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"os"
	"path/filepath"
)

var prog string

// Prog is the base name the program was run as.
func Prog() string {
	if len(prog) == 0 {
		prog = InstallName
		if len(os.Args) > 0 {
			prog = filepath.Base(os.Args[0])
		}
	}
	return prog
}
