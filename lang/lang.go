// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lang provides command text in alternative languages.
//
// The language precedence is the value of the "LANG" environment variable
// followed by a configurable default; then en_US.UTF-8.
//
// Use this build ldflag to configure the default,
//
// -X github.com/platinasystems/h7s3/lang.Default=ru_RU.UTF-8
package lang

import "os"

const (
	DeDE = "de_DE.UTF-8"
	EnGB = "en_GB.UTF-8"
	EnUS = "en_US.UTF-8"
	FrFR = "fr_FR.UTF-8"
	JaJP = "ja_JP.UTF-8"
	RuRU = "ru_RU.UTF-8"
	ZhCN = "zh_CN.UTF-8"
)

var (
	Default = EnUS

	// Env is the preferred language; empty reads LANG on first use.
	Env string
)

type Alt map[string]string

// If available, this returns text in the preferred language.
func (m Alt) String() string {
	if len(Env) == 0 {
		Env = os.Getenv("LANG")
	}
	for _, lang := range []string{Env, Default, EnUS} {
		if s, found := m[lang]; found {
			return s
		}
	}
	return ""
}
