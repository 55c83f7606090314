// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes dispatches named commands, each with its own usage,
// apropos and man text, and provides the help, usage, apropos and man
// builtins over them.
package goes

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"

	"github.com/platinasystems/h7s3/lang"
)

const InstallName = "h7s3"

// Separator ends one command of a line; the next runs on the same board.
const Separator = ";"

// Stdout receives the builtin output.
var Stdout io.Writer = os.Stdout

type ByName map[string]*Goes

type Goes struct {
	Name    string
	Main    func(...string) error
	Usage   string
	Apropos lang.Alt
	Man     lang.Alt
}

type aproposer interface {
	Apropos() lang.Alt
}

type mainer interface {
	Main(...string) error
}

type manner interface {
	Man() lang.Alt
}

type usager interface {
	Usage() string
}

// New returns the builtins plotted with cmds.
func New(cmds ...interface{}) ByName {
	byName := make(ByName)
	byName.Plot(
		&Goes{
			Name:    "apropos",
			Main:    byName.apropos,
			Usage:   "apropos [COMMAND]...",
			Apropos: lang.Alt{lang.EnUS: "print a short command description"},
		},
		&Goes{
			Name:    "help",
			Main:    byName.help,
			Usage:   "help [COMMAND]",
			Apropos: lang.Alt{lang.EnUS: "print command usage and description"},
		},
		&Goes{
			Name:    "man",
			Main:    byName.man,
			Usage:   "man COMMAND",
			Apropos: lang.Alt{lang.EnUS: "print command documentation"},
		},
		&Goes{
			Name:    "usage",
			Main:    byName.usage,
			Usage:   "usage [COMMAND]...",
			Apropos: lang.Alt{lang.EnUS: "print command synopsis"},
		},
	)
	byName.Plot(cmds...)
	return byName
}

func (byName ByName) Names() []string {
	names := make([]string, 0, len(byName))
	for k := range byName {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (byName ByName) Complete(prefix string) (ss []string) {
	for _, k := range byName.Names() {
		if strings.HasPrefix(k, prefix) {
			ss = append(ss, k)
		}
	}
	return
}

// Main runs each Separator delimited command of args in turn and stops
// at the first error.  Without args it uses os.Args and exits on error.
func (byName ByName) Main(args ...string) (err error) {
	if len(args) == 0 {
		if len(os.Args) < 2 {
			return byName.run([]string{"help"})
		}
		defer func() {
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", Prog(), err)
				os.Exit(1)
			}
		}()
		args = os.Args[1:]
	}
	for len(args) > 0 {
		n := len(args)
		for i, arg := range args {
			if arg == Separator {
				n = i
				break
			}
		}
		if n > 0 {
			if err = byName.run(args[:n]); err != nil {
				return
			}
		}
		if n == len(args) {
			break
		}
		args = args[n+1:]
	}
	return
}

// run runs one command.  A "-h", "-help", or "--help" argument runs help
// for the command instead; likewise "-apropos", "-man" and "-usage".
func (byName ByName) run(args []string) error {
	name := args[0]
	flag, args := flags.New(args[1:],
		"-h", "-help", "--help",
		"-apropos", "--apropos",
		"-man", "--man",
		"-usage", "--usage")
	set := func(names ...string) bool {
		for _, s := range names {
			if flag.ByName[s] {
				return true
			}
		}
		return false
	}
	targs := []string{name}
	switch {
	case set("-h", "-help", "--help"):
		name, args = "help", targs
	case set("-apropos", "--apropos"):
		name, args = "apropos", targs
	case set("-man", "--man"):
		name, args = "man", targs
	case set("-usage", "--usage"):
		name, args = "usage", targs
	}
	g := byName[name]
	if g == nil {
		return fmt.Errorf("%s: command not found", name)
	}
	if err := g.Main(args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Plot commands on map.
func (byName ByName) Plot(cmds ...interface{}) {
	for _, v := range cmds {
		g, ok := v.(*Goes)
		if !ok {
			g = new(Goes)
			if method, found := v.(fmt.Stringer); found {
				g.Name = method.String()
			} else {
				panic(fmt.Errorf("%T: doesn't have String method", v))
			}
			if method, found := v.(mainer); found {
				g.Main = method.Main
			} else {
				panic(fmt.Errorf("%s: doesn't have Main method",
					g.Name))
			}
			if method, found := v.(usager); found {
				g.Usage = method.Usage()
			}
			if method, found := v.(aproposer); found {
				g.Apropos = method.Apropos()
			}
			if method, found := v.(manner); found {
				g.Man = method.Man()
			}
		}
		if _, found := byName[g.Name]; found {
			panic(fmt.Errorf("%s: duplicate", g.Name))
		}
		byName[g.Name] = g
	}
}

func (byName ByName) lookup(name string) (*Goes, error) {
	if g := byName[name]; g != nil {
		return g, nil
	}
	return nil, fmt.Errorf("%s: command not found", name)
}

func (byName ByName) apropos(args ...string) error {
	if len(args) == 0 {
		args = byName.Names()
	}
	for _, name := range args {
		g, err := byName.lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(Stdout, "%-16s%s\n", name, g.Apropos)
	}
	return nil
}

func (byName ByName) usage(args ...string) error {
	if len(args) == 0 {
		fmt.Fprintf(Stdout, "usage:\t%s COMMAND [ARGS]... [%s COMMAND [ARGS]...]...\n",
			InstallName, Separator)
		return nil
	}
	for _, name := range args {
		g, err := byName.lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprint(Stdout, "usage:\t", strings.TrimSpace(g.Usage), "\n")
	}
	return nil
}

func (byName ByName) help(args ...string) error {
	if len(args) == 0 {
		if err := byName.usage(); err != nil {
			return err
		}
		fmt.Fprintln(Stdout)
		return byName.apropos()
	}
	if err := byName.usage(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(Stdout, byName[args[0]].Apropos)
	return nil
}

func (byName ByName) man(args ...string) error {
	if len(args) != 1 {
		return fmt.Errorf("COMMAND: missing")
	}
	g, err := byName.lookup(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(Stdout, "NAME\n\t", g.Name, " - ", g.Apropos, "\n\n")
	fmt.Fprint(Stdout, "SYNOPSIS\n\t", strings.TrimSpace(g.Usage), "\n")
	if s := g.Man.String(); len(s) > 0 {
		fmt.Fprint(Stdout, s, "\n")
	}
	return nil
}

// IsTerminal reports whether w is a terminal, for commands that align
// their output for people and tab separate it for scripts.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
