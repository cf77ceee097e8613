// Copyright (C) 2026 yarg-lang contributors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/peripheral"
)

var (
	dashconfig   string
	dashdumpheap bool
)

func init() {
	flag.StringVar(&dashconfig, "config", "", "path to a YAML file naming IRQ numbers, for peek/poke diagnostics")
	flag.BoolVar(&dashdumpheap, "dump-heap", false, "print a heap fingerprint after the run finishes, for debugging")
}

// noCompiler stands in for the lexer/parser/emitter front end, which
// is out of scope here; an embedder links in a real chunkfmt.Compiler
// by setting vm.Compiler directly instead of going through this CLI.
var noCompiler = chunkfmt.CompilerFunc(func(src []byte, name string) (*chunkfmt.Function, error) {
	return nil, chunkfmt.ErrNoCompiler
})

func main() {
	flag.Parse()
	args := flag.Args()

	irqNames := map[uint32]string{}
	if dashconfig != "" {
		cfg, err := peripheral.LoadConfig(dashconfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", dashconfig, err)
			os.Exit(exitIO)
		}
		irqNames = cfg.IRQs
	}

	c := &cli{
		compiler: noCompiler,
		readFile: os.ReadFile,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		irqNames: irqNames,
		dumpHeap: dashdumpheap,
	}
	os.Exit(c.run(args))
}
