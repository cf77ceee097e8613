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

// Command yarg is the host CLI: a REPL, a file runner and a
// disassembler over the core runtime (spec.md §6's three invocation
// modes), reused from the teacher's cmd/*/main.go idiom of
// flag-parsed globals plus a switch on flag.Args(). The lexical
// scanner, parser and bytecode emitter are deliberately out of scope
// (spec.md §1: "external collaborators"); this binary only needs
// something satisfying chunkfmt.Compiler, wired in by whoever embeds a
// real front end.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/interp"
	"github.com/yarg-lang/yarg/peripheral"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/scheduler"
)

// Exit codes, spec.md §6: "exit 0 on success, 65 on compile error, 70
// on runtime error, 74 on I/O error, 64 on usage error."
const (
	exitOK          = 0
	exitUsageError  = 64
	exitCompile     = 65
	exitIO          = 74
	exitRuntime     = 70
	exitDefaultFail = exitRuntime
)

// emptyMainFunction is the placeholder main routine for scheduler
// instances that only ever run programs through RunProgram (the REPL
// and disassemble modes never touch the scheduler's own "main").
func emptyMainFunction(heap *gc.Heap) *chunkfmt.Function {
	return chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
		Code:  []byte{byte(chunkfmt.OpNil), byte(chunkfmt.OpReturn)},
		Lines: []int{0, 0},
	})
}

// cli bundles everything run's three modes share: the runtime, and
// the I/O streams + file reader so tests can swap in fakes without
// touching a real filesystem or terminal.
type cli struct {
	compiler chunkfmt.Compiler
	readFile func(string) ([]byte, error)
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	irqNames map[uint32]string
	dumpHeap bool
}

func newRuntime(c *cli) (*scheduler.Scheduler, *gc.Heap) {
	heap := gc.NewHeap()
	vm := interp.NewVM(heap)
	vm.Compiler = c.compiler
	vm.ReadFile = c.readFile
	vm.Stdout = c.stdout

	reg := peripheral.New(peripheral.Options{IRQNames: c.irqNames})
	peripheral.Install(vm, reg)

	fn := emptyMainFunction(heap)
	cl := interp.NewClosure(heap, fn)
	main := routine.NewMainRoutine(heap, cl)
	return scheduler.New(vm, main, scheduler.Options{}), heap
}

// dumpHeapFingerprint prints the heap's fingerprint to c.stdout when
// --dump-heap was requested, for comparing whether two runs allocated
// the same shape of heap.
func (c *cli) dumpHeapFingerprint(heap *gc.Heap) {
	if !c.dumpHeap {
		return
	}
	sum, err := heap.Fingerprint()
	if err != nil {
		fmt.Fprintf(c.stderr, "dump-heap: %v\n", err)
		return
	}
	fmt.Fprintf(c.stdout, "heap fingerprint: %x\n", sum)
}

// run dispatches on args per spec.md §6 and returns the process exit
// code; main() is a thin os.Exit(run(...)) wrapper so the dispatch
// logic itself is testable without forking a process.
func (c *cli) run(args []string) int {
	switch len(args) {
	case 0:
		return c.repl()
	case 1:
		return c.runFile(args[0])
	case 2:
		if args[0] != "disassemble" {
			fmt.Fprintf(c.stderr, "usage: %s [<path> | disassemble <path>]\n", os.Args[0])
			return exitUsageError
		}
		return c.disassemble(args[1])
	default:
		fmt.Fprintf(c.stderr, "usage: %s [<path> | disassemble <path>]\n", os.Args[0])
		return exitUsageError
	}
}

func (c *cli) compile(name string, src []byte) (*chunkfmt.Function, error) {
	fn, err := c.compiler.Compile(src, name)
	if err != nil {
		return nil, &interp.CompileError{Message: err.Error()}
	}
	return fn, nil
}

func (c *cli) runFile(path string) int {
	sched, heap := newRuntime(c)
	src, err := c.readFile(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "%s: %v\n", path, err)
		return exitIO
	}
	fn, err := c.compile(path, src)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitCompile
	}
	if _, err := sched.RunProgram(fn); err != nil {
		fmt.Fprintln(c.stderr, err)
		c.dumpHeapFingerprint(heap)
		return exitCodeFor(err)
	}
	c.dumpHeapFingerprint(heap)
	return exitOK
}

func (c *cli) repl() int {
	sched, heap := newRuntime(c)
	scanner := bufio.NewScanner(c.stdin)
	for scanner.Scan() {
		line := scanner.Text()
		fn, err := c.compile("<repl>", []byte(line))
		if err != nil {
			fmt.Fprintln(c.stderr, err)
			continue
		}
		if _, err := sched.RunProgram(fn); err != nil {
			fmt.Fprintln(c.stderr, err)
		}
	}
	c.dumpHeapFingerprint(heap)
	return exitOK
}

func (c *cli) disassemble(path string) int {
	src, err := c.readFile(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "%s: %v\n", path, err)
		return exitIO
	}
	fn, err := c.compile(path, src)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitCompile
	}
	disassembleFunction(c.stdout, fn, path)
	return exitOK
}

// disassembleFunction prints fn's chunk, then recurses into every
// nested *chunkfmt.Function found in its constant pool (spec.md §6:
// "print each function's chunk"), since CLOSURE-captured functions
// live as ordinary constants rather than a separate function table.
func disassembleFunction(w io.Writer, fn *chunkfmt.Function, name string) {
	for _, line := range fn.Chunk.Disassemble(name) {
		fmt.Fprintln(w, line)
	}
	for i, k := range fn.Chunk.Constants {
		if nested, ok := k.AsObject().(*chunkfmt.Function); ok {
			nestedName := fmt.Sprintf("%s/const%d", name, i)
			if nested.Name != nil {
				nestedName = nested.Name.Value()
			}
			disassembleFunction(w, nested, nestedName)
		}
	}
}

// exitCodeFor maps an error returned by a completed program run to a
// process exit code. A *chunkfmt import that failed to read its file
// surfaces as a plain wrapped error from within the running program
// rather than a CLI-boundary read failure, so it falls through to the
// runtime-error code like any other execution failure.
func exitCodeFor(err error) int {
	var compileErr *interp.CompileError
	if errors.As(err, &compileErr) {
		return exitCompile
	}
	return exitDefaultFail
}
