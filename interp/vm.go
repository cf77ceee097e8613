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

package interp

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// Poker is the narrow interface the POKE opcode needs from the
// peripheral package, injected so interp never imports peripheral
// directly (peripheral instead depends on nothing from interp).
type Poker interface {
	Poke(addr uint64, v uint32) error
}

// VM is the shared runtime state every routine's interpreter loop
// reads and mutates: the heap, the globals table, the string
// interner, the import registry, the external compiler, and I/O
// collaborators (spec.md §4.7, §5 "Shared state").
type VM struct {
	Heap     *gc.Heap
	Globals  *Globals
	Interner *value.Interner
	Compiler chunkfmt.Compiler
	Cache    *chunkfmt.ImportCache
	Poke     Poker
	Stdout   io.Writer

	ReadFile func(name string) ([]byte, error)

	importsMu sync.Mutex
	imports   map[string]bool

	initString *value.String

	builtinsMu sync.Mutex
	builtins   map[chunkfmt.BuiltinTag]*Native
}

// NewVM wires a fresh VM around heap, installing the cached `init`
// string root that class method lookup and constructor dispatch
// reference by name (spec.md §4.3: "the cached init string").
func NewVM(heap *gc.Heap) *VM {
	interner := value.NewInterner(heap)
	vm := &VM{
		Heap:       heap,
		Globals:    NewGlobals(),
		Interner:   interner,
		Stdout:     os.Stdout,
		ReadFile:   os.ReadFile,
		imports:    make(map[string]bool),
		initString: interner.Intern("init"),
		builtins:   make(map[chunkfmt.BuiltinTag]*Native),
	}
	heap.Roots = vm.MarkRoots
	registerCoreBuiltins(vm)
	return vm
}

// RegisterBuiltin installs (or replaces) the native behind tag. The
// scheduler package calls this at startup to add the routine-control
// builtins that need a live Scheduler (make_routine, start,
// resume, pin, irq_*); registerCoreBuiltins covers everything that
// only needs the VM itself.
func (vm *VM) RegisterBuiltin(tag chunkfmt.BuiltinTag, n *Native) {
	vm.builtinsMu.Lock()
	defer vm.builtinsMu.Unlock()
	vm.builtins[tag] = n
}

// Builtin implements GET_BUILTIN: look up the native registered for
// tag, or an error if nothing has claimed it.
func (vm *VM) Builtin(tag chunkfmt.BuiltinTag) (*Native, error) {
	vm.builtinsMu.Lock()
	defer vm.builtinsMu.Unlock()
	n, ok := vm.builtins[tag]
	if !ok {
		return nil, fmt.Errorf("interp: builtin %s is not registered", tag)
	}
	return n, nil
}

// MarkRoots is installed as heap.Roots by default: it enumerates the
// globals table, the registered builtins, and the cached init string
// (spec.md §4.3 phase 1). Routine stacks/frames/upvalues are NOT
// enumerated here — they are rooted by whichever scheduler holds the
// live *routine.Routine values, which composes this method into its
// own heap.Roots callback alongside marking every live routine; see
// scheduler.Scheduler's wiring.
func (vm *VM) MarkRoots(mark func(gc.Object)) {
	mark(vm.initString)
	for _, cell := range vm.Globals.Cells() {
		mark(cell)
	}
	vm.builtinsMu.Lock()
	builtins := make([]*Native, 0, len(vm.builtins))
	for _, n := range vm.builtins {
		builtins = append(builtins, n)
	}
	vm.builtinsMu.Unlock()
	for _, n := range builtins {
		mark(n)
	}
}

// AlreadyImported reports whether name has been imported this VM
// lifetime (the "imports table ensures at-most-once import per name",
// spec.md §6).
func (vm *VM) AlreadyImported(name string) bool {
	vm.importsMu.Lock()
	defer vm.importsMu.Unlock()
	return vm.imports[name]
}

func (vm *VM) MarkImported(name string) {
	vm.importsMu.Lock()
	defer vm.importsMu.Unlock()
	vm.imports[name] = true
}

// Import resolves `import "name"` per spec.md §6: read name+".ya"
// via ReadFile, compile it (consulting and then populating Cache, if
// set), and return the resulting top-level Function. It does not wrap
// or call the closure; the caller (the IMPORT builtin / GET_BUILTIN
// path) does that so it controls the calling routine's stack.
func (vm *VM) Import(name string) (*chunkfmt.Function, error) {
	if vm.Cache != nil {
		if fn, ok, err := vm.Cache.Load(vm.Heap, vm.Interner, name); err == nil && ok {
			return fn, nil
		}
	}
	if vm.ReadFile == nil || vm.Compiler == nil {
		return nil, fmt.Errorf("interp: import %q: no compiler/file-reader wired", name)
	}
	src, err := vm.ReadFile(name + ".ya")
	if err != nil {
		return nil, fmt.Errorf("interp: reading import %q: %w", name, err)
	}
	fn, err := vm.Compiler.Compile(src, name+".ya")
	if err != nil {
		return nil, &CompileError{Message: err.Error()}
	}
	if vm.Cache != nil {
		vm.Cache.Store(name, fn)
	}
	return fn, nil
}
