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
	"testing"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

func newTestVM() (*gc.Heap, *VM) {
	heap := gc.NewHeap()
	return heap, NewVM(heap)
}

// runMain compiles nothing -- it just wraps fn in a closure bound to a
// fresh main routine and resumes it to completion, the same shape
// scheduler.RunProgram uses for a top-level program.
func runMain(heap *gc.Heap, vm *VM, fn *chunkfmt.Function) (value.Value, error) {
	cl := NewClosure(heap, fn)
	r := routine.NewMainRoutine(heap, cl)
	return vm.Resume(r, value.Nil(), false)
}

func TestAddOfTwoI32Constants(t *testing.T) {
	heap, vm := newTestVM()
	chunk := &chunkfmt.Chunk{
		Code: []byte{
			byte(chunkfmt.OpConstant), 0,
			byte(chunkfmt.OpConstant), 1,
			byte(chunkfmt.OpAdd),
			byte(chunkfmt.OpReturn),
		},
		Lines:     []int{1, 1, 1, 1, 1, 1},
		Constants: []value.Value{value.I32(2), value.I32(3)},
	}
	fn := chunkfmt.NewFunction(heap, nil, 0, 0, chunk)
	result, err := runMain(heap, vm, fn)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	got, ok := result.AsInt64()
	if !ok || got != 5 {
		t.Fatalf("result = %v, want 5", result)
	}
}

func TestGetSetGlobal(t *testing.T) {
	heap, vm := newTestVM()
	cell := value.NewCell(heap, value.NewPrimitiveType(value.TInt32))
	if err := cell.Initialise(value.I32(10)); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	vm.Globals.Define("x", cell)

	name := vm.Interner.Intern("x")
	chunk := &chunkfmt.Chunk{
		Code: []byte{
			byte(chunkfmt.OpConstant), 1, // push 7
			byte(chunkfmt.OpSetGlobal), 0, // x = 7 (leaves 7 on stack)
			byte(chunkfmt.OpPop),
			byte(chunkfmt.OpGetGlobal), 0,
			byte(chunkfmt.OpReturn),
		},
		Lines:     []int{1, 1, 1, 1, 1, 1, 1, 1},
		Constants: []value.Value{value.Obj(name), value.I32(7)},
	}
	fn := chunkfmt.NewFunction(heap, nil, 0, 0, chunk)
	result, err := runMain(heap, vm, fn)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	got, ok := result.AsInt64()
	if !ok || got != 7 {
		t.Fatalf("result = %v, want 7", result)
	}
	if got, _ := cell.Get().AsInt64(); got != 7 {
		t.Fatalf("global cell left holding %v, want 7", cell.Get())
	}
}

// TestCallUserFunction exercises CALL against a callee compiled as an
// ordinary constant closure: `fun add(a,b){return a+b;} add(2,3)`.
func TestCallUserFunction(t *testing.T) {
	heap, vm := newTestVM()
	// Local slot 0 is the callee itself; the two arguments sit at
	// slots 1 and 2 (matching how CALL computes base as the callee's
	// stack slot and pushClosureFrame anchors the frame there).
	calleeChunk := &chunkfmt.Chunk{
		Code: []byte{
			byte(chunkfmt.OpGetLocal), 1,
			byte(chunkfmt.OpGetLocal), 2,
			byte(chunkfmt.OpAdd),
			byte(chunkfmt.OpReturn),
		},
		Lines: []int{1, 1, 1, 1, 1, 1},
	}
	calleeFn := chunkfmt.NewFunction(heap, nil, 2, 0, calleeChunk)
	calleeClosure := NewClosure(heap, calleeFn)

	mainChunk := &chunkfmt.Chunk{
		Code: []byte{
			byte(chunkfmt.OpConstant), 0, // push closure
			byte(chunkfmt.OpConstant), 1, // push 2
			byte(chunkfmt.OpConstant), 2, // push 3
			byte(chunkfmt.OpCall), 2,
			byte(chunkfmt.OpReturn),
		},
		Lines:     []int{1, 1, 1, 1, 1, 1, 1, 1, 1},
		Constants: []value.Value{value.Obj(calleeClosure), value.I32(2), value.I32(3)},
	}
	mainFn := chunkfmt.NewFunction(heap, nil, 0, 0, mainChunk)
	result, err := runMain(heap, vm, mainFn)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	got, ok := result.AsInt64()
	if !ok || got != 5 {
		t.Fatalf("result = %v, want 5", result)
	}
}

// TestBigIntArithmeticPreservesPrecision is spec.md §8's scenario 6:
// adding 1 to a 38-digit value far outside int64 range must not
// silently wrap or lose precision.
func TestBigIntArithmeticPreservesPrecision(t *testing.T) {
	heap, vm := newTestVM()
	a, err := value.NewBigIntFromDecimalString(heap, "99999999999999999999999999999999999999")
	if err != nil {
		t.Fatalf("NewBigIntFromDecimalString: %v", err)
	}
	b := value.NewBigIntFromI64(heap, 1)

	chunk := &chunkfmt.Chunk{
		Code: []byte{
			byte(chunkfmt.OpConstant), 0,
			byte(chunkfmt.OpConstant), 1,
			byte(chunkfmt.OpAdd),
			byte(chunkfmt.OpReturn),
		},
		Lines:     []int{1, 1, 1, 1, 1, 1},
		Constants: []value.Value{value.Obj(a), value.Obj(b)},
	}
	fn := chunkfmt.NewFunction(heap, nil, 0, 0, chunk)
	result, err := runMain(heap, vm, fn)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	sum, ok := result.AsObject().(*value.BigInt)
	if !ok {
		t.Fatalf("result = %v, want *value.BigInt", result)
	}
	want := "100000000000000000000000000000000000000"
	if got := sum.N.ToDecimalString(); got != want {
		t.Fatalf("sum = %s, want %s", got, want)
	}
}

func TestCannotResumeAClosedRoutine(t *testing.T) {
	heap, vm := newTestVM()
	fn := chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
		Code:  []byte{byte(chunkfmt.OpNil), byte(chunkfmt.OpReturn)},
		Lines: []int{1, 1},
	})
	cl := NewClosure(heap, fn)
	r := routine.NewMainRoutine(heap, cl)
	if _, err := vm.Resume(r, value.Nil(), false); err != nil {
		t.Fatalf("first Resume: %v", err)
	}
	if r.State() != routine.Closed {
		t.Fatalf("state = %s, want Closed", r.State())
	}
	if _, err := vm.Resume(r, value.Nil(), false); err == nil {
		t.Fatalf("expected resuming a Closed routine to fail")
	}
}
