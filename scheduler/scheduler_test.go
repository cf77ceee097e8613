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

package scheduler

import (
	"testing"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/interp"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

// genFunction builds the chunk for `fun gen(){yield 1; yield 2;}`:
// push 1, yield, discard the resume argument, push 2, yield, discard
// the resume argument, then fall off the end returning nil.
func genFunction(heap *gc.Heap) *chunkfmt.Function {
	chunk := &chunkfmt.Chunk{
		Code: []byte{
			byte(chunkfmt.OpConstant), 0,
			byte(chunkfmt.OpYield),
			byte(chunkfmt.OpPop),
			byte(chunkfmt.OpConstant), 1,
			byte(chunkfmt.OpYield),
			byte(chunkfmt.OpPop),
			byte(chunkfmt.OpNil),
			byte(chunkfmt.OpReturn),
		},
		Lines:     []int{1, 1, 1, 1, 1, 1, 1, 1, 1},
		Constants: []value.Value{value.I32(1), value.I32(2)},
	}
	return chunkfmt.NewFunction(heap, nil, 0, 0, chunk)
}

func newTestScheduler(t *testing.T) (*Scheduler, *interp.VM) {
	t.Helper()
	heap := gc.NewHeap()
	vm := interp.NewVM(heap)
	mainFn := chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
		Code:  []byte{byte(chunkfmt.OpNil), byte(chunkfmt.OpReturn)},
		Lines: []int{1, 1},
	})
	mainClosure := interp.NewClosure(heap, mainFn)
	main := routine.NewMainRoutine(heap, mainClosure)
	s := New(vm, main, Options{})
	return s, vm
}

// TestResumeYieldsThenReturnsNil exercises the literal scenario 5
// program from the generator example: resuming an Unbound routine
// runs it to its first yield, and resuming the Suspended routine
// again runs it to its second yield.
func TestResumeYieldsThenReturnsNil(t *testing.T) {
	s, vm := newTestScheduler(t)
	heap := vm.Heap

	cl := interp.NewClosure(heap, genFunction(heap))
	r := routine.NewRoutine(heap, cl, false)

	got, err := s.Resume(r, value.Value{}, false)
	if err != nil {
		t.Fatalf("first resume: %v", err)
	}
	if got.AsI32() != 1 {
		t.Fatalf("first resume result = %v, want 1", got)
	}
	if r.State() != routine.Suspended {
		t.Fatalf("state after first resume = %v, want Suspended", r.State())
	}

	got, err = s.Resume(r, value.Value{}, false)
	if err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if got.AsI32() != 2 {
		t.Fatalf("second resume result = %v, want 2", got)
	}
	if r.State() != routine.Suspended {
		t.Fatalf("state after second resume = %v, want Suspended", r.State())
	}
}

func TestResumeRejectsRunningOrClosed(t *testing.T) {
	s, vm := newTestScheduler(t)
	heap := vm.Heap

	cl := interp.NewClosure(heap, genFunction(heap))
	r := routine.NewRoutine(heap, cl, false)
	r.SetState(routine.Running)

	if _, err := s.Resume(r, value.Value{}, false); err == nil {
		t.Fatalf("expected resume on a Running routine to fail")
	}
}

func TestStartRunsOnBackgroundGoroutineAndReceiveBlocksUntilDone(t *testing.T) {
	s, vm := newTestScheduler(t)
	heap := vm.Heap

	fn := chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
		Code:      []byte{byte(chunkfmt.OpConstant), 0, byte(chunkfmt.OpReturn)},
		Lines:     []int{1, 1, 1},
		Constants: []value.Value{value.I32(42)},
	})
	cl := interp.NewClosure(heap, fn)
	r := routine.NewRoutine(heap, cl, false)

	if err := s.Start(r, value.Value{}, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got, err := s.Receive(r)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got.AsI32() != 42 {
		t.Fatalf("Receive result = %v, want 42", got)
	}
	if r.State() != routine.Closed {
		t.Fatalf("state after receive = %v, want Closed", r.State())
	}
}

func TestReceiveOnNeverStartedRoutineFails(t *testing.T) {
	s, vm := newTestScheduler(t)
	heap := vm.Heap

	cl := interp.NewClosure(heap, genFunction(heap))
	r := routine.NewRoutine(heap, cl, false)

	if _, err := s.Receive(r); err == nil {
		t.Fatalf("expected Receive on an Unbound routine to fail")
	}
}

func TestPinRequiresZeroArityAndBoundsThePool(t *testing.T) {
	s, vm := newTestScheduler(t)
	heap := vm.Heap

	zeroArityFn := chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
		Code:  []byte{byte(chunkfmt.OpNil), byte(chunkfmt.OpReturn)},
		Lines: []int{1, 1},
	})
	oneArityFn := chunkfmt.NewFunction(heap, nil, 1, 0, &chunkfmt.Chunk{
		Code:  []byte{byte(chunkfmt.OpNil), byte(chunkfmt.OpReturn)},
		Lines: []int{1, 1},
	})

	isr := routine.NewRoutine(heap, interp.NewClosure(heap, oneArityFn), true)
	if _, err := s.Pin(isr); err == nil {
		t.Fatalf("expected pin to reject a 1-arity routine")
	}

	addrs := make(map[uint64]bool)
	for i := 0; i < maxPinned; i++ {
		r := routine.NewRoutine(heap, interp.NewClosure(heap, zeroArityFn), true)
		v, err := s.Pin(r)
		if err != nil {
			t.Fatalf("pin %d: %v", i, err)
		}
		addrs[v.AsAddress()] = true
	}
	if len(addrs) != maxPinned {
		t.Fatalf("got %d distinct trampoline addresses, want %d", len(addrs), maxPinned)
	}

	overflow := routine.NewRoutine(heap, interp.NewClosure(heap, zeroArityFn), true)
	if _, err := s.Pin(overflow); err == nil {
		t.Fatalf("expected pin to fail once the trampoline pool is exhausted")
	}
}

func TestIrqAddAndRemoveHandlerRoundTrip(t *testing.T) {
	s, vm := newTestScheduler(t)
	heap := vm.Heap

	fn := chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
		Code:  []byte{byte(chunkfmt.OpNil), byte(chunkfmt.OpReturn)},
		Lines: []int{1, 1},
	})
	r := routine.NewRoutine(heap, interp.NewClosure(heap, fn), true)
	addrVal, err := s.Pin(r)
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}
	addr := addrVal.AsAddress()

	if err := s.IrqAddHandler(3, addr, 1); err != nil {
		t.Fatalf("IrqAddHandler: %v", err)
	}
	if err := s.IrqAddHandler(3, 0xdead, 1); err == nil {
		t.Fatalf("expected IrqAddHandler to reject an un-pinned address")
	}
	if err := s.IrqRemoveHandler(3, addr); err != nil {
		t.Fatalf("IrqRemoveHandler: %v", err)
	}
	if err := s.IrqRemoveHandler(3, addr); err == nil {
		t.Fatalf("expected a second IrqRemoveHandler to fail")
	}
}

func TestTriggerResumesPinnedRoutineInPriorityOrder(t *testing.T) {
	s, vm := newTestScheduler(t)
	heap := vm.Heap

	record := func(n int) *chunkfmt.Function {
		return chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
			Code:      []byte{byte(chunkfmt.OpConstant), 0, byte(chunkfmt.OpReturn)},
			Lines:     []int{1, 1, 1},
			Constants: []value.Value{value.I32(int32(n))},
		})
	}

	lo := routine.NewRoutine(heap, interp.NewClosure(heap, record(1)), true)
	hi := routine.NewRoutine(heap, interp.NewClosure(heap, record(2)), true)

	loAddr, err := s.Pin(lo)
	if err != nil {
		t.Fatalf("Pin lo: %v", err)
	}
	hiAddr, err := s.Pin(hi)
	if err != nil {
		t.Fatalf("Pin hi: %v", err)
	}
	if err := s.IrqAddHandler(7, loAddr.AsAddress(), 1); err != nil {
		t.Fatalf("IrqAddHandler lo: %v", err)
	}
	if err := s.IrqAddHandler(7, hiAddr.AsAddress(), 5); err != nil {
		t.Fatalf("IrqAddHandler hi: %v", err)
	}

	if err := s.Trigger(7); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if hi.State() != routine.Closed || lo.State() != routine.Closed {
		t.Fatalf("both handlers should have run: lo=%v hi=%v", lo.State(), hi.State())
	}
	if hi.Result().AsI32() != 2 || lo.Result().AsI32() != 1 {
		t.Fatalf("unexpected results: lo=%v hi=%v", lo.Result(), hi.Result())
	}
}
