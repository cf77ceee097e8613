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

// Package scheduler drives routine lifecycles on top of a bare interp.VM:
// make_routine/start/resume/routine_receive (spec.md §3's Routine
// lifecycle graph and §4.5's "one background worker + N pinned
// interrupt routines"), and the pin/irq_add_shared_handler/
// irq_remove_handler trio that ties a routine to an interrupt
// trampoline address. It is grounded on the worker-pool shape of
// sorting.threadPool in the teacher (a mutex+sync.Cond guarding a
// queue, with a fixed number of goroutines draining it): here the
// "pool" has exactly one background lane, so a goroutine per start()
// call serializes itself on a single mutex instead of pulling from a
// shared queue.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/interp"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

// maxPinned bounds the interrupt-trampoline pool (spec.md §4.5: "a
// small fixed-size pool of interrupt trampolines (up to 10)").
const maxPinned = 10

// trampolineBase is the first address handed out by pin. Trampoline
// addresses are opaque handles in this hosted port, not real function
// pointers; they only need to be distinct and stable so irq_add/remove
// can key off them.
const trampolineBase = 0x8000_0000

type irqHandler struct {
	addr uint64
	prio int64
}

// Options carries the ambient, optional knobs around a Scheduler,
// following the config-struct-plus-injectable-Logf shape the teacher
// uses throughout (e.g. db.GCConfig.Logf), also used by
// gc.CollectConfig in this module.
type Options struct {
	// Logf, if set, is called for every start/resume/pin/irq lifecycle
	// event -- purely diagnostic, never required for correctness.
	Logf func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Scheduler owns every routine the program has started or resumed,
// enforces spec.md's at-most-one-background-worker rule, and answers
// GC root enumeration for the routines it tracks (composed into
// interp.VM.MarkRoots by New).
type Scheduler struct {
	vm   *interp.VM
	main *routine.Routine
	opts Options

	// workerMu is held by a started routine's goroutine for the
	// duration of its run, serializing every start()-launched routine
	// onto a single logical background worker.
	workerMu sync.Mutex

	mu          sync.Mutex
	cond        *sync.Cond
	routines    map[string]*routine.Routine
	pinned      map[string]uint64 // routine ID -> trampoline address
	trampolines map[uint64]*routine.Routine
	irqHandlers map[uint32][]irqHandler
}

// New wires a Scheduler around vm and main, installing the combined GC
// root callback (vm's own globals/builtins roots plus every tracked
// routine, spec.md §4.3 phase 2: "every live Routine object ... its
// stack, frames and open upvalues"), and registers the routine-control
// builtins this package owns per chunkfmt.BuiltinTag's grouping.
func New(vm *interp.VM, main *routine.Routine, opts Options) *Scheduler {
	s := &Scheduler{
		vm:          vm,
		main:        main,
		opts:        opts,
		routines:    make(map[string]*routine.Routine),
		pinned:      make(map[string]uint64),
		trampolines: make(map[uint64]*routine.Routine),
		irqHandlers: make(map[uint32][]irqHandler),
	}
	s.cond = sync.NewCond(&s.mu)
	s.track(main)
	vm.Heap.Roots = s.markRoots
	s.registerBuiltins()
	return s
}

// markRoots composes vm.MarkRoots with marking every routine this
// scheduler is tracking (main, every started/resumed/pinned routine).
func (s *Scheduler) markRoots(mark func(gc.Object)) {
	s.vm.MarkRoots(mark)
	s.mu.Lock()
	routines := make([]*routine.Routine, 0, len(s.routines))
	for _, r := range s.routines {
		routines = append(routines, r)
	}
	s.mu.Unlock()
	for _, r := range routines {
		mark(r)
	}
}

// track assigns r an ID (if it doesn't have one yet) and adds it to
// the set of GC-rooted, receive()-able routines.
func (s *Scheduler) track(r *routine.Routine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	s.routines[r.ID] = r
}

// RunMain drives the program's implicit top-level routine to
// completion. Unlike start()-launched routines, main runs on the
// calling goroutine directly: it is not a "background worker" routine
// in spec.md's sense, so it never touches workerMu.
func (s *Scheduler) RunMain() (value.Value, error) {
	return s.vm.Resume(s.main, value.Nil(), false)
}

// RunProgram wraps fn (a freshly compiled top-level chunk) in its own
// main routine and drives it to completion, tracking it for GC roots
// as it goes. This is cmd/yarg's entry point for every compiled
// program that isn't the scheduler's fixed main routine: the REPL
// treats each line as its own complete program sharing this VM's
// Globals (spec.md §6: "each line interpreted as a complete
// program"), and file-run mode uses it for the same reason RunMain
// exists for the embedded hardcoded-main.ya case.
func (s *Scheduler) RunProgram(fn *chunkfmt.Function) (value.Value, error) {
	cl := interp.NewClosure(s.vm.Heap, fn)
	r := routine.NewMainRoutine(s.vm.Heap, cl)
	s.track(r)
	return s.vm.Resume(r, value.Nil(), false)
}

// Start implements the `start` builtin: launch target (which must be
// Unbound) on the background worker and return immediately without
// waiting for it to run (spec.md §4.5: "launches it on the background
// worker (at most one worker at a time) and returns immediately").
// The goroutine is spawned unconditionally so the call itself never
// blocks; at-most-one-worker is enforced by the goroutine blocking on
// workerMu before it touches the interpreter.
func (s *Scheduler) Start(target *routine.Routine, arg value.Value, hasArg bool) error {
	if target.State() != routine.Unbound {
		return fmt.Errorf("start: routine must be Unbound, is %s", target.State())
	}
	s.track(target)
	s.opts.logf("scheduler: start %s", target.ID)
	go func() {
		s.workerMu.Lock()
		defer s.workerMu.Unlock()
		pinWorkerThread()
		if _, err := s.vm.Resume(target, arg, hasArg); err != nil {
			target.Fail(err.Error())
		}
		s.opts.logf("scheduler: %s finished as %s", target.ID, target.State())
		s.broadcast()
	}()
	return nil
}

// Resume implements the `resume` builtin: run target inline on the
// calling goroutine until its next yield or return (spec.md §4.5:
// "runs to completion or next yield inline"), valid on Unbound or
// Suspended routines.
func (s *Scheduler) Resume(target *routine.Routine, arg value.Value, hasArg bool) (value.Value, error) {
	switch target.State() {
	case routine.Unbound, routine.Suspended:
	default:
		return value.Value{}, fmt.Errorf("resume: routine must be Unbound or Suspended, is %s", target.State())
	}
	s.track(target)
	result, err := s.vm.Resume(target, arg, hasArg)
	s.broadcast()
	return result, err
}

// Receive implements `routine_receive`: block until target reaches a
// waitable terminal state and return its latched result (spec.md
// §4.5: "blocks until the routine is Closed or Suspended ... and
// returns its result"). It keeps waiting while target is Running, and
// while target is still Unbound after start/resume/pin handed it to
// this scheduler (a start()-launched routine stays Unbound until the
// background worker picks it up). A routine this scheduler was never
// handed has nothing to wait for and is reported as a usage error
// rather than a wait that could never be woken; see DESIGN.md for the
// exact reading of this spec sentence.
func (s *Scheduler) Receive(target *routine.Routine) (value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target.State() == routine.Unbound && s.routines[target.ID] != target {
		return value.Value{}, fmt.Errorf("routine_receive: routine was never started")
	}
	for target.State() == routine.Running || target.State() == routine.Unbound {
		s.cond.Wait()
	}
	if target.State() == routine.Error {
		return value.Value{}, fmt.Errorf("routine_receive: routine failed: %s", target.ErrorMessage())
	}
	return target.Result(), nil
}

func (s *Scheduler) broadcast() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Pin implements `pin`: allocate one of the fixed trampoline slots for
// a 0-arity routine and return its address, suitable for installing
// via irq_add_shared_handler (spec.md §4.5, §6).
func (s *Scheduler) Pin(target *routine.Routine) (value.Value, error) {
	if target.Entry().Function().Arity != 0 {
		return value.Value{}, fmt.Errorf("pin: routine entry must take no arguments")
	}
	s.track(target)

	s.mu.Lock()
	defer s.mu.Unlock()
	if addr, ok := s.pinned[target.ID]; ok {
		return value.Address(addr), nil
	}
	if len(s.trampolines) >= maxPinned {
		return value.Value{}, fmt.Errorf("pin: trampoline pool exhausted (max %d)", maxPinned)
	}
	addr := trampolineBase + uint64(len(s.trampolines))
	s.trampolines[addr] = target
	s.pinned[target.ID] = addr
	s.opts.logf("scheduler: pinned %s to trampoline %#x", target.ID, addr)
	return value.Address(addr), nil
}

// IrqAddHandler records addr (a pin()-returned trampoline address) as
// a handler for irq number num at priority prio. Multiple handlers may
// share one irq number (spec.md §6: "irq_add_shared_handler").
func (s *Scheduler) IrqAddHandler(num uint32, addr uint64, prio int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trampolines[addr]; !ok {
		return fmt.Errorf("irq_add_shared_handler: %#x is not a pinned trampoline address", addr)
	}
	s.irqHandlers[num] = append(s.irqHandlers[num], irqHandler{addr: addr, prio: prio})
	return nil
}

// IrqRemoveHandler undoes a prior IrqAddHandler(num, addr, _).
func (s *Scheduler) IrqRemoveHandler(num uint32, addr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	handlers := s.irqHandlers[num]
	for i, h := range handlers {
		if h.addr == addr {
			s.irqHandlers[num] = append(handlers[:i:i], handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("irq_remove_handler: no handler %#x registered for irq %d", addr, num)
}

// Trigger runs every handler registered for num in priority order,
// highest priority first, resuming each handler's pinned routine
// inline. It is not reachable from any builtin -- nothing in this
// hosted port generates real hardware interrupts -- but this package's
// tests use it to exercise the irq_add_shared_handler wiring
// end to end.
func (s *Scheduler) Trigger(num uint32) error {
	s.mu.Lock()
	handlers := append([]irqHandler(nil), s.irqHandlers[num]...)
	trampolines := make(map[uint64]*routine.Routine, len(handlers))
	for _, h := range handlers {
		if r, ok := s.trampolines[h.addr]; ok {
			trampolines[h.addr] = r
		}
	}
	s.mu.Unlock()

	sortByPriorityDesc(handlers)
	for _, h := range handlers {
		r, ok := trampolines[h.addr]
		if !ok {
			continue
		}
		if _, err := s.Resume(r, value.Nil(), false); err != nil {
			return err
		}
	}
	return nil
}

func sortByPriorityDesc(hs []irqHandler) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j-1].prio < hs[j].prio; j-- {
			hs[j-1], hs[j] = hs[j], hs[j-1]
		}
	}
}
