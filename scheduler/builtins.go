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
	"fmt"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/interp"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

// registerBuiltins installs the routine-control group of GET_BUILTIN
// natives (chunkfmt.BuiltinTag's make_routine..irq_remove_handler
// run), the only builtins that need a live Scheduler rather than just
// a VM.
func (s *Scheduler) registerBuiltins() {
	reg := func(tag chunkfmt.BuiltinTag, argc int, fn interp.NativeFunc) {
		s.vm.RegisterBuiltin(tag, interp.NewNative(s.vm.Heap, tag.String(), argc, fn))
	}

	reg(chunkfmt.BuiltinMakeRoutine, 2, s.builtinMakeRoutine)
	reg(chunkfmt.BuiltinStart, -1, s.builtinStart)
	reg(chunkfmt.BuiltinResume, -1, s.builtinResume)
	reg(chunkfmt.BuiltinRoutineReceive, 1, s.builtinRoutineReceive)
	reg(chunkfmt.BuiltinPin, 1, s.builtinPin)
	reg(chunkfmt.BuiltinYargIrqAddHandler, 3, s.builtinIrqAddHandler)
	reg(chunkfmt.BuiltinYargIrqRemoveHandler, 2, s.builtinIrqRemoveHandler)
}

func requireRoutine(args []value.Value, i int, who string) (*routine.Routine, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%s: expected a routine argument", who)
	}
	r, ok := args[i].AsObject().(*routine.Routine)
	if !ok {
		return nil, fmt.Errorf("%s: argument %d is not a routine", who, i)
	}
	return r, nil
}

func requireUint64(args []value.Value, i int, who string) (uint64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%s: expected argument %d", who, i)
	}
	if args[i].Tag() == value.TagAddress {
		return args[i].AsAddress(), nil
	}
	n, ok := args[i].AsInt64()
	if !ok {
		return 0, fmt.Errorf("%s: argument %d must be an integer or address", who, i)
	}
	return uint64(n), nil
}

// builtinMakeRoutine implements make_routine(closure, isISR) -> Unbound
// routine (spec.md §4.5).
func (s *Scheduler) builtinMakeRoutine(vm *interp.VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	cl, ok := args[0].AsObject().(*interp.Closure)
	if !ok {
		return value.Value{}, fmt.Errorf("make_routine: first argument must be a function")
	}
	nr := routine.NewRoutine(vm.Heap, cl, args[1].IsTruthy())
	return value.Obj(nr), nil
}

// builtinStart implements start(routine, arg?).
func (s *Scheduler) builtinStart(vm *interp.VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	target, err := requireRoutine(args, 0, "start")
	if err != nil {
		return value.Value{}, err
	}
	var arg value.Value
	hasArg := len(args) > 1
	if hasArg {
		arg = args[1]
	}
	if err := s.Start(target, arg, hasArg); err != nil {
		return value.Value{}, err
	}
	return value.Nil(), nil
}

// builtinResume implements resume(routine, arg?).
func (s *Scheduler) builtinResume(vm *interp.VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	target, err := requireRoutine(args, 0, "resume")
	if err != nil {
		return value.Value{}, err
	}
	var arg value.Value
	hasArg := len(args) > 1
	if hasArg {
		arg = args[1]
	}
	return s.Resume(target, arg, hasArg)
}

// builtinRoutineReceive implements receive(routine).
func (s *Scheduler) builtinRoutineReceive(vm *interp.VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	target, err := requireRoutine(args, 0, "routine_receive")
	if err != nil {
		return value.Value{}, err
	}
	return s.Receive(target)
}

// builtinPin implements pin(routine) -> address.
func (s *Scheduler) builtinPin(vm *interp.VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	target, err := requireRoutine(args, 0, "pin")
	if err != nil {
		return value.Value{}, err
	}
	return s.Pin(target)
}

// builtinIrqAddHandler implements irq_add_shared_handler(num, addr, prio).
func (s *Scheduler) builtinIrqAddHandler(vm *interp.VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	num, err := requireUint64(args, 0, "irq_add_shared_handler")
	if err != nil {
		return value.Value{}, err
	}
	addr, err := requireUint64(args, 1, "irq_add_shared_handler")
	if err != nil {
		return value.Value{}, err
	}
	prio, err := requireUint64(args, 2, "irq_add_shared_handler")
	if err != nil {
		return value.Value{}, err
	}
	if err := s.IrqAddHandler(uint32(num), addr, int64(prio)); err != nil {
		return value.Value{}, err
	}
	return value.Nil(), nil
}

// builtinIrqRemoveHandler implements irq_remove_handler(num, addr).
func (s *Scheduler) builtinIrqRemoveHandler(vm *interp.VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	num, err := requireUint64(args, 0, "irq_remove_handler")
	if err != nil {
		return value.Value{}, err
	}
	addr, err := requireUint64(args, 1, "irq_remove_handler")
	if err != nil {
		return value.Value{}, err
	}
	if err := s.IrqRemoveHandler(uint32(num), addr); err != nil {
		return value.Value{}, err
	}
	return value.Nil(), nil
}
