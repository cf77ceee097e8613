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

package peripheral

import (
	"fmt"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/interp"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

// Install registers the `peek`/`poke` builtins against r and wires r
// in as vm.Poke, so the POKE opcode (address targets only) and the
// `poke` builtin (raw address writes) share the same backend. This is
// the only group of chunkfmt.BuiltinTag natives package peripheral
// owns; pin/irq_* stay with package scheduler (see DESIGN.md).
func Install(vm *interp.VM, r *Registry) {
	vm.Poke = r
	vm.RegisterBuiltin(chunkfmt.BuiltinPeekAddr, interp.NewNative(vm.Heap, chunkfmt.BuiltinPeekAddr.String(), 1, r.builtinPeek))
	vm.RegisterBuiltin(chunkfmt.BuiltinPokeAddr, interp.NewNative(vm.Heap, chunkfmt.BuiltinPokeAddr.String(), 2, r.builtinPoke))
}

func addressOf(v value.Value, who string) (uint64, error) {
	if v.Tag() == value.TagAddress {
		return v.AsAddress(), nil
	}
	if n, ok := v.AsInt64(); ok {
		return uint64(n), nil
	}
	return 0, fmt.Errorf("%s: argument must be an address or integer", who)
}

func (r *Registry) builtinPeek(vm *interp.VM, rt *routine.Routine, args []value.Value) (value.Value, error) {
	addr, err := addressOf(args[0], "peek")
	if err != nil {
		return value.Value{}, err
	}
	word, err := r.Peek(addr)
	if err != nil {
		return value.Value{}, err
	}
	return value.UI32(word), nil
}

func (r *Registry) builtinPoke(vm *interp.VM, rt *routine.Routine, args []value.Value) (value.Value, error) {
	addr, err := addressOf(args[0], "poke")
	if err != nil {
		return value.Value{}, err
	}
	word, ok := args[1].AsInt64()
	if !ok {
		return value.Value{}, fmt.Errorf("poke: value must be an integer")
	}
	if err := r.Poke(addr, uint32(word)); err != nil {
		return value.Value{}, err
	}
	return value.Nil(), nil
}
