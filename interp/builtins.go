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
	"math"
	"strconv"

	"github.com/yarg-lang/yarg/chans"
	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

// registerCoreBuiltins installs every GET_BUILTIN native that needs
// nothing beyond the VM itself: channel primitives (spec.md §4.5) and
// the numeric/string coercion family (spec.md §4.6). The routine
// control builtins (make_routine, start, resume, pin, irq_*) are
// registered by package scheduler, which is the only place that holds
// a live Scheduler to drive them.
func registerCoreBuiltins(vm *VM) {
	reg := func(tag chunkfmt.BuiltinTag, argc int, fn NativeFunc) {
		vm.RegisterBuiltin(tag, NewNative(vm.Heap, tag.String(), argc, fn))
	}

	reg(chunkfmt.BuiltinMakeChannel, 1, builtinMakeChannel)
	reg(chunkfmt.BuiltinSend, 2, builtinSend)
	reg(chunkfmt.BuiltinReceive, 1, builtinReceive)
	reg(chunkfmt.BuiltinShare, 2, builtinShare)
	reg(chunkfmt.BuiltinPeek, 1, builtinPeek)
	reg(chunkfmt.BuiltinMakeSyncGroup, -1, builtinMakeSyncGroup)
	reg(chunkfmt.BuiltinGroupReceive, 1, builtinGroupReceive)

	reg(chunkfmt.BuiltinImport, 1, builtinImport)

	reg(chunkfmt.BuiltinInt8, 1, coercionBuiltin(value.TagI8))
	reg(chunkfmt.BuiltinUint8, 1, coercionBuiltin(value.TagUI8))
	reg(chunkfmt.BuiltinInt16, 1, coercionBuiltin(value.TagI16))
	reg(chunkfmt.BuiltinUint16, 1, coercionBuiltin(value.TagUI16))
	reg(chunkfmt.BuiltinInt32, 1, coercionBuiltin(value.TagI32))
	reg(chunkfmt.BuiltinUint32, 1, coercionBuiltin(value.TagUI32))
	reg(chunkfmt.BuiltinInt64, 1, coercionBuiltin(value.TagI64))
	reg(chunkfmt.BuiltinUint64, 1, coercionBuiltin(value.TagUI64))
	reg(chunkfmt.BuiltinMFloat64, 1, coercionBuiltin(value.TagDouble))
	reg(chunkfmt.BuiltinInt, 1, builtinInt)
	reg(chunkfmt.BuiltinString, 1, builtinString)
}

func requireChannel(args []value.Value, i int) (*chans.Channel, error) {
	if i >= len(args) || args[i].Tag() != value.TagObject {
		return nil, fmt.Errorf("argument %d is not a channel", i)
	}
	c, ok := args[i].AsObject().(*chans.Channel)
	if !ok {
		return nil, fmt.Errorf("argument %d is not a channel", i)
	}
	return c, nil
}

func builtinMakeChannel(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	n, ok := args[0].AsInt64()
	if !ok {
		return value.Value{}, fmt.Errorf("make_channel: capacity must be an integer")
	}
	return value.Obj(chans.NewChannel(vm.Heap, int(n))), nil
}

func builtinSend(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	c, err := requireChannel(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	c.Send(args[1])
	return value.Nil(), nil
}

func builtinReceive(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	c, err := requireChannel(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	return c.Receive(), nil
}

func builtinShare(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	c, err := requireChannel(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	overflow := c.Share(args[1])
	return value.Bool(overflow), nil
}

func builtinPeek(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	c, err := requireChannel(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	v, ok := c.Peek()
	if !ok {
		return value.Nil(), nil
	}
	return v, nil
}

func builtinMakeSyncGroup(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	chs := make([]*chans.Channel, 0, len(args))
	for i := range args {
		c, err := requireChannel(args, i)
		if err != nil {
			return value.Value{}, err
		}
		chs = append(chs, c)
	}
	return value.Obj(chans.NewSyncGroup(vm.Heap, chs)), nil
}

func builtinGroupReceive(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	if args[0].Tag() != value.TagObject {
		return value.Value{}, fmt.Errorf("group_receive: argument is not a sync group")
	}
	g, ok := args[0].AsObject().(*chans.SyncGroup)
	if !ok {
		return value.Value{}, fmt.Errorf("group_receive: argument is not a sync group")
	}
	results := g.Receive()
	elemType := value.NewPrimitiveType(value.TAny)
	arr := value.NewPackedArray(vm.Heap, elemType, len(results))
	for i, v := range results {
		if v.IsNil() {
			continue
		}
		_ = arr.Set(i, v)
	}
	return value.Obj(arr), nil
}

func builtinImport(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	if args[0].Tag() != value.TagObject {
		return value.Value{}, fmt.Errorf("import: argument is not a string")
	}
	s, ok := args[0].AsObject().(*value.String)
	if !ok {
		return value.Value{}, fmt.Errorf("import: argument is not a string")
	}
	name := s.Value()
	if vm.AlreadyImported(name) {
		return value.Nil(), nil
	}
	fn, err := vm.Import(name)
	if err != nil {
		return value.Value{}, err
	}
	vm.MarkImported(name)
	closure := NewClosure(vm.Heap, fn)
	return vm.callSync(r, value.Obj(closure), nil)
}

// asFloat64 widens any numeric Value (fixed-width or BigInt) to a
// float64 for the int8..uint64/mfloat64 coercion builtins, matching the
// teacher-and-pack idiom of going through the decimal-string printer
// for BigInt since bigint.Int exposes no direct float conversion.
func asFloat64(v value.Value) (float64, error) {
	switch v.Tag() {
	case value.TagDouble:
		return v.AsDouble(), nil
	case value.TagObject:
		if b, ok := v.AsObject().(*value.BigInt); ok {
			f, err := strconv.ParseFloat(b.String(), 64)
			if err != nil {
				return 0, fmt.Errorf("cannot convert %s to a float", b.String())
			}
			return f, nil
		}
		if s, ok := v.AsObject().(*value.String); ok {
			f, err := strconv.ParseFloat(s.Value(), 64)
			if err != nil {
				return 0, fmt.Errorf("cannot parse %q as a number", s.Value())
			}
			return f, nil
		}
		return 0, fmt.Errorf("cannot convert %s to a number", v.TypeName())
	default:
		n, ok := v.AsInt64()
		if !ok {
			return 0, fmt.Errorf("cannot convert %s to a number", v.TypeName())
		}
		return float64(n), nil
	}
}

// coercionBuiltin builds the int8..uint64/mfloat64 family: out-of-range
// inputs fail rather than truncate; floats truncate toward zero
// (spec.md §4.6).
func coercionBuiltin(target value.Tag) NativeFunc {
	return func(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
		f, err := asFloat64(args[0])
		if err != nil {
			return value.Value{}, err
		}
		if target == value.TagDouble {
			return value.Double(f), nil
		}
		f = math.Trunc(f)
		return fixedWidthFromFloat(target, f)
	}
}

func fixedWidthFromFloat(target value.Tag, f float64) (value.Value, error) {
	switch target {
	case value.TagI8:
		if f < math.MinInt8 || f > math.MaxInt8 {
			return value.Value{}, fmt.Errorf("value %g out of range for int8", f)
		}
		return value.I8(int8(f)), nil
	case value.TagUI8:
		if f < 0 || f > math.MaxUint8 {
			return value.Value{}, fmt.Errorf("value %g out of range for uint8", f)
		}
		return value.UI8(uint8(f)), nil
	case value.TagI16:
		if f < math.MinInt16 || f > math.MaxInt16 {
			return value.Value{}, fmt.Errorf("value %g out of range for int16", f)
		}
		return value.I16(int16(f)), nil
	case value.TagUI16:
		if f < 0 || f > math.MaxUint16 {
			return value.Value{}, fmt.Errorf("value %g out of range for uint16", f)
		}
		return value.UI16(uint16(f)), nil
	case value.TagI32:
		if f < math.MinInt32 || f > math.MaxInt32 {
			return value.Value{}, fmt.Errorf("value %g out of range for int32", f)
		}
		return value.I32(int32(f)), nil
	case value.TagUI32:
		if f < 0 || f > math.MaxUint32 {
			return value.Value{}, fmt.Errorf("value %g out of range for uint32", f)
		}
		return value.UI32(uint32(f)), nil
	case value.TagI64:
		if f < math.MinInt64 || f > math.MaxInt64 {
			return value.Value{}, fmt.Errorf("value %g out of range for int64", f)
		}
		return value.I64(int64(f)), nil
	case value.TagUI64:
		if f < 0 || f > math.MaxUint64 {
			return value.Value{}, fmt.Errorf("value %g out of range for uint64", f)
		}
		return value.UI64(uint64(f)), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported coercion target")
	}
}

// builtinInt implements the `int` builtin, which — unlike int8..uint64
// — produces an arbitrary-precision BigInt (spec.md §8 scenario 6:
// `int("3402823...456")` then `/2` without loss of precision).
func builtinInt(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Tag() {
	case value.TagObject:
		if b, ok := v.AsObject().(*value.BigInt); ok {
			return value.Obj(b), nil
		}
		if s, ok := v.AsObject().(*value.String); ok {
			b, err := value.NewBigIntFromDecimalString(vm.Heap, s.Value())
			if err != nil {
				return value.Value{}, fmt.Errorf("int: %w", err)
			}
			return value.Obj(b), nil
		}
		return value.Value{}, fmt.Errorf("int: cannot convert %s", v.TypeName())
	case value.TagDouble:
		return value.Obj(value.NewBigIntFromI64(vm.Heap, int64(math.Trunc(v.AsDouble())))), nil
	default:
		n, ok := v.AsInt64()
		if !ok {
			return value.Value{}, fmt.Errorf("int: cannot convert %s", v.TypeName())
		}
		return value.Obj(value.NewBigIntFromI64(vm.Heap, n)), nil
	}
}

// builtinString stringifies args[0]. It special-cases *value.BigInt
// because value.Value.String()'s generic object fallback only knows
// how to print *value.String contents; every other object kind (a
// BigInt included) would otherwise print as "<Kind 0x...>" instead of
// its actual text.
func builtinString(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error) {
	v := args[0]
	if v.Tag() == value.TagObject {
		if b, ok := v.AsObject().(*value.BigInt); ok {
			return value.Obj(vm.Interner.Intern(b.String())), nil
		}
	}
	return value.Obj(vm.Interner.Intern(v.String())), nil
}
