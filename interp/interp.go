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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/yarg-lang/yarg/bigint"
	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

// Resume drives r according to spec.md §4.5: an Unbound routine is
// initialised with entry+arg and run from the start; a Suspended
// routine continues from where YIELD left it, with arg (if any)
// becoming the value the suspended yield expression reads. Returns
// once the routine yields again, closes, or errors.
func (vm *VM) Resume(r *routine.Routine, arg value.Value, hasArg bool) (value.Value, error) {
	stack := r.Stack()
	switch r.State() {
	case routine.Unbound:
		argc := 0
		if hasArg {
			argc = 1
		}
		if err := stack.Push(value.Obj(r.Entry())); err != nil {
			return value.Value{}, err
		}
		if hasArg {
			if err := stack.Push(arg); err != nil {
				return value.Value{}, err
			}
		}
		r.SetState(routine.Running)
		if err := vm.call(r, value.Obj(r.Entry()), argc, 0); err != nil {
			r.Fail(err.Error())
			return value.Value{}, err
		}
	case routine.Suspended:
		r.SetState(routine.Running)
		if hasArg {
			if err := stack.Push(arg); err != nil {
				return value.Value{}, err
			}
		} else {
			if err := stack.Push(value.Nil()); err != nil {
				return value.Value{}, err
			}
		}
	default:
		return value.Value{}, fmt.Errorf("interp: cannot resume a routine in state %s", r.State())
	}

	if err := vm.runLoop(r, 0); err != nil {
		return value.Value{}, err
	}
	return r.Result(), nil
}

// runLoop drives dispatch until the frame stack unwinds to floor (or
// the routine fully closes, for floor==0), marking the routine Error
// on any failure (spec.md §7.2's unwind-only-this-routine policy).
func (vm *VM) runLoop(r *routine.Routine, floor int) error {
	if err := vm.dispatch(r, floor); err != nil {
		r.Fail(err.Error())
		return err
	}
	return nil
}

// callSync invokes callee synchronously at r's current stack, used by
// the `import` builtin to run the freshly compiled top-level closure
// "at the current stack" per spec.md §4.7.
func (vm *VM) callSync(r *routine.Routine, callee value.Value, args []value.Value) (value.Value, error) {
	stack := r.Stack()
	floor := r.FrameCount()
	if err := stack.Push(callee); err != nil {
		return value.Value{}, err
	}
	for _, a := range args {
		if err := stack.Push(a); err != nil {
			return value.Value{}, err
		}
	}
	if err := vm.call(r, callee, len(args), 0); err != nil {
		return value.Value{}, err
	}
	if r.FrameCount() > floor {
		if err := vm.dispatch(r, floor); err != nil {
			return value.Value{}, err
		}
	}
	return stack.Pop(), nil
}

func readU32(code []byte, ip int) uint32 { return binary.LittleEndian.Uint32(code[ip : ip+4]) }
func readU64(code []byte, ip int) uint64 { return binary.LittleEndian.Uint64(code[ip : ip+8]) }

// dispatch is the bytecode interpreter's tight loop (spec.md §4.4): it
// reads and executes one opcode per iteration against r's current top
// frame until the frame stack depth returns to floor (the depth it was
// entered at) or YIELD suspends the routine.
func (vm *VM) dispatch(r *routine.Routine, floor int) error {
	stack := r.Stack()

	for r.FrameCount() > floor {
		frame := r.CurrentFrame()
		chunk := frame.Callable.Function().Chunk
		ip := frame.IP
		op := chunkfmt.Op(chunk.Code[ip])
		line := chunk.LineAt(ip)
		frame.IP = ip + 1

		push := func(v value.Value) error {
			if err := stack.Push(v); err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			return nil
		}

		switch op {
		case chunkfmt.OpConstant:
			idx := chunk.Code[frame.IP]
			frame.IP++
			if err := push(chunk.Constants[idx]); err != nil {
				return err
			}
		case chunkfmt.OpNil:
			if err := push(value.Nil()); err != nil {
				return err
			}
		case chunkfmt.OpTrue:
			if err := push(value.Bool(true)); err != nil {
				return err
			}
		case chunkfmt.OpFalse:
			if err := push(value.Bool(false)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateI8:
			v := int8(chunk.Code[frame.IP])
			frame.IP++
			if err := push(value.I8(v)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateUI8:
			v := chunk.Code[frame.IP]
			frame.IP++
			if err := push(value.UI8(v)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateI16:
			v := int16(chunk.ReadShort(frame.IP))
			frame.IP += 2
			if err := push(value.I16(v)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateUI16:
			v := chunk.ReadShort(frame.IP)
			frame.IP += 2
			if err := push(value.UI16(v)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateI32:
			v := int32(readU32(chunk.Code, frame.IP))
			frame.IP += 4
			if err := push(value.I32(v)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateUI32:
			v := readU32(chunk.Code, frame.IP)
			frame.IP += 4
			if err := push(value.UI32(v)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateI64:
			v := int64(readU64(chunk.Code, frame.IP))
			frame.IP += 8
			if err := push(value.I64(v)); err != nil {
				return err
			}
		case chunkfmt.OpImmediateUI64:
			v := readU64(chunk.Code, frame.IP)
			frame.IP += 8
			if err := push(value.UI64(v)); err != nil {
				return err
			}

		case chunkfmt.OpGetLocal:
			s := chunk.Code[frame.IP]
			frame.IP++
			if err := push(stack.At(frame.Base + int(s))); err != nil {
				return err
			}
		case chunkfmt.OpSetLocal:
			s := chunk.Code[frame.IP]
			frame.IP++
			stack.SetAt(frame.Base+int(s), stack.Peek(0))
		case chunkfmt.OpGetGlobal:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			cell, err := vm.Globals.Get(name)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(cell.Get()); err != nil {
				return err
			}
		case chunkfmt.OpDefineGlobal:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			cellVal := stack.Pop()
			initVal := stack.Pop()
			cell, ok := cellVal.AsObject().(*value.Cell)
			if !ok {
				return runtimeErrorf(line, "DEFINE_GLOBAL expected a typed cell")
			}
			if err := cell.Initialise(initVal); err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			vm.Globals.Define(name, cell)
		case chunkfmt.OpSetGlobal:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			cell, err := vm.Globals.Get(name)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := cell.Assign(stack.Peek(0)); err != nil {
				return runtimeErrorf(line, "%s", err)
			}
		case chunkfmt.OpGetUpvalue:
			s := chunk.Code[frame.IP]
			frame.IP++
			closure := frame.Callable.(*Closure)
			if err := push(closure.upvalues[s].Get()); err != nil {
				return err
			}
		case chunkfmt.OpSetUpvalue:
			s := chunk.Code[frame.IP]
			frame.IP++
			closure := frame.Callable.(*Closure)
			closure.upvalues[s].Set(stack.Peek(0))
		case chunkfmt.OpInitialise:
			v := stack.Pop()
			cellVal := stack.Pop()
			cell, ok := cellVal.AsObject().(*value.Cell)
			if !ok {
				return runtimeErrorf(line, "INITIALISE expected a typed cell")
			}
			if err := cell.Initialise(v); err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			stack.Set(0, cell.Get())

		case chunkfmt.OpGetProperty:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			recv := stack.Pop()
			if st, ok := recv.AsObject().(*value.PackedStruct); ok {
				f, err := st.Get(name)
				if err != nil {
					return runtimeErrorf(line, "%s", err)
				}
				if err := push(f); err != nil {
					return err
				}
				break
			}
			inst, ok := recv.AsObject().(*Instance)
			if !ok {
				return runtimeErrorf(line, "only instances and structs have properties")
			}
			if f, ok := inst.Fields[name]; ok {
				if err := push(f); err != nil {
					return err
				}
			} else if m, ok := inst.Class.Methods[name]; ok {
				if err := push(value.Obj(NewBoundMethod(vm.Heap, recv, m))); err != nil {
					return err
				}
			} else {
				return runtimeErrorf(line, "undefined property %q", name)
			}
		case chunkfmt.OpSetProperty:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			v := stack.Pop()
			recv := stack.Pop()
			if st, ok := recv.AsObject().(*value.PackedStruct); ok {
				if err := st.Set(name, v); err != nil {
					return runtimeErrorf(line, "%s", err)
				}
				if err := push(v); err != nil {
					return err
				}
				break
			}
			inst, ok := recv.AsObject().(*Instance)
			if !ok {
				return runtimeErrorf(line, "only instances and structs have properties")
			}
			inst.Fields[name] = v
			if err := push(v); err != nil {
				return err
			}
		case chunkfmt.OpGetSuper:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			superVal := stack.Pop()
			recv := stack.Pop()
			super, ok := superVal.AsObject().(*Class)
			if !ok {
				return runtimeErrorf(line, "super must be a class")
			}
			m, ok := super.Methods[name]
			if !ok {
				return runtimeErrorf(line, "undefined property %q", name)
			}
			if err := push(value.Obj(NewBoundMethod(vm.Heap, recv, m))); err != nil {
				return err
			}
		case chunkfmt.OpClass:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String)
			if err := push(value.Obj(NewClass(vm.Heap, name))); err != nil {
				return err
			}
		case chunkfmt.OpInherit:
			superVal := stack.Peek(1)
			super, ok := superVal.AsObject().(*Class)
			if !ok {
				return runtimeErrorf(line, "superclass must be a class")
			}
			sub := stack.Peek(0).AsObject().(*Class)
			sub.Inherit(super)
			stack.Pop()
		case chunkfmt.OpMethod:
			k := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			method := stack.Pop().AsObject().(*Closure)
			class := stack.Peek(0).AsObject().(*Class)
			class.Methods[name] = method
		case chunkfmt.OpClosure:
			constIdx := chunk.Code[frame.IP]
			frame.IP++
			fn := chunk.Constants[constIdx].AsObject().(*chunkfmt.Function)
			cl := NewClosure(vm.Heap, fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := chunk.Code[frame.IP]
				idx := chunk.Code[frame.IP+1]
				frame.IP += 2
				if isLocal != 0 {
					cl.upvalues[i] = r.CaptureUpvalue(vm.Heap, frame.Base+int(idx))
				} else {
					enclosing := frame.Callable.(*Closure)
					cl.upvalues[i] = enclosing.upvalues[idx]
				}
			}
			if err := push(value.Obj(cl)); err != nil {
				return err
			}
		case chunkfmt.OpCloseUpvalue:
			r.CloseUpvalues(stack.Top() - 1)
			stack.Pop()

		case chunkfmt.OpEqual:
			b := stack.Pop()
			a := stack.Pop()
			if err := push(value.Bool(value.EqualValues(a, b))); err != nil {
				return err
			}
		case chunkfmt.OpGreater:
			b := stack.Pop()
			a := stack.Pop()
			c, err := compareNumeric(a, b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(value.Bool(c > 0)); err != nil {
				return err
			}
		case chunkfmt.OpLess:
			b := stack.Pop()
			a := stack.Pop()
			c, err := compareNumeric(a, b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(value.Bool(c < 0)); err != nil {
				return err
			}
		case chunkfmt.OpLeftShift:
			b := stack.Pop()
			a := stack.Pop()
			res, err := bitwise(a, b, func(x, y uint64) uint64 { return x << (y & 63) })
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpRightShift:
			b := stack.Pop()
			a := stack.Pop()
			res, err := bitwise(a, b, func(x, y uint64) uint64 { return x >> (y & 63) })
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpAdd:
			b := stack.Pop()
			a := stack.Pop()
			res, err := vm.add(a, b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpSubtract:
			b := stack.Pop()
			a := stack.Pop()
			res, err := vm.sub(a, b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpBitOr:
			b := stack.Pop()
			a := stack.Pop()
			res, err := bitwise(a, b, func(x, y uint64) uint64 { return x | y })
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpBitAnd:
			b := stack.Pop()
			a := stack.Pop()
			res, err := bitwise(a, b, func(x, y uint64) uint64 { return x & y })
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpBitXor:
			b := stack.Pop()
			a := stack.Pop()
			res, err := bitwise(a, b, func(x, y uint64) uint64 { return x ^ y })
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpModulo:
			b := stack.Pop()
			a := stack.Pop()
			res, err := vm.mod(a, b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpMultiply:
			b := stack.Pop()
			a := stack.Pop()
			res, err := vm.mul(a, b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpDivide:
			b := stack.Pop()
			a := stack.Pop()
			res, err := vm.div(a, b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpNot:
			v := stack.Pop()
			if err := push(value.Bool(!v.IsTruthy())); err != nil {
				return err
			}
		case chunkfmt.OpNegate:
			v := stack.Pop()
			res, err := vm.negate(v)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}

		case chunkfmt.OpJump:
			off := chunk.ReadShort(frame.IP)
			frame.IP += 2
			frame.IP += int(off)
		case chunkfmt.OpJumpIfFalse:
			off := chunk.ReadShort(frame.IP)
			frame.IP += 2
			if !stack.Peek(0).IsTruthy() {
				frame.IP += int(off)
			}
		case chunkfmt.OpLoop:
			off := chunk.ReadShort(frame.IP)
			frame.IP += 2
			frame.IP -= int(off)
		case chunkfmt.OpCall:
			argc := int(chunk.Code[frame.IP])
			frame.IP++
			callee := stack.Peek(argc)
			if err := vm.call(r, callee, argc, line); err != nil {
				return err
			}
		case chunkfmt.OpInvoke:
			k := chunk.Code[frame.IP]
			argc := int(chunk.Code[frame.IP+1])
			frame.IP += 2
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			base := stack.Top() - argc - 1
			receiver := stack.At(base)
			if err := vm.invoke(r, receiver, name, argc, base, line); err != nil {
				return err
			}
		case chunkfmt.OpSuperInvoke:
			k := chunk.Code[frame.IP]
			argc := int(chunk.Code[frame.IP+1])
			frame.IP += 2
			name := chunk.Constants[k].AsObject().(*value.String).Value()
			superVal := stack.Pop()
			super, ok := superVal.AsObject().(*Class)
			if !ok {
				return runtimeErrorf(line, "super must be a class")
			}
			base := stack.Top() - argc - 1
			if err := vm.invokeFromClass(r, super, name, argc, base, line); err != nil {
				return err
			}
		case chunkfmt.OpReturn:
			result := stack.Pop()
			base := frame.Base
			r.CloseUpvalues(base)
			stack.TruncateTo(base)
			r.PopFrame()
			if r.FrameCount() == 0 {
				r.Close(result)
				return nil
			}
			if err := push(result); err != nil {
				return err
			}
		case chunkfmt.OpYield:
			if r.IsMain() {
				return runtimeErrorf(line, "cannot yield from the main routine")
			}
			result := stack.Pop()
			r.Suspend(result)
			return nil

		case chunkfmt.OpPrint:
			v := stack.Pop()
			fmt.Fprintln(vm.Stdout, v.String())
		case chunkfmt.OpPoke:
			v := stack.Pop()
			target := stack.Pop()
			if err := vm.poke(target, v); err != nil {
				return runtimeErrorf(line, "%s", err)
			}

		case chunkfmt.OpTypeLiteral:
			tag := chunk.Code[frame.IP]
			frame.IP++
			if err := push(value.Obj(value.NewPrimitiveType(value.TypeTag(tag)))); err != nil {
				return err
			}
		case chunkfmt.OpTypeModifier:
			mod := chunk.Code[frame.IP]
			frame.IP++
			baseVal := stack.Pop()
			bt, ok := baseVal.AsObject().(*value.Type)
			if !ok {
				return runtimeErrorf(line, "type modifier requires a type")
			}
			switch mod {
			case 0: // const
				ct := &value.Type{
					Header: gc.NewHeader(bt.Kind()), Tag: bt.Tag, Const: true,
					Element: bt.Element, Cardinality: bt.Cardinality,
					Fields: bt.Fields, Size: bt.Size, Target: bt.Target,
				}
				if err := push(value.Obj(ct)); err != nil {
					return err
				}
			case 1: // pointer-to
				if err := push(value.Obj(value.NewPointerType(vm.Heap, bt))); err != nil {
					return err
				}
			default:
				return runtimeErrorf(line, "unknown type modifier %d", mod)
			}
		case chunkfmt.OpTypeStruct:
			fieldCount := int(chunk.Code[frame.IP])
			frame.IP++
			fields := make([]value.Field, fieldCount)
			for i := fieldCount - 1; i >= 0; i-- {
				t := stack.Pop()
				name := stack.Pop()
				typ, ok := t.AsObject().(*value.Type)
				if !ok {
					return runtimeErrorf(line, "struct field requires a type")
				}
				nameStr, ok := name.AsObject().(*value.String)
				if !ok {
					return runtimeErrorf(line, "struct field requires a name")
				}
				fields[i] = value.Field{Name: nameStr.Value(), Type: typ}
			}
			if err := push(value.Obj(value.NewStructType(vm.Heap, "", fields))); err != nil {
				return err
			}
		case chunkfmt.OpTypeArray:
			card := stack.Pop()
			elemT := stack.Pop()
			n, ok := card.AsInt64()
			if !ok || n < 0 {
				return runtimeErrorf(line, "array cardinality must be a non-negative integer")
			}
			et, ok := elemT.AsObject().(*value.Type)
			if !ok {
				return runtimeErrorf(line, "array type requires an element type")
			}
			if err := push(value.Obj(value.NewArrayType(vm.Heap, et, int(n)))); err != nil {
				return err
			}
		case chunkfmt.OpSetCellType:
			t := stack.Pop()
			typ, ok := t.AsObject().(*value.Type)
			if !ok {
				return runtimeErrorf(line, "SET_CELL_TYPE requires a type")
			}
			if err := push(value.Obj(value.NewCell(vm.Heap, typ))); err != nil {
				return err
			}

		case chunkfmt.OpElement:
			idxVal := stack.Pop()
			container := stack.Pop()
			res, err := vm.element(container, idxVal)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(res); err != nil {
				return err
			}
		case chunkfmt.OpSetElement:
			v := stack.Pop()
			idxVal := stack.Pop()
			container := stack.Pop()
			if err := vm.setElement(container, idxVal, v); err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(v); err != nil {
				return err
			}
		case chunkfmt.OpDerefPtr:
			pv := stack.Pop()
			p, ok := pv.AsObject().(*value.PackedPointer)
			if !ok {
				return runtimeErrorf(line, "cannot dereference %s", pv.TypeName())
			}
			if err := push(p.Deref()); err != nil {
				return err
			}
		case chunkfmt.OpSetPtrTarget:
			v := stack.Pop()
			pv := stack.Pop()
			p, ok := pv.AsObject().(*value.PackedPointer)
			if !ok {
				return runtimeErrorf(line, "cannot assign through %s", pv.TypeName())
			}
			if err := p.SetTarget(v); err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(v); err != nil {
				return err
			}
		case chunkfmt.OpPlace:
			t := stack.Pop()
			addr := stack.Pop()
			typ, ok := t.AsObject().(*value.Type)
			if !ok {
				return runtimeErrorf(line, "place requires a type")
			}
			if addr.Tag() != value.TagAddress {
				return runtimeErrorf(line, "place requires an address")
			}
			var container gc.Object
			switch typ.Tag {
			case value.TArray:
				container = value.NewPackedArray(vm.Heap, typ.Element, typ.Cardinality)
			case value.TStruct:
				container = value.NewPackedStruct(vm.Heap, typ)
			default:
				return runtimeErrorf(line, "place requires an array or struct type")
			}
			if err := push(value.Obj(container)); err != nil {
				return err
			}

		case chunkfmt.OpGetBuiltin:
			b := chunkfmt.BuiltinTag(chunk.Code[frame.IP])
			frame.IP++
			n, err := vm.Builtin(b)
			if err != nil {
				return runtimeErrorf(line, "%s", err)
			}
			if err := push(value.Obj(n)); err != nil {
				return err
			}

		case chunkfmt.OpPop:
			stack.Pop()

		default:
			return runtimeErrorf(line, "unknown opcode %s", op)
		}
	}
	return nil
}

// call implements the CALL/INVOKE-field-fallback dispatch shared by
// every callable kind (spec.md §4.4): Closure pushes an interpreted
// frame; BoundMethod rewrites the callee slot to its receiver and
// calls its method; Native runs synchronously; Class allocates an
// Instance and calls `init` if declared, else requires argc==0
// (spec.md §8 scenario 3's `B().f()` constructor-call sugar).
func (vm *VM) call(r *routine.Routine, callee value.Value, argc int, line int) error {
	stack := r.Stack()
	base := stack.Top() - argc - 1
	if callee.Tag() != value.TagObject {
		return runtimeErrorf(line, "can only call functions and classes, got %s", callee.TypeName())
	}
	switch obj := callee.AsObject().(type) {
	case *Closure:
		return vm.pushClosureFrame(r, obj, base, argc, line)
	case *BoundMethod:
		stack.SetAt(base, obj.Receiver)
		return vm.pushClosureFrame(r, obj.Method, base, argc, line)
	case *Native:
		if obj.Argc >= 0 && argc != obj.Argc {
			return runtimeErrorf(line, "%s expects %d arguments but got %d", obj.Name, obj.Argc, argc)
		}
		args := make([]value.Value, argc)
		for i := 0; i < argc; i++ {
			args[i] = stack.At(base + 1 + i)
		}
		result, err := obj.Fn(vm, r, args)
		if err != nil {
			return runtimeErrorf(line, "%s", err)
		}
		stack.TruncateTo(base)
		return stack.Push(result)
	case *Class:
		inst := NewInstance(vm.Heap, obj)
		stack.SetAt(base, value.Obj(inst))
		if initMethod, ok := obj.Methods["init"]; ok {
			return vm.pushClosureFrame(r, initMethod, base, argc, line)
		}
		if argc != 0 {
			return runtimeErrorf(line, "class %s takes no arguments", obj.Name.Value())
		}
		stack.TruncateTo(base)
		return stack.Push(value.Obj(inst))
	default:
		return runtimeErrorf(line, "can only call functions and classes")
	}
}

func (vm *VM) pushClosureFrame(r *routine.Routine, cl *Closure, base, argc, line int) error {
	fn := cl.Function()
	if argc != fn.Arity {
		return runtimeErrorf(line, "expected %d arguments but got %d", fn.Arity, argc)
	}
	if err := r.PushFrame(cl, base); err != nil {
		return runtimeErrorf(line, "%s", err)
	}
	return nil
}

// invoke implements INVOKE's fused property-lookup+call: method-first,
// falling back to calling a field's value (spec.md §4.4).
func (vm *VM) invoke(r *routine.Routine, receiver value.Value, name string, argc, base, line int) error {
	inst, ok := receiver.AsObject().(*Instance)
	if !ok {
		return runtimeErrorf(line, "only instances have methods")
	}
	if method, ok := inst.Class.Methods[name]; ok {
		return vm.pushClosureFrame(r, method, base, argc, line)
	}
	if field, ok := inst.Fields[name]; ok {
		r.Stack().SetAt(base, field)
		return vm.call(r, field, argc, line)
	}
	return runtimeErrorf(line, "undefined property %q", name)
}

// invokeFromClass implements SUPER_INVOKE: resolution happens only on
// the popped superclass, never the receiver's runtime class.
func (vm *VM) invokeFromClass(r *routine.Routine, class *Class, name string, argc, base, line int) error {
	method, ok := class.Methods[name]
	if !ok {
		return runtimeErrorf(line, "undefined property %q", name)
	}
	return vm.pushClosureFrame(r, method, base, argc, line)
}

// element implements ELEMENT (spec.md §4.4): a direct array yields its
// unpacked value; a pointer-to-array yields a fresh unowned pointer to
// the indexed slot.
func (vm *VM) element(container, idxVal value.Value) (value.Value, error) {
	idx, ok := idxVal.AsInt64()
	if !ok || idx < 0 {
		return value.Value{}, fmt.Errorf("array index must be a non-negative integer")
	}
	if container.Tag() != value.TagObject {
		return value.Value{}, fmt.Errorf("cannot index %s", container.TypeName())
	}
	switch c := container.AsObject().(type) {
	case *value.PackedArray:
		return c.Get(int(idx))
	case *value.PackedPointer:
		arr, ok := c.Deref().AsObject().(*value.PackedArray)
		if !ok {
			return value.Value{}, fmt.Errorf("pointer does not reference an array")
		}
		p, err := arr.PointerTo(vm.Heap, int(idx))
		if err != nil {
			return value.Value{}, err
		}
		return value.Obj(p), nil
	default:
		return value.Value{}, fmt.Errorf("cannot index %s", container.TypeName())
	}
}

func (vm *VM) setElement(container, idxVal, v value.Value) error {
	idx, ok := idxVal.AsInt64()
	if !ok || idx < 0 {
		return fmt.Errorf("array index must be a non-negative integer")
	}
	if container.Tag() != value.TagObject {
		return fmt.Errorf("cannot index %s", container.TypeName())
	}
	switch c := container.AsObject().(type) {
	case *value.PackedArray:
		return c.Set(int(idx), v)
	case *value.PackedPointer:
		arr, ok := c.Deref().AsObject().(*value.PackedArray)
		if !ok {
			return fmt.Errorf("pointer does not reference an array")
		}
		return arr.Set(int(idx), v)
	default:
		return fmt.Errorf("cannot index %s", container.TypeName())
	}
}

// poke implements POKE (spec.md §4.4/§4.6): only Address-typed targets
// are backed by a real peripheral write in this runtime (a PackedPointer
// has no sound address representation without unsafe); everything else
// is rejected rather than silently doing nothing.
func (vm *VM) poke(target, v value.Value) error {
	if target.Tag() != value.TagAddress {
		return fmt.Errorf("poke target must be an address, got %s", target.TypeName())
	}
	addr := target.AsAddress()
	var word uint32
	switch {
	case v.Tag() == value.TagAddress:
		word = uint32(v.AsAddress())
	case v.Tag().IsNumeric():
		n, _ := v.AsInt64()
		word = uint32(n)
	default:
		return fmt.Errorf("poke value of type %s is not placeable", v.TypeName())
	}
	if vm.Poke != nil {
		return vm.Poke.Poke(addr, word)
	}
	fmt.Fprintf(vm.Stdout, "poke: 0x%x <- %d (mocked)\n", addr, word)
	return nil
}

// stringPair/bigIntPair/pointerOffsetPair recognise the promoted
// binary-operand shapes from spec.md §4.2 before falling back to the
// same-tag numeric rule.
func stringPair(a, b value.Value) (*value.String, *value.String, bool) {
	if a.Tag() != value.TagObject || b.Tag() != value.TagObject {
		return nil, nil, false
	}
	sa, ok1 := a.AsObject().(*value.String)
	sb, ok2 := b.AsObject().(*value.String)
	if ok1 && ok2 {
		return sa, sb, true
	}
	return nil, nil, false
}

func bigIntPair(a, b value.Value) (*value.BigInt, *value.BigInt, bool) {
	if a.Tag() != value.TagObject || b.Tag() != value.TagObject {
		return nil, nil, false
	}
	ba, ok1 := a.AsObject().(*value.BigInt)
	bb, ok2 := b.AsObject().(*value.BigInt)
	if ok1 && ok2 {
		return ba, bb, true
	}
	return nil, nil, false
}

func pointerOffsetPair(a, b value.Value) (*value.PackedPointer, int, bool) {
	if a.Tag() != value.TagObject || b.Tag() != value.TagUI32 {
		return nil, 0, false
	}
	p, ok := a.AsObject().(*value.PackedPointer)
	if !ok {
		return nil, 0, false
	}
	return p, int(b.AsUI32()), true
}

func (vm *VM) add(a, b value.Value) (value.Value, error) {
	if sa, sb, ok := stringPair(a, b); ok {
		return value.Obj(vm.Interner.Concat(sa, sb)), nil
	}
	if av, bv, ok := bigIntPair(a, b); ok {
		var sum bigint.Int
		sum.Add(&av.N, &bv.N)
		result := value.NewBigIntFromI64(vm.Heap, 0)
		result.N.Copy(&sum)
		return value.Obj(result), nil
	}
	if a.Tag() == value.TagAddress && b.Tag() == value.TagUI32 {
		return value.Address(a.AsAddress() + uint64(b.AsUI32())), nil
	}
	if p, n, ok := pointerOffsetPair(a, b); ok {
		np, err := p.AddOffset(vm.Heap, n)
		if err != nil {
			return value.Value{}, err
		}
		return value.Obj(np), nil
	}
	return arith(a, b,
		func(x, y int64) int64 { return x + y },
		func(x, y uint64) uint64 { return x + y },
		func(x, y float64) float64 { return x + y })
}

func (vm *VM) sub(a, b value.Value) (value.Value, error) {
	if av, bv, ok := bigIntPair(a, b); ok {
		var diff bigint.Int
		diff.Sub(&av.N, &bv.N)
		result := value.NewBigIntFromI64(vm.Heap, 0)
		result.N.Copy(&diff)
		return value.Obj(result), nil
	}
	return arith(a, b,
		func(x, y int64) int64 { return x - y },
		func(x, y uint64) uint64 { return x - y },
		func(x, y float64) float64 { return x - y })
}

func (vm *VM) mul(a, b value.Value) (value.Value, error) {
	if av, bv, ok := bigIntPair(a, b); ok {
		var prod bigint.Int
		prod.Mul(&av.N, &bv.N)
		result := value.NewBigIntFromI64(vm.Heap, 0)
		result.N.Copy(&prod)
		return value.Obj(result), nil
	}
	return arith(a, b,
		func(x, y int64) int64 { return x * y },
		func(x, y uint64) uint64 { return x * y },
		func(x, y float64) float64 { return x * y })
}

func (vm *VM) div(a, b value.Value) (value.Value, error) {
	if av, bv, ok := bigIntPair(a, b); ok {
		if bv.N.IsZero() {
			return value.Value{}, fmt.Errorf("division by zero")
		}
		var q, rem bigint.Int
		bigint.DivMod(&av.N, &bv.N, &q, &rem)
		result := value.NewBigIntFromI64(vm.Heap, 0)
		result.N.Copy(&q)
		return value.Obj(result), nil
	}
	if a.Tag() == value.TagDouble && b.Tag() == value.TagDouble {
		return value.Double(a.AsDouble() / b.AsDouble()), nil
	}
	if a.Tag() != b.Tag() || !a.Tag().IsNumeric() {
		return value.Value{}, fmt.Errorf("cannot divide %s by %s", a.TypeName(), b.TypeName())
	}
	if n, ok := b.AsInt64(); ok && n == 0 {
		return value.Value{}, fmt.Errorf("division by zero")
	}
	return arith(a, b,
		func(x, y int64) int64 { return x / y },
		func(x, y uint64) uint64 { return x / y },
		nil)
}

// mod implements MODULO's Euclidean rule (spec.md §4.6): for
// fixed-width integer and big-int operands the remainder is never
// negative, whatever the signs of the operands; doubles use math.Mod,
// whose result takes the sign of the dividend.
func (vm *VM) mod(a, b value.Value) (value.Value, error) {
	if av, bv, ok := bigIntPair(a, b); ok {
		if bv.N.IsZero() {
			return value.Value{}, fmt.Errorf("division by zero")
		}
		var q, rem bigint.Int
		bigint.DivMod(&av.N, &bv.N, &q, &rem)
		var zero bigint.Int
		if bigint.Compare(&rem, &zero) < 0 {
			var babs bigint.Int
			babs.Copy(&bv.N)
			if bigint.Compare(&babs, &zero) < 0 {
				babs.Neg(&babs)
			}
			rem.Add(&rem, &babs)
		}
		result := value.NewBigIntFromI64(vm.Heap, 0)
		result.N.Copy(&rem)
		return value.Obj(result), nil
	}
	if a.Tag() != b.Tag() || !a.Tag().IsNumeric() {
		return value.Value{}, fmt.Errorf("cannot take the modulo of %s and %s", a.TypeName(), b.TypeName())
	}
	if a.Tag() == value.TagDouble {
		return value.Double(math.Mod(a.AsDouble(), b.AsDouble())), nil
	}
	if n, ok := b.AsInt64(); ok && n == 0 {
		return value.Value{}, fmt.Errorf("division by zero")
	}
	return arith(a, b, func(x, y int64) int64 {
		r := x % y
		if r < 0 {
			if y < 0 {
				r -= y
			} else {
				r += y
			}
		}
		return r
	}, func(x, y uint64) uint64 { return x % y }, nil)
}

func (vm *VM) negate(v value.Value) (value.Value, error) {
	switch v.Tag() {
	case value.TagDouble:
		return value.Double(-v.AsDouble()), nil
	case value.TagI8:
		return value.I8(-v.AsI8()), nil
	case value.TagI16:
		return value.I16(-v.AsI16()), nil
	case value.TagI32:
		return value.I32(-v.AsI32()), nil
	case value.TagI64:
		return value.I64(-v.AsI64()), nil
	case value.TagUI8:
		return value.UI8(-v.AsUI8()), nil
	case value.TagUI16:
		return value.UI16(-v.AsUI16()), nil
	case value.TagUI32:
		return value.UI32(-v.AsUI32()), nil
	case value.TagUI64:
		return value.UI64(-v.AsUI64()), nil
	case value.TagObject:
		if b, ok := v.AsObject().(*value.BigInt); ok {
			var neg bigint.Int
			neg.Neg(&b.N)
			result := value.NewBigIntFromI64(vm.Heap, 0)
			result.N.Copy(&neg)
			return value.Obj(result), nil
		}
		return value.Value{}, fmt.Errorf("operand must be a number, got %s", v.TypeName())
	default:
		return value.Value{}, fmt.Errorf("operand must be a number, got %s", v.TypeName())
	}
}

// arith applies the matching-tag numeric rule from spec.md §4.2 to a
// and b, dispatching to the int64/uint64/float64 callback appropriate
// to their shared tag's width and signedness.
func arith(a, b value.Value, i64fn func(int64, int64) int64, u64fn func(uint64, uint64) uint64, f64fn func(float64, float64) float64) (value.Value, error) {
	if a.Tag() != b.Tag() {
		return value.Value{}, fmt.Errorf("operand type mismatch: %s vs %s", a.TypeName(), b.TypeName())
	}
	switch a.Tag() {
	case value.TagDouble:
		if f64fn == nil {
			return value.Value{}, fmt.Errorf("operator not defined for double")
		}
		return value.Double(f64fn(a.AsDouble(), b.AsDouble())), nil
	case value.TagI8:
		return value.I8(int8(i64fn(int64(a.AsI8()), int64(b.AsI8())))), nil
	case value.TagI16:
		return value.I16(int16(i64fn(int64(a.AsI16()), int64(b.AsI16())))), nil
	case value.TagI32:
		return value.I32(int32(i64fn(int64(a.AsI32()), int64(b.AsI32())))), nil
	case value.TagI64:
		return value.I64(i64fn(a.AsI64(), b.AsI64())), nil
	case value.TagUI8:
		return value.UI8(uint8(u64fn(uint64(a.AsUI8()), uint64(b.AsUI8())))), nil
	case value.TagUI16:
		return value.UI16(uint16(u64fn(uint64(a.AsUI16()), uint64(b.AsUI16())))), nil
	case value.TagUI32:
		return value.UI32(uint32(u64fn(uint64(a.AsUI32()), uint64(b.AsUI32())))), nil
	case value.TagUI64:
		return value.UI64(u64fn(a.AsUI64(), b.AsUI64())), nil
	default:
		return value.Value{}, fmt.Errorf("operator not defined for %s", a.TypeName())
	}
}

// bitwise implements the shift/BITOR/BITAND/BITXOR family, which
// spec.md §4.6 restricts to matching unsigned-integer tags.
func bitwise(a, b value.Value, fn func(uint64, uint64) uint64) (value.Value, error) {
	if a.Tag() != b.Tag() || !a.Tag().IsUnsignedInt() {
		return value.Value{}, fmt.Errorf("operator requires matching unsigned integer operands, got %s and %s", a.TypeName(), b.TypeName())
	}
	switch a.Tag() {
	case value.TagUI8:
		return value.UI8(uint8(fn(uint64(a.AsUI8()), uint64(b.AsUI8())))), nil
	case value.TagUI16:
		return value.UI16(uint16(fn(uint64(a.AsUI16()), uint64(b.AsUI16())))), nil
	case value.TagUI32:
		return value.UI32(uint32(fn(uint64(a.AsUI32()), uint64(b.AsUI32())))), nil
	default: // TagUI64
		return value.UI64(fn(a.AsUI64(), b.AsUI64())), nil
	}
}

// compareNumeric implements GREATER/LESS (spec.md §4.6): defined only
// on matching numeric tags, including big-ints compared by value.
func compareNumeric(a, b value.Value) (int, error) {
	if av, bv, ok := bigIntPair(a, b); ok {
		return int(bigint.Compare(&av.N, &bv.N)), nil
	}
	if a.Tag() != b.Tag() || !a.Tag().IsNumeric() {
		return 0, fmt.Errorf("cannot compare %s and %s", a.TypeName(), b.TypeName())
	}
	if a.Tag() == value.TagDouble {
		x, y := a.AsDouble(), b.AsDouble()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
	x, _ := a.AsInt64()
	y, _ := b.AsInt64()
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	default:
		return 0, nil
	}
}
