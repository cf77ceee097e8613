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

package value

import (
	"fmt"
	"math"

	"github.com/yarg-lang/yarg/gc"
)

// Value is the tagged dynamic value every stack slot, constant and
// global ultimately holds. Exactly one of the payload fields is
// meaningful, selected by Tag.
type Value struct {
	tag Tag
	bits uint64 // bool/double/int*/uint*/address payload, reinterpreted per tag
	obj  gc.Object
}

func Bool(b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return Value{tag: TagBool, bits: bits}
}

func Nil() Value { return Value{tag: TagNil} }

func Double(f float64) Value { return Value{tag: TagDouble, bits: math.Float64bits(f)} }

func I8(v int8) Value    { return Value{tag: TagI8, bits: uint64(uint8(v))} }
func UI8(v uint8) Value  { return Value{tag: TagUI8, bits: uint64(v)} }
func I16(v int16) Value  { return Value{tag: TagI16, bits: uint64(uint16(v))} }
func UI16(v uint16) Value { return Value{tag: TagUI16, bits: uint64(v)} }
func I32(v int32) Value  { return Value{tag: TagI32, bits: uint64(uint32(v))} }
func UI32(v uint32) Value { return Value{tag: TagUI32, bits: uint64(v)} }
func I64(v int64) Value  { return Value{tag: TagI64, bits: uint64(v)} }
func UI64(v uint64) Value { return Value{tag: TagUI64, bits: v} }
func Address(v uint64) Value { return Value{tag: TagAddress, bits: v} }

// Obj wraps a heap object as an Object-tagged Value. Passing a nil
// obj is a programmer error; use Nil() for the nil value.
func Obj(o gc.Object) Value {
	if o == nil {
		panic("value: Obj called with nil object; use Nil()")
	}
	return Value{tag: TagObject, obj: o}
}

func (v Value) Tag() Tag { return v.tag }

func (v Value) IsNil() bool    { return v.tag == TagNil }
func (v Value) IsObject() bool { return v.tag == TagObject }

// IsTruthy implements the boolean-coercion rule from spec.md §4.6:
// only nil and false are falsey.
func (v Value) IsTruthy() bool {
	switch v.tag {
	case TagNil:
		return false
	case TagBool:
		return v.bits != 0
	default:
		return true
	}
}

func (v Value) AsBool() bool      { return v.bits != 0 }
func (v Value) AsDouble() float64 { return math.Float64frombits(v.bits) }
func (v Value) AsI8() int8        { return int8(v.bits) }
func (v Value) AsUI8() uint8      { return uint8(v.bits) }
func (v Value) AsI16() int16      { return int16(v.bits) }
func (v Value) AsUI16() uint16    { return uint16(v.bits) }
func (v Value) AsI32() int32      { return int32(v.bits) }
func (v Value) AsUI32() uint32    { return uint32(v.bits) }
func (v Value) AsI64() int64      { return int64(v.bits) }
func (v Value) AsUI64() uint64    { return v.bits }
func (v Value) AsAddress() uint64 { return v.bits }
func (v Value) AsObject() gc.Object {
	return v.obj
}

// Kind returns the heap-object kind of an Object-tagged Value, or
// false if v is not an object.
func (v Value) Kind() (gc.Kind, bool) {
	if v.tag != TagObject || v.obj == nil {
		return 0, false
	}
	return v.obj.Kind(), true
}

// AsInt64 widens any fixed-width signed or unsigned integer tag (but
// not Double, Address or Object) to an int64, for contexts (array
// indices, shift counts) that only care about the numeric value.
func (v Value) AsInt64() (int64, bool) {
	switch v.tag {
	case TagI8:
		return int64(v.AsI8()), true
	case TagUI8:
		return int64(v.AsUI8()), true
	case TagI16:
		return int64(v.AsI16()), true
	case TagUI16:
		return int64(v.AsUI16()), true
	case TagI32:
		return int64(v.AsI32()), true
	case TagUI32:
		return int64(v.AsUI32()), true
	case TagI64:
		return v.AsI64(), true
	case TagUI64:
		return int64(v.AsUI64()), true
	default:
		return 0, false
	}
}

// Equal implements the `==` operator's semantics from spec.md §4.6 for
// everything but big-ints: mismatched tags compare unequal, and objects
// compare by identity (for interned strings that is equivalent to
// content equality, since interning is unique-per-content). The
// by-value comparison of two big-ints is EqualValues in bigint.go,
// which falls back to Equal for every other pair.
func Equal(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagNil:
		return true
	case TagObject:
		return a.obj == b.obj
	default:
		return a.bits == b.bits
	}
}

// TypeName returns a short human-readable name for error messages,
// e.g. "int32" or "String".
func (v Value) TypeName() string {
	if v.tag == TagObject && v.obj != nil {
		return v.obj.Kind().String()
	}
	return v.tag.String()
}

func (v Value) String() string {
	switch v.tag {
	case TagNil:
		return "nil"
	case TagBool:
		return fmt.Sprintf("%t", v.AsBool())
	case TagDouble:
		return fmt.Sprintf("%g", v.AsDouble())
	case TagAddress:
		return fmt.Sprintf("0x%x", v.AsAddress())
	case TagObject:
		if s, ok := v.obj.(*String); ok {
			return s.Value()
		}
		return fmt.Sprintf("<%s %p>", v.obj.Kind(), v.obj)
	default:
		n, _ := v.AsInt64()
		return fmt.Sprintf("%d", n)
	}
}
