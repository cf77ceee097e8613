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

	"github.com/yarg-lang/yarg/gc"
)

// TypeTag is the closed set of concrete YargType shapes.
type TypeTag uint8

const (
	TAny TypeTag = iota
	TBool
	TDouble
	TInt8
	TUint8
	TInt16
	TUint16
	TInt32
	TUint32
	TInt64
	TUint64
	TBigInt
	TString
	TClass
	TInstance
	TFunction
	TBlob
	TRoutine
	TChannel
	TArray
	TStruct
	TPointer
	TYargType
)

// Field describes one member of a Struct type: its name, type and
// byte offset within the struct's packed storage.
type Field struct {
	Name   string
	Type   *Type
	Offset int
}

// Type is a heap-allocated concrete type descriptor (the `YargType`
// object kind and its Array/Struct/Pointer variants from spec.md §3).
// Primitive types are typically allocated once and shared; Array,
// Struct and Pointer types are allocated per declaration.
type Type struct {
	gc.Header
	Tag   TypeTag
	Const bool

	// Array
	Element     *Type
	Cardinality int

	// Struct
	Fields []Field
	Size   int

	// Pointer
	Target *Type
}

func kindForTypeTag(t TypeTag) gc.Kind {
	switch t {
	case TArray:
		return gc.KindYargTypeArray
	case TStruct:
		return gc.KindYargTypeStruct
	case TPointer:
		return gc.KindYargTypePointer
	default:
		return gc.KindYargType
	}
}

// NewPrimitiveType returns a fresh, untracked Type descriptor for one
// of the non-compound tags (Any, Bool, numeric, String, Class,
// Instance, Function, Blob, Routine, Channel, BigInt, YargType).
// Callers typically construct these once at VM startup and share the
// pointer; primitive type descriptors never need GC tracking because
// they are permanent roots for the process lifetime (mirroring the
// cached `initString`/builtin singleton pattern in vm.h).
func NewPrimitiveType(tag TypeTag) *Type {
	return &Type{Header: gc.NewHeader(kindForTypeTag(tag)), Tag: tag}
}

// NewArrayType constructs an Array{element, cardinality} type and
// tracks it on heap.
func NewArrayType(heap *gc.Heap, element *Type, cardinality int) *Type {
	t := &Type{Header: gc.NewHeader(gc.KindYargTypeArray), Tag: TArray, Element: element, Cardinality: cardinality}
	heap.Track(t, 32)
	return t
}

// NewStructType constructs a Struct type from ordered fields, computing
// each field's offset by packing left-to-right with no padding beyond
// natural alignment of the widest field (spec.md §3 "Packed storage").
func NewStructType(heap *gc.Heap, name string, fields []Field) *Type {
	offset := 0
	widest := 1
	laidOut := make([]Field, len(fields))
	for i, f := range fields {
		sz := f.Type.StorageSize()
		align := sz
		if align > 8 {
			align = 8
		}
		if align > 0 && offset%align != 0 {
			offset += align - offset%align
		}
		laidOut[i] = Field{Name: f.Name, Type: f.Type, Offset: offset}
		offset += sz
		if align > widest {
			widest = align
		}
	}
	if widest > 0 && offset%widest != 0 {
		offset += widest - offset%widest
	}
	t := &Type{Header: gc.NewHeader(gc.KindYargTypeStruct), Tag: TStruct, Fields: laidOut, Size: offset}
	heap.Track(t, 32+len(fields)*24)
	return t
}

// NewPointerType constructs a Pointer{target} type.
func NewPointerType(heap *gc.Heap, target *Type) *Type {
	t := &Type{Header: gc.NewHeader(gc.KindYargTypePointer), Tag: TPointer, Target: target}
	heap.Track(t, 24)
	return t
}

// Trace reports the element/struct-field/pointer-target types this
// type descriptor references, so the collector keeps them alive.
func (t *Type) Trace(mark func(gc.Object)) {
	switch t.Tag {
	case TArray:
		mark(t.Element)
	case TStruct:
		for _, f := range t.Fields {
			mark(f.Type)
		}
	case TPointer:
		mark(t.Target)
	}
}

// IsObjectKind reports whether a packed slot of this type stores a
// raw heap-object pointer rather than a primitive or boxed Value.
func (t *Type) IsObjectKind() bool {
	switch t.Tag {
	case TString, TClass, TInstance, TFunction, TBlob, TRoutine, TChannel, TBigInt, TArray, TStruct, TPointer:
		return true
	default:
		return false
	}
}

// StorageSize returns the natural packed width, in bytes, of a value
// of this type. Any stores a full boxed Value; object-kind types store
// a pointer-width reference; numeric/bool types store their natural
// width.
func (t *Type) StorageSize() int {
	switch t.Tag {
	case TAny:
		return 24 // sizeof(Value)-equivalent: tag + 8-byte payload + alignment
	case TBool, TInt8, TUint8:
		return 1
	case TInt16, TUint16:
		return 2
	case TInt32, TUint32:
		return 4
	case TDouble, TInt64, TUint64:
		return 8
	case TArray:
		return t.Element.StorageSize() * t.Cardinality
	case TStruct:
		return t.Size
	default:
		return 8 // object pointer / address width
	}
}

// MatchesTag reports whether a Value's dynamic Tag is the one
// StorageSize/packed-store rules require for this concrete type,
// implementing the non-Any branch of spec.md §4.2's packed load/store
// rules: "T numeric: v must carry the matching numeric tag; no silent
// narrowing."
func (t *Type) MatchesTag(tag Tag) bool {
	switch t.Tag {
	case TBool:
		return tag == TagBool
	case TDouble:
		return tag == TagDouble
	case TInt8:
		return tag == TagI8
	case TUint8:
		return tag == TagUI8
	case TInt16:
		return tag == TagI16
	case TUint16:
		return tag == TagUI16
	case TInt32:
		return tag == TagI32
	case TUint32:
		return tag == TagUI32
	case TInt64:
		return tag == TagI64
	case TUint64:
		return tag == TagUI64
	default:
		return tag == TagObject
	}
}

// IsCompatibleType implements spec.md §4.2's cell-assignment check:
// isCompatibleType(cellType, rhs). Any cell accepts any value; numeric
// and Bool/Double cells require an exact tag match; object-kind cells
// require the rhs object to be of the matching kind (and, for Pointer
// and Array/Struct, the matching element/struct/target type).
func IsCompatibleType(cellType *Type, rhs Value) bool {
	if cellType.Tag == TAny {
		return true
	}
	if !cellType.IsObjectKind() {
		return cellType.MatchesTag(rhs.Tag())
	}
	if rhs.Tag() != TagObject {
		return false
	}
	obj := rhs.AsObject()
	switch cellType.Tag {
	case TString:
		_, ok := obj.(*String)
		return ok
	case TPointer:
		p, ok := obj.(*PackedPointer)
		if !ok {
			return false
		}
		return typesEqual(p.TargetType, cellType.Target)
	case TArray:
		a, ok := obj.(*PackedArray)
		if !ok {
			return false
		}
		return typesEqual(a.ElemType, cellType.Element) && a.Cardinality == cellType.Cardinality
	case TStruct:
		s, ok := obj.(*PackedStruct)
		if !ok {
			return false
		}
		return typesEqual(s.StructType, cellType)
	default:
		return obj.Kind() == kindForTypeTag(cellType.Tag) || obj.Kind() == expectedSimpleKind(cellType.Tag)
	}
}

func expectedSimpleKind(t TypeTag) gc.Kind {
	switch t {
	case TClass:
		return gc.KindClass
	case TInstance:
		return gc.KindInstance
	case TFunction:
		return gc.KindFunction
	case TBlob:
		return gc.KindBlob
	case TRoutine:
		return gc.KindRoutine
	case TChannel:
		return gc.KindChannel
	case TBigInt:
		return gc.KindBigInt
	default:
		return gc.KindString
	}
}

// typesEqual performs a structural (not pointer) comparison, since
// `place` declarations and repeated array-type constants may produce
// distinct *Type instances describing the same shape.
func typesEqual(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TArray:
		return a.Cardinality == b.Cardinality && typesEqual(a.Element, b.Element)
	case TPointer:
		return typesEqual(a.Target, b.Target)
	case TStruct:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || a.Fields[i].Offset != b.Fields[i].Offset || !typesEqual(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) String() string {
	switch t.Tag {
	case TArray:
		return fmt.Sprintf("Array{%s, %d}", t.Element, t.Cardinality)
	case TStruct:
		return fmt.Sprintf("Struct{%d fields, size=%d}", len(t.Fields), t.Size)
	case TPointer:
		return fmt.Sprintf("Pointer{%s}", t.Target)
	default:
		return fmt.Sprintf("Type(%d)", t.Tag)
	}
}
