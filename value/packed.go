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

// PackedArray is a uniform fixed-cardinality array. Go has no portable
// way to address an arbitrary stack/heap byte offset the way the C
// original's raw pointer arithmetic does, so "packed" storage here
// means each element is held as a Value in a Go slice and the packed
// load/store *rules* of spec.md §4.2 (no silent narrowing, exact tag
// match for non-Any element types) are enforced at Set/Get time rather
// than via byte-level layout. This is recorded as an Open Question
// resolution in DESIGN.md.
type PackedArray struct {
	gc.Header
	ElemType    *Type
	Cardinality int
	Owned       bool
	elements    []Value
}

// NewPackedArray allocates an owned array of cardinality elements,
// each zero-initialized per elemType.
func NewPackedArray(heap *gc.Heap, elemType *Type, cardinality int) *PackedArray {
	a := &PackedArray{
		Header:      gc.NewHeader(gc.KindPackedUniformArray),
		ElemType:    elemType,
		Cardinality: cardinality,
		Owned:       true,
		elements:    make([]Value, cardinality),
	}
	for i := range a.elements {
		a.elements[i] = zeroValue(elemType)
	}
	heap.Track(a, 24+cardinality*8)
	return a
}

// NewUnownedPackedArray wraps externally-owned storage (a `place`
// declaration) as an array view; the runtime never frees backing
// for unowned containers (spec.md §3 invariant 4).
func NewUnownedPackedArray(heap *gc.Heap, elemType *Type, backing []Value) *PackedArray {
	a := &PackedArray{
		Header:      gc.NewHeader(gc.KindPackedUniformArray),
		ElemType:    elemType,
		Cardinality: len(backing),
		Owned:       false,
		elements:    backing,
	}
	heap.Track(a, 24)
	return a
}

func (a *PackedArray) Trace(mark func(gc.Object)) {
	mark(a.ElemType)
	if !a.ElemType.IsObjectKind() {
		return
	}
	for _, v := range a.elements {
		if v.Tag() == TagObject && v.obj != nil {
			mark(v.obj)
		}
	}
}

// Get returns the element at index, or an error citing the bound if
// index is out of range (spec.md §4.4 ELEMENT).
func (a *PackedArray) Get(index int) (Value, error) {
	if index < 0 || index >= a.Cardinality {
		return Value{}, fmt.Errorf("array index %d out of range [0,%d)", index, a.Cardinality)
	}
	return a.elements[index], nil
}

// Set stores v at index after checking it is compatible with the
// array's element type.
func (a *PackedArray) Set(index int, v Value) error {
	if index < 0 || index >= a.Cardinality {
		return fmt.Errorf("array index %d out of range [0,%d)", index, a.Cardinality)
	}
	if !IsCompatibleType(a.ElemType, v) {
		return fmt.Errorf("cannot store %s into array of %s", v.TypeName(), a.ElemType)
	}
	a.elements[index] = v
	return nil
}

// ElementRef returns a pointer to the backing storage for index,
// suitable for building an unowned PackedPointer (ELEMENT on a
// pointer-to-array per spec.md §4.4).
func (a *PackedArray) ElementRef(index int) (*Value, error) {
	if index < 0 || index >= a.Cardinality {
		return nil, fmt.Errorf("array index %d out of range [0,%d)", index, a.Cardinality)
	}
	return &a.elements[index], nil
}

// PointerTo builds an unowned PackedPointer aliasing element index of
// a, remembering its origin so AddOffset can later move it within the
// same array without external bookkeeping.
func (a *PackedArray) PointerTo(heap *gc.Heap, index int) (*PackedPointer, error) {
	if index < 0 || index >= a.Cardinality {
		return nil, fmt.Errorf("array index %d out of range [0,%d)", index, a.Cardinality)
	}
	p := &PackedPointer{
		Header:      gc.NewHeader(gc.KindPackedPointer),
		TargetType:  a.ElemType,
		Owned:       false,
		target:      &a.elements[index],
		arrayOrigin: a,
		arrayIndex:  index,
	}
	heap.Track(p, 24)
	return p, nil
}

// PackedStruct holds ordered, offset-addressed fields per a Struct
// Type descriptor.
type PackedStruct struct {
	gc.Header
	StructType *Type
	Owned      bool
	fields     []Value
}

func NewPackedStruct(heap *gc.Heap, structType *Type) *PackedStruct {
	s := &PackedStruct{
		Header:     gc.NewHeader(gc.KindPackedStruct),
		StructType: structType,
		Owned:      true,
		fields:     make([]Value, len(structType.Fields)),
	}
	for i, f := range structType.Fields {
		s.fields[i] = zeroValue(f.Type)
	}
	heap.Track(s, 24+len(structType.Fields)*8)
	return s
}

func (s *PackedStruct) Trace(mark func(gc.Object)) {
	mark(s.StructType)
	for i, f := range s.StructType.Fields {
		if f.Type.IsObjectKind() && s.fields[i].Tag() == TagObject && s.fields[i].obj != nil {
			mark(s.fields[i].obj)
		}
	}
}

func (s *PackedStruct) fieldIndex(name string) int {
	for i, f := range s.StructType.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (s *PackedStruct) Get(name string) (Value, error) {
	i := s.fieldIndex(name)
	if i < 0 {
		return Value{}, fmt.Errorf("no such field %q", name)
	}
	return s.fields[i], nil
}

func (s *PackedStruct) Set(name string, v Value) error {
	i := s.fieldIndex(name)
	if i < 0 {
		return fmt.Errorf("no such field %q", name)
	}
	if !IsCompatibleType(s.StructType.Fields[i].Type, v) {
		return fmt.Errorf("cannot store %s into field %q of type %s", v.TypeName(), name, s.StructType.Fields[i].Type)
	}
	s.fields[i] = v
	return nil
}

func (s *PackedStruct) FieldRef(name string) (*Value, error) {
	i := s.fieldIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("no such field %q", name)
	}
	return &s.fields[i], nil
}

// PackedPointer holds a target type and an aliased or owned reference
// to a Value slot. Owned pointers are produced by an explicit "new"
// allocation of a single cell; unowned ones are produced by `place`,
// by array-ELEMENT, or by struct-field addressing, and must never be
// freed by the runtime (spec.md §3 invariant 4).
type PackedPointer struct {
	gc.Header
	TargetType *Type
	Owned      bool
	target     *Value

	// arrayOrigin/arrayIndex record the backing array and element
	// index this pointer was taken from (via PackedArray.PointerTo),
	// so that `Pointer + UInt32` pointer arithmetic (spec.md §4.2) can
	// move the pointer within that array without the caller having to
	// rediscover the backing storage. Both are nil/zero for pointers
	// not taken from an array element (owned pointers, struct-field
	// pointers, `place` pointers).
	arrayOrigin *PackedArray
	arrayIndex  int
}

func NewOwnedPackedPointer(heap *gc.Heap, targetType *Type) *PackedPointer {
	v := zeroValue(targetType)
	p := &PackedPointer{
		Header:     gc.NewHeader(gc.KindPackedPointer),
		TargetType: targetType,
		Owned:      true,
		target:     &v,
	}
	heap.Track(p, 24)
	return p
}

// NewUnownedPackedPointer builds a pointer aliasing externally-owned
// storage, matching spec.md §3 invariant 5: the pointer's target type
// must equal the packed container type at the target address.
func NewUnownedPackedPointer(heap *gc.Heap, targetType *Type, target *Value) *PackedPointer {
	p := &PackedPointer{
		Header:     gc.NewHeader(gc.KindPackedPointer),
		TargetType: targetType,
		Owned:      false,
		target:     target,
	}
	heap.Track(p, 24)
	return p
}

func (p *PackedPointer) Trace(mark func(gc.Object)) {
	mark(p.TargetType)
	if p.TargetType.IsObjectKind() && p.target != nil && p.target.Tag() == TagObject && p.target.obj != nil {
		mark(p.target.obj)
	}
}

func (p *PackedPointer) Deref() Value { return *p.target }

func (p *PackedPointer) SetTarget(v Value) error {
	if !IsCompatibleType(p.TargetType, v) {
		return fmt.Errorf("cannot store %s through pointer to %s", v.TypeName(), p.TargetType)
	}
	*p.target = v
	return nil
}

// AddOffset implements the `Pointer + UInt32` promotion rule from
// spec.md §4.2: the integer is added as a byte offset to the
// destination. Because this port represents packed storage as Value
// slices rather than raw bytes, "byte offset" is translated to an
// element-count offset; it only applies to pointers produced by
// PackedArray.PointerTo, which remember their origin array and index.
func (p *PackedPointer) AddOffset(heap *gc.Heap, offsetElems int) (*PackedPointer, error) {
	if p.arrayOrigin == nil {
		return nil, fmt.Errorf("pointer arithmetic is only defined on a pointer into an array")
	}
	j := p.arrayIndex + offsetElems
	if j < 0 || j >= p.arrayOrigin.Cardinality {
		return nil, fmt.Errorf("pointer arithmetic out of bounds")
	}
	return p.arrayOrigin.PointerTo(heap, j)
}

// zeroValue returns the zero value for t, used both for Value cell
// initialisation (spec.md §4.2: "nil becomes the type's zero value on
// read") and for newly allocated packed storage slots.
func zeroValue(t *Type) Value {
	switch t.Tag {
	case TAny:
		return Nil()
	case TBool:
		return Bool(false)
	case TDouble:
		return Double(0)
	case TInt8:
		return I8(0)
	case TUint8:
		return UI8(0)
	case TInt16:
		return I16(0)
	case TUint16:
		return UI16(0)
	case TInt32:
		return I32(0)
	case TUint32:
		return UI32(0)
	case TInt64:
		return I64(0)
	case TUint64:
		return UI64(0)
	default:
		return Nil()
	}
}

// Cell is a storage slot with a companion static type annotation
// (spec.md §4.2, GLOSSARY "Cell type"). Variable initialisation admits
// nil into any cell type; subsequent assignment does not.
//
// Cell is a heap object (not just a plain struct) so that SET_CELL_TYPE
// can hand a freshly built Cell to the interpreter as an ordinary
// Object-tagged Value sitting on the operand stack, to be consumed by
// the following INITIALISE instruction (see DESIGN.md's resolution of
// the Types-opcode-family stack choreography).
type Cell struct {
	gc.Header
	value Value
	typ   *Type
}

// NewCell allocates and tracks an uninitialised cell of the given type,
// holding its zero value.
func NewCell(heap *gc.Heap, t *Type) *Cell {
	c := &Cell{Header: gc.NewHeader(gc.KindCell), value: zeroValue(t), typ: t}
	heap.Track(c, 40)
	return c
}

func (c *Cell) Type() *Type { return c.typ }
func (c *Cell) Get() Value  { return c.value }

func (c *Cell) Trace(mark func(gc.Object)) {
	mark(c.typ)
	if c.value.Tag() == TagObject && c.value.obj != nil {
		mark(c.value.obj)
	}
}

// Initialise implements the INITIALISE opcode: nil is accepted for any
// cell type and becomes the type's zero value; any other value must be
// compatible with the cell's type.
func (c *Cell) Initialise(v Value) error {
	if v.IsNil() {
		c.value = zeroValue(c.typ)
		return nil
	}
	if !IsCompatibleType(c.typ, v) {
		return fmt.Errorf("cannot initialise %s cell with %s", c.typ, v.TypeName())
	}
	c.value = v
	return nil
}

// Assign implements SET_GLOBAL. Globals are the only storage class that
// keeps a persistent Cell (locals and upvalues collapse to a plain
// Value once INITIALISE has run, per DESIGN.md); nil is not specially
// admitted here, only values compatible with the cell type.
func (c *Cell) Assign(v Value) error {
	if !IsCompatibleType(c.typ, v) {
		return fmt.Errorf("cannot assign %s to %s cell", v.TypeName(), c.typ)
	}
	c.value = v
	return nil
}
