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

// Package interp implements the bytecode dispatch loop: the opcode
// families from spec.md §4.4 (literals, locals/globals/upvalues,
// objects/properties, arithmetic/logic, control, I/O, types,
// indirection, builtins), closures/upvalue-capture, classes, and
// operator semantics and coercions.
package interp

import (
	"fmt"
	"sync"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/routine"
	"github.com/yarg-lang/yarg/value"
)

// Closure pairs a compiled Function with its captured upvalue vector.
// It implements routine.Callable.
type Closure struct {
	gc.Header
	fn       *chunkfmt.Function
	upvalues []*routine.Upvalue
}

// NewClosure allocates a Closure over fn with exactly fn.UpvalueCount
// upvalue slots (spec.md §3 invariant 2), to be filled in by the
// CLOSURE opcode handler.
func NewClosure(heap *gc.Heap, fn *chunkfmt.Function) *Closure {
	c := &Closure{
		Header:   gc.NewHeader(gc.KindClosure),
		fn:       fn,
		upvalues: make([]*routine.Upvalue, fn.UpvalueCount),
	}
	heap.Track(c, 24+fn.UpvalueCount*8)
	return c
}

func (c *Closure) Function() *chunkfmt.Function { return c.fn }

func (c *Closure) Trace(mark func(gc.Object)) {
	mark(c.fn)
	for _, u := range c.upvalues {
		if u != nil {
			mark(u)
		}
	}
}

func (c *Closure) String() string { return c.fn.String() }

// Class is a flat record: a name and a method table, with no link to a
// superclass; INHERIT copies the superclass's methods into the
// subclass's table (a shallow copy), so there is no multi-parent path
// (spec.md §4.4).
type Class struct {
	gc.Header
	Name    *value.String
	Methods map[string]*Closure
}

func NewClass(heap *gc.Heap, name *value.String) *Class {
	c := &Class{Header: gc.NewHeader(gc.KindClass), Name: name, Methods: make(map[string]*Closure)}
	heap.Track(c, 32)
	return c
}

// Inherit copies super's method table into c (spec.md §4.4 INHERIT:
// "shallow copy").
func (c *Class) Inherit(super *Class) {
	for name, m := range super.Methods {
		c.Methods[name] = m
	}
}

func (c *Class) Trace(mark func(gc.Object)) {
	mark(c.Name)
	for _, m := range c.Methods {
		mark(m)
	}
}

func (c *Class) String() string { return c.Name.Value() }

// Instance is a class plus an open field map.
type Instance struct {
	gc.Header
	Class  *Class
	Fields map[string]value.Value
}

func NewInstance(heap *gc.Heap, class *Class) *Instance {
	inst := &Instance{Header: gc.NewHeader(gc.KindInstance), Class: class, Fields: make(map[string]value.Value)}
	heap.Track(inst, 32)
	return inst
}

func (i *Instance) Trace(mark func(gc.Object)) {
	mark(i.Class)
	for _, v := range i.Fields {
		if v.Tag() == value.TagObject && v.AsObject() != nil {
			mark(v.AsObject())
		}
	}
}

func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Value()) }

// BoundMethod pairs a receiver Value with the Closure looked up for
// it, produced by GET_PROPERTY when the named member resolves to a
// method rather than a field.
type BoundMethod struct {
	gc.Header
	Receiver value.Value
	Method   *Closure
}

func NewBoundMethod(heap *gc.Heap, receiver value.Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Header: gc.NewHeader(gc.KindBoundMethod), Receiver: receiver, Method: method}
	heap.Track(b, 32)
	return b
}

func (b *BoundMethod) Function() *chunkfmt.Function { return b.Method.fn }

func (b *BoundMethod) Trace(mark func(gc.Object)) {
	if b.Receiver.Tag() == value.TagObject && b.Receiver.AsObject() != nil {
		mark(b.Receiver.AsObject())
	}
	mark(b.Method)
}

// NativeFunc is a builtin's signature: given the calling VM and the
// argc arguments (topmost last), return a result or an error which
// becomes a RuntimeError.
type NativeFunc func(vm *VM, r *routine.Routine, args []value.Value) (value.Value, error)

// Native wraps a builtin as a heap object so it can be pushed onto the
// stack and called through CALL like any other callable.
type Native struct {
	gc.Header
	Name string
	Fn   NativeFunc
	Argc int // -1 = variadic / checked by Fn itself
}

func NewNative(heap *gc.Heap, name string, argc int, fn NativeFunc) *Native {
	n := &Native{Header: gc.NewHeader(gc.KindNative), Name: name, Fn: fn, Argc: argc}
	heap.Track(n, 24)
	return n
}

func (n *Native) String() string { return fmt.Sprintf("<native %s>", n.Name) }

// Blob is an opaque byte buffer owned by native code (e.g. a read
// file's contents for `import`, or a peripheral DMA buffer).
type Blob struct {
	gc.Header
	mu   sync.Mutex
	data []byte
}

func NewBlob(heap *gc.Heap, data []byte) *Blob {
	b := &Blob{Header: gc.NewHeader(gc.KindBlob), data: data}
	heap.Track(b, 24+len(data))
	return b
}

func (b *Blob) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

func (b *Blob) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
