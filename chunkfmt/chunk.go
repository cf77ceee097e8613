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

// Package chunkfmt defines the compiled-program data shapes (Function,
// Chunk, the opcode set) shared between the external compiler, the
// interpreter's dispatch loop, and the disassembler, plus a compressed
// on-disk cache for compiled imports.
package chunkfmt

import (
	"encoding/binary"
	"fmt"

	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// Chunk is an immutable compiled code unit: a byte stream of opcodes
// and operands, a parallel per-byte source line table for error
// reporting, and the constant pool CONSTANT/CLASS/METHOD opcodes index
// into.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// ReadByte/ReadShort read operands little-endian, matching the
// encoding the compiler emits and the interpreter's dispatch loop
// decodes (spec.md §4.4: "Operand decoding is little-endian for 16-bit
// jumps").
func (c *Chunk) ReadByte(ip int) byte { return c.Code[ip] }

func (c *Chunk) ReadShort(ip int) uint16 {
	return binary.LittleEndian.Uint16(c.Code[ip : ip+2])
}

func (c *Chunk) LineAt(ip int) int {
	if ip < 0 || ip >= len(c.Lines) {
		return -1
	}
	return c.Lines[ip]
}

// Function is the heap-object wrapper around a compiled chunk: its
// arity, how many upvalues its closures capture, and an optional name
// (nil for the implicit top-level script function).
type Function struct {
	gc.Header
	Name         *value.String
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
}

// UpvalueDesc names, for one declared upvalue slot of a Function,
// whether CLOSURE should capture a local of the enclosing frame or
// copy an upvalue of the enclosing closure (spec.md §4.4).
type UpvalueDesc struct {
	IsLocal bool
	Index   byte
}

// NewFunction allocates and tracks a Function object.
func NewFunction(heap *gc.Heap, name *value.String, arity, upvalueCount int, chunk *Chunk) *Function {
	f := &Function{
		Header:       gc.NewHeader(gc.KindFunction),
		Name:         name,
		Arity:        arity,
		UpvalueCount: upvalueCount,
		Chunk:        chunk,
	}
	heap.Track(f, 32+len(chunk.Code)+len(chunk.Constants)*8)
	return f
}

func (f *Function) Trace(mark func(gc.Object)) {
	if f.Name != nil {
		mark(f.Name)
	}
	for _, c := range f.Chunk.Constants {
		if c.Tag() == value.TagObject && c.AsObject() != nil {
			mark(c.AsObject())
		}
	}
}

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Value())
}

// Disassemble renders every instruction in c to lines of human-readable
// text, mirroring the `disassemble <path>` CLI mode (spec.md §6).
func (c *Chunk) Disassemble(name string) []string {
	out := []string{fmt.Sprintf("== %s ==", name)}
	ip := 0
	for ip < len(c.Code) {
		line := c.LineAt(ip)
		op := Op(c.Code[ip])
		width := OperandWidth(op)
		instrStart := ip
		ip++
		var operandDesc string
		switch {
		case op == OpClosure:
			constIdx := c.Code[ip]
			ip++
			operandDesc = fmt.Sprintf("const=%d", constIdx)
			if constIdx < byte(len(c.Constants)) {
				if fn, ok := c.Constants[constIdx].AsObject().(*Function); ok {
					for i := 0; i < fn.UpvalueCount; i++ {
						isLocal := c.Code[ip]
						idx := c.Code[ip+1]
						ip += 2
						kind := "upvalue"
						if isLocal != 0 {
							kind = "local"
						}
						operandDesc += fmt.Sprintf(" %s:%d", kind, idx)
					}
				}
			}
		case width == 1:
			operandDesc = fmt.Sprintf("%d", c.Code[ip])
			ip++
		case width == 2:
			operandDesc = fmt.Sprintf("%d", c.ReadShort(ip))
			ip += 2
		case width == 3:
			constIdx := c.Code[ip]
			argc := c.Code[ip+1]
			operandDesc = fmt.Sprintf("const=%d argc=%d", constIdx, argc)
			ip += 2
		case width == 4:
			operandDesc = fmt.Sprintf("%d", binary.LittleEndian.Uint32(c.Code[ip:ip+4]))
			ip += 4
		case width == 8:
			operandDesc = fmt.Sprintf("%d", binary.LittleEndian.Uint64(c.Code[ip:ip+8]))
			ip += 8
		}
		out = append(out, fmt.Sprintf("%04d line=%-4d %-16s %s", instrStart, line, op, operandDesc))
	}
	return out
}

// Compiler is the external `compile(source) -> Option<Function>`
// boundary from spec.md §4.7. The core never implements the scanner,
// parser or emitter; it only depends on this interface so that
// interp/scheduler can request compilation of `import`ed source
// without importing a concrete compiler package.
type Compiler interface {
	Compile(source []byte, chunkName string) (*Function, error)
}

// CompilerFunc adapts a plain function to the Compiler interface.
type CompilerFunc func(source []byte, chunkName string) (*Function, error)

func (f CompilerFunc) Compile(source []byte, chunkName string) (*Function, error) {
	return f(source, chunkName)
}

// ErrNoCompiler is returned by a nil Compiler slot, distinguishing
// "compiler not wired" from a genuine CompileError surfaced by a real
// compiler.
var ErrNoCompiler = fmt.Errorf("chunkfmt: no compiler registered")
