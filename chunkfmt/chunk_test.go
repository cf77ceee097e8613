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

package chunkfmt

import (
	"strings"
	"testing"

	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

func simpleChunk(interner *value.Interner) *Chunk {
	one := value.I32(1)
	two := value.I32(2)
	return &Chunk{
		Code: []byte{
			byte(OpConstant), 0,
			byte(OpConstant), 1,
			byte(OpAdd),
			byte(OpPrint),
			byte(OpReturn),
		},
		Lines:     []int{1, 1, 1, 1, 1, 1, 1},
		Constants: []value.Value{one, two},
	}
}

func TestDisassembleProducesOneLinePerInstruction(t *testing.T) {
	heap := gc.NewHeap()
	interner := value.NewInterner(heap)
	chunk := simpleChunk(interner)
	lines := chunk.Disassemble("test")
	// header + 5 instructions (two CONSTANT, ADD, PRINT, RETURN)
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6: %v", len(lines), lines)
	}
	if !strings.Contains(lines[1], "CONSTANT") {
		t.Fatalf("expected CONSTANT in %q", lines[1])
	}
	if !strings.Contains(lines[len(lines)-1], "RETURN") {
		t.Fatalf("expected RETURN in %q", lines[len(lines)-1])
	}
}

func TestImportCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewImportCache(dir)
	if err != nil {
		t.Fatalf("NewImportCache: %v", err)
	}

	heap := gc.NewHeap()
	interner := value.NewInterner(heap)
	chunk := simpleChunk(interner)
	name := interner.Intern("greet")
	fn := NewFunction(heap, name, 0, 0, chunk)

	ok, err := cache.Store("greet", fn)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !ok {
		t.Fatalf("Store reported not-cacheable for an all-numeric-constant chunk")
	}

	loaded, ok, err := cache.Load(heap, interner, "greet")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatalf("Load reported missing entry right after Store")
	}
	if loaded.Arity != fn.Arity || loaded.UpvalueCount != fn.UpvalueCount {
		t.Fatalf("round-tripped function metadata mismatch: got %+v", loaded)
	}
	if len(loaded.Chunk.Code) != len(fn.Chunk.Code) {
		t.Fatalf("round-tripped code length mismatch")
	}
	if loaded.Chunk.Constants[0].AsI32() != 1 || loaded.Chunk.Constants[1].AsI32() != 2 {
		t.Fatalf("round-tripped constants mismatch: %v", loaded.Chunk.Constants)
	}

	_, ok, err = cache.Load(heap, interner, "does-not-exist")
	if err != nil {
		t.Fatalf("Load of missing entry returned error: %v", err)
	}
	if ok {
		t.Fatalf("Load of missing entry reported ok=true")
	}
}

func TestImportCacheSkipsUnserializableConstants(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewImportCache(dir)
	if err != nil {
		t.Fatalf("NewImportCache: %v", err)
	}
	heap := gc.NewHeap()
	interner := value.NewInterner(heap)
	// A BigInt constant has no wire encoding; Store must decline
	// rather than silently truncate it.
	big := value.NewBigIntFromI64(heap, 42)
	chunk := &Chunk{
		Code:      []byte{byte(OpConstant), 0, byte(OpReturn)},
		Lines:     []int{1, 1, 1},
		Constants: []value.Value{value.Obj(big)},
	}
	fn := NewFunction(heap, nil, 0, 0, chunk)
	ok, err := cache.Store("has-bigint", fn)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if ok {
		t.Fatalf("Store should decline a chunk with a BigInt constant")
	}
}
