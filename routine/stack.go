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

package routine

import (
	"fmt"

	"github.com/yarg-lang/yarg/value"
)

// chunkSize is the fixed slot count of each slice making up a
// routine's growable stack (spec.md §4.5: "array of chunked slices of
// fixed size, linked into a directory array").
const chunkSize = 256

// ErrStackOverflow is returned when a pinned routine's fixed-size
// stack runs out of chunks; an unpinned routine's stack grows a chunk
// at a time with no bound.
var ErrStackOverflow = fmt.Errorf("routine: stack overflow")

// Stack is a routine's value stack: a directory of fixed-size chunks
// addressed by a monotonic top index. Element addresses within an
// already-allocated chunk never move, which is what lets an Upvalue
// hold a stable *value.Value into a live stack slot.
type Stack struct {
	chunks  [][]value.Value
	top     int
	pinned  bool
	maxCaps int // 0 = unbounded growth (non-pinned)
}

// NewStack allocates a stack with one initial chunk. pinned routines
// never allocate a second chunk (spec.md §4.5: "pinned routines refuse
// to grow").
func NewStack(pinned bool) *Stack {
	return &Stack{
		chunks: [][]value.Value{make([]value.Value, chunkSize)},
		pinned: pinned,
	}
}

// Top returns the current stack-top index (count of live slots).
func (s *Stack) Top() int { return s.top }

func (s *Stack) slot(index int) *value.Value {
	return &s.chunks[index/chunkSize][index%chunkSize]
}

// ensureCapacity grows the chunk directory if index falls past the
// currently allocated chunks.
func (s *Stack) ensureCapacity(index int) error {
	for index >= len(s.chunks)*chunkSize {
		if s.pinned {
			return ErrStackOverflow
		}
		s.chunks = append(s.chunks, make([]value.Value, chunkSize))
	}
	return nil
}

// Push appends v at the current top and advances top by one.
func (s *Stack) Push(v value.Value) error {
	if err := s.ensureCapacity(s.top); err != nil {
		return err
	}
	*s.slot(s.top) = v
	s.top++
	return nil
}

// Pop removes and returns the value at the current top.
func (s *Stack) Pop() value.Value {
	s.top--
	return *s.slot(s.top)
}

// Peek returns the value `distance` slots below the current top
// (distance 0 is the top element itself) without removing it.
func (s *Stack) Peek(distance int) value.Value {
	return *s.slot(s.top - 1 - distance)
}

// Set overwrites the value `distance` slots below the current top.
func (s *Stack) Set(distance int, v value.Value) {
	*s.slot(s.top - 1 - distance) = v
}

// At returns the value at an absolute stack index (used by
// GET_LOCAL/SET_LOCAL, which address locals relative to a frame's
// base rather than the current top).
func (s *Stack) At(index int) value.Value { return *s.slot(index) }

// SetAt overwrites the value at an absolute stack index.
func (s *Stack) SetAt(index int, v value.Value) {
	if err := s.ensureCapacity(index); err != nil {
		panic(err)
	}
	*s.slot(index) = v
}

// SlotRef returns a stable pointer to the absolute stack index, used
// by CaptureUpvalue to build an open Upvalue referencing a live slot.
func (s *Stack) SlotRef(index int) *value.Value { return s.slot(index) }

// TruncateTo resets the stack top to n, e.g. after a CALL's arguments
// and callee are consumed and the return value pushed (spec.md §4.4
// RETURN handling). It does not zero discarded slots; they will be
// overwritten before being read again under the push-before-read
// discipline the dispatch loop maintains.
func (s *Stack) TruncateTo(n int) { s.top = n }
