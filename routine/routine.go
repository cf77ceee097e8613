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

	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// ErrFrameOverflow is the RuntimeError raised when CALL would push
// more than MaxFrames call frames (spec.md §7: "stack overflow").
var ErrFrameOverflow = fmt.Errorf("routine: call frame overflow (max %d)", MaxFrames)

// ErrYieldFromMain is the RuntimeError raised by YIELD when executed
// on the implicit main routine (spec.md §4.4).
var ErrYieldFromMain = fmt.Errorf("routine: cannot yield from the main routine")

// Routine is a coroutine-like execution context: a chunked value
// stack, a fixed-depth call-frame array, an open-upvalue chain and a
// lifecycle state. It is the heap-object wrapper named `Routine` in
// spec.md §3.
type Routine struct {
	gc.Header

	ID string // assigned by the scheduler; empty until Start/Resume/Pin

	stack        *Stack
	frames       [MaxFrames]CallFrame
	frameCount   int
	openUpvalues *Upvalue

	state  State
	result value.Value
	errMsg string

	entry       Callable
	entryArg    value.Value
	hasEntryArg bool

	isISR   bool
	isMain  bool
}

// NewRoutine allocates an Unbound routine wrapping entry, which will
// run with zero arguments or the argument passed to Start/Resume.
// isISR pins the routine's stack at a single fixed-size chunk (spec.md
// §4.5: "pinned routines refuse to grow").
func NewRoutine(heap *gc.Heap, entry Callable, isISR bool) *Routine {
	r := &Routine{
		Header: gc.NewHeader(gc.KindRoutine),
		stack:  NewStack(isISR),
		state:  Unbound,
		entry:  entry,
		isISR:  isISR,
	}
	heap.Track(r, 64+MaxFrames*24)
	return r
}

// NewMainRoutine wraps the implicit top-level script routine, which
// YIELD always rejects.
func NewMainRoutine(heap *gc.Heap, entry Callable) *Routine {
	r := NewRoutine(heap, entry, false)
	r.isMain = true
	return r
}

func (r *Routine) IsMain() bool { return r.isMain }
func (r *Routine) IsISR() bool  { return r.isISR }
func (r *Routine) State() State { return r.state }
func (r *Routine) Result() value.Value { return r.result }
func (r *Routine) ErrorMessage() string { return r.errMsg }
func (r *Routine) Entry() Callable { return r.entry }
func (r *Routine) Stack() *Stack { return r.stack }

// SetEntryArg records the single argument passed to Start/Resume for
// consumption when the entry frame is first pushed.
func (r *Routine) SetEntryArg(v value.Value) {
	r.entryArg = v
	r.hasEntryArg = true
}

// TakeEntryArg returns and clears the pending entry argument, if any.
func (r *Routine) TakeEntryArg() (value.Value, bool) {
	if !r.hasEntryArg {
		return value.Value{}, false
	}
	r.hasEntryArg = false
	return r.entryArg, true
}

// SetState forces a state transition. The interpreter/scheduler own
// the transition *policy* (spec.md §3's lifecycle graph); Routine only
// stores the current state.
func (r *Routine) SetState(s State) { r.state = s }

// Suspend stores result as the routine's latched result and
// transitions to Suspended (YIELD handling, spec.md §4.4).
func (r *Routine) Suspend(result value.Value) {
	r.result = result
	r.state = Suspended
}

// Close stores result and transitions to Closed (RETURN with no more
// frames, spec.md §4.4).
func (r *Routine) Close(result value.Value) {
	r.result = result
	r.state = Closed
}

// Fail tears down every frame and transitions to Error (spec.md §7:
// propagation unwinds only the routine in which the error occurred).
func (r *Routine) Fail(msg string) {
	r.errMsg = msg
	r.frameCount = 0
	r.state = Error
}

// PushFrame pushes a new call frame for callable with locals starting
// at base, failing with ErrFrameOverflow past MaxFrames.
func (r *Routine) PushFrame(callable Callable, base int) error {
	if r.frameCount >= MaxFrames {
		return ErrFrameOverflow
	}
	r.frames[r.frameCount] = CallFrame{Callable: callable, Base: base}
	r.frameCount++
	return nil
}

// PopFrame removes and returns the top call frame. ok is false if
// there were no frames to pop.
func (r *Routine) PopFrame() (CallFrame, bool) {
	if r.frameCount == 0 {
		return CallFrame{}, false
	}
	r.frameCount--
	f := r.frames[r.frameCount]
	r.frames[r.frameCount] = CallFrame{}
	return f, true
}

// CurrentFrame returns a pointer to the top call frame for in-place IP
// updates, or nil if no frame is active.
func (r *Routine) CurrentFrame() *CallFrame {
	if r.frameCount == 0 {
		return nil
	}
	return &r.frames[r.frameCount-1]
}

// FrameCount reports how many call frames are currently active.
func (r *Routine) FrameCount() int { return r.frameCount }

// Trace marks the routine's stack slots, active frames' callables,
// open-upvalue chain, latched result and entry closure/argument --
// the full root set a single Routine contributes (spec.md §4.3 phase
// 1 "all routine stacks ... all call frames (closures) ... all open
// upvalue chains").
func (r *Routine) Trace(mark func(gc.Object)) {
	for i := 0; i < r.stack.Top(); i++ {
		v := r.stack.At(i)
		if v.Tag() == value.TagObject && v.AsObject() != nil {
			mark(v.AsObject())
		}
	}
	for i := 0; i < r.frameCount; i++ {
		if r.frames[i].Callable != nil {
			mark(r.frames[i].Callable)
		}
	}
	for u := r.openUpvalues; u != nil; u = u.next {
		mark(u)
	}
	if r.result.Tag() == value.TagObject && r.result.AsObject() != nil {
		mark(r.result.AsObject())
	}
	if r.entry != nil {
		mark(r.entry)
	}
	if r.hasEntryArg && r.entryArg.Tag() == value.TagObject && r.entryArg.AsObject() != nil {
		mark(r.entryArg.AsObject())
	}
}
