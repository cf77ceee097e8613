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
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// Upvalue is either open (referencing a live slot in some routine's
// stack) or closed (owning a copied value), per spec.md §3 invariant
// 3. The open-upvalue list on a Routine is ordered by descending
// StackOffset so CaptureUpvalue/CloseUpvalues can scan it in one pass.
type Upvalue struct {
	gc.Header
	StackOffset int
	open        bool
	slot        *value.Value
	closed      value.Value
	next        *Upvalue
}

func newOpenUpvalue(offset int, slot *value.Value) *Upvalue {
	return &Upvalue{
		Header:      gc.NewHeader(gc.KindUpvalue),
		StackOffset: offset,
		open:        true,
		slot:        slot,
	}
}

func (u *Upvalue) IsOpen() bool { return u.open }

// Get reads through an open upvalue to its live stack slot, or
// returns the owned copy if closed.
func (u *Upvalue) Get() value.Value {
	if u.open {
		return *u.slot
	}
	return u.closed
}

// Set writes through an open upvalue, or into the owned copy if
// closed.
func (u *Upvalue) Set(v value.Value) {
	if u.open {
		*u.slot = v
		return
	}
	u.closed = v
}

func (u *Upvalue) close() {
	u.closed = *u.slot
	u.slot = nil
	u.open = false
}

// Trace marks the owned copy's referenced object when closed; an open
// upvalue's target is already rooted by the owning routine's stack
// scan, so there is nothing extra to mark.
func (u *Upvalue) Trace(mark func(gc.Object)) {
	if !u.open && u.closed.Tag() == value.TagObject && u.closed.AsObject() != nil {
		mark(u.closed.AsObject())
	}
}

// CaptureUpvalue returns the existing open Upvalue at offset if one is
// already in r's list (dedup per spec.md §4.4), or allocates and
// inserts a new one in descending-offset order.
func (r *Routine) CaptureUpvalue(heap *gc.Heap, offset int) *Upvalue {
	var prev *Upvalue
	cur := r.openUpvalues
	for cur != nil && cur.StackOffset > offset {
		prev = cur
		cur = cur.next
	}
	if cur != nil && cur.StackOffset == offset {
		return cur
	}
	fresh := newOpenUpvalue(offset, r.stack.SlotRef(offset))
	fresh.next = cur
	if prev == nil {
		r.openUpvalues = fresh
	} else {
		prev.next = fresh
	}
	heap.Track(fresh, 40)
	return fresh
}

// CloseUpvalues closes every open upvalue at or above threshold,
// copying its live slot's value and detaching it from the stack
// (spec.md §4.4 closeUpvalues, §8 testable property: leaves no open
// upvalue with offset >= threshold).
func (r *Routine) CloseUpvalues(threshold int) {
	for r.openUpvalues != nil && r.openUpvalues.StackOffset >= threshold {
		u := r.openUpvalues
		u.close()
		r.openUpvalues = u.next
		u.next = nil
	}
}
