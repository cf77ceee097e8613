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

package gc

import "testing"

type fakeObj struct {
	Header
	children []*fakeObj
}

func newFake(h *Heap, kind Kind) *fakeObj {
	o := &fakeObj{Header: NewHeader(kind)}
	h.Track(o, 16)
	return o
}

func (f *fakeObj) Trace(mark func(Object)) {
	for _, c := range f.children {
		mark(c)
	}
}

func TestSweepRemovesUnreachable(t *testing.T) {
	h := NewHeap()
	root := newFake(h, KindString)
	_ = newFake(h, KindString) // unreachable garbage

	h.Roots = func(mark func(Object)) {
		mark(root)
	}
	h.Collect()

	if !h.Contains(root) {
		t.Fatal("root object should have survived")
	}
	if len(h.Objects()) != 1 {
		t.Fatalf("expected 1 live object, got %d", len(h.Objects()))
	}
	if !h.AllMarkedFalse() {
		t.Fatal("mark bits should be cleared after collection")
	}
}

func TestTraceKeepsChildrenAlive(t *testing.T) {
	h := NewHeap()
	child := newFake(h, KindString)
	parent := newFake(h, KindClosure)
	parent.children = []*fakeObj{child}

	h.Roots = func(mark func(Object)) { mark(parent) }
	h.Collect()

	if !h.Contains(child) {
		t.Fatal("child reachable through Trace should have survived")
	}
	if len(h.Objects()) != 2 {
		t.Fatalf("expected 2 live objects, got %d", len(h.Objects()))
	}
}

func TestTempRootsOverflow(t *testing.T) {
	h := NewHeap()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on temp-roots overflow")
		}
	}()
	for i := 0; i <= TempRootsMax; i++ {
		h.PushTempRoot(newFake(h, KindString))
	}
}

func TestInternRemoveCalledBeforeSweep(t *testing.T) {
	h := NewHeap()
	dead := newFake(h, KindString)
	var removed []Object
	h.InternRemove = func(o Object) { removed = append(removed, o) }
	h.Roots = func(mark func(Object)) {}
	h.Collect()

	if len(removed) != 1 || removed[0] != Object(dead) {
		t.Fatalf("expected InternRemove called once with dead string, got %v", removed)
	}
}
