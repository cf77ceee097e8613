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

func TestFingerprintIsStableForTheSameHeapShape(t *testing.T) {
	h1 := NewHeap()
	newFake(h1, KindClosure)
	newFake(h1, KindString)
	f1, err := h1.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	h2 := NewHeap()
	newFake(h2, KindClosure)
	newFake(h2, KindString)
	f2, err := h2.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	if f1 != f2 {
		t.Fatalf("fingerprints of identically-shaped heaps differ: %x vs %x", f1, f2)
	}
}

func TestFingerprintChangesWithHeapContents(t *testing.T) {
	h := NewHeap()
	empty, err := h.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	newFake(h, KindClosure)
	withOne, err := h.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if empty == withOne {
		t.Fatalf("fingerprint did not change after allocating an object")
	}
}
