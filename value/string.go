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
	"sync"

	"github.com/dchest/siphash"

	"github.com/yarg-lang/yarg/gc"
)

// internKey0/internKey1 seed the keyed hash used for the string
// intern table, following the same siphash.Hash(k0, k1, buf) call
// shape the teacher uses for symbol/content hashing throughout `vm`
// (see vm/interphash.go). The keys are fixed, not secret: the intern
// table's correctness never depends on hash unpredictability, only on
// even bucket distribution.
const (
	internKey0 = 0x796172675f6c616e
	internKey1 = 0x672d696e7465726e
)

// Hash computes the keyed hash used to fingerprint string content,
// independent of any particular String object; Intern stores it on
// each new String, where String.Hash returns it.
func Hash(s string) uint64 {
	return siphash.Hash(internKey0, internKey1, []byte(s))
}

// String is an immutable, interned UTF-8-ish byte sequence. Per
// spec.md §3 invariant 1, the *String for a given byte content is
// unique: two String objects are never equal in content without being
// the same pointer.
type String struct {
	gc.Header
	s    string
	hash uint64
}

func (s *String) Value() string { return s.s }
func (s *String) Hash() uint64  { return s.hash }
func (s *String) Len() int      { return len(s.s) }

// Interner is the runtime's single string intern table. It is
// equivalent to the C original's global `vm.strings` ValueTable,
// reimplemented as a Go map (the teacher's own house style prefers
// stdlib maps over hand-rolled open addressing; see DESIGN.md) keyed
// by content, guarded by a mutex since routines intern strings
// concurrently.
type Interner struct {
	mu    sync.Mutex
	table map[string]*String
	heap  *gc.Heap
}

// NewInterner creates an Interner backed by heap. It wires itself into
// heap.InternRemove so that collected strings are evicted from the
// table during the white-string removal pass (spec.md §4.3).
func NewInterner(heap *gc.Heap) *Interner {
	it := &Interner{table: make(map[string]*String), heap: heap}
	heap.InternRemove = func(obj gc.Object) {
		if s, ok := obj.(*String); ok {
			it.mu.Lock()
			delete(it.table, s.s)
			it.mu.Unlock()
		}
	}
	return it
}

// Intern returns the unique *String for s, allocating and tracking a
// new one on first use.
func (it *Interner) Intern(s string) *String {
	it.mu.Lock()
	if existing, ok := it.table[s]; ok {
		it.mu.Unlock()
		return existing
	}
	it.mu.Unlock()

	obj := &String{Header: gc.NewHeader(gc.KindString), s: s, hash: Hash(s)}
	it.heap.PushTempRoot(obj)
	it.heap.Track(obj, len(s)+32)
	it.heap.PopTempRoot()

	it.mu.Lock()
	defer it.mu.Unlock()
	if existing, ok := it.table[s]; ok {
		// Another goroutine interned the same content while we were
		// allocating; keep the existing object so identity stays
		// unique and let obj become unreachable garbage.
		return existing
	}
	it.table[s] = obj
	return obj
}

// Concat interns the concatenation of a and b's content, implementing
// the `String + String` operator rule from spec.md §4.2.
func (it *Interner) Concat(a, b *String) *String {
	return it.Intern(a.s + b.s)
}

// Len reports the number of currently-interned distinct strings.
func (it *Interner) Len() int {
	it.mu.Lock()
	defer it.mu.Unlock()
	return len(it.table)
}
