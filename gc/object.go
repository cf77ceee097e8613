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

// Object is satisfied by every heap object kind. Concrete types embed
// Header for the kind tag, mark bit and intrusive next-object link,
// and implement Trace themselves to report their own outgoing
// references (shadowing Header's no-op default).
type Object interface {
	Kind() Kind
	Marked() bool
	SetMarked(bool)
	Next() Object
	SetNext(Object)
	// Trace reports every Object this object references directly by
	// calling mark on each one. Objects with no children (e.g. String)
	// rely on Header's default empty implementation.
	Trace(mark func(Object))
}

// Header is embedded by every concrete heap object kind. It provides
// the intrusive linked-list and tri-colour bookkeeping the collector
// needs; it does not itself allocate or free anything.
type Header struct {
	kind   Kind
	marked bool
	next   Object
}

// NewHeader initializes a Header for an object of the given kind. Call
// this from each concrete constructor before the object is linked into
// a Heap via Heap.Track.
func NewHeader(k Kind) Header {
	return Header{kind: k}
}

func (h *Header) Kind() Kind         { return h.kind }
func (h *Header) Marked() bool       { return h.marked }
func (h *Header) SetMarked(v bool)   { h.marked = v }
func (h *Header) Next() Object       { return h.next }
func (h *Header) SetNext(o Object)   { h.next = o }
func (h *Header) Trace(func(Object)) {}
