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
	"github.com/yarg-lang/yarg/bigint"
	"github.com/yarg-lang/yarg/gc"
)

// BigInt is the heap-object wrapper around an arbitrary-precision
// integer, letting bigint.Int participate in the Value/gc.Object
// system as an Object-tagged Value (spec.md §4.1). BigInts carry no
// inner object references, so Trace is the default no-op from
// gc.Header.
type BigInt struct {
	gc.Header
	N bigint.Int
}

// NewBigIntFromI64 allocates and tracks a BigInt initialised from n.
func NewBigIntFromI64(heap *gc.Heap, n int64) *BigInt {
	b := &BigInt{Header: gc.NewHeader(gc.KindBigInt)}
	b.N.SetI64(n)
	heap.Track(b, 16+bigint.MaxDigits*2)
	return b
}

// NewBigIntFromDecimalString allocates and tracks a BigInt parsed from
// a decimal literal, returning an error if the literal is malformed.
func NewBigIntFromDecimalString(heap *gc.Heap, s string) (*BigInt, error) {
	b := &BigInt{Header: gc.NewHeader(gc.KindBigInt)}
	if err := b.N.SetDecimalString(s); err != nil {
		return nil, err
	}
	heap.Track(b, 16+bigint.MaxDigits*2)
	return b, nil
}

func (b *BigInt) String() string { return b.N.String() }

// bigIntEqual implements the value-equality carve-out for BigInt from
// spec.md §4.6: two BigInt objects compare equal by value, not by
// identity, unlike every other object kind.
func bigIntEqual(a, b *BigInt) bool {
	return bigint.Compare(&a.N, &b.N) == bigint.Equal
}

// EqualValues extends Equal with the BigInt value-equality exception:
// for two Object-tagged values that both wrap a *BigInt, it compares
// by numeric value; for everything else it defers to Equal.
func EqualValues(a, b Value) bool {
	if a.Tag() == TagObject && b.Tag() == TagObject {
		ba, aok := a.AsObject().(*BigInt)
		bb, bok := b.AsObject().(*BigInt)
		if aok && bok {
			return bigIntEqual(ba, bb)
		}
	}
	return Equal(a, b)
}
