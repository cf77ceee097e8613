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
	"testing"

	"github.com/yarg-lang/yarg/gc"
)

func TestBigIntEqualityByValue(t *testing.T) {
	heap := gc.NewHeap()
	a, err := NewBigIntFromDecimalString(heap, "123456789012345678901234567890")
	if err != nil {
		t.Fatalf("NewBigIntFromDecimalString: %v", err)
	}
	b, err := NewBigIntFromDecimalString(heap, "123456789012345678901234567890")
	if err != nil {
		t.Fatalf("NewBigIntFromDecimalString: %v", err)
	}
	c := NewBigIntFromI64(heap, 42)

	if a == b {
		t.Fatalf("two independently-allocated BigInts should not be the same object")
	}
	if !EqualValues(Obj(a), Obj(b)) {
		t.Fatalf("equal-valued BigInts should compare equal")
	}
	if EqualValues(Obj(a), Obj(c)) {
		t.Fatalf("differently-valued BigInts should not compare equal")
	}

	// Equal (without the BigInt value carve-out) treats them as distinct
	// objects, matching spec.md's general object-identity rule.
	if Equal(Obj(a), Obj(b)) {
		t.Fatalf("plain Equal should use identity for objects, not value")
	}
}
