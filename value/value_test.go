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

import "testing"

func TestIsTruthyOnlyNilAndFalseAreFalsey(t *testing.T) {
	falsey := []Value{Nil(), Bool(false)}
	for _, v := range falsey {
		if v.IsTruthy() {
			t.Fatalf("%v should be falsey", v)
		}
	}
	truthy := []Value{Bool(true), I32(0), UI8(0), Double(0)}
	for _, v := range truthy {
		if !v.IsTruthy() {
			t.Fatalf("%v should be truthy", v)
		}
	}
}

func TestAsInt64WidensFixedWidthTagsOnly(t *testing.T) {
	cases := []struct {
		v    Value
		want int64
	}{
		{I8(-1), -1},
		{UI8(200), 200},
		{I16(-1000), -1000},
		{UI16(40000), 40000},
		{I32(-70000), -70000},
		{UI32(1 << 31), 1 << 31},
		{I64(-1 << 40), -1 << 40},
		{UI64(1 << 40), 1 << 40},
	}
	for _, c := range cases {
		got, ok := c.v.AsInt64()
		if !ok || got != c.want {
			t.Fatalf("AsInt64(%v) = (%d, %v), want (%d, true)", c.v, got, ok, c.want)
		}
	}

	notWidened := []Value{Double(1), Address(1), Nil(), Bool(true)}
	for _, v := range notWidened {
		if _, ok := v.AsInt64(); ok {
			t.Fatalf("AsInt64(%v) unexpectedly widened", v)
		}
	}
}

func TestEqualMismatchedTagsCompareUnequal(t *testing.T) {
	if Equal(I32(1), I64(1)) {
		t.Fatalf("values of different tags but equal bits should not compare equal")
	}
	if !Equal(I32(5), I32(5)) {
		t.Fatalf("equal tag and bits should compare equal")
	}
	if Equal(Nil(), Bool(false)) {
		t.Fatalf("Nil and false are distinct tags and should not compare equal")
	}
}

func TestObjPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Obj(nil) to panic")
		}
	}()
	Obj(nil)
}

func TestKindReportsFalseForNonObjects(t *testing.T) {
	if _, ok := I32(1).Kind(); ok {
		t.Fatalf("Kind() should be false for a non-object value")
	}
}
