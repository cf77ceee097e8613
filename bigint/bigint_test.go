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

package bigint

import "testing"

func fromI64(v int64) *Int {
	var i Int
	i.SetI64(v)
	return &i
}

func TestSetI64RoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 2147483647, -2147483648, 9223372036854775807, -9223372036854775808, -2130706432}
	for _, v := range cases {
		i := fromI64(v)
		if got := i.ToI64(); got != v {
			t.Errorf("SetI64(%d).ToI64() = %d", v, got)
		}
	}
}

func TestAddSubMul(t *testing.T) {
	cases := []struct{ a, b int64 }{
		{2, 3}, {-2, 3}, {2, -3}, {-2, -3}, {0, 0}, {1000000, -999999}, {5, 5},
	}
	for _, c := range cases {
		a, b := fromI64(c.a), fromI64(c.b)
		var sum, diff, prod Int
		sum.Add(a, b)
		if got := sum.ToI64(); got != c.a+c.b {
			t.Errorf("%d+%d: got %d want %d", c.a, c.b, got, c.a+c.b)
		}
		diff.Sub(a, b)
		if got := diff.ToI64(); got != c.a-c.b {
			t.Errorf("%d-%d: got %d want %d", c.a, c.b, got, c.a-c.b)
		}
		prod.Mul(a, b)
		if got := prod.ToI64(); got != c.a*c.b {
			t.Errorf("%d*%d: got %d want %d", c.a, c.b, got, c.a*c.b)
		}
	}
}

func TestDivMod(t *testing.T) {
	cases := []struct{ n, d int64 }{
		{17, 5}, {-17, 5}, {17, -5}, {-17, -5}, {100, 1}, {0, 7},
	}
	for _, c := range cases {
		n, d := fromI64(c.n), fromI64(c.d)
		var q, r Int
		DivMod(n, d, &q, &r)
		wantQ := c.n / c.d
		wantR := c.n % c.d
		if got := q.ToI64(); got != wantQ {
			t.Errorf("%d/%d: q=%d want %d", c.n, c.d, got, wantQ)
		}
		if got := r.ToI64(); got != wantR {
			t.Errorf("%d%%%d: r=%d want %d", c.n, c.d, got, wantR)
		}
		// a = b*q + r
		var prod, sum Int
		prod.Mul(d, &q)
		sum.Add(&prod, &r)
		if got := sum.ToI64(); got != c.n {
			t.Errorf("%d = %d*%d + %d check failed: got %d", c.n, c.d, wantQ, wantR, got)
		}
	}
}

func TestDecimalStringRoundTrip(t *testing.T) {
	cases := []string{"0", "1", "-1", "340282366920938463463374607431768211456", "-170141183460469231731687303715884105728"}
	for _, s := range cases {
		var i Int
		if err := i.SetDecimalString(s); err != nil {
			t.Fatalf("SetDecimalString(%q): %v", s, err)
		}
		if got := i.ToDecimalString(); got != s {
			t.Errorf("round-trip %q: got %q", s, got)
		}
	}
}

func TestBeyond64Bits(t *testing.T) {
	var x Int
	if err := x.SetDecimalString("340282366920938463463374607431768211456"); err != nil {
		t.Fatal(err)
	}
	var two, q Int
	two.SetI64(2)
	DivMod(&x, &two, &q, nil)
	want := "170141183460469231731687303715884105728"
	if got := q.ToDecimalString(); got != want {
		t.Errorf("got %s want %s", got, want)
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b int64
		want Comparison
	}{
		{1, 2, Less}, {2, 1, Greater}, {2, 2, Equal},
		{-1, 1, Less}, {1, -1, Greater}, {-5, -1, Less}, {0, 0, Equal},
	}
	for _, c := range cases {
		if got := Compare(fromI64(c.a), fromI64(c.b)); got != c.want {
			t.Errorf("Compare(%d,%d) = %v want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestInRange(t *testing.T) {
	v := fromI64(42)
	if !v.InRange(0, 100) {
		t.Error("expected 42 in [0,100]")
	}
	if v.InRange(0, 10) {
		t.Error("expected 42 not in [0,10]")
	}
}

func TestSaturatingConversions(t *testing.T) {
	var big Int
	if err := big.SetDecimalString("999999999999999999999999"); err != nil {
		t.Fatal(err)
	}
	if got := big.ToI64(); got != 0x7FFFFFFFFFFFFFFF {
		t.Errorf("ToI64 saturation: got %d", got)
	}
	var neg Int
	if err := neg.SetDecimalString("-999999999999999999999999"); err != nil {
		t.Fatal(err)
	}
	if got := neg.ToI64(); got != -9223372036854775808 {
		t.Errorf("ToI64 negative saturation: got %d", got)
	}
	minI64 := fromI64(-9223372036854775808)
	if got := minI64.ToI64(); got != -9223372036854775808 {
		t.Errorf("exact MinInt64 conversion: got %d", got)
	}
}

func TestIsZero(t *testing.T) {
	var z Int
	z.SetI64(0)
	if !z.IsZero() {
		t.Error("expected zero")
	}
	z.neg = true
	if !z.IsZero() {
		t.Error("expected -0 to still be zero")
	}
}
