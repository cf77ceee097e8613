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

package interp

import (
	"testing"

	"github.com/yarg-lang/yarg/value"
)

func TestMakeChannelSendReceiveRoundTrip(t *testing.T) {
	_, vm := newTestVM()
	ch, err := builtinMakeChannel(vm, nil, []value.Value{value.I32(1)})
	if err != nil {
		t.Fatalf("builtinMakeChannel: %v", err)
	}
	if _, err := builtinSend(vm, nil, []value.Value{ch, value.I32(42)}); err != nil {
		t.Fatalf("builtinSend: %v", err)
	}
	got, err := builtinReceive(vm, nil, []value.Value{ch})
	if err != nil {
		t.Fatalf("builtinReceive: %v", err)
	}
	n, ok := got.AsInt64()
	if !ok || n != 42 {
		t.Fatalf("received %v, want 42", got)
	}
}

func TestSendRejectsNonChannelArgument(t *testing.T) {
	_, vm := newTestVM()
	if _, err := builtinSend(vm, nil, []value.Value{value.I32(1), value.I32(2)}); err == nil {
		t.Fatalf("expected send to a non-channel to fail")
	}
}

func TestCoercionBuiltinTruncatesAndRangeChecks(t *testing.T) {
	_, vm := newTestVM()
	toI8 := coercionBuiltin(value.TagI8)

	got, err := toI8(vm, nil, []value.Value{value.Double(3.9)})
	if err != nil {
		t.Fatalf("toI8(3.9): %v", err)
	}
	if got.Tag() != value.TagI8 || got.AsI8() != 3 {
		t.Fatalf("toI8(3.9) = %v, want int8(3)", got)
	}

	if _, err := toI8(vm, nil, []value.Value{value.Double(1000)}); err == nil {
		t.Fatalf("expected toI8(1000) to be out of range")
	}
}

func TestBuiltinIntParsesDecimalStringIntoBigInt(t *testing.T) {
	_, vm := newTestVM()
	s := vm.Interner.Intern("340282366920938463463374607431768211456")
	result, err := builtinInt(vm, nil, []value.Value{value.Obj(s)})
	if err != nil {
		t.Fatalf("builtinInt: %v", err)
	}
	b, ok := result.AsObject().(*value.BigInt)
	if !ok {
		t.Fatalf("result = %v, want *value.BigInt", result)
	}
	if got := b.N.ToDecimalString(); got != "340282366920938463463374607431768211456" {
		t.Fatalf("parsed = %s, want the original literal", got)
	}
}
