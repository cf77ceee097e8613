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

package chunkfmt

// BuiltinTag is the operand of GET_BUILTIN: a closed, compiler-assigned
// numbering of every native function the language exposes (spec.md
// §4.4 "GET_BUILTIN b loads a built-in native by tag"). It lives here,
// not in interp, so the external compiler can reference the same
// numbering without importing interp's Native/VM types.
type BuiltinTag byte

const (
	BuiltinMakeChannel BuiltinTag = iota
	BuiltinSend
	BuiltinReceive
	BuiltinShare
	BuiltinPeek
	BuiltinMakeSyncGroup
	BuiltinGroupReceive

	BuiltinMakeRoutine
	BuiltinStart
	BuiltinResume
	BuiltinRoutineReceive
	BuiltinPin
	BuiltinYargIrqAddHandler
	BuiltinYargIrqRemoveHandler

	BuiltinPeekAddr
	BuiltinPokeAddr

	BuiltinImport

	BuiltinInt8
	BuiltinUint8
	BuiltinInt16
	BuiltinUint16
	BuiltinInt32
	BuiltinUint32
	BuiltinInt64
	BuiltinUint64
	BuiltinInt
	BuiltinMFloat64
	BuiltinString
)

func (b BuiltinTag) String() string {
	switch b {
	case BuiltinMakeChannel:
		return "make_channel"
	case BuiltinSend:
		return "send"
	case BuiltinReceive:
		return "receive"
	case BuiltinShare:
		return "share"
	case BuiltinPeek:
		return "cpeek"
	case BuiltinMakeSyncGroup:
		return "make_sync_group"
	case BuiltinGroupReceive:
		return "group_receive"
	case BuiltinMakeRoutine:
		return "make_routine"
	case BuiltinStart:
		return "start"
	case BuiltinResume:
		return "resume"
	case BuiltinRoutineReceive:
		return "routine_receive"
	case BuiltinPin:
		return "pin"
	case BuiltinYargIrqAddHandler:
		return "irq_add_shared_handler"
	case BuiltinYargIrqRemoveHandler:
		return "irq_remove_handler"
	case BuiltinPeekAddr:
		return "peek"
	case BuiltinPokeAddr:
		return "poke"
	case BuiltinImport:
		return "import"
	case BuiltinInt8:
		return "int8"
	case BuiltinUint8:
		return "uint8"
	case BuiltinInt16:
		return "int16"
	case BuiltinUint16:
		return "uint16"
	case BuiltinInt32:
		return "int32"
	case BuiltinUint32:
		return "uint32"
	case BuiltinInt64:
		return "int64"
	case BuiltinUint64:
		return "uint64"
	case BuiltinInt:
		return "int"
	case BuiltinMFloat64:
		return "mfloat64"
	case BuiltinString:
		return "string"
	default:
		return "unknown_builtin"
	}
}
