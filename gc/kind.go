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

// Package gc implements the runtime's single global heap and its
// precise tri-colour mark-and-sweep collector. The heap is generic
// over the Object interface so that the concrete heap-object kinds
// (strings, functions, routines, channels, ...) can live in the
// packages that own their domain semantics without gc importing them.
package gc

// Kind is the closed tag set of heap object kinds. It is defined here,
// rather than in each owning package, because the collector's sweep
// and debug-dump logic need one authoritative enumeration.
type Kind uint8

const (
	KindString Kind = iota
	KindFunction
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindBoundMethod
	KindNative
	KindBlob
	KindRoutine
	KindChannel
	KindSyncGroup
	KindBigInt
	KindYargType
	KindYargTypeArray
	KindYargTypeStruct
	KindYargTypePointer
	KindPackedUniformArray
	KindPackedStruct
	KindPackedPointer
	KindCell
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindFunction:
		return "Function"
	case KindClosure:
		return "Closure"
	case KindUpvalue:
		return "Upvalue"
	case KindClass:
		return "Class"
	case KindInstance:
		return "Instance"
	case KindBoundMethod:
		return "BoundMethod"
	case KindNative:
		return "Native"
	case KindBlob:
		return "Blob"
	case KindRoutine:
		return "Routine"
	case KindChannel:
		return "Channel"
	case KindSyncGroup:
		return "SyncGroup"
	case KindBigInt:
		return "BigInt"
	case KindYargType:
		return "YargType"
	case KindYargTypeArray:
		return "YargTypeArray"
	case KindYargTypeStruct:
		return "YargTypeStruct"
	case KindYargTypePointer:
		return "YargTypePointer"
	case KindPackedUniformArray:
		return "PackedUniformArray"
	case KindPackedStruct:
		return "PackedStruct"
	case KindPackedPointer:
		return "PackedPointer"
	case KindCell:
		return "Cell"
	default:
		return "Unknown"
	}
}
