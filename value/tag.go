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

// Package value implements the runtime's tagged dynamic Value, its
// closed set of concrete Types, and the packed-storage rules that let
// a Value live unboxed inside a typed struct/array/pointer cell.
package value

// Tag is the closed set of dynamic value tags.
type Tag uint8

const (
	TagBool Tag = iota
	TagNil
	TagDouble
	TagI8
	TagUI8
	TagI16
	TagUI16
	TagI32
	TagUI32
	TagUI64
	TagI64
	TagAddress
	TagObject
)

func (t Tag) String() string {
	switch t {
	case TagBool:
		return "bool"
	case TagNil:
		return "nil"
	case TagDouble:
		return "double"
	case TagI8:
		return "int8"
	case TagUI8:
		return "uint8"
	case TagI16:
		return "int16"
	case TagUI16:
		return "uint16"
	case TagI32:
		return "int32"
	case TagUI32:
		return "uint32"
	case TagUI64:
		return "uint64"
	case TagI64:
		return "int64"
	case TagAddress:
		return "address"
	case TagObject:
		return "object"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether t is one of the fixed-width numeric tags
// (not Address, not Object, not Bool).
func (t Tag) IsNumeric() bool {
	switch t {
	case TagDouble, TagI8, TagUI8, TagI16, TagUI16, TagI32, TagUI32, TagUI64, TagI64:
		return true
	default:
		return false
	}
}

// IsUnsignedInt reports whether t is one of the fixed-width unsigned
// integer tags (the operand set for shifts and bitwise operators).
func (t Tag) IsUnsignedInt() bool {
	switch t {
	case TagUI8, TagUI16, TagUI32, TagUI64:
		return true
	default:
		return false
	}
}
