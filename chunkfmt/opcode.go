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

// Op is one byte of a Chunk's code stream. The opcode set and operand
// shapes are fixed by the runtime's instruction contract; the external
// compiler emits these bytes and the interp package's dispatch loop
// reads them one at a time.
type Op byte

const (
	OpConstant Op = iota
	OpNil
	OpTrue
	OpFalse
	OpImmediateI8
	OpImmediateUI8
	OpImmediateI16
	OpImmediateUI16
	OpImmediateI32
	OpImmediateUI32
	OpImmediateI64
	OpImmediateUI64

	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpInitialise

	OpGetProperty
	OpSetProperty
	OpGetSuper
	OpClass
	OpInherit
	OpMethod
	OpClosure
	OpCloseUpvalue

	OpEqual
	OpGreater
	OpLess
	OpLeftShift
	OpRightShift
	OpAdd
	OpSubtract
	OpBitOr
	OpBitAnd
	OpBitXor
	OpModulo
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpInvoke
	OpSuperInvoke
	OpReturn
	OpYield

	OpPrint
	OpPoke

	OpTypeLiteral
	OpTypeModifier
	OpTypeStruct
	OpTypeArray
	OpSetCellType

	OpElement
	OpSetElement
	OpDerefPtr
	OpSetPtrTarget
	OpPlace

	OpGetBuiltin

	OpPop
)

// operandWidths gives the fixed in-line operand length, in bytes,
// following each opcode byte. Variable-length opcodes (OpClosure)
// return -1 and are decoded specially by the disassembler/interpreter.
var operandWidths = map[Op]int{
	OpConstant:      1,
	OpNil:           0,
	OpTrue:          0,
	OpFalse:         0,
	OpImmediateI8:   1,
	OpImmediateUI8:  1,
	OpImmediateI16:  2,
	OpImmediateUI16: 2,
	OpImmediateI32:  4,
	OpImmediateUI32: 4,
	OpImmediateI64:  8,
	OpImmediateUI64: 8,

	OpGetLocal:     1,
	OpSetLocal:     1,
	OpGetGlobal:    1,
	OpDefineGlobal: 1,
	OpSetGlobal:    1,
	OpGetUpvalue:   1,
	OpSetUpvalue:   1,
	OpInitialise:   0,

	OpGetProperty:  1,
	OpSetProperty:  1,
	OpGetSuper:     1,
	OpClass:        1,
	OpInherit:      0,
	OpMethod:       1,
	OpClosure:      -1,
	OpCloseUpvalue: 0,

	OpEqual:      0,
	OpGreater:    0,
	OpLess:       0,
	OpLeftShift:  0,
	OpRightShift: 0,
	OpAdd:        0,
	OpSubtract:   0,
	OpBitOr:      0,
	OpBitAnd:     0,
	OpBitXor:     0,
	OpModulo:     0,
	OpMultiply:   0,
	OpDivide:     0,
	OpNot:        0,
	OpNegate:     0,

	OpJump:        2,
	OpJumpIfFalse: 2,
	OpLoop:        2,
	OpCall:        1,
	OpInvoke:      3, // constant index (1 byte) + argc (1 byte)
	OpSuperInvoke: 3,
	OpReturn:      0,
	OpYield:       0,

	OpPrint: 0,
	OpPoke:  0,

	OpTypeLiteral:  1,
	OpTypeModifier: 1,
	OpTypeStruct:   1,
	OpTypeArray:    0,
	OpSetCellType:  0,

	OpElement:      0,
	OpSetElement:   0,
	OpDerefPtr:     0,
	OpSetPtrTarget: 0,
	OpPlace:        0,

	OpGetBuiltin: 1,

	OpPop: 0,
}

// OperandWidth returns the fixed operand width in bytes for op, or -1
// if op has a variable-length operand encoding (only OpClosure).
func OperandWidth(op Op) int {
	w, ok := operandWidths[op]
	if !ok {
		return 0
	}
	return w
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

var opNames = map[Op]string{
	OpConstant:      "CONSTANT",
	OpNil:           "NIL",
	OpTrue:          "TRUE",
	OpFalse:         "FALSE",
	OpImmediateI8:   "IMMEDIATE_I8",
	OpImmediateUI8:  "IMMEDIATE_UI8",
	OpImmediateI16:  "IMMEDIATE_I16",
	OpImmediateUI16: "IMMEDIATE_UI16",
	OpImmediateI32:  "IMMEDIATE_I32",
	OpImmediateUI32: "IMMEDIATE_UI32",
	OpImmediateI64:  "IMMEDIATE_I64",
	OpImmediateUI64: "IMMEDIATE_UI64",

	OpGetLocal:     "GET_LOCAL",
	OpSetLocal:     "SET_LOCAL",
	OpGetGlobal:    "GET_GLOBAL",
	OpDefineGlobal: "DEFINE_GLOBAL",
	OpSetGlobal:    "SET_GLOBAL",
	OpGetUpvalue:   "GET_UPVALUE",
	OpSetUpvalue:   "SET_UPVALUE",
	OpInitialise:   "INITIALISE",

	OpGetProperty:  "GET_PROPERTY",
	OpSetProperty:  "SET_PROPERTY",
	OpGetSuper:     "GET_SUPER",
	OpClass:        "CLASS",
	OpInherit:      "INHERIT",
	OpMethod:       "METHOD",
	OpClosure:      "CLOSURE",
	OpCloseUpvalue: "CLOSE_UPVALUE",

	OpEqual:      "EQUAL",
	OpGreater:    "GREATER",
	OpLess:       "LESS",
	OpLeftShift:  "LEFT_SHIFT",
	OpRightShift: "RIGHT_SHIFT",
	OpAdd:        "ADD",
	OpSubtract:   "SUBTRACT",
	OpBitOr:      "BITOR",
	OpBitAnd:     "BITAND",
	OpBitXor:     "BITXOR",
	OpModulo:     "MODULO",
	OpMultiply:   "MULTIPLY",
	OpDivide:     "DIVIDE",
	OpNot:        "NOT",
	OpNegate:     "NEGATE",

	OpJump:        "JUMP",
	OpJumpIfFalse: "JUMP_IF_FALSE",
	OpLoop:        "LOOP",
	OpCall:        "CALL",
	OpInvoke:      "INVOKE",
	OpSuperInvoke: "SUPER_INVOKE",
	OpReturn:      "RETURN",
	OpYield:       "YIELD",

	OpPrint: "PRINT",
	OpPoke:  "POKE",

	OpTypeLiteral:  "TYPE_LITERAL",
	OpTypeModifier: "TYPE_MODIFIER",
	OpTypeStruct:   "TYPE_STRUCT",
	OpTypeArray:    "TYPE_ARRAY",
	OpSetCellType:  "SET_CELL_TYPE",

	OpElement:      "ELEMENT",
	OpSetElement:   "SET_ELEMENT",
	OpDerefPtr:     "DEREF_PTR",
	OpSetPtrTarget: "SET_PTR_TARGET",
	OpPlace:        "PLACE",

	OpGetBuiltin: "GET_BUILTIN",

	OpPop: "POP",
}
