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

package routine

import (
	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
)

// MaxFrames is the fixed call-frame depth per routine (spec.md §4.5).
const MaxFrames = 48

// Callable is satisfied by whatever the interp package's Closure type
// is: something that names the chunkfmt.Function to execute. Routine
// depends only on this interface, not on package interp, so that
// interp (which needs Routine/Upvalue/CallFrame) can depend on
// routine without a cycle.
type Callable interface {
	gc.Object
	Function() *chunkfmt.Function
}

// CallFrame is one entry of a routine's fixed-depth call stack: the
// callable being executed, its instruction pointer, and the stack
// index its locals start at.
type CallFrame struct {
	Callable Callable
	IP       int
	Base     int
}
