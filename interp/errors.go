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

import "fmt"

// RuntimeError is produced when an operator's contract fails at
// runtime (spec.md §7.2): type mismatch, division by zero,
// out-of-range coercion, bad index, bad argument count, undefined
// variable, stack/frame overflow, or yield from the main routine.
type RuntimeError struct {
	Message string
	Line    int
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
	}
	return e.Message
}

func runtimeErrorf(line int, format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Line: line}
}

// FatalVMError signals an invariant breach with no partial recovery
// (spec.md §7.3): a temp-roots overflow, or a scheduler/core-sync
// failure. The process is expected to exit on this, not merely fail
// the current routine.
type FatalVMError struct{ Message string }

func (e *FatalVMError) Error() string { return "fatal VM error: " + e.Message }

// CompileError wraps a failure from the external Compiler (spec.md
// §7.1); the CLI maps this to its compile-error exit code.
type CompileError struct{ Message string }

func (e *CompileError) Error() string { return e.Message }
