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

// Package routine implements a single routine's execution context: its
// chunked value stack, fixed-depth call-frame array, open-upvalue
// chain and state machine. The bytecode dispatch loop itself lives in
// package interp, which drives a *Routine through this package's
// exported operations.
package routine

// State is the closed set of routine lifecycle states (spec.md §3
// "Lifecycles" and §8's monotonic transition property).
type State uint8

const (
	Unbound State = iota
	Running
	Suspended
	Closed
	Error
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "Unbound"
	case Running:
		return "Running"
	case Suspended:
		return "Suspended"
	case Closed:
		return "Closed"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s is a state the routine cannot leave.
func (s State) IsTerminal() bool {
	return s == Closed || s == Error
}
