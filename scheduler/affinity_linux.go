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

//go:build linux

package scheduler

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinWorkerThread is a best-effort affinity stub: it locks the calling
// goroutine to its current OS thread and pins that thread to CPU 0, so
// the single background worker never migrates mid-run. Errors are
// swallowed -- affinity is an optimization, not a correctness
// requirement, and unprivileged containers routinely deny
// sched_setaffinity.
func pinWorkerThread() {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(0)
	_ = unix.SchedSetaffinity(0, &set)
}
