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

// Package peripheral is the host/embedded boundary for `peek`/`poke`
// (spec.md §4.6, §6): word-wide reads and writes against an address
// space that, on real hardware, would be memory-mapped registers. It
// is reproduced from the teacher's native-function registration table
// (native.c/builtin.c in original_source/) as a Go Registry rather
// than a C function-pointer array.
package peripheral

import (
	"fmt"
	"sync"
)

// backend is the narrow thing a Registry drives: a word-addressable
// memory window. mmapBackend (Linux) and mockBackend (everywhere else,
// or when mmapBackend fails to open) both satisfy it.
type backend interface {
	peek(addr uint64) (uint32, error)
	poke(addr uint64, v uint32) error
	close() error
}

// Options carries the ambient, optional knobs around a Registry,
// following the same config-struct-plus-injectable-Logf shape as
// gc.CollectConfig and scheduler.Options.
type Options struct {
	// Logf, if set, is called for every peek/poke and backend
	// selection decision.
	Logf func(format string, args ...any)

	// IRQNames, if set, labels irq numbers for diagnostics (loaded
	// from cmd/yarg's --config file; see LoadConfig).
	IRQNames map[uint32]string
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Registry is the hosted implementation of spec.md's peripheral
// interface: it satisfies interp.Poker (so the POKE opcode and the
// `poke` builtin share one code path) and additionally exposes Peek
// for the `peek` builtin, which the opcode-level POKE doesn't need.
type Registry struct {
	mu      sync.Mutex
	backend backend
	opts    Options
}

// New opens the best available backend: a real memory-mapped window
// over /dev/mem on Linux when the process has permission, otherwise a
// logged in-memory mock (spec.md's peripheral interface has no
// observable difference between the two -- both are "a word-wide
// address space" -- so tests and non-root/non-Linux runs get the mock
// transparently).
func New(opts Options) *Registry {
	r := &Registry{opts: opts}
	if b, err := newMmapBackend(); err == nil {
		opts.logf("peripheral: using memory-mapped backend")
		r.backend = b
		return r
	} else {
		opts.logf("peripheral: memory-mapped backend unavailable (%v), falling back to mock", err)
	}
	r.backend = newMockBackend()
	return r
}

// Peek implements the `peek` builtin: read one word at addr.
func (r *Registry) Peek(addr uint64) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.backend.peek(addr)
	r.opts.logf("peripheral: peek %#x -> %#x (err=%v)", addr, v, err)
	return v, err
}

// Poke implements interp.Poker and the `poke` builtin: write one word
// at addr. The POKE opcode with an address target and the `poke`
// builtin (raw address write) both call this; POKE rejects a
// PackedPointer target, so pointer writes never reach it.
func (r *Registry) Poke(addr uint64, v uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.backend.poke(addr, v)
	r.opts.logf("peripheral: poke %#x <- %#x (err=%v)", addr, v, err)
	return err
}

// IRQName returns the configured name for irq num, or "" if unnamed.
func (r *Registry) IRQName(num uint32) string {
	return r.opts.IRQNames[num]
}

// Close releases the backing backend (unmaps /dev/mem, if mapped).
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend == nil {
		return nil
	}
	return r.backend.close()
}

var errNoMmapBackend = fmt.Errorf("peripheral: memory-mapped backend not available on this platform")
