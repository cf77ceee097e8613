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

package peripheral

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// pageSize is assumed 4KiB, true of every Linux target this VM runs
// on (amd64, arm64); a platform with a larger page size would simply
// waste a little address space per mapped window.
const pageSize = 4096

// devMem is a var (not a const) so tests can point it at a regular
// file standing in for /dev/mem without root.
var devMem = "/dev/mem"

// mmapBackend memory-maps one page of /dev/mem per distinct address
// window on first touch and keeps it mapped for the registry's
// lifetime, mirroring vm.mapVM's unix.Mmap/unix.Mprotect use in the
// teacher (vm/malloc_linux.go) -- here reading/writing a real physical
// address instead of reserving anonymous VM.
type mmapBackend struct {
	mu      sync.Mutex
	fd      *os.File
	windows map[uint64][]byte // page base -> mapped page
}

func newMmapBackend() (backend, error) {
	fd, err := os.OpenFile(devMem, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("peripheral: open %s: %w", devMem, err)
	}
	return &mmapBackend{fd: fd, windows: make(map[uint64][]byte)}, nil
}

func (b *mmapBackend) window(addr uint64) ([]byte, uint64, error) {
	base := addr &^ (pageSize - 1)
	if w, ok := b.windows[base]; ok {
		return w, base, nil
	}
	w, err := unix.Mmap(int(b.fd.Fd()), int64(base), pageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, 0, fmt.Errorf("peripheral: mmap %#x: %w", base, err)
	}
	b.windows[base] = w
	return w, base, nil
}

func (b *mmapBackend) peek(addr uint64) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, base, err := b.window(addr)
	if err != nil {
		return 0, err
	}
	off := addr - base
	if off+4 > uint64(len(w)) {
		return 0, fmt.Errorf("peripheral: address %#x crosses a page boundary", addr)
	}
	return binary.LittleEndian.Uint32(w[off : off+4]), nil
}

func (b *mmapBackend) poke(addr uint64, v uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, base, err := b.window(addr)
	if err != nil {
		return err
	}
	off := addr - base
	if off+4 > uint64(len(w)) {
		return fmt.Errorf("peripheral: address %#x crosses a page boundary", addr)
	}
	binary.LittleEndian.PutUint32(w[off:off+4], v)
	return nil
}

func (b *mmapBackend) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var firstErr error
	for base, w := range b.windows {
		if err := unix.Munmap(w); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("peripheral: munmap %#x: %w", base, err)
		}
	}
	b.windows = make(map[uint64][]byte)
	if err := b.fd.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
