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
	"os"
	"path/filepath"
	"testing"
)

// TestMmapBackendAgainstRegularFile points devMem at a plain file
// instead of the real /dev/mem (which needs root) so the mmap path
// itself -- windowing, page-boundary checks, byte order -- is still
// exercised in CI.
func TestMmapBackendAgainstRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-mem")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.Truncate(pageSize * 2); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	f.Close()

	old := devMem
	devMem = path
	t.Cleanup(func() { devMem = old })

	b, err := newMmapBackend()
	if err != nil {
		t.Fatalf("newMmapBackend: %v", err)
	}
	t.Cleanup(func() { _ = b.close() })

	if err := b.poke(0x10, 0x11223344); err != nil {
		t.Fatalf("poke: %v", err)
	}
	got, err := b.peek(0x10)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got != 0x11223344 {
		t.Fatalf("peek = %#x, want 0x11223344", got)
	}

	// An address in the second page exercises a second window.
	if err := b.poke(pageSize+4, 99); err != nil {
		t.Fatalf("poke (second page): %v", err)
	}
	got, err = b.peek(pageSize + 4)
	if err != nil {
		t.Fatalf("peek (second page): %v", err)
	}
	if got != 99 {
		t.Fatalf("peek (second page) = %d, want 99", got)
	}

	// Crossing a page boundary is rejected.
	if _, err := b.peek(pageSize - 2); err == nil {
		t.Fatalf("expected peek across a page boundary to fail")
	}
}
