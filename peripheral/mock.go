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

package peripheral

// mockBackend simulates a peripheral address space with a plain map:
// every address reads back whatever was last poked to it (zero if
// never written). This is what cmd/yarg runs against by default and
// what every peripheral/scheduler test exercises, since real
// memory-mapped I/O isn't available in CI or most developer sandboxes.
type mockBackend struct {
	words map[uint64]uint32
}

func newMockBackend() *mockBackend {
	return &mockBackend{words: make(map[uint64]uint32)}
}

func (m *mockBackend) peek(addr uint64) (uint32, error) {
	return m.words[addr], nil
}

func (m *mockBackend) poke(addr uint64, v uint32) error {
	m.words[addr] = v
	return nil
}

func (m *mockBackend) close() error { return nil }
