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

package gc

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint hashes a deterministic image of every currently-live
// object's kind -- not their contents, which for cyclic object graphs
// aren't cheaply serializable -- for the `--dump-heap` CLI debug flag
// (a developer wants a short, stable identifier to compare "did this
// run allocate the same shape of heap as last time", not a full
// content hash). Reused from the teacher's own `blake2b.New256(key)`
// keyed-hash idiom in its ion/blockfmt index signing, unkeyed here
// since this fingerprint authenticates nothing.
func (h *Heap) Fingerprint() ([32]byte, error) {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}

	h.mu.Lock()
	count := 0
	for o := h.objects; o != nil; o = o.Next() {
		var kindBytes [2]byte
		binary.LittleEndian.PutUint16(kindBytes[:], uint16(o.Kind()))
		hasher.Write(kindBytes[:])
		count++
	}
	bytesAllocated := h.bytesAllocated
	h.mu.Unlock()

	var countBytes, sizeBytes [8]byte
	binary.LittleEndian.PutUint64(countBytes[:], uint64(count))
	binary.LittleEndian.PutUint64(sizeBytes[:], uint64(bytesAllocated))
	hasher.Write(countBytes[:])
	hasher.Write(sizeBytes[:])

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}
