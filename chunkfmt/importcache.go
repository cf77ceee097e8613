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

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// ImportCache persists compiled import chunks to disk, zstd-compressed,
// so repeated `import "name"` calls across process runs skip
// recompilation. This has no equivalent in the C original (which
// always recompiles); it is a supplemental feature enabled by the
// teacher's own use of klauspost/compress for its columnar block
// format (ion/blockfmt) applied here to a different payload shape.
// Entries only hold constants of the tags handled by writeConstant;
// a chunk whose constants include object kinds outside that set
// (closures over local functions, classes) is not cacheable and Store
// silently skips it.
type ImportCache struct {
	dir string
	mu  sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewImportCache creates a cache rooted at dir, creating it if needed.
func NewImportCache(dir string) (*ImportCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunkfmt: creating import cache dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &ImportCache{dir: dir, enc: enc, dec: dec}, nil
}

func (ic *ImportCache) path(name string) string {
	return filepath.Join(ic.dir, name+".yabc.zst")
}

// Store compresses and writes the serialized chunk for a compiled
// import under name, overwriting any existing entry. It is not an
// error for a chunk to be unserializable (e.g. it closes over a
// Class constant); Store reports that case via ok=false rather than
// an error, since falling back to recompilation is always safe.
func (ic *ImportCache) Store(name string, fn *Function) (ok bool, err error) {
	raw, ok := encodeFunction(fn)
	if !ok {
		return false, nil
	}
	ic.mu.Lock()
	compressed := ic.enc.EncodeAll(raw, nil)
	ic.mu.Unlock()
	if err := os.WriteFile(ic.path(name), compressed, 0o644); err != nil {
		return false, fmt.Errorf("chunkfmt: writing import cache entry %q: %w", name, err)
	}
	return true, nil
}

// Load reads and decompresses a previously Store-d import, if present.
// A missing entry is reported via ok=false, not an error. interner
// must be the VM's single string intern table: decoded string
// constants are interned through it so a cached import's strings
// still compare identity-equal with same-content strings from any
// other source (spec.md §3 invariant 1).
func (ic *ImportCache) Load(heap *gc.Heap, interner *value.Interner, name string) (fn *Function, ok bool, err error) {
	compressed, err := os.ReadFile(ic.path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("chunkfmt: reading import cache entry %q: %w", name, err)
	}
	ic.mu.Lock()
	raw, err := ic.dec.DecodeAll(compressed, nil)
	ic.mu.Unlock()
	if err != nil {
		return nil, false, fmt.Errorf("chunkfmt: decompressing import cache entry %q: %w", name, err)
	}
	fn, err = decodeFunction(heap, interner, raw)
	if err != nil {
		return nil, false, fmt.Errorf("chunkfmt: decoding import cache entry %q: %w", name, err)
	}
	return fn, true, nil
}

// constant tags for the cache's own tiny wire format; unrelated to
// value.Tag so that on-disk format changes never ripple into the
// runtime's dynamic tag set.
const (
	wireNil byte = iota
	wireBool
	wireDouble
	wireI64
	wireUI64
	wireString
)

func encodeFunction(fn *Function) ([]byte, bool) {
	var buf bytes.Buffer
	name := ""
	if fn.Name != nil {
		name = fn.Name.Value()
	}
	writeString(&buf, name)
	writeUvarint(&buf, uint64(fn.Arity))
	writeUvarint(&buf, uint64(fn.UpvalueCount))
	writeUvarint(&buf, uint64(len(fn.Chunk.Code)))
	buf.Write(fn.Chunk.Code)
	writeUvarint(&buf, uint64(len(fn.Chunk.Lines)))
	for _, l := range fn.Chunk.Lines {
		writeUvarint(&buf, uint64(l))
	}
	writeUvarint(&buf, uint64(len(fn.Chunk.Constants)))
	for _, c := range fn.Chunk.Constants {
		if !writeConstant(&buf, c) {
			return nil, false
		}
	}
	return buf.Bytes(), true
}

func writeConstant(buf *bytes.Buffer, v value.Value) bool {
	switch v.Tag() {
	case value.TagNil:
		buf.WriteByte(wireNil)
	case value.TagBool:
		buf.WriteByte(wireBool)
		if v.AsBool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case value.TagDouble:
		buf.WriteByte(wireDouble)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.AsDouble()))
		buf.Write(tmp[:])
	case value.TagI64:
		buf.WriteByte(wireI64)
		writeUvarint(buf, uint64(v.AsI64()))
	case value.TagUI64:
		buf.WriteByte(wireUI64)
		writeUvarint(buf, v.AsUI64())
	case value.TagObject:
		s, ok := v.AsObject().(*value.String)
		if !ok {
			return false
		}
		buf.WriteByte(wireString)
		writeString(buf, s.Value())
	default:
		return false
	}
	return true
}

func decodeFunction(heap *gc.Heap, interner *value.Interner, raw []byte) (*Function, error) {
	r := bytes.NewReader(raw)
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	arity, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	upvalueCount, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	codeLen, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := r.Read(code); err != nil {
		return nil, err
	}
	lineCount, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	lines := make([]int, lineCount)
	for i := range lines {
		l, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		lines[i] = int(l)
	}
	constCount, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	constants := make([]value.Value, constCount)
	for i := range constants {
		c, err := readConstant(r, interner)
		if err != nil {
			return nil, err
		}
		constants[i] = c
	}
	chunk := &Chunk{Code: code, Lines: lines, Constants: constants}
	var nameObj *value.String
	if name != "" {
		nameObj = interner.Intern(name)
	}
	return NewFunction(heap, nameObj, int(arity), int(upvalueCount), chunk), nil
}

func readConstant(r *bytes.Reader, interner *value.Interner) (value.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case wireNil:
		return value.Nil(), nil
	case wireBool:
		b, err := r.ReadByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(b != 0), nil
	case wireDouble:
		var tmp [8]byte
		if _, err := r.Read(tmp[:]); err != nil {
			return value.Value{}, err
		}
		return value.Double(math.Float64frombits(binary.LittleEndian.Uint64(tmp[:]))), nil
	case wireI64:
		n, err := readUvarint(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.I64(int64(n)), nil
	case wireUI64:
		n, err := readUvarint(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.UI64(n), nil
	case wireString:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Obj(interner.Intern(s)), nil
	default:
		return value.Value{}, fmt.Errorf("chunkfmt: unknown constant wire tag %d", tag)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func readUvarint(r *bytes.Reader) (uint64, error) {
	return binary.ReadUvarint(r)
}
