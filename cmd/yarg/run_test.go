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

package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yarg-lang/yarg/chunkfmt"
	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// okCompiler ignores its source and always hands back a trivial
// "push a constant, return it" program, so these tests exercise
// run()'s dispatch and exit-code mapping without a real front end.
func okCompiler(constant value.Value) chunkfmt.CompilerFunc {
	heap := gc.NewHeap()
	return func(src []byte, name string) (*chunkfmt.Function, error) {
		chunk := &chunkfmt.Chunk{
			Code:      []byte{byte(chunkfmt.OpConstant), 0, byte(chunkfmt.OpReturn)},
			Lines:     []int{1, 1, 1},
			Constants: []value.Value{constant},
		}
		return chunkfmt.NewFunction(heap, nil, 0, 0, chunk), nil
	}
}

var errBoom = errors.New("boom")

func failCompiler(src []byte, name string) (*chunkfmt.Function, error) {
	return nil, errBoom
}

func newTestCLI(compiler chunkfmt.Compiler, readFile func(string) ([]byte, error)) (*cli, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &cli{
		compiler: compiler,
		readFile: readFile,
		stdin:    strings.NewReader(""),
		stdout:   &out,
		stderr:   &errOut,
	}, &out, &errOut
}

func TestRunFileSuccess(t *testing.T) {
	c, _, stderr := newTestCLI(okCompiler(value.I32(1)), func(string) ([]byte, error) { return []byte("1;"), nil })
	code := c.run([]string{"program.ya"})
	if code != exitOK {
		t.Fatalf("exit = %d, want %d (stderr: %s)", code, exitOK, stderr.String())
	}
}

func TestRunFileCompileErrorExits65(t *testing.T) {
	c, _, _ := newTestCLI(chunkfmt.CompilerFunc(failCompiler), func(string) ([]byte, error) { return []byte("bad"), nil })
	code := c.run([]string{"program.ya"})
	if code != exitCompile {
		t.Fatalf("exit = %d, want %d", code, exitCompile)
	}
}

func TestRunFileIOErrorExits74(t *testing.T) {
	c, _, _ := newTestCLI(okCompiler(value.I32(1)), func(string) ([]byte, error) { return nil, fmt.Errorf("no such file") })
	code := c.run([]string{"missing.ya"})
	if code != exitIO {
		t.Fatalf("exit = %d, want %d", code, exitIO)
	}
}

func TestRunFilePrintsHeapFingerprintWhenRequested(t *testing.T) {
	c, out, stderr := newTestCLI(okCompiler(value.I32(1)), func(string) ([]byte, error) { return []byte("1;"), nil })
	c.dumpHeap = true
	code := c.run([]string{"program.ya"})
	if code != exitOK {
		t.Fatalf("exit = %d, want %d (stderr: %s)", code, exitOK, stderr.String())
	}
	if !strings.Contains(out.String(), "heap fingerprint:") {
		t.Fatalf("expected a heap fingerprint line, got:\n%s", out.String())
	}
}

func TestRunUsageErrorExits64(t *testing.T) {
	c, _, _ := newTestCLI(okCompiler(value.I32(1)), nil)
	code := c.run([]string{"one", "two", "three"})
	if code != exitUsageError {
		t.Fatalf("exit = %d, want %d", code, exitUsageError)
	}
	code = c.run([]string{"not-disassemble", "path"})
	if code != exitUsageError {
		t.Fatalf("exit = %d, want %d", code, exitUsageError)
	}
}

func TestReplRunsEachLineIndependently(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &cli{
		compiler: okCompiler(value.I32(7)),
		readFile: func(string) ([]byte, error) { return nil, nil },
		stdin:    strings.NewReader("1;\n2;\n"),
		stdout:   &out,
		stderr:   &errOut,
	}
	if code := c.run(nil); code != exitOK {
		t.Fatalf("exit = %d, want %d (stderr: %s)", code, exitOK, errOut.String())
	}
}

func TestDisassembleWalksNestedFunctions(t *testing.T) {
	heap := gc.NewHeap()
	inner := chunkfmt.NewFunction(heap, nil, 0, 0, &chunkfmt.Chunk{
		Code:  []byte{byte(chunkfmt.OpNil), byte(chunkfmt.OpReturn)},
		Lines: []int{1, 1},
	})
	compiler := chunkfmt.CompilerFunc(func(src []byte, name string) (*chunkfmt.Function, error) {
		chunk := &chunkfmt.Chunk{
			Code:      []byte{byte(chunkfmt.OpConstant), 0, byte(chunkfmt.OpReturn)},
			Lines:     []int{1, 1, 1},
			Constants: []value.Value{value.Obj(inner)},
		}
		return chunkfmt.NewFunction(heap, nil, 0, 0, chunk), nil
	})
	var out, errOut bytes.Buffer
	c := &cli{
		compiler: compiler,
		readFile: func(string) ([]byte, error) { return []byte("fun() {}"), nil },
		stdin:    strings.NewReader(""),
		stdout:   &out,
		stderr:   &errOut,
	}
	if code := c.run([]string{"disassemble", "program.ya"}); code != exitOK {
		t.Fatalf("exit = %d, want %d (stderr: %s)", code, exitOK, errOut.String())
	}
	printed := out.String()
	if !strings.Contains(printed, "program.ya") {
		t.Fatalf("output missing outer chunk header:\n%s", printed)
	}
	if !strings.Contains(printed, "program.ya/const0") {
		t.Fatalf("output missing nested chunk header:\n%s", printed)
	}
}
