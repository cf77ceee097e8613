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

import (
	"fmt"
	"sync"

	"github.com/yarg-lang/yarg/value"
)

// Globals is the VM-wide global variable cell table. It is guarded by
// its own recursive-in-spirit mutex, acquired only around
// GET_GLOBAL/DEFINE_GLOBAL/SET_GLOBAL (spec.md §5 "Shared state").
type Globals struct {
	mu    sync.Mutex
	cells map[string]*value.Cell
}

func NewGlobals() *Globals {
	return &Globals{cells: make(map[string]*value.Cell)}
}

// Define installs the given cell under name, overwriting any prior
// binding (DEFINE_GLOBAL always (re)declares).
func (g *Globals) Define(name string, c *value.Cell) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells[name] = c
}

// Get returns the cell bound to name, or an undefined-variable error.
func (g *Globals) Get(name string) (*value.Cell, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.cells[name]
	if !ok {
		return nil, fmt.Errorf("undefined variable %q", name)
	}
	return c, nil
}

// Names returns every currently bound global name, used by the
// collector's root enumeration.
func (g *Globals) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.cells))
	for k := range g.cells {
		out = append(out, k)
	}
	return out
}

// Cells returns a snapshot slice of every bound cell, for root
// enumeration (avoids holding the mutex across the mark callback).
func (g *Globals) Cells() []*value.Cell {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*value.Cell, 0, len(g.cells))
	for _, c := range g.cells {
		out = append(out, c)
	}
	return out
}
