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

package chans

import (
	"runtime"
	"sync"

	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// SyncGroup binds an array of channels and samples them as a single
// multi-way receive: one value from each channel that currently has
// data, nil for the rest (spec.md §4.5).
type SyncGroup struct {
	gc.Header

	mu       sync.Mutex
	channels []*Channel
}

// NewSyncGroup allocates a SyncGroup over channels.
func NewSyncGroup(heap *gc.Heap, channels []*Channel) *SyncGroup {
	g := &SyncGroup{
		Header:   gc.NewHeader(gc.KindSyncGroup),
		channels: append([]*Channel(nil), channels...),
	}
	heap.Track(g, 24+len(channels)*8)
	return g
}

// Receive spins, sampling every bound channel, until at least one has
// yielded a value, then returns the companion result array (nil
// entries for channels that had nothing this round).
func (g *SyncGroup) Receive() []value.Value {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]value.Value, len(g.channels))
	for {
		any := false
		for i, ch := range g.channels {
			if v, ok := ch.TryReceive(); ok {
				out[i] = v
				any = true
			} else {
				out[i] = value.Nil()
			}
		}
		if any {
			return out
		}
		runtime.Gosched()
	}
}

// Trace keeps every bound channel alive; the channels' own Trace
// methods handle their buffered contents.
func (g *SyncGroup) Trace(mark func(gc.Object)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.channels {
		mark(ch)
	}
}
