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
	"sync"
	"testing"
	"time"

	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

func TestChannelFIFOOrdering(t *testing.T) {
	heap := gc.NewHeap()
	c := NewChannel(heap, 2)
	c.Send(value.I32(10))
	c.Send(value.I32(20))
	if v := c.Receive(); v.AsI32() != 10 {
		t.Fatalf("first Receive = %v, want 10", v)
	}
	if v := c.Receive(); v.AsI32() != 20 {
		t.Fatalf("second Receive = %v, want 20", v)
	}
}

func TestChannelSendBlocksUntilSpace(t *testing.T) {
	heap := gc.NewHeap()
	c := NewChannel(heap, 1)
	c.Send(value.I32(1))

	done := make(chan struct{})
	go func() {
		c.Send(value.I32(2))
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Send on a full channel should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	c.Receive()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Send did not unblock after Receive freed capacity")
	}
}

func TestChannelShareOverwritesOldestWhenFull(t *testing.T) {
	heap := gc.NewHeap()
	c := NewChannel(heap, 2)
	if overflow := c.Share(value.I32(1)); overflow {
		t.Fatalf("Share into empty slot should not report overflow")
	}
	if overflow := c.Share(value.I32(2)); overflow {
		t.Fatalf("Share into last empty slot should not report overflow")
	}
	if overflow := c.Share(value.I32(3)); !overflow {
		t.Fatalf("Share into a full channel should report overflow")
	}
	// oldest (1) was overwritten; remaining order is 2, 3.
	if v := c.Receive(); v.AsI32() != 2 {
		t.Fatalf("Receive after overflow = %v, want 2", v)
	}
	if v := c.Receive(); v.AsI32() != 3 {
		t.Fatalf("Receive after overflow = %v, want 3", v)
	}
}

func TestChannelPeekDoesNotRemove(t *testing.T) {
	heap := gc.NewHeap()
	c := NewChannel(heap, 1)
	if _, ok := c.Peek(); ok {
		t.Fatalf("Peek on empty channel should report ok=false")
	}
	c.Send(value.I32(5))
	v, ok := c.Peek()
	if !ok || v.AsI32() != 5 {
		t.Fatalf("Peek = %v, %v", v, ok)
	}
	if v := c.Receive(); v.AsI32() != 5 {
		t.Fatalf("Receive after Peek = %v, want 5 (Peek must not remove)", v)
	}
}

func TestSyncGroupSamplesReadyChannels(t *testing.T) {
	heap := gc.NewHeap()
	a := NewChannel(heap, 1)
	b := NewChannel(heap, 1)
	a.Send(value.I32(1))

	g := NewSyncGroup(heap, []*Channel{a, b})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		b.Send(value.I32(2))
	}()

	out := g.Receive()
	wg.Wait()
	if out[0].AsI32() != 1 {
		t.Fatalf("out[0] = %v, want 1", out[0])
	}
	if !out[1].IsNil() && out[1].AsI32() != 2 {
		t.Fatalf("out[1] = %v, want nil or 2", out[1])
	}
}
