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

// Package chans implements the runtime's bounded inter-routine
// Channel and the SyncGroup multi-channel sampling receiver. Named
// chans, not channel, so it never shadows the language's own `chan`
// keyword at use sites.
package chans

import (
	"sync"

	"github.com/yarg-lang/yarg/gc"
	"github.com/yarg-lang/yarg/value"
)

// Channel is a bounded FIFO of boxed Values. The teacher's own
// concurrency code (a `avail chan struct{}` gate guarding bounded
// work, deleted with tenant/manager.go per DESIGN.md but grounding the
// idiom) favors sync.Cond/channel-style blocking over semaphores; this
// implementation follows that idiom with sync.Mutex + sync.Cond rather
// than the C original's mutex-plus-semaphore pair, since Go has no
// portable named semaphore.
type Channel struct {
	gc.Header

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf      []value.Value
	cap      int
	readAt   int
	occupied int
}

// NewChannel allocates a Channel with the given capacity (spec.md
// §4.5: "default 1").
func NewChannel(heap *gc.Heap, capacity int) *Channel {
	if capacity < 1 {
		capacity = 1
	}
	c := &Channel{
		Header: gc.NewHeader(gc.KindChannel),
		buf:    make([]value.Value, capacity),
		cap:    capacity,
	}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	heap.Track(c, 32+capacity*24)
	return c
}

func (c *Channel) Cap() int { return c.cap }

// writeIndex returns the buffer slot one past the last occupied one.
func (c *Channel) writeIndex() int {
	return (c.readAt + c.occupied) % c.cap
}

// Send blocks until the channel has free capacity, then appends v.
func (c *Channel) Send(v value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.occupied == c.cap {
		c.notFull.Wait()
	}
	c.buf[c.writeIndex()] = v
	c.occupied++
	c.notEmpty.Signal()
}

// Receive blocks until at least one value is present, then removes and
// returns the oldest one (FIFO per single-producer/single-consumer,
// spec.md §4.5).
func (c *Channel) Receive() value.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.occupied == 0 {
		c.notEmpty.Wait()
	}
	v := c.buf[c.readAt]
	c.buf[c.readAt] = value.Value{}
	c.readAt = (c.readAt + 1) % c.cap
	c.occupied--
	c.notFull.Signal()
	return v
}

// Share is the non-blocking write: if the channel is full, the oldest
// element is overwritten (and overflow=true is returned); otherwise
// the value is appended like Send and overflow=false.
func (c *Channel) Share(v value.Value) (overflow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.occupied == c.cap {
		c.buf[c.readAt] = v
		c.readAt = (c.readAt + 1) % c.cap
		c.notEmpty.Signal()
		return true
	}
	c.buf[c.writeIndex()] = v
	c.occupied++
	c.notEmpty.Signal()
	return false
}

// Peek (aka cpeek) returns the value at the read cursor without
// removing it, or Nil with ok=false if the channel is empty.
func (c *Channel) Peek() (v value.Value, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.occupied == 0 {
		return value.Nil(), false
	}
	return c.buf[c.readAt], true
}

// TryReceive is the non-blocking half of Receive, used by SyncGroup's
// sampling scan: it removes and returns the oldest value only if one
// is present.
func (c *Channel) TryReceive() (v value.Value, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.occupied == 0 {
		return value.Nil(), false
	}
	v = c.buf[c.readAt]
	c.buf[c.readAt] = value.Value{}
	c.readAt = (c.readAt + 1) % c.cap
	c.occupied--
	c.notFull.Signal()
	return v, true
}

// Trace marks every currently buffered value's referenced object.
func (c *Channel) Trace(mark func(gc.Object)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < c.occupied; i++ {
		idx := (c.readAt + i) % c.cap
		v := c.buf[idx]
		if v.Tag() == value.TagObject && v.AsObject() != nil {
			mark(v.AsObject())
		}
	}
}
