/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package mailbox

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
)

// DefaultCapacity is the mailbox capacity used when none is specified.
const DefaultCapacity = 1000

// Bounded is a bounded MPSC mailbox backed by a buffered channel.
// The channel gives FIFO ordering and producer/consumer parking for free;
// the overflow policies are layered on top of non-blocking sends.
type Bounded[T any] struct {
	capacity int
	policy   Policy
	items    chan T
	stopCh   chan struct{}
	stopOnce sync.Once
	stopped  *atomic.Bool
	dropped  *atomic.Uint64
}

// enforce compilation error
var _ Mailbox[int] = (*Bounded[int])(nil)

// NewBounded creates a new bounded mailbox with the given capacity and
// overflow policy. A non-positive capacity falls back to DefaultCapacity.
func NewBounded[T any](capacity int, policy Policy) *Bounded[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bounded[T]{
		capacity: capacity,
		policy:   policy,
		items:    make(chan T, capacity),
		stopCh:   make(chan struct{}),
		stopped:  atomic.NewBool(false),
		dropped:  atomic.NewUint64(0),
	}
}

// Push enqueues an item according to the overflow policy.
func (m *Bounded[T]) Push(item T) error {
	if m.stopped.Load() {
		return errors.ErrMailboxStopped
	}

	switch m.policy {
	case DropNewest:
		select {
		case m.items <- item:
			return nil
		default:
			m.dropped.Inc()
			return errors.ErrMailboxFull
		}
	case DropOldest:
		return m.pushEvicting(item, false)
	case Compact:
		return m.pushEvicting(item, true)
	default:
		select {
		case m.items <- item:
			return nil
		case <-m.stopCh:
			return errors.ErrMailboxStopped
		}
	}
}

// pushEvicting enqueues the item, evicting the head when full. When
// compact is set, eviction keeps going until the size drops below
// capacity rather than freeing a single slot.
func (m *Bounded[T]) pushEvicting(item T, compact bool) error {
	for {
		if m.stopped.Load() {
			return errors.ErrMailboxStopped
		}
		select {
		case m.items <- item:
			return nil
		default:
		}
		// full: evict the head and retry. The consumer may race us for
		// the head; either way a slot frees up.
		select {
		case <-m.items:
			m.dropped.Inc()
		default:
		}
		if compact {
			for len(m.items) >= m.capacity {
				select {
				case <-m.items:
					m.dropped.Inc()
				default:
				}
			}
		}
	}
}

// WaitAndPop dequeues the next item, waiting up to the given timeout.
func (m *Bounded[T]) WaitAndPop(timeout time.Duration) (T, error) {
	var zero T

	// fast path: an item is already queued
	select {
	case item := <-m.items:
		return item, nil
	default:
	}

	if timeout <= 0 {
		select {
		case item := <-m.items:
			return item, nil
		case <-m.stopCh:
			return m.drainOrStopped()
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case item := <-m.items:
		return item, nil
	case <-m.stopCh:
		return m.drainOrStopped()
	case <-timer.C:
		return zero, errors.ErrPopTimeout
	}
}

// drainOrStopped returns a queued item when one remains after Stop so that
// consumers drain the backlog, and the stopped error only once empty.
func (m *Bounded[T]) drainOrStopped() (T, error) {
	var zero T
	select {
	case item := <-m.items:
		return item, nil
	default:
		return zero, errors.ErrMailboxStopped
	}
}

// TryPop dequeues the next item without waiting.
func (m *Bounded[T]) TryPop() (T, bool) {
	select {
	case item := <-m.items:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Stop stops the mailbox and wakes all waiters. It is idempotent.
func (m *Bounded[T]) Stop() {
	m.stopOnce.Do(func() {
		m.stopped.Store(true)
		close(m.stopCh)
	})
}

// IsStopped reports whether the mailbox has been stopped.
func (m *Bounded[T]) IsStopped() bool {
	return m.stopped.Load()
}

// Size returns a snapshot of the number of queued items.
func (m *Bounded[T]) Size() int {
	return len(m.items)
}

// IsEmpty reports whether the mailbox currently has no items.
func (m *Bounded[T]) IsEmpty() bool {
	return len(m.items) == 0
}

// Capacity returns the fixed capacity.
func (m *Bounded[T]) Capacity() int {
	return m.capacity
}

// Dropped returns the number of items evicted or rejected by the overflow
// policy since creation.
func (m *Bounded[T]) Dropped() uint64 {
	return m.dropped.Load()
}
