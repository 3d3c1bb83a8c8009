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

// Package mailbox provides the bounded FIFO work queue underlying actor
// message delivery and the write-behind dirty queue.
package mailbox

import "time"

// Policy determines what Push does when the mailbox is full.
type Policy int

const (
	// Block makes producers wait until space is available or the mailbox
	// is stopped.
	Block Policy = iota
	// DropNewest makes producers fail without enqueueing when full.
	DropNewest
	// DropOldest makes producers evict the head, then enqueue the new item.
	DropOldest
	// Compact makes producers evict items until the size drops below
	// capacity, then enqueue the new item.
	Compact
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case DropNewest:
		return "drop-newest"
	case DropOldest:
		return "drop-oldest"
	case Compact:
		return "compact"
	default:
		return "unknown"
	}
}

// Mailbox defines the contract for a bounded FIFO queue of work items.
//
// Concurrency and ordering
//   - Implementations MUST be safe for multiple concurrent producers
//     calling Push. Consumption is intended for a single consumer (MPSC).
//   - FIFO ordering holds across non-dropping policies; DropOldest
//     preserves FIFO among the surviving items.
//
// Shutdown
//   - Stop wakes every blocked producer and consumer. After Stop, Push
//     fails; pops keep returning queued items until the mailbox is empty
//     and only then report the stopped condition.
type Mailbox[T any] interface {
	// Push enqueues an item. The error is nil on success,
	// errors.ErrMailboxFull when the DropNewest policy rejects the item and
	// errors.ErrMailboxStopped after Stop.
	Push(item T) error
	// WaitAndPop dequeues the next item, waiting up to the given timeout.
	// A non-positive timeout waits indefinitely. It returns
	// errors.ErrPopTimeout on expiry without consuming state and
	// errors.ErrMailboxStopped once the mailbox is stopped and drained.
	WaitAndPop(timeout time.Duration) (T, error)
	// TryPop dequeues the next item without waiting.
	TryPop() (T, bool)
	// Stop stops the mailbox and wakes all waiters. It is idempotent.
	Stop()
	// Size returns a snapshot of the number of queued items.
	Size() int
	// IsEmpty reports whether the mailbox currently has no items.
	IsEmpty() bool
	// Capacity returns the fixed capacity.
	Capacity() int
}
