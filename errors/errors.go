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

// Package errors defines the sentinel errors shared across the iquora
// state store. Callers are expected to match them with the standard
// library errors.Is since components wrap them with additional context.
package errors

import "errors"

var (
	// ErrInvalidActorID is returned when an actor id does not match
	// the allowed pattern (word characters plus '-' and '_', at most 64 bytes).
	ErrInvalidActorID = errors.New("invalid actor id, must match [A-Za-z0-9_-]{1,64}")

	// ErrEmptyKey is returned when a store operation is attempted with an empty key.
	ErrEmptyKey = errors.New("key is empty")

	// ErrKeyTooLong is returned when a key exceeds the maximum allowed length of 256 bytes.
	ErrKeyTooLong = errors.New("key exceeds 256 bytes")

	// ErrKeyNotFound indicates that the requested key is absent or has expired.
	ErrKeyNotFound = errors.New("key not found")

	// ErrVersionMismatch indicates that a compare-and-set failed because the
	// stored version differs from the expected one.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrDuplicateActor is returned when spawning an actor whose id is already active.
	ErrDuplicateActor = errors.New("actor already active")

	// ErrActorNotFound indicates that the specified actor is not active.
	ErrActorNotFound = errors.New("actor not found")

	// ErrMailboxFull is returned by a non-blocking push on a full mailbox.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrMailboxStopped is returned when pushing to or draining a stopped mailbox.
	ErrMailboxStopped = errors.New("mailbox is stopped")

	// ErrPopTimeout is returned when a timed pop expires without an item.
	ErrPopTimeout = errors.New("pop timed out")

	// ErrPoolStopped is returned when submitting work to a stopped worker pool.
	ErrPoolStopped = errors.New("worker pool is stopped")

	// ErrPoolNotStarted is returned when submitting work before the pool has started.
	ErrPoolNotStarted = errors.New("worker pool is not started")

	// ErrTransientIO wraps retryable write-ahead log file failures.
	ErrTransientIO = errors.New("transient i/o failure")

	// ErrWALClosed is returned when appending to a closed write-ahead log.
	ErrWALClosed = errors.New("write-ahead log is closed")

	// ErrSchedulerStopped is returned when scheduling work after shutdown.
	ErrSchedulerStopped = errors.New("scheduler is stopped")

	// ErrAskNotSupported is returned when Ask is used on an actor whose
	// behavior does not produce results.
	ErrAskNotSupported = errors.New("ask is not supported by this actor")

	// ErrNotInitialized is returned when messaging an actor that has not
	// been successfully initialized.
	ErrNotInitialized = errors.New("actor is not initialized")
)
