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

package actor

import (
	"github.com/iquora/iquora/lifecycle"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/scheduler"
	"github.com/iquora/iquora/store"
)

// RefOption is the interface that applies a Ref option.
type RefOption[M any, R any] interface {
	// Apply sets the option value of a Ref.
	Apply(ref *Ref[M, R])
}

// refOptionFunc implements the RefOption interface.
type refOptionFunc[M any, R any] func(ref *Ref[M, R])

// Apply applies the Ref's option
func (f refOptionFunc[M, R]) Apply(ref *Ref[M, R]) {
	f(ref)
}

// WithStore wires the versioned store used for state persistence.
func WithStore[M any, R any](s store.Store) RefOption[M, R] {
	return refOptionFunc[M, R](func(ref *Ref[M, R]) {
		ref.stateStore = s
	})
}

// WithLifecycle wires the lifecycle the actor registers with on Initialize
// and terminates through on Stop.
func WithLifecycle[M any, R any](lc *lifecycle.Lifecycle) RefOption[M, R] {
	return refOptionFunc[M, R](func(ref *Ref[M, R]) {
		ref.lifecycle = lc
	})
}

// WithScheduler makes the scheduler's dispatch loop the actor's consumer
// instead of a dedicated goroutine.
func WithScheduler[M any, R any](sched *scheduler.Scheduler) RefOption[M, R] {
	return refOptionFunc[M, R](func(ref *Ref[M, R]) {
		ref.sched = sched
	})
}

// WithMailboxCapacity bounds the actor mailbox.
func WithMailboxCapacity[M any, R any](capacity int) RefOption[M, R] {
	return refOptionFunc[M, R](func(ref *Ref[M, R]) {
		ref.capacity = capacity
	})
}

// WithAutoPersist persists the actor state after every handled message.
func WithAutoPersist[M any, R any]() RefOption[M, R] {
	return refOptionFunc[M, R](func(ref *Ref[M, R]) {
		ref.autoPersist = true
	})
}

// WithErrorHandler routes handler, persistence and enqueue failures to the
// given handler instead of the logger.
func WithErrorHandler[M any, R any](handler ErrorHandler) RefOption[M, R] {
	return refOptionFunc[M, R](func(ref *Ref[M, R]) {
		ref.errorHandler = handler
	})
}

// WithLogger sets the logger.
func WithLogger[M any, R any](logger log.Logger) RefOption[M, R] {
	return refOptionFunc[M, R](func(ref *Ref[M, R]) {
		ref.logger = logger
	})
}
