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

// Package future provides a single-assignment container for a value that
// becomes available at some point in the future, or an error if that value
// could not be made available.
package future

import (
	"context"
	"sync"
)

// Future represents a value which may or may not currently be available,
// but will be available at some point in the future, or an error if that
// value could not be made available.
//
// Await blocks until the Future is completed or the provided context is
// canceled. It returns either the result of the computation or an error if
// the computation failed or the context was canceled.
type Future[T any] struct {
	acceptOnce   sync.Once
	completeOnce sync.Once
	done         chan result[T]
	value        T
	err          error
}

type result[T any] struct {
	value T
	err   error
}

// New returns a new incomplete Future. It is completed through Complete,
// Success or Failure.
func New[T any]() *Future[T] {
	return &Future[T]{
		done: make(chan result[T], 1),
	}
}

// Run creates a Future that executes the given task in a separate
// goroutine. The Future is completed with the value returned by the task or
// failed with its error.
func Run[T any](task func() (T, error)) *Future[T] {
	f := New[T]()
	go func() {
		f.Complete(task())
	}()
	return f
}

// Await blocks until the Future is completed or context is canceled and
// returns either a result or an error. Await is safe to call from multiple
// goroutines; every caller observes the same outcome.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	f.acceptOnce.Do(func() {
		select {
		case res := <-f.done:
			f.value = res.value
			f.err = res.err
		case <-ctx.Done():
			f.err = ctx.Err()
		}
	})
	return f.value, f.err
}

// Complete completes the Future with either a value or an error.
// Only the first completion takes effect.
func (f *Future[T]) Complete(value T, err error) {
	f.completeOnce.Do(func() {
		f.done <- result[T]{value: value, err: err}
	})
}

// Success completes the Future with the given value.
func (f *Future[T]) Success(value T) {
	f.Complete(value, nil)
}

// Failure fails the Future with the given error.
func (f *Future[T]) Failure(err error) {
	var zero T
	f.Complete(zero, err)
}
