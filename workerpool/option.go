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

package workerpool

import "github.com/iquora/iquora/log"

// Option is the interface that applies a Pool option.
type Option interface {
	// Apply sets the Option value of a Pool.
	Apply(pool *Pool)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(pool *Pool)

// Apply applies the Pool's option
func (f OptionFunc) Apply(pool *Pool) {
	f(pool)
}

// WithSize sets the number of workers.
func WithSize(size int) Option {
	return OptionFunc(func(pool *Pool) {
		pool.size = size
	})
}

// WithQueueSize sets the depth of the shared task queue.
func WithQueueSize(size int) Option {
	return OptionFunc(func(pool *Pool) {
		pool.queueSize = size
	})
}

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(pool *Pool) {
		pool.logger = logger
	})
}
