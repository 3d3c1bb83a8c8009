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

package store

import (
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/wal"
	"github.com/iquora/iquora/workerpool"
)

// Option is the interface that applies a MemStore option.
type Option interface {
	// Apply sets the Option value of a MemStore.
	Apply(s *MemStore)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(s *MemStore)

// Apply applies the MemStore's option
func (f OptionFunc) Apply(s *MemStore) {
	f(s)
}

// WithWAL attaches a write-ahead log. Without one the store is purely
// in-memory.
func WithWAL(w *wal.WAL) Option {
	return OptionFunc(func(s *MemStore) {
		s.walLog = w
	})
}

// WithDurabilityMode selects WriteAhead or WriteBehind logging.
func WithDurabilityMode(mode DurabilityMode) Option {
	return OptionFunc(func(s *MemStore) {
		s.mode = mode
	})
}

// WithWorkerPool offloads notification fan-out to the given pool. The store
// then returns from Set before subscribers have seen the event.
func WithWorkerPool(pool *workerpool.Pool) Option {
	return OptionFunc(func(s *MemStore) {
		s.pool = pool
	})
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(s *MemStore) {
		s.logger = logger
	})
}

// WithWriteBehindBatchSize sets the flush batch size used in WriteBehind
// mode.
func WithWriteBehindBatchSize(size int) Option {
	return OptionFunc(func(s *MemStore) {
		s.writeBehindBatchSize = size
	})
}

// WithWriteBehindQueueCapacity bounds the dirty-record queue used in
// WriteBehind mode.
func WithWriteBehindQueueCapacity(capacity int) Option {
	return OptionFunc(func(s *MemStore) {
		s.writeBehindCapacity = capacity
	})
}
