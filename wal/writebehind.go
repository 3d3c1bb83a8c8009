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

package wal

import (
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/mailbox"
)

const (
	// DefaultBatchSize is the number of dirty records flushed per batch.
	DefaultBatchSize = 100

	// DefaultQueueCapacity bounds the dirty-record queue.
	DefaultQueueCapacity = 1000

	// popTimeout is how long the flusher waits for the next dirty record
	// before flushing a partial batch.
	popTimeout = 100 * time.Millisecond
)

// Record is a dirty store mutation waiting to be appended to the log.
type Record struct {
	ActorID string
	Key     string
	Value   []byte
}

// WriteBehindWorker batches store mutations and appends them to the WAL off
// the write path. Enqueue never blocks the caller: the dirty queue uses the
// DropOldest policy, so under saturation the most recent writes win and the
// oldest are lost. That is the documented cost of write-behind mode.
type WriteBehindWorker struct {
	wal       *WAL
	queue     *mailbox.Bounded[Record]
	batchSize int
	logger    log.Logger
	started   *atomic.Bool
	stopOnce  sync.Once
	done      chan struct{}
	failures  *atomic.Uint64
}

// NewWriteBehindWorker creates a write-behind worker in front of the given
// log. Non-positive sizes fall back to the defaults.
func NewWriteBehindWorker(w *WAL, batchSize, queueCapacity int, logger log.Logger) *WriteBehindWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &WriteBehindWorker{
		wal:       w,
		queue:     mailbox.NewBounded[Record](queueCapacity, mailbox.DropOldest),
		batchSize: batchSize,
		logger:    logger,
		started:   atomic.NewBool(false),
		done:      make(chan struct{}),
		failures:  atomic.NewUint64(0),
	}
}

// Start launches the flusher loop. It is idempotent.
func (x *WriteBehindWorker) Start() {
	if x.started.Swap(true) {
		return
	}
	go x.run()
}

// Enqueue hands a dirty record to the flusher without blocking. When the
// queue is saturated the oldest pending record is evicted.
func (x *WriteBehindWorker) Enqueue(record Record) {
	if err := x.queue.Push(record); err != nil {
		x.logger.Warnf("write-behind enqueue dropped record for actor=%s key=%s: %v",
			record.ActorID, record.Key, err)
	}
}

// Stop stops the flusher after it has drained the pending records and the
// current batch. It is idempotent and blocks until the flusher has exited.
func (x *WriteBehindWorker) Stop() {
	x.stopOnce.Do(func() {
		x.queue.Stop()
	})
	if x.started.Load() {
		<-x.done
	}
}

// QueueSize returns the number of dirty records waiting to be flushed.
func (x *WriteBehindWorker) QueueSize() int {
	return x.queue.Size()
}

// Failures returns the number of records whose append failed and was
// dropped after logging.
func (x *WriteBehindWorker) Failures() uint64 {
	return x.failures.Load()
}

// run is the flusher loop: accumulate dirty records into a batch and flush
// when the batch is full or the pop timed out with a non-empty batch.
func (x *WriteBehindWorker) run() {
	defer close(x.done)

	batch := make([]Record, 0, x.batchSize)
	for {
		record, err := x.queue.WaitAndPop(popTimeout)
		switch {
		case err == nil:
			batch = append(batch, record)
			if len(batch) >= x.batchSize {
				x.flush(batch)
				batch = batch[:0]
			}
		case stderrors.Is(err, errors.ErrPopTimeout):
			if len(batch) > 0 {
				x.flush(batch)
				batch = batch[:0]
			}
		case stderrors.Is(err, errors.ErrMailboxStopped):
			if len(batch) > 0 {
				x.flush(batch)
			}
			return
		}
	}
}

// flush appends the batch to the log in insertion order. Failures are
// logged and counted, never propagated: in write-behind mode the in-memory
// state is allowed to run ahead of the log.
func (x *WriteBehindWorker) flush(batch []Record) {
	for _, record := range batch {
		if _, err := x.wal.Append(record.ActorID, record.Key, record.Value); err != nil {
			x.failures.Inc()
			x.logger.Errorf("write-behind flush failed for actor=%s key=%s: %v",
				record.ActorID, record.Key, err)
		}
	}
}
