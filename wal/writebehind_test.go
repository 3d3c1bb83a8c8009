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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iquora/iquora/log"
)

func TestWriteBehind(t *testing.T) {
	t.Run("With_batched_flush_preserving_order", func(t *testing.T) {
		// batch=3, enqueue five records: after the flush cycles the log
		// holds exactly those five entries in seq_no order
		w := openTestWAL(t)
		worker := NewWriteBehindWorker(w, 3, 16, log.DiscardLogger)
		worker.Start()

		for i := 1; i <= 5; i++ {
			worker.Enqueue(Record{
				ActorID: "a1",
				Key:     fmt.Sprintf("k%d", i),
				Value:   []byte(fmt.Sprintf("v%d", i)),
			})
		}

		require.Eventually(t, func() bool {
			return w.LastSeqNo() == 5
		}, time.Second, 10*time.Millisecond)

		var entries []Entry
		w.SetReplayHandler(func(entry Entry) {
			entries = append(entries, entry)
		})
		replayed, skipped, err := w.Replay()
		require.NoError(t, err)
		assert.Equal(t, 5, replayed)
		assert.Zero(t, skipped)

		for i, entry := range entries {
			assert.Equal(t, uint64(i+1), entry.SeqNo)
			assert.Equal(t, fmt.Sprintf("k%d", i+1), entry.Key)
			assert.Equal(t, []byte(fmt.Sprintf("v%d", i+1)), entry.Value)
		}
		worker.Stop()
	})

	t.Run("With_stop_draining_current_batch", func(t *testing.T) {
		w := openTestWAL(t)
		worker := NewWriteBehindWorker(w, 100, 16, log.DiscardLogger)
		worker.Start()

		worker.Enqueue(Record{ActorID: "a1", Key: "k1", Value: []byte("v1")})
		worker.Enqueue(Record{ActorID: "a1", Key: "k2", Value: []byte("v2")})
		worker.Stop()

		// Stop joined the flusher, so the records are durable now
		assert.Equal(t, uint64(2), w.LastSeqNo())
	})

	t.Run("With_saturation_dropping_oldest", func(t *testing.T) {
		w := openTestWAL(t)
		// tiny queue, not started: pushes saturate the queue
		worker := NewWriteBehindWorker(w, 10, 2, log.DiscardLogger)

		for i := 1; i <= 5; i++ {
			worker.Enqueue(Record{ActorID: "a1", Key: fmt.Sprintf("k%d", i), Value: []byte("v")})
		}
		assert.Equal(t, 2, worker.QueueSize())

		worker.Start()
		worker.Stop()

		// the most recent writes won
		var keys []string
		w.SetReplayHandler(func(entry Entry) { keys = append(keys, entry.Key) })
		_, _, err := w.Replay()
		require.NoError(t, err)
		assert.Equal(t, []string{"k4", "k5"}, keys)
	})
}
