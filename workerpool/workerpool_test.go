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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/log"
)

func TestPool(t *testing.T) {
	t.Run("With_task_execution", func(t *testing.T) {
		pool := New(WithSize(4), WithLogger(log.DiscardLogger))
		pool.Start()

		counter := atomic.NewInt64(0)
		for i := 0; i < 100; i++ {
			require.NoError(t, pool.Submit(func() {
				counter.Inc()
			}))
		}
		pool.Stop()
		assert.EqualValues(t, 100, counter.Load())
	})

	t.Run("With_submit_before_start", func(t *testing.T) {
		pool := New(WithSize(1), WithLogger(log.DiscardLogger))
		err := pool.Submit(func() {})
		assert.ErrorIs(t, err, errors.ErrPoolNotStarted)
	})

	t.Run("With_submit_after_stop", func(t *testing.T) {
		pool := New(WithSize(1), WithLogger(log.DiscardLogger))
		pool.Start()
		pool.Stop()
		err := pool.Submit(func() {})
		assert.ErrorIs(t, err, errors.ErrPoolStopped)
	})

	t.Run("With_panicking_task", func(t *testing.T) {
		pool := New(WithSize(1), WithLogger(log.DiscardLogger))
		pool.Start()

		require.NoError(t, pool.Submit(func() {
			panic("boom")
		}))

		done := make(chan struct{})
		require.NoError(t, pool.Submit(func() {
			close(done)
		}))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker died after a panicking task")
		}
		pool.Stop()
	})

	t.Run("With_idempotent_lifecycle", func(t *testing.T) {
		pool := New(WithSize(2), WithLogger(log.DiscardLogger))
		pool.Start()
		pool.Start()
		assert.True(t, pool.IsStarted())
		assert.Equal(t, 2, pool.Size())
		pool.Stop()
		pool.Stop()
	})

	t.Run("With_stop_draining_queued_tasks", func(t *testing.T) {
		pool := New(WithSize(1), WithQueueSize(50), WithLogger(log.DiscardLogger))
		pool.Start()

		counter := atomic.NewInt64(0)
		for i := 0; i < 50; i++ {
			require.NoError(t, pool.Submit(func() {
				time.Sleep(time.Millisecond)
				counter.Inc()
			}))
		}
		pool.Stop()
		assert.EqualValues(t, 50, counter.Load())
	})
}
