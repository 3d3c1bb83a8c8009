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

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/mailbox"
	"github.com/iquora/iquora/workerpool"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	pool := workerpool.New(workerpool.WithSize(4), workerpool.WithLogger(log.DiscardLogger))
	s := New(pool, WithLogger(log.DiscardLogger))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func TestDispatch(t *testing.T) {
	t.Run("With_registered_mailbox_making_progress", func(t *testing.T) {
		s := newTestScheduler(t)

		mb := mailbox.NewBounded[func()](16, mailbox.Block)
		s.Register(mb)

		counter := atomic.NewInt64(0)
		for i := 0; i < 10; i++ {
			require.NoError(t, mb.Push(func() { counter.Inc() }))
		}

		require.Eventually(t, func() bool {
			return counter.Load() == 10
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("With_deregistered_mailbox_ignored", func(t *testing.T) {
		s := newTestScheduler(t)

		mb := mailbox.NewBounded[func()](16, mailbox.Block)
		s.Register(mb)
		s.Deregister(mb)

		fired := atomic.NewBool(false)
		require.NoError(t, mb.Push(func() { fired.Store(true) }))

		time.Sleep(100 * time.Millisecond)
		assert.False(t, fired.Load())
		assert.Equal(t, 1, mb.Size())
	})

	t.Run("With_panicking_work_item_contained", func(t *testing.T) {
		s := newTestScheduler(t)

		mb := mailbox.NewBounded[func()](16, mailbox.Block)
		s.Register(mb)

		require.NoError(t, mb.Push(func() { panic("bad item") }))
		done := atomic.NewBool(false)
		require.NoError(t, mb.Push(func() { done.Store(true) }))

		require.Eventually(t, done.Load, time.Second, 10*time.Millisecond)
	})
}

func TestTimedTasks(t *testing.T) {
	t.Run("With_schedule_at", func(t *testing.T) {
		s := newTestScheduler(t)

		fired := make(chan struct{})
		require.NoError(t, s.ScheduleAt(time.Now().Add(50*time.Millisecond), func() {
			close(fired)
		}))

		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("timed task never fired")
		}
	})

	t.Run("With_schedule_every", func(t *testing.T) {
		s := newTestScheduler(t)

		counter := atomic.NewInt64(0)
		require.NoError(t, s.ScheduleEvery(30*time.Millisecond, func() {
			counter.Inc()
		}))

		require.Eventually(t, func() bool {
			return counter.Load() >= 3
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestShutdown(t *testing.T) {
	t.Run("With_no_work_after_shutdown", func(t *testing.T) {
		pool := workerpool.New(workerpool.WithSize(2), workerpool.WithLogger(log.DiscardLogger))
		s := New(pool, WithLogger(log.DiscardLogger))
		require.NoError(t, s.Start(context.Background()))

		mb := mailbox.NewBounded[func()](16, mailbox.Block)
		s.Register(mb)

		s.Shutdown(context.Background())

		// registered mailboxes were stopped by the cascade
		assert.ErrorIs(t, mb.Push(func() {}), errors.ErrMailboxStopped)
		assert.ErrorIs(t, s.ScheduleAt(time.Now(), func() {}), errors.ErrSchedulerStopped)
		assert.ErrorIs(t, s.ScheduleEvery(time.Second, func() {}), errors.ErrSchedulerStopped)
	})

	t.Run("With_idempotent_shutdown", func(t *testing.T) {
		pool := workerpool.New(workerpool.WithSize(1), workerpool.WithLogger(log.DiscardLogger))
		s := New(pool, WithLogger(log.DiscardLogger))
		require.NoError(t, s.Start(context.Background()))
		s.Shutdown(context.Background())
		s.Shutdown(context.Background())
	})

	t.Run("With_undispatched_timed_tasks_dropped", func(t *testing.T) {
		pool := workerpool.New(workerpool.WithSize(1), workerpool.WithLogger(log.DiscardLogger))
		s := New(pool, WithLogger(log.DiscardLogger))
		require.NoError(t, s.Start(context.Background()))

		fired := atomic.NewBool(false)
		require.NoError(t, s.ScheduleAt(time.Now().Add(time.Hour), func() {
			fired.Store(true)
		}))

		s.Shutdown(context.Background())
		assert.False(t, fired.Load())
	})
}
