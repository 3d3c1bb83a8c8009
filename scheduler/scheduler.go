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

// Package scheduler dispatches registered actor mailboxes onto the worker
// pool and runs timed tasks.
package scheduler

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/mailbox"
	"github.com/iquora/iquora/workerpool"
)

const (
	// drainTimeout is the per-item wait when draining a registered mailbox.
	drainTimeout = 50 * time.Millisecond

	// idleSleep is the pause between passes when every mailbox was empty.
	idleSleep = 10 * time.Millisecond

	// defaultStopTimeout bounds the wait for in-flight timed tasks at
	// shutdown.
	defaultStopTimeout = 3 * time.Second
)

// Mailbox is the scheduler's view of an actor mailbox: a queue of opaque
// work items. The concrete message type is known only to the actor runtime.
type Mailbox = mailbox.Mailbox[func()]

// Scheduler owns the registered mailbox list and a quartz scheduler for
// timed tasks. The actor-dispatch loop runs on a pool worker; a non-empty
// registered mailbox is guaranteed to make progress.
type Scheduler struct {
	mu        sync.Mutex
	mailboxes []Mailbox

	pool            *workerpool.Pool
	quartzScheduler quartz.Scheduler

	started     *atomic.Bool
	done        *atomic.Bool
	loopDone    chan struct{}
	logger      log.Logger
	stopTimeout time.Duration
}

// New creates a Scheduler owning the given worker pool.
func New(pool *workerpool.Pool, opts ...Option) *Scheduler {
	quartzScheduler, _ := quartz.NewStdScheduler(
		quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))

	s := &Scheduler{
		pool:            pool,
		quartzScheduler: quartzScheduler,
		started:         atomic.NewBool(false),
		done:            atomic.NewBool(false),
		loopDone:        make(chan struct{}),
		logger:          log.DefaultLogger,
		stopTimeout:     defaultStopTimeout,
	}

	for _, opt := range opts {
		opt.Apply(s)
	}

	return s
}

// Start starts the pool when necessary, launches the actor-dispatch loop on
// it and starts the timed-task scheduler. It is idempotent.
func (x *Scheduler) Start(ctx context.Context) error {
	if x.started.Swap(true) {
		return nil
	}

	x.pool.Start()
	x.quartzScheduler.Start(ctx)

	if err := x.pool.Submit(x.dispatchLoop); err != nil {
		close(x.loopDone)
		return err
	}

	x.logger.Info("scheduler started")
	return nil
}

// Register pushes a reference to the actor's mailbox onto the dispatch list.
func (x *Scheduler) Register(mb Mailbox) {
	x.mu.Lock()
	x.mailboxes = append(x.mailboxes, mb)
	x.mu.Unlock()
}

// Deregister removes the matching mailbox reference.
func (x *Scheduler) Deregister(mb Mailbox) {
	x.mu.Lock()
	for i, registered := range x.mailboxes {
		if registered == mb {
			x.mailboxes = append(x.mailboxes[:i], x.mailboxes[i+1:]...)
			break
		}
	}
	x.mu.Unlock()
}

// ScheduleAt schedules fn to run once at the given instant. Tasks scheduled
// in the past fire immediately.
func (x *Scheduler) ScheduleAt(when time.Time, fn func()) error {
	if x.done.Load() {
		return errors.ErrSchedulerStopped
	}

	delay := time.Until(when)
	if delay < 0 {
		delay = 0
	}

	detail := quartz.NewJobDetail(x.newTaskJob(fn), quartz.NewJobKey(uuid.NewString()))
	return x.quartzScheduler.ScheduleJob(detail, quartz.NewRunOnceTrigger(delay))
}

// ScheduleEvery schedules fn to run repeatedly at the given interval,
// starting at now + interval.
func (x *Scheduler) ScheduleEvery(interval time.Duration, fn func()) error {
	if x.done.Load() {
		return errors.ErrSchedulerStopped
	}

	detail := quartz.NewJobDetail(x.newTaskJob(fn), quartz.NewJobKey(uuid.NewString()))
	return x.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(interval))
}

// Shutdown stops the timed-task scheduler (tasks not yet dispatched are
// dropped, in-flight tasks complete), stops every registered mailbox so
// their consumers unblock, waits for the dispatch loop and stops the pool.
func (x *Scheduler) Shutdown(ctx context.Context) {
	if !x.started.Load() || x.done.Swap(true) {
		return
	}

	x.logger.Info("scheduler shutting down...")

	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, x.stopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(waitCtx)

	x.mu.Lock()
	mailboxes := make([]Mailbox, len(x.mailboxes))
	copy(mailboxes, x.mailboxes)
	x.mailboxes = nil
	x.mu.Unlock()

	for _, mb := range mailboxes {
		mb.Stop()
	}

	<-x.loopDone
	x.pool.Stop()

	x.logger.Info("scheduler stopped")
}

// dispatchLoop iterates the registered mailboxes, draining each bounded by
// its current size, and executes the drained work items on this pool
// worker. Empty passes sleep briefly to avoid busy-spinning.
func (x *Scheduler) dispatchLoop() {
	defer close(x.loopDone)

	for !x.done.Load() {
		drained := false
		for _, mb := range x.snapshot() {
			budget := mb.Size()
			for i := 0; i < budget; i++ {
				item, err := mb.WaitAndPop(drainTimeout)
				if err != nil {
					break
				}
				drained = true
				x.execute(item)
			}
		}
		if !drained {
			time.Sleep(idleSleep)
		}
	}
}

// snapshot copies the mailbox list so draining runs without the lock held.
func (x *Scheduler) snapshot() []Mailbox {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]Mailbox, len(x.mailboxes))
	copy(out, x.mailboxes)
	return out
}

// execute runs one work item under panic recovery.
func (x *Scheduler) execute(item func()) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Errorf("dispatched work item panicked: %v", r)
		}
	}()
	item()
}

// newTaskJob wraps a timed task: when it fires, the task body is submitted
// to the pool. Task panics are recovered on the pool side; submit failures
// after shutdown are expected and logged at debug.
func (x *Scheduler) newTaskJob(fn func()) quartz.Job {
	return job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		if err := x.pool.Submit(fn); err != nil {
			if stderrors.Is(err, errors.ErrPoolStopped) {
				x.logger.Debugf("timed task dropped: %v", err)
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
}
