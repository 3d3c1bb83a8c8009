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

// Package workerpool provides a fixed-size worker pool for concurrent task
// execution. Submitted tasks run under panic recovery so a failing task
// cannot take down its worker.
package workerpool

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/log"
)

// Pool manages a fixed set of worker goroutines draining a shared task queue.
type Pool struct {
	size      int
	queueSize int
	tasks     chan func()
	mu        sync.RWMutex
	started   *atomic.Bool
	stopped   *atomic.Bool
	wg        sync.WaitGroup
	logger    log.Logger
}

// New creates a new worker pool with the given options. The default size is
// the hardware concurrency and the default queue depth is twice the size.
func New(opts ...Option) *Pool {
	pool := &Pool{
		size:    runtime.NumCPU(),
		started: atomic.NewBool(false),
		stopped: atomic.NewBool(false),
		logger:  log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(pool)
	}

	if pool.size < 1 {
		pool.size = 1
	}
	if pool.queueSize <= 0 {
		pool.queueSize = 2 * pool.size
	}

	return pool
}

// Start spawns the workers. It is safe to call Start multiple times.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started.Load() {
		return
	}

	p.tasks = make(chan func(), p.queueSize)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work()
	}
	p.started.Store(true)
}

// Submit hands a task to the pool. It blocks while the task queue is full
// and returns an error when the pool has not started or has been stopped.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.started.Load() {
		return errors.ErrPoolNotStarted
	}
	if p.stopped.Load() {
		return errors.ErrPoolStopped
	}
	p.tasks <- task
	return nil
}

// Stop gracefully shuts the pool down: queued tasks are drained, then the
// workers exit. Stop blocks until every worker has returned and is
// idempotent.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started.Load() || p.stopped.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// IsStarted reports whether the pool has started.
func (p *Pool) IsStarted() bool {
	return p.started.Load()
}

// work is the main worker loop.
func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes a single task under panic recovery.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("worker pool task panicked: %v", r)
		}
	}()
	task()
}
