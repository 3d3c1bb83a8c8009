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
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/future"
	"github.com/iquora/iquora/internal/validation"
	"github.com/iquora/iquora/lifecycle"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/mailbox"
	"github.com/iquora/iquora/scheduler"
	"github.com/iquora/iquora/store"
)

const (
	// stateKey is the store key under which serialized actor state lives.
	stateKey = "__state__"

	// consumeTimeout is the consumer's mailbox wait per iteration.
	consumeTimeout = 100 * time.Millisecond
)

// Ref is the runtime handle of one actor: it owns the actor's mailbox and
// consumer, forwards messages to the behavior and persists state through
// the versioned store.
type Ref[M any, R any] struct {
	actorID  string
	behavior Behavior[M, R]

	stateStore   store.Store
	lifecycle    *lifecycle.Lifecycle
	sched        *scheduler.Scheduler
	errorHandler ErrorHandler
	logger       log.Logger

	mailbox     *mailbox.Bounded[func()]
	capacity    int
	autoPersist bool

	stateMu      sync.Mutex
	initialized  *atomic.Bool
	stopped      *atomic.Bool
	consumerDone chan struct{}
}

// enforce compilation error
var _ Addressable = (*Ref[string, string])(nil)

// NewRef creates the runtime handle for the given behavior. The actor is
// inert until Initialize is called.
func NewRef[M any, R any](actorID string, behavior Behavior[M, R], opts ...RefOption[M, R]) *Ref[M, R] {
	ref := &Ref[M, R]{
		actorID:     actorID,
		behavior:    behavior,
		logger:      log.DefaultLogger,
		capacity:    mailbox.DefaultCapacity,
		initialized: atomic.NewBool(false),
		stopped:     atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(ref)
	}

	return ref
}

// Initialize registers the actor with the lifecycle when needed, loads the
// persisted state (or keeps the behavior's defaults when none exists) and
// starts the consumer. It is idempotent and fails fast on any error,
// leaving the actor uninitialized.
func (x *Ref[M, R]) Initialize() error {
	if x.initialized.Load() {
		return nil
	}

	if err := validation.New().AddValidator(validation.NewActorIDValidator(x.actorID)).Validate(); err != nil {
		return err
	}

	if x.lifecycle != nil && !x.lifecycle.IsActorActive(x.actorID) {
		if err := x.lifecycle.SpawnActor(x.actorID, nil); err != nil {
			return fmt.Errorf("initializing actor %s: %w", x.actorID, err)
		}
	}

	if err := x.LoadStateFromStore(); err != nil {
		return fmt.Errorf("initializing actor %s: %w", x.actorID, err)
	}

	x.mailbox = mailbox.NewBounded[func()](x.capacity, mailbox.Block)
	x.consumerDone = make(chan struct{})

	if x.sched != nil {
		// scheduler-dispatched actor: the dispatch loop is the consumer
		x.sched.Register(x.mailbox)
		close(x.consumerDone)
	} else {
		go x.consume()
	}

	x.stopped.Store(false)
	x.initialized.Store(true)
	return nil
}

// Tell enqueues a fire-and-forget message. With auto-persist enabled the
// actor state is persisted after the handler has run. Enqueue failures are
// surfaced through the error handler.
func (x *Ref[M, R]) Tell(msg M) {
	if !x.initialized.Load() {
		x.handleError(errors.ErrNotInitialized)
		return
	}

	item := func() {
		if err := x.behavior.OnMessage(msg); err != nil {
			x.handleError(err)
		}
		if x.autoPersist {
			if err := x.PersistState(); err != nil {
				x.handleError(err)
			}
		}
	}

	if err := x.mailbox.Push(item); err != nil {
		x.handleError(fmt.Errorf("enqueue for actor %s: %w", x.actorID, err))
	}
}

// Ask enqueues a result-returning message and returns the future that the
// handler's result will complete. Ask cannot be used when the result type
// is NoResult.
func (x *Ref[M, R]) Ask(msg M) (*future.Future[R], error) {
	var zero R
	if _, unit := any(zero).(NoResult); unit {
		return nil, errors.ErrAskNotSupported
	}
	if !x.initialized.Load() {
		return nil, errors.ErrNotInitialized
	}

	f := future.New[R]()
	item := func() {
		result, err := x.behavior.OnMessageWithResult(msg)
		if err != nil {
			x.handleError(err)
			f.Failure(err)
			return
		}
		if x.autoPersist {
			if err := x.PersistState(); err != nil {
				x.handleError(err)
			}
		}
		f.Success(result)
	}

	if err := x.mailbox.Push(item); err != nil {
		err = fmt.Errorf("enqueue for actor %s: %w", x.actorID, err)
		x.handleError(err)
		return nil, err
	}
	return f, nil
}

// Stop stops the mailbox, joins the consumer and terminates the actor via
// the lifecycle. It is idempotent.
func (x *Ref[M, R]) Stop() {
	if !x.initialized.Load() || x.stopped.Swap(true) {
		return
	}

	x.mailbox.Stop()
	if x.sched != nil {
		x.sched.Deregister(x.mailbox)
	}
	<-x.consumerDone

	if x.lifecycle != nil && x.lifecycle.IsActorActive(x.actorID) {
		if err := x.lifecycle.TerminateActor(x.actorID, false); err != nil {
			x.logger.Errorf("terminating actor %s: %v", x.actorID, err)
		}
	}

	x.initialized.Store(false)
}

// ActorID returns the actor id.
func (x *Ref[M, R]) ActorID() string {
	return x.actorID
}

// IsInitialized reports whether the actor is initialized and consuming.
func (x *Ref[M, R]) IsInitialized() bool {
	return x.initialized.Load()
}

// QueueSize returns the number of pending work items.
func (x *Ref[M, R]) QueueSize() int {
	if x.mailbox == nil {
		return 0
	}
	return x.mailbox.Size()
}

// PersistState serializes the behavior state under the state mutex and
// writes it through the store, so persistence participates in the WAL and
// subscriber notification like any other mutation.
func (x *Ref[M, R]) PersistState() error {
	if x.stateStore == nil {
		return nil
	}

	x.stateMu.Lock()
	defer x.stateMu.Unlock()

	data, err := x.behavior.SerializeState()
	if err != nil {
		return fmt.Errorf("serializing state of actor %s: %w", x.actorID, err)
	}
	if err := x.stateStore.Set(x.actorID, stateKey, data, 0); err != nil {
		return fmt.Errorf("persisting state of actor %s: %w", x.actorID, err)
	}
	return nil
}

// LoadStateFromStore restores the behavior state from the store. A missing
// state entry keeps the behavior's defaults.
func (x *Ref[M, R]) LoadStateFromStore() error {
	if x.stateStore == nil {
		return nil
	}

	x.stateMu.Lock()
	defer x.stateMu.Unlock()

	data, found := x.stateStore.Get(x.actorID, stateKey)
	if !found {
		return nil
	}
	if err := x.behavior.DeserializeState(data); err != nil {
		return fmt.Errorf("deserializing state of actor %s: %w", x.actorID, err)
	}
	return nil
}

// consume is the actor's consumer loop. Work items run under catch-all
// recovery; failures reach the error handler and never kill the consumer.
func (x *Ref[M, R]) consume() {
	defer close(x.consumerDone)

	for {
		item, err := x.mailbox.WaitAndPop(consumeTimeout)
		switch {
		case err == nil:
			x.runSafely(item)
		case stderrors.Is(err, errors.ErrPopTimeout):
			continue
		case stderrors.Is(err, errors.ErrMailboxStopped):
			return
		}
	}
}

// runSafely executes one work item, converting panics into handler errors.
func (x *Ref[M, R]) runSafely(item func()) {
	defer func() {
		if r := recover(); r != nil {
			x.handleError(fmt.Errorf("handler panicked: %v", r))
		}
	}()
	item()
}

// handleError routes a failure to the configured handler, defaulting to the
// logger.
func (x *Ref[M, R]) handleError(err error) {
	if x.errorHandler != nil {
		x.errorHandler.HandleError(x.actorID, err)
		return
	}
	x.logger.Errorf("actor %s: %v", x.actorID, err)
}
