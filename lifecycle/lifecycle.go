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

// Package lifecycle tracks the set of active actors and runs the
// spawn/terminate hooks around membership changes. Membership is
// authoritative: actors not in the set do not exist for any other
// component.
package lifecycle

import (
	"fmt"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/internal/validation"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/store"
)

// Hook is a lifecycle callback invoked with the actor id around spawn and
// terminate transitions. Hooks run while the lifecycle lock is held, so
// they should stay short; panics and errors are swallowed after logging.
type Hook func(actorID string)

// Lifecycle owns the active-actor set. The legal transitions per actor id
// are Nonexistent -> Active (spawn) and Active -> Nonexistent (terminate);
// re-spawning after terminate begins a new lifecycle.
type Lifecycle struct {
	mu     sync.Mutex
	active goset.Set[string]
	store  store.Store
	logger log.Logger

	preSpawnHook      Hook
	postSpawnHook     Hook
	preTerminateHook  Hook
	postTerminateHook Hook
}

// New creates a Lifecycle over the given store.
func New(s store.Store, logger log.Logger) *Lifecycle {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Lifecycle{
		active: goset.NewSet[string](),
		store:  s,
		logger: logger,
	}
}

// RegisterPreSpawnHook sets the hook run before an actor is marked active.
func (x *Lifecycle) RegisterPreSpawnHook(hook Hook) {
	x.mu.Lock()
	x.preSpawnHook = hook
	x.mu.Unlock()
}

// RegisterPostSpawnHook sets the hook run after an actor is marked active.
func (x *Lifecycle) RegisterPostSpawnHook(hook Hook) {
	x.mu.Lock()
	x.postSpawnHook = hook
	x.mu.Unlock()
}

// RegisterPreTerminateHook sets the hook run before an actor is unmarked.
func (x *Lifecycle) RegisterPreTerminateHook(hook Hook) {
	x.mu.Lock()
	x.preTerminateHook = hook
	x.mu.Unlock()
}

// RegisterPostTerminateHook sets the hook run after an actor is unmarked.
func (x *Lifecycle) RegisterPostTerminateHook(hook Hook) {
	x.mu.Lock()
	x.postTerminateHook = hook
	x.mu.Unlock()
}

// SpawnActor validates the id, requires that the actor is not already
// active, seeds the store with the initial state and marks the actor
// active. On any store failure the active mark is not set.
func (x *Lifecycle) SpawnActor(actorID string, initialState map[string][]byte) error {
	if err := validation.New().AddValidator(validation.NewActorIDValidator(actorID)).Validate(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.active.Contains(actorID) {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateActor, actorID)
	}

	x.runHook(x.preSpawnHook, actorID, "pre-spawn")

	for key, value := range initialState {
		if err := x.store.Set(actorID, key, value, 0); err != nil {
			return fmt.Errorf("seeding actor %s: %w", actorID, err)
		}
	}

	x.active.Add(actorID)
	x.runHook(x.postSpawnHook, actorID, "post-spawn")

	x.logger.Infof("actor %s spawned", actorID)
	return nil
}

// TerminateActor requires the actor to be active and unmarks it. With
// force set, the actor's keyspace is cleared before the mark is dropped.
func (x *Lifecycle) TerminateActor(actorID string, force bool) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.active.Contains(actorID) {
		return fmt.Errorf("%w: %s", errors.ErrActorNotFound, actorID)
	}

	x.runHook(x.preTerminateHook, actorID, "pre-terminate")

	if force {
		removed := x.store.DeleteActorState(actorID)
		x.logger.Infof("cleared %d entr(ies) of actor %s", removed, actorID)
	}

	x.active.Remove(actorID)
	x.runHook(x.postTerminateHook, actorID, "post-terminate")

	x.logger.Infof("actor %s terminated", actorID)
	return nil
}

// ActorExists reports whether the actor id is in the active set.
func (x *Lifecycle) ActorExists(actorID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.active.Contains(actorID)
}

// IsActorActive reports whether the actor is active.
func (x *Lifecycle) IsActorActive(actorID string) bool {
	return x.ActorExists(actorID)
}

// GetActiveActors returns the ids of every active actor.
func (x *Lifecycle) GetActiveActors() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.active.ToSlice()
}

// GetActiveActorCount returns the number of active actors.
func (x *Lifecycle) GetActiveActorCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.active.Cardinality()
}

// runHook executes a hook, swallowing panics so that a misbehaving hook
// cannot block a lifecycle transition or blow up the lock hold time.
func (x *Lifecycle) runHook(hook Hook, actorID, name string) {
	if hook == nil {
		return
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			x.logger.Errorf("%s hook for actor %s panicked: %v", name, actorID, r)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			x.logger.Warnf("%s hook for actor %s held the lifecycle lock for %s", name, actorID, elapsed)
		}
	}()
	hook(actorID)
}
