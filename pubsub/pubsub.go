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

// Package pubsub implements the per-actor fan-out of change events to
// registered callbacks.
package pubsub

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/iquora/iquora/log"
)

// Callback receives a change event for one actor.
type Callback func(actorID, key string, value []byte)

// subscription is one registered callback. The mutex serializes invocation
// against deactivation so that a callback is never entered after
// Unsubscribe has returned.
type subscription struct {
	id       uint64
	mu       sync.Mutex
	active   bool
	callback Callback
}

// invoke runs the callback when the subscription is still active. Panics
// raised by the callback are recovered so one bad subscriber cannot starve
// the others.
func (s *subscription) invoke(logger log.Logger, actorID, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("subscriber %d for actor=%s panicked: %v", s.id, actorID, r)
		}
	}()
	s.callback(actorID, key, value)
}

// deactivate marks the subscription inactive. It blocks until any in-flight
// invocation has completed.
func (s *subscription) deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// list holds the subscriptions of a single actor. Subscription ids are
// assigned from a per-list monotone counter starting at 1.
type list struct {
	mu     sync.Mutex
	nextID *atomic.Uint64
	subs   []*subscription
}

func newList() *list {
	return &list{nextID: atomic.NewUint64(0)}
}

func (l *list) add(callback Callback) *subscription {
	sub := &subscription{
		id:       l.nextID.Inc(),
		active:   true,
		callback: callback,
	}
	l.mu.Lock()
	l.subs = append(l.subs, sub)
	l.mu.Unlock()
	return sub
}

func (l *list) remove(id uint64) (*subscription, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, sub := range l.subs {
		if sub.id == id {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return sub, true
		}
	}
	return nil, false
}

// snapshot copies the current subscriptions so callbacks run without the
// list lock held.
func (l *list) snapshot() []*subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*subscription, len(l.subs))
	copy(out, l.subs)
	return out
}

func (l *list) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// System maps actor ids to their subscription lists.
type System struct {
	mu     sync.Mutex
	lists  map[string]*list
	logger log.Logger
}

// New creates a subscription system.
func New(logger log.Logger) *System {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &System{
		lists:  make(map[string]*list),
		logger: logger,
	}
}

// Subscribe registers a callback for the given actor and returns the
// subscription id usable to unsubscribe. The list is created on first use.
func (x *System) Subscribe(actorID string, callback Callback) uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	l, ok := x.lists[actorID]
	if !ok {
		l = newList()
		x.lists[actorID] = l
	}
	return l.add(callback).id
}

// Unsubscribe removes the matching subscription. Once it returns the
// callback is guaranteed not to be invoked again. An empty list is erased
// from the map. Removal and erasure happen under the map lock so a
// concurrent Subscribe can never land on an orphaned list; deactivation
// happens outside it because it waits for in-flight callbacks, which may
// re-enter the fabric.
func (x *System) Unsubscribe(actorID string, subID uint64) bool {
	x.mu.Lock()
	l, ok := x.lists[actorID]
	if !ok {
		x.mu.Unlock()
		return false
	}
	sub, removed := l.remove(subID)
	if removed && l.size() == 0 {
		delete(x.lists, actorID)
	}
	x.mu.Unlock()

	if !removed {
		return false
	}
	sub.deactivate()
	return true
}

// Notify delivers one change event to every subscriber of the actor.
// The list is snapshot under lock; callbacks run outside the map and list
// locks so subscribers may re-enter the store without deadlocking.
func (x *System) Notify(actorID, key string, value []byte) {
	x.mu.Lock()
	l, ok := x.lists[actorID]
	x.mu.Unlock()
	if !ok {
		return
	}

	for _, sub := range l.snapshot() {
		sub.invoke(x.logger, actorID, key, value)
	}
}

// SubscriberCount returns the number of subscriptions for the actor.
func (x *System) SubscriberCount(actorID string) int {
	x.mu.Lock()
	l, ok := x.lists[actorID]
	x.mu.Unlock()
	if !ok {
		return 0
	}
	return l.size()
}
