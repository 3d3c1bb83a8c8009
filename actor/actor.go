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

// Package actor provides the actor runtime: a message- and result-typed
// behavior executed by a private mailbox consumer, with optional
// write-through state persistence.
package actor

// Behavior is the hook set a user actor implements. The runtime serializes
// every invocation through the actor's mailbox, so implementations never
// see concurrent calls.
type Behavior[M any, R any] interface {
	// OnMessage handles a fire-and-forget message.
	OnMessage(msg M) error
	// OnMessageWithResult handles a message and produces a result for Ask.
	OnMessageWithResult(msg M) (R, error)
	// SerializeState renders the actor state for persistence.
	SerializeState() ([]byte, error)
	// DeserializeState restores the actor state from its persisted form.
	DeserializeState(data []byte) error
}

// ErrorHandler receives every failure raised inside a handler, during
// persistence or on enqueue. Hosts may log, count or escalate.
type ErrorHandler interface {
	HandleError(actorID string, err error)
}

// NoResult marks an actor behavior that produces no Ask results. Ask on a
// Ref[M, NoResult] fails with errors.ErrAskNotSupported.
type NoResult struct{}

// Addressable is the capability set a host needs from an actor without
// knowing its message or result types.
type Addressable interface {
	// ActorID returns the actor id.
	ActorID() string
	// IsInitialized reports whether the actor is initialized and consuming.
	IsInitialized() bool
	// QueueSize returns the number of pending work items.
	QueueSize() int
	// Stop stops the actor. It is idempotent.
	Stop()
}
