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

// Package store implements the versioned key/value store with per-actor
// namespaces, TTL sweeping and optimistic concurrency.
package store

import (
	"time"

	"github.com/iquora/iquora/pubsub"
)

// DurabilityMode selects how mutations reach the write-ahead log.
type DurabilityMode int

const (
	// WriteAhead flushes the WAL record before a mutation is acknowledged.
	WriteAhead DurabilityMode = iota
	// WriteBehind acknowledges first and batches WAL records off the hot
	// path, trading durability for latency.
	WriteBehind
)

// String returns the string representation of the durability mode.
func (m DurabilityMode) String() string {
	switch m {
	case WriteAhead:
		return "write-ahead"
	case WriteBehind:
		return "write-behind"
	default:
		return "unknown"
	}
}

// ValueMetadata is the unit stored for each (actor id, key) pair.
type ValueMetadata struct {
	// Value is the opaque byte string stored for the key.
	Value []byte
	// Version is a monotonically increasing counter bumped on every
	// successful mutation of the entry.
	Version uint64
	// CreatedAt is the wall-clock instant of the first insert.
	CreatedAt time.Time
	// LastAccessed is the wall-clock instant of the last read or write.
	LastAccessed time.Time
	// ExpiresAt is the wall-clock expiry instant; nil means never.
	ExpiresAt *time.Time
}

// Store is the contract of the versioned key/value state store.
type Store interface {
	// Set upserts the value for (actorID, key), bumping the entry version.
	// A positive ttl arms expiry at now+ttl; a non-positive ttl leaves the
	// entry permanent. The mutation is logged and subscribers are notified.
	Set(actorID, key string, value []byte, ttl time.Duration) error
	// Get returns the value for (actorID, key). Absent and expired entries
	// report found == false. A hit touches the access stamp.
	Get(actorID, key string) (value []byte, found bool)
	// GetMetadata returns a copy of the entry metadata.
	GetMetadata(actorID, key string) (ValueMetadata, bool)
	// Delete removes the entry if present and reports whether it did.
	// Deletes are not logged to the WAL.
	Delete(actorID, key string) bool
	// SetIfVersion behaves like Set when the stored version equals
	// expectedVersion and is a no-op otherwise. The boolean reports whether
	// the swap happened. It is linearizable with respect to every other
	// store operation.
	SetIfVersion(actorID, key string, value []byte, expectedVersion uint64) (bool, error)
	// DeleteActorState clears the whole namespace of the actor and returns
	// the number of entries removed.
	DeleteActorState(actorID string) int
	// CleanupExpired sweeps the TTL index and removes expired entries,
	// returning how many were dropped.
	CleanupExpired() int
	// Subscribe registers a change callback for the actor.
	Subscribe(actorID string, callback pubsub.Callback) uint64
	// Unsubscribe removes a change callback.
	Unsubscribe(actorID string, subID uint64) bool
	// SubscriberCount returns the number of subscribers of the actor.
	SubscriberCount(actorID string) int
	// Snapshot writes the full store contents to the file at path.
	Snapshot(path string) error
	// RecoverFromSnapshot replaces the store contents with the snapshot at
	// path.
	RecoverFromSnapshot(path string) error
	// Close releases the resources owned by the store.
	Close() error
}
