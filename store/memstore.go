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

package store

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/iquora/iquora/internal/validation"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/pubsub"
	"github.com/iquora/iquora/wal"
	"github.com/iquora/iquora/workerpool"
)

// entry is the in-memory representation of one (actor, key) value.
// Mutations happen under the store's exclusive lock; lastAccessedMs is
// atomic because readers touch it while holding only the shared lock.
type entry struct {
	value          []byte
	version        uint64
	createdAt      time.Time
	lastAccessedMs *atomic.Int64
	// expiresAtMs is the expiry instant in unix milliseconds, 0 for never
	expiresAtMs int64
}

func (e *entry) expired(now time.Time) bool {
	return e.expiresAtMs > 0 && e.expiresAtMs < now.UnixMilli()
}

func (e *entry) metadata() ValueMetadata {
	meta := ValueMetadata{
		Value:        append([]byte(nil), e.value...),
		Version:      e.version,
		CreatedAt:    e.createdAt,
		LastAccessed: time.UnixMilli(e.lastAccessedMs.Load()),
	}
	if e.expiresAtMs > 0 {
		expiry := time.UnixMilli(e.expiresAtMs)
		meta.ExpiresAt = &expiry
	}
	return meta
}

// ttlKey identifies an entry known to carry an expiry.
type ttlKey struct {
	actorID string
	key     string
}

// MemStore is the in-memory implementation of Store. Reads take a shared
// lock; every mutator takes the exclusive lock, which also totally orders
// writes per (actor, key) and makes SetIfVersion linearizable.
type MemStore struct {
	mu    sync.RWMutex
	store map[string]map[string]*entry

	ttlMu    sync.Mutex
	ttlIndex map[ttlKey]struct{}

	walLog      *wal.WAL
	writeBehind *wal.WriteBehindWorker
	mode        DurabilityMode

	pool   *workerpool.Pool
	subs   *pubsub.System
	logger log.Logger

	writeBehindBatchSize int
	writeBehindCapacity  int
}

// enforce compilation error
var _ Store = (*MemStore)(nil)

// NewMemStore creates a MemStore. Without a WAL the store is purely
// in-memory; with one, mutations are logged according to the durability
// mode. When a worker pool is supplied, notification fan-out is offloaded
// to it and Set returns before subscribers have observed the event.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		store:    make(map[string]map[string]*entry),
		ttlIndex: make(map[ttlKey]struct{}),
		mode:     WriteAhead,
		logger:   log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(s)
	}

	s.subs = pubsub.New(s.logger)

	if s.mode == WriteBehind && s.walLog != nil {
		s.writeBehind = wal.NewWriteBehindWorker(s.walLog, s.writeBehindBatchSize, s.writeBehindCapacity, s.logger)
		s.writeBehind.Start()
	}

	return s
}

// Set upserts the value for (actorID, key). See Store.Set.
func (s *MemStore) Set(actorID, key string, value []byte, ttl time.Duration) error {
	if err := validatePair(actorID, key); err != nil {
		return err
	}

	now := time.Now()

	// the WAL append happens under the exclusive lock so that log order
	// matches version order; notification runs with the lock released
	s.mu.Lock()
	s.upsertLocked(actorID, key, value, ttl, now)
	logErr := s.logMutation(actorID, key, value)
	s.mu.Unlock()

	if ttl > 0 {
		s.addTTLIndex(actorID, key)
	} else {
		s.dropTTLIndex(actorID, key)
	}

	if logErr != nil {
		// the state change stays visible; the write is not acknowledged
		return logErr
	}

	s.notify(actorID, key, value)
	return nil
}

// SetIfVersion performs the compare-and-set. See Store.SetIfVersion.
func (s *MemStore) SetIfVersion(actorID, key string, value []byte, expectedVersion uint64) (bool, error) {
	if err := validatePair(actorID, key); err != nil {
		return false, err
	}

	now := time.Now()

	s.mu.Lock()
	actorSpace, ok := s.store[actorID]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	e, ok := actorSpace[key]
	if !ok || e.expired(now) || e.version != expectedVersion {
		s.mu.Unlock()
		return false, nil
	}
	e.value = append([]byte(nil), value...)
	e.version++
	e.lastAccessedMs.Store(now.UnixMilli())
	logErr := s.logMutation(actorID, key, value)
	s.mu.Unlock()

	if logErr != nil {
		return false, logErr
	}

	s.notify(actorID, key, value)
	return true, nil
}

// Get returns the value for (actorID, key). See Store.Get.
func (s *MemStore) Get(actorID, key string) ([]byte, bool) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	actorSpace, ok := s.store[actorID]
	if !ok {
		return nil, false
	}
	e, ok := actorSpace[key]
	if !ok || e.expired(now) {
		return nil, false
	}

	e.lastAccessedMs.Store(now.UnixMilli())
	return append([]byte(nil), e.value...), true
}

// GetMetadata returns a copy of the entry metadata. Expired entries report
// not found. The access stamp is not touched.
func (s *MemStore) GetMetadata(actorID, key string) (ValueMetadata, bool) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	actorSpace, ok := s.store[actorID]
	if !ok {
		return ValueMetadata{}, false
	}
	e, ok := actorSpace[key]
	if !ok || e.expired(now) {
		return ValueMetadata{}, false
	}
	return e.metadata(), true
}

// Delete removes the entry if present. See Store.Delete.
func (s *MemStore) Delete(actorID, key string) bool {
	s.mu.Lock()
	actorSpace, ok := s.store[actorID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if _, ok := actorSpace[key]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(actorSpace, key)
	if len(actorSpace) == 0 {
		delete(s.store, actorID)
	}
	s.mu.Unlock()

	s.dropTTLIndex(actorID, key)
	return true
}

// DeleteActorState clears the whole namespace of the actor.
func (s *MemStore) DeleteActorState(actorID string) int {
	s.mu.Lock()
	actorSpace, ok := s.store[actorID]
	if !ok {
		s.mu.Unlock()
		return 0
	}
	removed := len(actorSpace)
	keys := make([]string, 0, removed)
	for key := range actorSpace {
		keys = append(keys, key)
	}
	delete(s.store, actorID)
	s.mu.Unlock()

	for _, key := range keys {
		s.dropTTLIndex(actorID, key)
	}
	return removed
}

// CleanupExpired sweeps the TTL index. See Store.CleanupExpired.
func (s *MemStore) CleanupExpired() int {
	now := time.Now()

	s.ttlMu.Lock()
	candidates := make([]ttlKey, 0, len(s.ttlIndex))
	for k := range s.ttlIndex {
		candidates = append(candidates, k)
	}
	s.ttlMu.Unlock()

	removed := 0
	for _, candidate := range candidates {
		s.mu.Lock()
		actorSpace, ok := s.store[candidate.actorID]
		if !ok {
			s.mu.Unlock()
			s.dropTTLIndex(candidate.actorID, candidate.key)
			continue
		}
		e, ok := actorSpace[candidate.key]
		if !ok {
			s.mu.Unlock()
			s.dropTTLIndex(candidate.actorID, candidate.key)
			continue
		}
		if !e.expired(now) {
			s.mu.Unlock()
			continue
		}
		delete(actorSpace, candidate.key)
		if len(actorSpace) == 0 {
			delete(s.store, candidate.actorID)
		}
		s.mu.Unlock()

		s.dropTTLIndex(candidate.actorID, candidate.key)
		removed++
	}

	if removed > 0 {
		s.logger.Debugf("ttl sweep removed %d expired entr(ies)", removed)
	}
	return removed
}

// Restore upserts an entry without logging or notification. It is the
// recovery path used when replaying the WAL into the store at startup;
// using Set there would append every replayed record to the log again.
func (s *MemStore) Restore(actorID, key string, value []byte) {
	now := time.Now()
	s.mu.Lock()
	s.upsertLocked(actorID, key, value, 0, now)
	s.mu.Unlock()
}

// Subscribe registers a change callback for the actor.
func (s *MemStore) Subscribe(actorID string, callback pubsub.Callback) uint64 {
	return s.subs.Subscribe(actorID, callback)
}

// Unsubscribe removes a change callback.
func (s *MemStore) Unsubscribe(actorID string, subID uint64) bool {
	return s.subs.Unsubscribe(actorID, subID)
}

// SubscriberCount returns the number of subscribers of the actor.
func (s *MemStore) SubscriberCount(actorID string) int {
	return s.subs.SubscriberCount(actorID)
}

// Close stops the write-behind worker when the store owns one.
func (s *MemStore) Close() error {
	if s.writeBehind != nil {
		s.writeBehind.Stop()
	}
	return nil
}

// upsertLocked inserts or updates the entry. Callers hold the exclusive lock.
func (s *MemStore) upsertLocked(actorID, key string, value []byte, ttl time.Duration, now time.Time) *entry {
	actorSpace, ok := s.store[actorID]
	if !ok {
		actorSpace = make(map[string]*entry)
		s.store[actorID] = actorSpace
	}

	e, ok := actorSpace[key]
	if !ok {
		e = &entry{
			createdAt:      now,
			lastAccessedMs: atomic.NewInt64(0),
		}
		actorSpace[key] = e
	}

	e.value = append([]byte(nil), value...)
	e.version++
	e.lastAccessedMs.Store(now.UnixMilli())
	if ttl > 0 {
		e.expiresAtMs = now.Add(ttl).UnixMilli()
	} else {
		e.expiresAtMs = 0
	}
	return e
}

// logMutation routes the record to the WAL according to the durability mode.
func (s *MemStore) logMutation(actorID, key string, value []byte) error {
	if s.walLog == nil {
		return nil
	}

	switch s.mode {
	case WriteBehind:
		s.writeBehind.Enqueue(wal.Record{ActorID: actorID, Key: key, Value: value})
		return nil
	default:
		if _, err := s.walLog.Append(actorID, key, value); err != nil {
			s.logger.Errorf("wal append failed for actor=%s key=%s: %v", actorID, key, err)
			return err
		}
		return nil
	}
}

// notify fans the change event out to subscribers, on the worker pool when
// one is configured.
func (s *MemStore) notify(actorID, key string, value []byte) {
	if s.pool != nil {
		if err := s.pool.Submit(func() {
			s.subs.Notify(actorID, key, value)
		}); err == nil {
			return
		}
		// fall through when the pool is unavailable
	}
	s.subs.Notify(actorID, key, value)
}

func (s *MemStore) addTTLIndex(actorID, key string) {
	s.ttlMu.Lock()
	s.ttlIndex[ttlKey{actorID: actorID, key: key}] = struct{}{}
	s.ttlMu.Unlock()
}

func (s *MemStore) dropTTLIndex(actorID, key string) {
	s.ttlMu.Lock()
	delete(s.ttlIndex, ttlKey{actorID: actorID, key: key})
	s.ttlMu.Unlock()
}

// ttlIndexSize reports the number of indexed entries. Used by the TTL tests.
func (s *MemStore) ttlIndexSize() int {
	s.ttlMu.Lock()
	defer s.ttlMu.Unlock()
	return len(s.ttlIndex)
}

// validatePair validates the actor id and key of a store operation.
func validatePair(actorID, key string) error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewActorIDValidator(actorID)).
		AddValidator(validation.NewKeyValidator(key)).
		Validate()
}
