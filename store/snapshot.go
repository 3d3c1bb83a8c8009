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
	"encoding/json"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"go.uber.org/atomic"
)

// snapshotEntry is the serialized form of one store entry inside a
// snapshot database.
type snapshotEntry struct {
	Value          []byte `json:"value"`
	Version        uint64 `json:"version"`
	CreatedAtMs    int64  `json:"created_at_ms"`
	LastAccessedMs int64  `json:"last_accessed_ms"`
	ExpiresAtMs    int64  `json:"expires_at_ms,omitempty"`
}

// Snapshot writes the full store contents to a bolt database at path. The
// snapshot is written to a temporary file and renamed into place so a crash
// mid-snapshot never leaves a truncated file behind. Writers are held off
// for the duration.
func (s *MemStore) Snapshot(path string) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	db, err := bolt.Open(tmp, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", tmp, err)
	}

	s.mu.RLock()
	err = db.Update(func(tx *bolt.Tx) error {
		for actorID, actorSpace := range s.store {
			bucket, err := tx.CreateBucketIfNotExists([]byte(actorID))
			if err != nil {
				return err
			}
			for key, e := range actorSpace {
				encoded, err := json.Marshal(snapshotEntry{
					Value:          e.value,
					Version:        e.version,
					CreatedAtMs:    e.createdAt.UnixMilli(),
					LastAccessedMs: e.lastAccessedMs.Load(),
					ExpiresAtMs:    e.expiresAtMs,
				})
				if err != nil {
					return err
				}
				if err := bucket.Put([]byte(key), encoded); err != nil {
					return err
				}
			}
		}
		return nil
	})
	s.mu.RUnlock()

	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing snapshot %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publishing snapshot %s: %w", path, err)
	}

	s.logger.Infof("snapshot written to %s", path)
	return nil
}

// RecoverFromSnapshot replaces the store contents with the snapshot at
// path. The TTL index is rebuilt from the recovered expiry stamps.
func (s *MemStore) RecoverFromSnapshot(path string) error {
	db, err := bolt.Open(path, 0o400, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	recovered := make(map[string]map[string]*entry)
	indexed := make([]ttlKey, 0)

	err = db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, bucket *bolt.Bucket) error {
			actorID := string(name)
			actorSpace := make(map[string]*entry)
			recovered[actorID] = actorSpace

			return bucket.ForEach(func(k, v []byte) error {
				var decoded snapshotEntry
				if err := json.Unmarshal(v, &decoded); err != nil {
					return fmt.Errorf("decoding %s/%s: %w", actorID, k, err)
				}
				key := string(k)
				actorSpace[key] = &entry{
					value:          decoded.Value,
					version:        decoded.Version,
					createdAt:      time.UnixMilli(decoded.CreatedAtMs),
					lastAccessedMs: atomic.NewInt64(decoded.LastAccessedMs),
					expiresAtMs:    decoded.ExpiresAtMs,
				}
				if decoded.ExpiresAtMs > 0 {
					indexed = append(indexed, ttlKey{actorID: actorID, key: key})
				}
				return nil
			})
		})
	})
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	s.mu.Lock()
	s.store = recovered
	s.mu.Unlock()

	s.ttlMu.Lock()
	s.ttlIndex = make(map[ttlKey]struct{}, len(indexed))
	for _, k := range indexed {
		s.ttlIndex[k] = struct{}{}
	}
	s.ttlMu.Unlock()

	s.logger.Infof("recovered %d actor namespace(s) from %s", len(recovered), path)
	return nil
}
