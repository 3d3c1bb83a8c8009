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

// Package wal implements the append-only, sequence-numbered, rotating
// write-ahead log and its write-behind flusher.
package wal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/log"
)

const (
	// DefaultMaxSizeBytes is the file size at which the log rotates.
	DefaultMaxSizeBytes = 10 * 1024 * 1024

	// maxLineSize bounds the scanner buffer during replay. A line longer
	// than this ends the scan with an error.
	maxLineSize = 16 * 1024 * 1024

	// retry settings for transient file operations (sync, rotate)
	retryAttempts     = 3
	retryInitialDelay = 10 * time.Millisecond
	retryMaxDelay     = 100 * time.Millisecond
)

// ReplayHandler is invoked for every log entry, both on Replay and
// synchronously after each successful Append.
type ReplayHandler func(entry Entry)

// WAL is an append-only log of store mutations. Appends are serialized
// under an exclusive lock so that sequence numbers and file state stay
// consistent; rotation renames the active file to <path>.1 and keeps a
// single rotated file.
type WAL struct {
	mu       sync.Mutex
	path     string
	maxSize  int64
	syncMode bool
	file     *os.File
	size     int64
	seqNo    *atomic.Uint64
	handler  ReplayHandler
	logger   log.Logger
	closed   bool
}

// Open opens (or creates) the write-ahead log at the given path. The last
// sequence number of the existing file is recovered so that a reopened log
// continues its lineage monotonically.
func Open(path string, opts ...Option) (*WAL, error) {
	w := &WAL{
		path:     path,
		maxSize:  DefaultMaxSizeBytes,
		syncMode: true,
		seqNo:    atomic.NewUint64(0),
		logger:   log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(w)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", errors.ErrTransientIO, path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", errors.ErrTransientIO, path, err)
	}

	w.file = file
	w.size = info.Size()

	lastSeq, err := lastSeqNo(path)
	if err == nil && lastSeq == 0 {
		// a freshly rotated active file holds no record yet; the lineage
		// continues from the rotated file
		lastSeq, err = lastSeqNo(path + ".1")
	}
	if err == nil {
		w.seqNo.Store(lastSeq)
	}

	return w, nil
}

// SetReplayHandler registers the handler invoked on Replay and after every
// successful Append. Passing nil clears it.
func (w *WAL) SetReplayHandler(handler ReplayHandler) {
	w.mu.Lock()
	w.handler = handler
	w.mu.Unlock()
}

// Append assigns the next sequence number, stamps the current time, writes
// one record and, in synchronous mode, flushes it before returning. When
// the file reaches the maximum size the log rotates. The registered replay
// handler observes the new entry before Append returns.
func (w *WAL) Append(actorID, key string, value []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, errors.ErrWALClosed
	}

	entry := Entry{
		SeqNo:       w.seqNo.Load() + 1,
		TimestampMs: time.Now().UnixMilli(),
		ActorID:     actorID,
		Key:         key,
		Value:       value,
	}

	line := entry.encode()
	n, err := w.file.WriteString(line)
	if err != nil {
		if n > 0 {
			// a torn record was written; the decoder will skip it on replay
			w.size += int64(n)
		}
		return 0, fmt.Errorf("%w: append: %v", errors.ErrTransientIO, err)
	}

	if w.syncMode {
		if err := w.sync(); err != nil {
			return 0, err
		}
	}

	w.seqNo.Inc()
	w.size += int64(n)

	if w.size >= w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	if w.handler != nil {
		w.handler(entry)
	}

	return entry.SeqNo, nil
}

// Replay iterates every record of the current file in write order, invoking
// the registered handler on each. Corrupt or short lines are skipped
// silently and counted.
func (w *WAL) Replay() (replayed, skipped int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("%w: replay open: %v", errors.ErrTransientIO, err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		entry, decodeErr := decodeEntry(scanner.Text())
		if decodeErr != nil {
			skipped++
			continue
		}
		if w.handler != nil {
			w.handler(entry)
		}
		replayed++
	}

	if scanErr := scanner.Err(); scanErr != nil && scanErr != io.EOF {
		return replayed, skipped, fmt.Errorf("%w: replay scan: %v", errors.ErrTransientIO, scanErr)
	}
	return replayed, skipped, nil
}

// LastSeqNo returns the sequence number of the most recently appended record.
func (w *WAL) LastSeqNo() uint64 {
	return w.seqNo.Load()
}

// Size returns the current size of the active file in bytes.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Path returns the path of the active file.
func (w *WAL) Path() string {
	return w.path
}

// Close flushes and closes the active file. Further appends fail with
// errors.ErrWALClosed.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.file.Sync()
	return w.file.Close()
}

// sync flushes the active file, retrying transient failures.
func (w *WAL) sync() error {
	retrier := retry.NewRetrier(retryAttempts, retryInitialDelay, retryMaxDelay)
	if err := retrier.Run(func() error { return w.file.Sync() }); err != nil {
		return fmt.Errorf("%w: sync: %v", errors.ErrTransientIO, err)
	}
	return nil
}

// rotate closes the active file, renames it to <path>.1 (replacing any
// previous rotation) and opens a fresh file. Sequence numbers keep counting.
func (w *WAL) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: rotate close: %v", errors.ErrTransientIO, err)
	}

	retrier := retry.NewRetrier(retryAttempts, retryInitialDelay, retryMaxDelay)
	if err := retrier.Run(func() error { return os.Rename(w.path, w.path+".1") }); err != nil {
		return fmt.Errorf("%w: rotate rename: %v", errors.ErrTransientIO, err)
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: rotate reopen: %v", errors.ErrTransientIO, err)
	}

	w.logger.Infof("rotated write-ahead log %s at %d bytes", w.path, w.size)
	w.file = file
	w.size = 0
	return nil
}

// lastSeqNo scans the file at path and returns the sequence number of the
// last well-formed record.
func lastSeqNo(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()

	var last uint64
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if entry, err := decodeEntry(scanner.Text()); err == nil {
			last = entry.SeqNo
		}
	}
	return last, scanner.Err()
}
