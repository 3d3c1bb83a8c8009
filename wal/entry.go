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

package wal

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is a single write-ahead log record. On disk an entry occupies one
// newline-terminated line:
//
//	<seq_no>|<timestamp_ms>|<actor_id>|<key>|<value>
//
// The value field is the tail of the line and may itself contain '|'.
type Entry struct {
	SeqNo       uint64
	TimestampMs int64
	ActorID     string
	Key         string
	Value       []byte
}

// fieldCount is the number of '|'-separated fields in an encoded entry.
const fieldCount = 5

// encode renders the entry as its on-disk line, newline included.
func (e Entry) encode() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s\n", e.SeqNo, e.TimestampMs, e.ActorID, e.Key, e.Value)
}

// decodeEntry parses one line previously produced by encode. The trailing
// newline must already be stripped.
func decodeEntry(line string) (Entry, error) {
	parts := strings.SplitN(line, "|", fieldCount)
	if len(parts) != fieldCount {
		return Entry{}, fmt.Errorf("short record: %d field(s)", len(parts))
	}

	seqNo, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad seq_no %q: %w", parts[0], err)
	}

	timestampMs, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad timestamp %q: %w", parts[1], err)
	}

	if parts[2] == "" || parts[3] == "" {
		return Entry{}, fmt.Errorf("empty actor id or key")
	}

	return Entry{
		SeqNo:       seqNo,
		TimestampMs: timestampMs,
		ActorID:     parts[2],
		Key:         parts[3],
		Value:       []byte(parts[4]),
	}, nil
}
