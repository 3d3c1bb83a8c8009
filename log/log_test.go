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

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With_info_entry", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Info("hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("With_level_filtering", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Debug("invisible")
		assert.Zero(t, buffer.Len())
		assert.Equal(t, InfoLevel, logger.LogLevel())
	})

	t.Run("With_fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer).With("actor_id", "a1")
		logger.Infof("set %s", "k")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
		assert.Equal(t, "a1", entry["actor_id"])
		assert.Equal(t, "set k", entry["msg"])
	})
}

func TestDiscard(t *testing.T) {
	logger := DiscardLogger
	logger.Info("lost")
	logger.Errorf("also %s", "lost")
	assert.Equal(t, InvalidLevel, logger.LogLevel())
	assert.Nil(t, logger.LogOutput())
}
