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

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iquora/iquora/errors"
)

func TestActorIDValidator(t *testing.T) {
	t.Run("With_valid_ids", func(t *testing.T) {
		for _, id := range []string{"a1", "actor-1", "A_b-9", strings.Repeat("x", 64)} {
			assert.NoError(t, NewActorIDValidator(id).Validate(), id)
		}
	})

	t.Run("With_invalid_ids", func(t *testing.T) {
		for _, id := range []string{"", "actor 1", "actor/1", strings.Repeat("x", 65), "á"} {
			err := NewActorIDValidator(id).Validate()
			assert.ErrorIs(t, err, errors.ErrInvalidActorID, id)
		}
	})
}

func TestKeyValidator(t *testing.T) {
	t.Run("With_valid_keys", func(t *testing.T) {
		assert.NoError(t, NewKeyValidator("k").Validate())
		assert.NoError(t, NewKeyValidator(strings.Repeat("k", 256)).Validate())
	})

	t.Run("With_empty_key", func(t *testing.T) {
		assert.ErrorIs(t, NewKeyValidator("").Validate(), errors.ErrEmptyKey)
	})

	t.Run("With_oversize_key", func(t *testing.T) {
		assert.ErrorIs(t, NewKeyValidator(strings.Repeat("k", 257)).Validate(), errors.ErrKeyTooLong)
	})
}

func TestChain(t *testing.T) {
	t.Run("With_all_errors", func(t *testing.T) {
		err := New().
			AddValidator(NewActorIDValidator("bad id")).
			AddValidator(NewKeyValidator("")).
			Validate()
		assert.ErrorIs(t, err, errors.ErrInvalidActorID)
		assert.ErrorIs(t, err, errors.ErrEmptyKey)
	})

	t.Run("With_fail_fast", func(t *testing.T) {
		err := New(FailFast()).
			AddValidator(NewActorIDValidator("bad id")).
			AddValidator(NewKeyValidator("")).
			Validate()
		assert.ErrorIs(t, err, errors.ErrInvalidActorID)
		assert.NotErrorIs(t, err, errors.ErrEmptyKey)
	})

	t.Run("With_assertion", func(t *testing.T) {
		err := New().AddAssertion(false, "must hold").Validate()
		assert.EqualError(t, err, "must hold")
	})
}
