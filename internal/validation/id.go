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
	"github.com/iquora/iquora/errors"
)

// actorIDPattern is the pattern every actor id must match.
const actorIDPattern = "^[A-Za-z0-9_-]{1,64}$"

// maxKeyLength is the maximum byte length of a store key.
const maxKeyLength = 256

// NewActorIDValidator creates a validator asserting that the given
// actor id matches the allowed pattern.
func NewActorIDValidator(actorID string) Validator {
	return NewPatternValidator(actorIDPattern, actorID, errors.ErrInvalidActorID)
}

// keyValidator validates a store key.
type keyValidator struct {
	key string
}

var _ Validator = (*keyValidator)(nil)

// NewKeyValidator creates a validator asserting that the given store key is
// non-empty and at most 256 bytes.
func NewKeyValidator(key string) Validator {
	return &keyValidator{key: key}
}

// Validate executes the validation
func (x *keyValidator) Validate() error {
	if len(x.key) == 0 {
		return errors.ErrEmptyKey
	}
	if len(x.key) > maxKeyLength {
		return errors.ErrKeyTooLong
	}
	return nil
}
