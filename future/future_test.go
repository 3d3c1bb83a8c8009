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

package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture(t *testing.T) {
	t.Run("With_success", func(t *testing.T) {
		f := Run(func() (string, error) {
			return "ok", nil
		})
		value, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", value)
	})

	t.Run("With_failure", func(t *testing.T) {
		expected := errors.New("boom")
		f := Run(func() (string, error) {
			return "", expected
		})
		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, expected)
	})

	t.Run("With_context_cancellation", func(t *testing.T) {
		f := New[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := f.Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("With_single_assignment", func(t *testing.T) {
		f := New[int]()
		f.Success(1)
		f.Success(2)
		value, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, value)
	})

	t.Run("With_concurrent_awaiters", func(t *testing.T) {
		f := New[int]()
		results := make(chan int, 2)
		for i := 0; i < 2; i++ {
			go func() {
				value, _ := f.Await(context.Background())
				results <- value
			}()
		}
		f.Success(7)
		assert.Equal(t, 7, <-results)
		assert.Equal(t, 7, <-results)
	})
}
