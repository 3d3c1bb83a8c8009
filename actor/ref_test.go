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

package actor

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/lifecycle"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/store"
)

// counterActor accumulates integer deltas and serializes the total.
type counterActor struct {
	mu    sync.Mutex
	total int
	fail  error
}

func (c *counterActor) OnMessage(delta int) error {
	if c.fail != nil {
		return c.fail
	}
	c.mu.Lock()
	c.total += delta
	c.mu.Unlock()
	return nil
}

func (c *counterActor) OnMessageWithResult(delta int) (int, error) {
	if c.fail != nil {
		return 0, c.fail
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += delta
	return c.total, nil
}

func (c *counterActor) SerializeState() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return []byte(strconv.Itoa(c.total)), nil
}

func (c *counterActor) DeserializeState(data []byte) error {
	total, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.total = total
	c.mu.Unlock()
	return nil
}

func (c *counterActor) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// recordingHandler captures routed errors.
type recordingHandler struct {
	mu     sync.Mutex
	errors []error
}

func (h *recordingHandler) HandleError(_ string, err error) {
	h.mu.Lock()
	h.errors = append(h.errors, err)
	h.mu.Unlock()
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.errors)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s := store.NewMemStore(store.WithLogger(log.DiscardLogger))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInitialize(t *testing.T) {
	t.Run("With_lifecycle_registration", func(t *testing.T) {
		s := newTestStore(t)
		lc := lifecycle.New(s, log.DiscardLogger)

		ref := NewRef[int, int]("a1", &counterActor{},
			WithStore[int, int](s),
			WithLifecycle[int, int](lc),
			WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		defer ref.Stop()

		assert.True(t, ref.IsInitialized())
		assert.True(t, lc.IsActorActive("a1"))
	})

	t.Run("With_idempotency", func(t *testing.T) {
		ref := NewRef[int, int]("a1", &counterActor{}, WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		require.NoError(t, ref.Initialize())
		ref.Stop()
	})

	t.Run("With_invalid_actor_id", func(t *testing.T) {
		ref := NewRef[int, int]("bad id", &counterActor{}, WithLogger[int, int](log.DiscardLogger))
		assert.ErrorIs(t, ref.Initialize(), errors.ErrInvalidActorID)
		assert.False(t, ref.IsInitialized())
	})

	t.Run("With_state_loaded_from_store", func(t *testing.T) {
		s := newTestStore(t)

		first := &counterActor{}
		ref := NewRef[int, int]("a1", first,
			WithStore[int, int](s),
			WithAutoPersist[int, int](),
			WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())

		ref.Tell(41)
		ref.Tell(1)
		require.Eventually(t, func() bool { return first.Total() == 42 }, time.Second, 10*time.Millisecond)
		ref.Stop()

		second := &counterActor{}
		reborn := NewRef[int, int]("a1", second,
			WithStore[int, int](s),
			WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, reborn.Initialize())
		defer reborn.Stop()

		assert.Equal(t, 42, second.Total())
	})
}

func TestTell(t *testing.T) {
	t.Run("With_messages_processed_in_order", func(t *testing.T) {
		behavior := &counterActor{}
		ref := NewRef[int, int]("a1", behavior, WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		defer ref.Stop()

		for i := 1; i <= 10; i++ {
			ref.Tell(i)
		}
		require.Eventually(t, func() bool { return behavior.Total() == 55 }, time.Second, 10*time.Millisecond)
	})

	t.Run("With_uninitialized_actor", func(t *testing.T) {
		handler := &recordingHandler{}
		ref := NewRef[int, int]("a1", &counterActor{},
			WithErrorHandler[int, int](handler),
			WithLogger[int, int](log.DiscardLogger))
		ref.Tell(1)
		assert.Equal(t, 1, handler.count())
	})

	t.Run("With_handler_error_routed", func(t *testing.T) {
		expected := stderrors.New("handler boom")
		handler := &recordingHandler{}
		behavior := &counterActor{fail: expected}
		ref := NewRef[int, int]("a1", behavior,
			WithErrorHandler[int, int](handler),
			WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		defer ref.Stop()

		ref.Tell(1)
		require.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, 10*time.Millisecond)

		// the consumer survived the failure
		behavior.fail = nil
		ref.Tell(5)
		require.Eventually(t, func() bool { return behavior.Total() == 5 }, time.Second, 10*time.Millisecond)
	})

	t.Run("With_auto_persist_writing_through_store", func(t *testing.T) {
		s := newTestStore(t)
		var events int
		s.Subscribe("a1", func(string, string, []byte) { events++ })

		ref := NewRef[int, int]("a1", &counterActor{},
			WithStore[int, int](s),
			WithAutoPersist[int, int](),
			WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		defer ref.Stop()

		ref.Tell(7)
		require.Eventually(t, func() bool {
			value, found := s.Get("a1", "__state__")
			return found && string(value) == "7"
		}, time.Second, 10*time.Millisecond)
		assert.Positive(t, events)
	})
}

func TestAsk(t *testing.T) {
	t.Run("With_result", func(t *testing.T) {
		ref := NewRef[int, int]("a1", &counterActor{}, WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		defer ref.Stop()

		f, err := ref.Ask(10)
		require.NoError(t, err)
		result, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 10, result)

		f, err = ref.Ask(5)
		require.NoError(t, err)
		result, err = f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 15, result)
	})

	t.Run("With_handler_error_failing_future", func(t *testing.T) {
		expected := stderrors.New("ask boom")
		ref := NewRef[int, int]("a1", &counterActor{fail: expected},
			WithErrorHandler[int, int](&recordingHandler{}),
			WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		defer ref.Stop()

		f, err := ref.Ask(1)
		require.NoError(t, err)
		_, err = f.Await(context.Background())
		assert.ErrorIs(t, err, expected)
	})

	t.Run("With_unit_result_type", func(t *testing.T) {
		ref := NewRef[int, NoResult]("a1", &unitActor{}, WithLogger[int, NoResult](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		defer ref.Stop()

		_, err := ref.Ask(1)
		assert.ErrorIs(t, err, errors.ErrAskNotSupported)
	})

	t.Run("With_uninitialized_actor", func(t *testing.T) {
		ref := NewRef[int, int]("a1", &counterActor{}, WithLogger[int, int](log.DiscardLogger))
		_, err := ref.Ask(1)
		assert.ErrorIs(t, err, errors.ErrNotInitialized)
	})
}

// unitActor is a behavior without Ask results.
type unitActor struct{}

func (unitActor) OnMessage(int) error                      { return nil }
func (unitActor) OnMessageWithResult(int) (NoResult, error) { return NoResult{}, nil }
func (unitActor) SerializeState() ([]byte, error)          { return nil, nil }
func (unitActor) DeserializeState([]byte) error            { return nil }

func TestStop(t *testing.T) {
	t.Run("With_lifecycle_termination", func(t *testing.T) {
		s := newTestStore(t)
		lc := lifecycle.New(s, log.DiscardLogger)

		ref := NewRef[int, int]("a1", &counterActor{},
			WithStore[int, int](s),
			WithLifecycle[int, int](lc),
			WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())

		ref.Stop()
		assert.False(t, ref.IsInitialized())
		assert.False(t, lc.IsActorActive("a1"))
	})

	t.Run("With_idempotent_stop", func(t *testing.T) {
		ref := NewRef[int, int]("a1", &counterActor{}, WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())
		ref.Stop()
		ref.Stop()
	})

	t.Run("With_queued_items_drained_before_exit", func(t *testing.T) {
		behavior := &counterActor{}
		ref := NewRef[int, int]("a1", behavior, WithLogger[int, int](log.DiscardLogger))
		require.NoError(t, ref.Initialize())

		for i := 0; i < 100; i++ {
			ref.Tell(1)
		}
		ref.Stop()
		assert.Equal(t, 100, behavior.Total())
	})
}
