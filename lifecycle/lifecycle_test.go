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

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iquora/iquora/errors"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/store"
)

func newTestLifecycle(t *testing.T) (*Lifecycle, store.Store) {
	t.Helper()
	s := store.NewMemStore(store.WithLogger(log.DiscardLogger))
	t.Cleanup(func() { _ = s.Close() })
	return New(s, log.DiscardLogger), s
}

func TestSpawnActor(t *testing.T) {
	t.Run("With_initial_state_seeded", func(t *testing.T) {
		lc, s := newTestLifecycle(t)

		require.NoError(t, lc.SpawnActor("a1", map[string][]byte{
			"name": []byte("one"),
			"role": []byte("worker"),
		}))

		assert.True(t, lc.IsActorActive("a1"))
		assert.Equal(t, 1, lc.GetActiveActorCount())

		value, found := s.Get("a1", "name")
		require.True(t, found)
		assert.Equal(t, []byte("one"), value)
	})

	t.Run("With_duplicate_rejected", func(t *testing.T) {
		lc, _ := newTestLifecycle(t)
		require.NoError(t, lc.SpawnActor("a1", nil))
		assert.ErrorIs(t, lc.SpawnActor("a1", nil), errors.ErrDuplicateActor)
	})

	t.Run("With_invalid_id", func(t *testing.T) {
		lc, _ := newTestLifecycle(t)
		assert.ErrorIs(t, lc.SpawnActor("bad id", nil), errors.ErrInvalidActorID)
		assert.False(t, lc.ActorExists("bad id"))
	})

	t.Run("With_seed_failure_leaving_actor_inactive", func(t *testing.T) {
		lc, _ := newTestLifecycle(t)
		err := lc.SpawnActor("a1", map[string][]byte{"": []byte("v")})
		require.Error(t, err)
		assert.False(t, lc.IsActorActive("a1"))
	})
}

func TestTerminateActor(t *testing.T) {
	t.Run("With_inactive_actor_rejected", func(t *testing.T) {
		lc, _ := newTestLifecycle(t)
		assert.ErrorIs(t, lc.TerminateActor("ghost", false), errors.ErrActorNotFound)
	})

	t.Run("With_force_clearing_keyspace", func(t *testing.T) {
		lc, s := newTestLifecycle(t)
		require.NoError(t, lc.SpawnActor("a1", map[string][]byte{"k": []byte("v")}))

		require.NoError(t, lc.TerminateActor("a1", true))
		assert.False(t, lc.IsActorActive("a1"))
		_, found := s.Get("a1", "k")
		assert.False(t, found)
	})

	t.Run("With_soft_terminate_keeping_state", func(t *testing.T) {
		lc, s := newTestLifecycle(t)
		require.NoError(t, lc.SpawnActor("a1", map[string][]byte{"k": []byte("v")}))

		require.NoError(t, lc.TerminateActor("a1", false))
		_, found := s.Get("a1", "k")
		assert.True(t, found)
	})

	t.Run("With_respawn_after_terminate", func(t *testing.T) {
		lc, _ := newTestLifecycle(t)
		require.NoError(t, lc.SpawnActor("a1", nil))
		require.NoError(t, lc.TerminateActor("a1", false))
		require.NoError(t, lc.SpawnActor("a1", nil))
		assert.True(t, lc.IsActorActive("a1"))
	})
}

func TestHooks(t *testing.T) {
	t.Run("With_hook_ordering", func(t *testing.T) {
		lc, _ := newTestLifecycle(t)

		var calls []string
		lc.RegisterPreSpawnHook(func(actorID string) { calls = append(calls, "pre-spawn:"+actorID) })
		lc.RegisterPostSpawnHook(func(actorID string) { calls = append(calls, "post-spawn:"+actorID) })
		lc.RegisterPreTerminateHook(func(actorID string) { calls = append(calls, "pre-terminate:"+actorID) })
		lc.RegisterPostTerminateHook(func(actorID string) { calls = append(calls, "post-terminate:"+actorID) })

		require.NoError(t, lc.SpawnActor("a1", nil))
		require.NoError(t, lc.TerminateActor("a1", false))

		assert.Equal(t, []string{
			"pre-spawn:a1",
			"post-spawn:a1",
			"pre-terminate:a1",
			"post-terminate:a1",
		}, calls)
	})

	t.Run("With_panicking_hook_swallowed", func(t *testing.T) {
		lc, _ := newTestLifecycle(t)
		lc.RegisterPreSpawnHook(func(string) { panic("bad hook") })

		require.NoError(t, lc.SpawnActor("a1", nil))
		assert.True(t, lc.IsActorActive("a1"))
	})
}

func TestActiveActors(t *testing.T) {
	lc, _ := newTestLifecycle(t)
	require.NoError(t, lc.SpawnActor("a1", nil))
	require.NoError(t, lc.SpawnActor("a2", nil))

	assert.ElementsMatch(t, []string{"a1", "a2"}, lc.GetActiveActors())
	assert.Equal(t, 2, lc.GetActiveActorCount())
	assert.True(t, lc.ActorExists("a1"))
	assert.False(t, lc.ActorExists("a3"))
}
