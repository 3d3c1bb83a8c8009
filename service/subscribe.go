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

package service

import (
	"net/http"
	"time"

	gods "github.com/Workiva/go-datastructures/queue"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// EventTypeUpdated is emitted on every successful set.
	EventTypeUpdated = "UPDATED"
	// EventTypeDeleted is reserved for future delete events.
	EventTypeDeleted = "DELETED"
	// EventTypeExpired is reserved for future TTL-expiry events.
	EventTypeExpired = "EXPIRED"

	// streamQueueCapacity bounds the per-stream inbound event queue.
	streamQueueCapacity = 256

	// streamPollTimeout is how long the stream loop waits for the next
	// event before checking for client cancellation.
	streamPollTimeout = 500 * time.Millisecond
)

// StateChange is one change event streamed to a subscriber.
type StateChange struct {
	ActorID   string `json:"actor_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	EventType string `json:"event_type"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// subscribeChanges handles the Subscribe verb: it upgrades the connection
// to a websocket and streams one StateChange per successful set on the
// actor. Subscribing to an inactive actor is rejected with a 404.
//
// The handler owns one bounded inbound queue per stream. The registered
// callback pushes events into it without blocking the store's notify path;
// the drain loop polls with a finite timeout so client cancellation is
// observed promptly. The callback is removed before the handler returns.
func (x *Server) subscribeChanges(c *gin.Context) {
	actorID := c.Param("actor_id")
	if !x.lifecycle.IsActorActive(actorID) {
		c.JSON(http.StatusNotFound, statusResponse{ErrorMessage: "actor not found: " + actorID})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		x.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	streamID := uuid.NewString()
	x.streams.Set(streamID, actorID)
	defer x.streams.Delete(streamID)

	inbound := gods.NewRingBuffer(streamQueueCapacity)

	subID := x.store.Subscribe(actorID, func(actorID, key string, value []byte) {
		ok, _ := inbound.Offer(StateChange{
			ActorID:   actorID,
			Key:       key,
			Value:     string(value),
			EventType: EventTypeUpdated,
		})
		if !ok {
			x.logger.Warnf("stream %s for actor %s saturated, event dropped", streamID, actorID)
		}
	})
	defer func() {
		x.store.Unsubscribe(actorID, subID)
		inbound.Dispose()
	}()

	x.logger.Infof("stream %s subscribed to actor %s", streamID, actorID)

	// the read pump's only job is to notice the client going away
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-clientGone:
			x.logger.Infof("stream %s for actor %s closed by client", streamID, actorID)
			return
		default:
		}

		item, err := inbound.Poll(streamPollTimeout)
		if err != nil {
			if err == gods.ErrTimeout {
				continue
			}
			return
		}

		event, ok := item.(StateChange)
		if !ok {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			x.logger.Infof("stream %s for actor %s write failed: %v", streamID, actorID, err)
			return
		}
	}
}
