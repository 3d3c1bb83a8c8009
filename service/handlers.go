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
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iquora/iquora/errors"
)

// getResponse is the payload of the Get verb.
type getResponse struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// setRequest is the body of the Set verb.
type setRequest struct {
	Value string `json:"value"`
}

// spawnRequest is the body of the SpawnActor verb.
type spawnRequest struct {
	ActorID      string            `json:"actor_id"`
	InitialState map[string]string `json:"initial_state"`
}

// statusResponse is the envelope of every mutating verb.
type statusResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// getState handles the Get verb.
func (x *Server) getState(c *gin.Context) {
	value, found := x.store.Get(c.Param("actor_id"), c.Param("key"))
	if !found {
		c.JSON(http.StatusOK, getResponse{Found: false})
		return
	}
	c.JSON(http.StatusOK, getResponse{Value: string(value), Found: true})
}

// setState handles the Set verb: a plain set with no TTL, which logs the
// mutation and notifies subscribers.
func (x *Server) setState(c *gin.Context) {
	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, statusResponse{ErrorMessage: "malformed request body"})
		return
	}

	if err := x.store.Set(c.Param("actor_id"), c.Param("key"), []byte(req.Value), 0); err != nil {
		c.JSON(statusCode(err), statusResponse{ErrorMessage: err.Error()})
		return
	}
	c.JSON(http.StatusOK, statusResponse{Success: true})
}

// spawnActor handles the SpawnActor verb.
func (x *Server) spawnActor(c *gin.Context) {
	var req spawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, statusResponse{ErrorMessage: "malformed request body"})
		return
	}

	initialState := make(map[string][]byte, len(req.InitialState))
	for key, value := range req.InitialState {
		initialState[key] = []byte(value)
	}

	if err := x.lifecycle.SpawnActor(req.ActorID, initialState); err != nil {
		c.JSON(statusCode(err), statusResponse{ErrorMessage: err.Error()})
		return
	}
	c.JSON(http.StatusOK, statusResponse{Success: true})
}

// terminateActor handles the TerminateActor verb. The force query flag
// clears the actor's keyspace.
func (x *Server) terminateActor(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := x.lifecycle.TerminateActor(c.Param("actor_id"), force); err != nil {
		c.JSON(statusCode(err), statusResponse{ErrorMessage: err.Error()})
		return
	}
	c.JSON(http.StatusOK, statusResponse{Success: true})
}

// listActors returns the ids of the active actors.
func (x *Server) listActors(c *gin.Context) {
	actors := x.lifecycle.GetActiveActors()
	c.JSON(http.StatusOK, gin.H{
		"actors": actors,
		"count":  len(actors),
	})
}

// statusCode maps a domain error onto an HTTP status.
func statusCode(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidActorID),
		stderrors.Is(err, errors.ErrEmptyKey),
		stderrors.Is(err, errors.ErrKeyTooLong):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrActorNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrDuplicateActor):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
