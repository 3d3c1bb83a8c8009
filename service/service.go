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

// Package service exposes the state store over HTTP: the five state verbs
// plus a websocket stream of change events per actor.
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iquora/iquora/internal/xsync"
	"github.com/iquora/iquora/lifecycle"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/store"
)

// Server maps the external verbs onto the store and lifecycle operations.
type Server struct {
	addr       string
	engine     *gin.Engine
	httpServer *http.Server
	store      store.Store
	lifecycle  *lifecycle.Lifecycle
	logger     log.Logger

	// streams tracks the live subscription streams: stream id -> actor id
	streams *xsync.Map[string, string]
}

// NewServer creates the HTTP façade listening on addr.
func NewServer(addr string, s store.Store, lc *lifecycle.Lifecycle, logger log.Logger) *Server {
	if logger == nil {
		logger = log.DefaultLogger
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	server := &Server{
		addr:      addr,
		engine:    engine,
		store:     s,
		lifecycle: lc,
		logger:    logger,
		streams:   xsync.NewMap[string, string](),
	}
	server.registerRoutes()

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

// Handler returns the underlying HTTP handler. Used by the tests.
func (x *Server) Handler() http.Handler {
	return x.engine
}

// Start serves until Stop is called. It blocks.
func (x *Server) Start() error {
	x.logger.Infof("state store listening on %s", x.addr)
	if err := x.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (x *Server) Stop(ctx context.Context) error {
	x.logger.Info("state store shutting down...")
	return x.httpServer.Shutdown(ctx)
}

// registerRoutes wires the verbs.
func (x *Server) registerRoutes() {
	x.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"streams": x.streams.Len(),
		})
	})

	v1 := x.engine.Group("/v1")
	v1.GET("/actors", x.listActors)
	v1.POST("/actors", x.spawnActor)
	v1.DELETE("/actors/:actor_id", x.terminateActor)
	v1.GET("/actors/:actor_id/state/:key", x.getState)
	v1.PUT("/actors/:actor_id/state/:key", x.setState)
	v1.GET("/actors/:actor_id/subscribe", x.subscribeChanges)
}
