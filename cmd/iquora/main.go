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

// iquora is the actor-oriented state store server. It exposes the five
// state verbs over HTTP and persists mutations through a rotating
// write-ahead log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iquora/iquora/config"
	"github.com/iquora/iquora/lifecycle"
	"github.com/iquora/iquora/log"
	"github.com/iquora/iquora/scheduler"
	"github.com/iquora/iquora/service"
	"github.com/iquora/iquora/store"
	"github.com/iquora/iquora/wal"
	"github.com/iquora/iquora/workerpool"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "iquora [listen-address]",
		Short: "actor-oriented key/value state store",
		Long: "iquora is an in-memory, actor-oriented key/value state store with\n" +
			"per-entry versioning, TTL expiry, change-event streaming and a rotating\n" +
			"write-ahead log.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.ListenAddr = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	return command
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := log.DefaultLogger
	if cfg.Debug {
		logger = log.DebugLogger
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// durability
	var walLog *wal.WAL
	if cfg.WALPath != "" {
		var err error
		walLog, err = wal.Open(cfg.WALPath,
			wal.WithMaxSizeBytes(cfg.WALMaxSizeBytes),
			wal.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("opening write-ahead log: %w", err)
		}
		defer func() { _ = walLog.Close() }()
	}

	// worker pool shared by the scheduler and notification fan-out
	pool := workerpool.New(
		workerpool.WithSize(cfg.PoolSize),
		workerpool.WithLogger(logger))

	storeOpts := []store.Option{
		store.WithDurabilityMode(cfg.DurabilityMode),
		store.WithWorkerPool(pool),
		store.WithLogger(logger),
		store.WithWriteBehindBatchSize(cfg.WriteBehindBatchSize),
	}
	if walLog != nil {
		storeOpts = append(storeOpts, store.WithWAL(walLog))
	}
	memStore := store.NewMemStore(storeOpts...)
	defer func() { _ = memStore.Close() }()

	// cold recovery: snapshot first, then the log
	if cfg.SnapshotPath != "" {
		if _, err := os.Stat(cfg.SnapshotPath); err == nil {
			if err := memStore.RecoverFromSnapshot(cfg.SnapshotPath); err != nil {
				return fmt.Errorf("recovering snapshot: %w", err)
			}
		}
	}
	if walLog != nil {
		walLog.SetReplayHandler(func(entry wal.Entry) {
			memStore.Restore(entry.ActorID, entry.Key, entry.Value)
		})
		replayed, skipped, err := walLog.Replay()
		if err != nil {
			return fmt.Errorf("replaying write-ahead log: %w", err)
		}
		walLog.SetReplayHandler(nil)
		logger.Infof("replayed %d record(s), skipped %d corrupt line(s)", replayed, skipped)
	}

	lc := lifecycle.New(memStore, logger)

	sched := scheduler.New(pool, scheduler.WithLogger(logger))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Shutdown(context.Background())

	if err := sched.ScheduleEvery(cfg.CleanupInterval, func() {
		memStore.CleanupExpired()
	}); err != nil {
		return fmt.Errorf("scheduling ttl sweep: %w", err)
	}

	server := service.NewServer(cfg.ListenAddr, memStore, lc, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	if err := server.Stop(context.Background()); err != nil {
		return err
	}
	return <-serveErr
}
