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

// Package config carries the runtime settings of the state store process.
// Defaults can be overridden by IQUORA_* environment variables and, for the
// listen address, by the CLI positional argument.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/iquora/iquora/internal/validation"
	"github.com/iquora/iquora/store"
)

const (
	// DefaultListenAddr is the default HTTP listen address.
	DefaultListenAddr = "0.0.0.0:50051"

	// DefaultWALPath is the default write-ahead log location.
	DefaultWALPath = "iquora.wal"

	// DefaultCleanupInterval is how often expired entries are swept.
	DefaultCleanupInterval = 30 * time.Second
)

// Config is the runtime configuration of the state store.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. "0.0.0.0:50051".
	ListenAddr string
	// WALPath is the write-ahead log file path. Empty disables durability.
	WALPath string
	// WALMaxSizeBytes is the rotation threshold of the log file.
	WALMaxSizeBytes int64
	// DurabilityMode selects write-ahead or write-behind logging.
	DurabilityMode store.DurabilityMode
	// WriteBehindBatchSize is the flush batch size in write-behind mode.
	WriteBehindBatchSize int
	// SnapshotPath, when set and present on disk, is recovered before the
	// WAL is replayed at startup.
	SnapshotPath string
	// PoolSize is the worker pool size.
	PoolSize int
	// CleanupInterval is the period of the TTL sweep timed task.
	CleanupInterval time.Duration
	// Debug switches the logger to debug level.
	Debug bool
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ListenAddr:      DefaultListenAddr,
		WALPath:         DefaultWALPath,
		WALMaxSizeBytes: 10 * 1024 * 1024,
		DurabilityMode:  store.WriteAhead,
		PoolSize:        runtime.NumCPU(),
		CleanupInterval: DefaultCleanupInterval,
	}
}

// FromEnv returns the default configuration with IQUORA_* environment
// overrides applied.
func FromEnv() (*Config, error) {
	cfg := Default()

	if addr := os.Getenv("IQUORA_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if path := os.Getenv("IQUORA_WAL_PATH"); path != "" {
		cfg.WALPath = path
	}
	if path := os.Getenv("IQUORA_SNAPSHOT_PATH"); path != "" {
		cfg.SnapshotPath = path
	}
	if raw := os.Getenv("IQUORA_WAL_MAX_SIZE_BYTES"); raw != "" {
		maxSize, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing IQUORA_WAL_MAX_SIZE_BYTES: %w", err)
		}
		cfg.WALMaxSizeBytes = maxSize
	}
	if raw := os.Getenv("IQUORA_DURABILITY_MODE"); raw != "" {
		switch raw {
		case "write-ahead":
			cfg.DurabilityMode = store.WriteAhead
		case "write-behind":
			cfg.DurabilityMode = store.WriteBehind
		default:
			return nil, fmt.Errorf("unknown IQUORA_DURABILITY_MODE %q", raw)
		}
	}
	if raw := os.Getenv("IQUORA_WRITE_BEHIND_BATCH_SIZE"); raw != "" {
		batchSize, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing IQUORA_WRITE_BEHIND_BATCH_SIZE: %w", err)
		}
		cfg.WriteBehindBatchSize = batchSize
	}
	if raw := os.Getenv("IQUORA_POOL_SIZE"); raw != "" {
		poolSize, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing IQUORA_POOL_SIZE: %w", err)
		}
		cfg.PoolSize = poolSize
	}
	if raw := os.Getenv("IQUORA_CLEANUP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing IQUORA_CLEANUP_INTERVAL: %w", err)
		}
		cfg.CleanupInterval = interval
	}
	if raw := os.Getenv("IQUORA_DEBUG"); raw != "" {
		cfg.Debug = raw == "true" || raw == "1"
	}

	return cfg, nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	return validation.New().
		AddAssertion(c.ListenAddr != "", "listen address is required").
		AddAssertion(c.WALMaxSizeBytes > 0, "wal max size must be positive").
		AddAssertion(c.PoolSize > 0, "pool size must be positive").
		AddAssertion(c.CleanupInterval > 0, "cleanup interval must be positive").
		Validate()
}
