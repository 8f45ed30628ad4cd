// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"time"

	mylog "github.com/staranto/dotcache/internal/log"
)

// Options configures a Cache.
type Options struct {
	// Name identifies the cache inside its storage location. Required.
	Name string
	// Backend selects the storage kind: memory (default), file, bolt or s3.
	// Unknown kinds fall back to memory.
	Backend string

	// WriteThrough syncs after every mutating call unless the call overrides
	// it with SyncNow.
	WriteThrough bool
	// SyncInterval enables periodic syncing when positive.
	SyncInterval time.Duration
	// FlushOnClose syncs once more during Close.
	FlushOnClose bool

	// Dir is the storage directory for file and bolt backends.
	Dir string
	// KeyToFilename and FilenameToKey replace the file backend's default
	// "<key>.json" mapping.
	KeyToFilename func(key string) string
	FilenameToKey func(filename string) (string, bool)

	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string

	// Debug logs at debug level.
	Debug bool
	// LogFunc receives this cache's log lines instead of the process handler.
	LogFunc mylog.Func
}

type writeOptions struct {
	syncNow bool
}

// WriteOption adjusts a single mutating call.
type WriteOption func(*writeOptions)

// SyncNow overrides Options.WriteThrough for one call.
func SyncNow(b bool) WriteOption {
	return func(o *writeOptions) {
		o.syncNow = b
	}
}
