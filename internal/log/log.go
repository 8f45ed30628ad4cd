// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package log configures apex/log for the CLI and builds per-cache loggers.
package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// DOTCACHE_LOG env variable.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("DOTCACHE_LOG"))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(&CustomHandler{})
	log.SetLevelFromString(level)
}

// CustomHandler formats log messages and writes to stdout, or to Writer when
// set.
type CustomHandler struct {
	Writer io.Writer
	mu     sync.Mutex
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	w := h.Writer
	if w == nil {
		w = os.Stdout
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(w, "%s %.1s %s%s\n", timestamp, level, e.Message, formatFields(e.Fields))
	return err
}

// Func receives log lines for one cache when a caller wants them routed
// somewhere other than the process handler.
type Func func(level, message string)

// NewLogger returns the logger a cache instance writes through. Every entry
// carries the cache name. With fn set, entries go to fn instead of the
// process handler. debug lowers the level to debug.
func NewLogger(name string, debug bool, fn Func) log.Interface {
	var (
		handler log.Handler = log.HandlerFunc(func(*log.Entry) error { return nil })
		level               = log.InfoLevel
	)
	if l, ok := log.Log.(*log.Logger); ok {
		handler = l.Handler
		level = l.Level
	}

	if fn != nil {
		handler = log.HandlerFunc(func(e *log.Entry) error {
			fn(e.Level.String(), e.Message+formatFields(e.Fields))
			return nil
		})
	}
	if debug {
		level = log.DebugLevel
	}

	logger := &log.Logger{Handler: handler, Level: level}
	return logger.WithField("cache", name)
}

func formatFields(fields log.Fields) string {
	if len(fields) == 0 {
		return ""
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}
