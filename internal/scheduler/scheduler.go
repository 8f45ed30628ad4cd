// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package scheduler flushes a cache on a fixed interval. A failed flush is
// logged and never stops later ones.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
)

// Flusher is what the scheduler drives.
type Flusher interface {
	Sync(ctx context.Context, force bool) error
}

// Scheduler owns one background goroutine between Start and Stop.
type Scheduler struct {
	interval time.Duration
	flusher  Flusher
	logger   log.Interface

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped scheduler. A nil logger uses the process logger.
func New(f Flusher, interval time.Duration, logger log.Interface) *Scheduler {
	if logger == nil {
		logger = log.Log
	}
	return &Scheduler{interval: interval, flusher: f, logger: logger}
}

// Start launches the flush loop. It does nothing when the interval is not
// positive or the loop is already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 || s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	s.logger.Debugf("periodic sync every %s", s.interval)
}

// Stop cancels the loop and waits for an in-flight flush to return. It is
// safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("periodic sync panicked: %v", r)
		}
	}()

	if err := s.flusher.Sync(ctx, false); err != nil {
		s.logger.WithError(err).Error("periodic sync failed")
	}
}
