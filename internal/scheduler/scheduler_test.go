// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingFlusher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFlusher) Sync(context.Context, bool) error {
	f.calls.Add(1)
	return f.err
}

func TestScheduler_FlushesOnInterval(t *testing.T) {
	f := &countingFlusher{}
	s := New(f, 10*time.Millisecond, nil)

	s.Start(context.Background())
	assert.True(t, s.Running())

	assert.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())

	after := f.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, f.calls.Load(), "no flushes after Stop")

	s.Stop()
}

func TestScheduler_FailuresDoNotStopTheLoop(t *testing.T) {
	f := &countingFlusher{err: errors.New("disk full")}
	s := New(f, 10*time.Millisecond, nil)

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_DisabledInterval(t *testing.T) {
	f := &countingFlusher{}
	s := New(f, 0, nil)

	s.Start(context.Background())
	assert.False(t, s.Running())
	s.Stop()
}

func TestScheduler_OutlivesStartContext(t *testing.T) {
	f := &countingFlusher{}
	s := New(f, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	defer s.Stop()

	assert.Eventually(t, func() bool { return f.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
