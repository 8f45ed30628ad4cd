// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestCustomHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.Logger{Handler: &CustomHandler{Writer: &buf}, Level: log.DebugLevel}

	logger.WithField("cache", "main").WithError(errors.New("boom")).Warn("flush failed")

	out := buf.String()
	assert.Contains(t, out, " W flush failed")
	assert.Contains(t, out, "cache=main")
	assert.Contains(t, out, "error=boom")
}

func TestNewLogger_Callback(t *testing.T) {
	type line struct{ level, msg string }
	var got []line

	logger := NewLogger("main", false, func(level, msg string) {
		got = append(got, line{level, msg})
	})
	logger.Debug("hidden")
	logger.Info("visible")

	assert.Equal(t, []line{{"info", "visible cache=main"}}, got)
}

func TestNewLogger_Debug(t *testing.T) {
	var got []string
	logger := NewLogger("main", true, func(level, msg string) {
		got = append(got, level)
	})
	logger.Debug("shown")

	assert.Equal(t, []string{"debug"}, got)
}
