// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/dotcache/internal/config"
)

func TestMangleArguments(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
get:
  defaults:
    - --output json
  short:
    - -o raw
    - --name scratch
`), 0o600))
	t.Setenv("DOTCACHE_CFG", cfgPath)
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults applied",
			args: []string{"dotcache", "get", "a.b"},
			want: []string{"dotcache", "get", "--output", "json", "a.b"},
		},
		{
			name: "named set replaces defaults",
			args: []string{"dotcache", "get", "@short", "a.b"},
			want: []string{"dotcache", "get", "-o", "raw", "--name", "scratch", "a.b"},
		},
		{
			name: "no set for command",
			args: []string{"dotcache", "keys", "-o", "yaml"},
			want: []string{"dotcache", "keys", "-o", "yaml"},
		},
		{
			name: "help untouched",
			args: []string{"dotcache", "get", "--help"},
			want: []string{"dotcache", "get", "--help"},
		},
		{
			name: "leading flag untouched",
			args: []string{"dotcache", "--version"},
			want: []string{"dotcache", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}
