// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig sets DOTCACHE_CFG to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	configPath := filepath.Join("testdata", testdataFile)
	absPath, err := filepath.Abs(configPath)
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("DOTCACHE_CFG", absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "file", cfg.Data["backend"])
				assert.Equal(t, "us-east-1", cfg.Data["region"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				backend, ok := cfg.Data["backend"].(map[string]interface{})
				assert.True(t, ok, "backend should be a map")
				s3, ok := backend["s3"].(map[string]interface{})
				assert.True(t, ok, "s3 should be a map")
				assert.Equal(t, "dotcache-state", s3["bucket"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["enabled"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				assert.Len(t, cfg.Data["tags"], 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source, "should have a source path")
				assert.Empty(t, cfg.Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("DOTCACHE_CFG", "/nonexistent/dotcache.yaml")
	Config = Type{}
	defer func() { Config = Type{} }()

	cfg, err := Load(filepath.Join("testdata", "simple.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Data["backend"])
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("DOTCACHE_CFG", "/nonexistent/path/dotcache.yaml")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_DOTCACHE_CFG_IsDirectory(t *testing.T) {
	t.Setenv("DOTCACHE_CFG", "testdata")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_StandardLocations(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOTCACHE_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", t.TempDir())
	Config = Type{}
	defer func() { Config = Type{} }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("backend: bolt\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Source)
	assert.Equal(t, "bolt", cfg.Data["backend"])
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed\n"), 0o600))
	Config = Type{}

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{
			name:     "simple string value",
			testFile: "simple.yaml",
			key:      "region",
			want:     "us-east-1",
		},
		{
			name:     "nested string value",
			testFile: "nested.yaml",
			key:      "backend.s3.region",
			want:     "us-west-2",
		},
		{
			name:     "escaped dot in key",
			testFile: "escaped.yaml",
			key:      `example\.com.bucket`,
			want:     "dotted-key-bucket",
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []string{"default-value"},
			want:         "default-value",
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-string value",
			testFile: "mixed-types.yaml",
			key:      "version",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetString(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{
			name:     "int value",
			testFile: "mixed-types.yaml",
			key:      "version",
			want:     1,
		},
		{
			name:     "float value converted to int",
			testFile: "mixed-types.yaml",
			key:      "timeout",
			want:     30,
		},
		{
			name:     "nested int value",
			testFile: "nested.yaml",
			key:      "backend.s3.max_retries",
			want:     5,
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []int{60},
			want:         60,
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-int value",
			testFile: "simple.yaml",
			key:      "region",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetInt(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue []bool
		want         bool
		wantErr      bool
	}{
		{name: "bool value", key: "enabled", want: true},
		{name: "bool string", key: "flush", want: true},
		{name: "unparseable string", key: "write_through", wantErr: true},
		{name: "non-bool value", key: "version", wantErr: true},
		{name: "missing key with default", key: "missing", defaultValue: []bool{true}, want: true},
		{name: "missing key without default", key: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, "mixed-types.yaml")
			defer cleanup()

			got, err := GetBool(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_GetWithNamespace(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "backend.s3"

	val, err := Config.get("region")
	assert.NoError(t, err)
	assert.Equal(t, "us-west-2", val)

	val, err = Config.get("bucket")
	assert.NoError(t, err)
	assert.Equal(t, "dotcache-state", val)

	Config.Namespace = "backend.file"
	val, err = Config.get("region")
	assert.NoError(t, err)
	assert.Equal(t, "us-east-1", val)

	val, err = Config.get("bucket")
	assert.NoError(t, err)
	assert.Equal(t, "local-bucket", val)
}

func TestConfig_GetNestedPath(t *testing.T) {
	cleanup := setupTestConfig(t, "deep-nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	val, err := Config.get("level1.level2.level3.value")
	assert.NoError(t, err)
	assert.Equal(t, "deep-value", val)
}

func TestConfig_LazyLoad(t *testing.T) {
	cleanup := setupTestConfig(t, "simple.yaml")
	defer cleanup()

	// GetString loads on first use.
	val, err := GetString("region")
	assert.NoError(t, err)
	assert.Equal(t, "us-east-1", val)
	assert.NotEmpty(t, Config.Source, "Config should be loaded")
}

func TestGetString_NamespaceFallback(t *testing.T) {
	cleanup := setupTestConfig(t, "namespace.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "backend.s3"

	val, err := GetString("setting")
	assert.NoError(t, err)
	assert.Equal(t, "s3-value", val)

	val, err = GetString("specific")
	assert.NoError(t, err)
	assert.Equal(t, "s3-specific", val)

	Config.Namespace = "backend.file"
	val, err = GetString("setting")
	assert.NoError(t, err)
	assert.Equal(t, "global-value", val)

	_, err = GetString("nonexistent")
	assert.Error(t, err)
}

func TestGetStringSlice(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue [][]string
		want         []string
		wantErr      bool
	}{
		{name: "sequence of strings", key: "get.short", want: []string{"-o raw", "--select name"}},
		{name: "sequence of scalars", key: "tags", want: []string{"alpha", "beta"}},
		{name: "single string", key: "single", want: []string{"only-one"}},
		{name: "not a sequence", key: "version", wantErr: true},
		{name: "missing key with default", key: "missing", defaultValue: [][]string{{"x"}}, want: []string{"x"}},
		{name: "missing key without default", key: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, "mixed-types.yaml")
			defer cleanup()

			got, err := GetStringSlice(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
