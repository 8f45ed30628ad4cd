// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"

	"github.com/staranto/dotcache/internal/pathutil"
)

// FileName is the config file looked up in the standard locations.
const FileName = "dotcache.yaml"

// Type is a loaded config file. When Namespace is set, lookups try
// "<Namespace>.<key>" before "<key>".
type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

// Config is the most recently loaded config.
var Config Type

// Load reads the config file. An explicit non-empty path wins over
// DOTCACHE_CFG, which wins over the standard locations.
func Load(cfgFilePath ...string) (Type, error) {
	path := ""
	if len(cfgFilePath) > 0 {
		path = cfgFilePath[0]
	}

	if path == "" {
		var err error
		if path, err = getConfigPath(); err != nil {
			return Type{}, err
		}
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	Config = Type{
		Source:    path,
		Namespace: Config.Namespace,
		Data:      data,
	}

	return Config, nil
}

// get traverses the map using a dotted key path.
func (cfg *Type) get(kspec string) (any, error) {
	if len(cfg.Data) == 0 && cfg.Source != "" {
		if loaded, err := Load(cfg.Source); err == nil {
			cfg.Data = loaded.Data
		}
	}

	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		if v, ok := pathutil.Get(cfg.Data, pathutil.Parse(key)); ok {
			return v, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

func GetString(key string, defaultValue ...string) (string, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

func GetInt(key string, defaultValue ...int) (int, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

func GetBool(key string, defaultValue ...bool) (bool, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return false, err
	}

	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, errors.New("value is not a bool")
		}
		return b, nil
	default:
		return false, errors.New("value is not a bool")
	}
}

// GetStringSlice accepts a YAML sequence of scalars or a single string.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return nil, err
	}

	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			switch e := e.(type) {
			case string:
				out = append(out, e)
			case map[string]interface{}, []interface{}, nil:
				return nil, errors.New("value is not a string slice")
			default:
				out = append(out, fmt.Sprint(e))
			}
		}
		return out, nil
	default:
		return nil, errors.New("value is not a string slice")
	}
}

func ensureLoaded() {
	if len(Config.Data) == 0 {
		_, _ = Load(Config.Source)
	}
}

func getConfigPath() (string, error) {
	if env := os.Getenv("DOTCACHE_CFG"); env != "" {
		info, err := os.Stat(env)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", env)
		}
		if info.IsDir() {
			return "", fmt.Errorf("DOTCACHE_CFG points to a directory: %s", env)
		}
		return env, nil
	}

	var candidates []string = []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fileInfo, err := os.Stat(file); err == nil {
			if !fileInfo.IsDir() {
				log.Debugf("using config file: %s", file)
				return file, nil
			}
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
