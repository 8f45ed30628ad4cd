// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package file persists a cache as JSON documents in a directory of its own,
// <dir>/<name>/: the aggregate document is <name>.json and every object is
// its own file beside it.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/dotcache/internal/cacheutil"
	"github.com/staranto/dotcache/internal/pathutil"
)

const (
	extension = ".json"
	tmpSuffix = ".tmp"
)

// ErrReservedKey is returned when an object key maps onto the aggregate
// document's filename.
var ErrReservedKey = errors.New("object key collides with the aggregate document")

type BackendFile struct {
	// Dir is the base directory shared by every cache name.
	Dir  string
	Name string

	keyToFilename func(string) string
	filenameToKey func(string) (string, bool)
}

type Option func(*BackendFile)

// FromDir sets the base directory. Empty resolves to the default cache
// directory.
func FromDir(dir string) Option {
	return func(be *BackendFile) {
		be.Dir = dir
	}
}

// WithKeyToFilename overrides the default "<key>.json" mapping.
func WithKeyToFilename(fn func(string) string) Option {
	return func(be *BackendFile) {
		be.keyToFilename = fn
	}
}

// WithFilenameToKey overrides the default inverse mapping, which strips the
// .json extension.
func WithFilenameToKey(fn func(string) (string, bool)) Option {
	return func(be *BackendFile) {
		be.filenameToKey = fn
	}
}

// DefaultKeyToFilename maps a key to "<key>.json".
func DefaultKeyToFilename(key string) string {
	return key + extension
}

// DefaultFilenameToKey strips the .json extension. Anything else is not an
// object file.
func DefaultFilenameToKey(filename string) (string, bool) {
	if !strings.HasSuffix(filename, extension) {
		return "", false
	}
	key := strings.TrimSuffix(filename, extension)
	return key, key != ""
}

func NewBackendFile(name string, opts ...Option) (*BackendFile, error) {
	if err := pathutil.ValidateKey(name); err != nil {
		return nil, fmt.Errorf("invalid cache name %q: %w", name, err)
	}

	be := &BackendFile{
		Name:          name,
		keyToFilename: DefaultKeyToFilename,
		filenameToKey: DefaultFilenameToKey,
	}
	for _, opt := range opts {
		opt(be)
	}

	if be.Dir == "" {
		if dir, ok := cacheutil.Dir(); ok {
			be.Dir = dir
		} else {
			be.Dir = "."
		}
	}

	return be, nil
}

// Root is the directory holding this cache's documents. Other names under the
// same Dir never share it.
func (be *BackendFile) Root() string {
	return filepath.Join(be.Dir, be.Name)
}

// DocumentPath is the location of the aggregate document.
func (be *BackendFile) DocumentPath() string {
	return filepath.Join(be.Root(), be.Name+extension)
}

// ObjectPath returns where key's document lives. Key problems are reported
// before any I/O happens.
func (be *BackendFile) ObjectPath(key string) (string, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return "", err
	}
	filename := be.keyToFilename(key)
	if err := pathutil.ValidateKey(filename); err != nil {
		return "", fmt.Errorf("filename %q for key %q: %w", filename, key, err)
	}
	if filename == filepath.Base(be.DocumentPath()) {
		return "", fmt.Errorf("%q: %w", key, ErrReservedKey)
	}
	return filepath.Join(be.Root(), filename), nil
}

// ValidateObjectKey reports the errors ObjectPath would, without touching
// storage.
func (be *BackendFile) ValidateObjectKey(key string) error {
	_, err := be.ObjectPath(key)
	return err
}

func (be *BackendFile) Connect(context.Context) error {
	if err := os.MkdirAll(be.Root(), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

func (be *BackendFile) Fetch(context.Context) (map[string]any, error) {
	v, ok, err := be.readDocument(be.DocumentPath())
	if err != nil || !ok {
		return map[string]any{}, err
	}

	doc, isMap := v.(map[string]any)
	if !isMap {
		log.WithField("cache", be.Name).Warnf("ignoring %s: not a JSON object", be.DocumentPath())
		return map[string]any{}, nil
	}
	return doc, nil
}

func (be *BackendFile) Save(_ context.Context, doc map[string]any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	return be.writeDocument(be.DocumentPath(), doc)
}

func (be *BackendFile) ListObjectKeys(context.Context) ([]string, error) {
	entries, err := os.ReadDir(be.Root())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	docName := filepath.Base(be.DocumentPath())
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == docName || strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		if key, ok := be.filenameToKey(name); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (be *BackendFile) CreateObject(ctx context.Context, key string, value any) error {
	p, err := be.ObjectPath(key)
	if err != nil {
		return err
	}
	if err := be.writeDocument(p, value); err != nil {
		return err
	}

	// Drop a same-named aggregate entry so the key is never stored twice.
	doc, err := be.Fetch(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[key]; ok {
		delete(doc, key)
		return be.Save(ctx, doc)
	}
	return nil
}

func (be *BackendFile) RetrieveObject(_ context.Context, key string) (any, bool, error) {
	p, err := be.ObjectPath(key)
	if err != nil {
		return nil, false, err
	}
	return be.readDocument(p)
}

func (be *BackendFile) DeleteObject(_ context.Context, key string) (bool, error) {
	p, err := be.ObjectPath(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return true, nil
}

func (be *BackendFile) Close() error { return nil }

// Size sums the aggregate document and every object file.
func (be *BackendFile) Size(ctx context.Context) (int64, error) {
	var total int64
	if info, err := os.Stat(be.DocumentPath()); err == nil {
		total += info.Size()
	}

	keys, err := be.ListObjectKeys(ctx)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		p, err := be.ObjectPath(key)
		if err != nil {
			continue
		}
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total, nil
}

func (be *BackendFile) String() string {
	return "backend-file:" + be.Root()
}

// readDocument reports ok=false for missing and corrupt files. Only
// unexpected I/O failures are errors.
func (be *BackendFile) readDocument(p string) (any, bool, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", p, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, false, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		log.WithField("cache", be.Name).WithError(err).Warnf("ignoring corrupt document %s", p)
		return nil, false, nil
	}
	return v, true, nil
}

// writeDocument replaces p atomically through a temp file in the same
// directory.
func (be *BackendFile) writeDocument(p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p, err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := os.Chmod(tmp.Name(), os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}
