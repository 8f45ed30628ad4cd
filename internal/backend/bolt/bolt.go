// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package bolt keeps a whole cache in a single bbolt database file. Values are
// msgpack encoded.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/staranto/dotcache/internal/cacheutil"
	"github.com/staranto/dotcache/internal/pathutil"
)

var (
	aggregateBucket = []byte("aggregate")
	objectsBucket   = []byte("objects")
	docKey          = []byte("doc")
)

// ErrNotConnected is returned by operations issued before Connect or after
// Close.
var ErrNotConnected = errors.New("bolt backend is not connected")

type BackendBolt struct {
	Dir  string
	Name string

	noSync bool
	bdb    *bbolt.DB
}

type Option func(*BackendBolt)

// FromDir sets the directory holding <name>.db. Empty resolves to the default
// cache directory.
func FromDir(dir string) Option {
	return func(be *BackendBolt) {
		be.Dir = dir
	}
}

// WithNoSync skips fsync on commit. Only meant for tests.
func WithNoSync() Option {
	return func(be *BackendBolt) {
		be.noSync = true
	}
}

func NewBackendBolt(name string, opts ...Option) (*BackendBolt, error) {
	if err := pathutil.ValidateKey(name); err != nil {
		return nil, fmt.Errorf("invalid cache name %q: %w", name, err)
	}

	be := &BackendBolt{Name: name}
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

// DatabasePath is the location of the bbolt file.
func (be *BackendBolt) DatabasePath() string {
	return filepath.Join(be.Dir, be.Name+".db")
}

func (be *BackendBolt) Connect(context.Context) error {
	if be.bdb != nil {
		return nil
	}

	if err := os.MkdirAll(be.Dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	bopt.NoSync = be.noSync

	bdb, err := bbolt.Open(be.DatabasePath(), 0o600, &bopt)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", be.DatabasePath(), err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(aggregateBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(objectsBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return fmt.Errorf("failed to prepare %s: %w", be.DatabasePath(), err)
	}

	be.bdb = bdb
	return nil
}

func (be *BackendBolt) Fetch(context.Context) (map[string]any, error) {
	if be.bdb == nil {
		return nil, ErrNotConnected
	}

	doc := map[string]any{}
	err := be.bdb.View(func(tx *bbolt.Tx) error {
		v, ok := be.decode(tx.Bucket(aggregateBucket).Get(docKey), "aggregate")
		if !ok {
			return nil
		}
		if m, isMap := v.(map[string]any); isMap {
			doc = m
		}
		return nil
	})
	return doc, err
}

func (be *BackendBolt) Save(_ context.Context, doc map[string]any) error {
	if be.bdb == nil {
		return ErrNotConnected
	}
	if doc == nil {
		doc = map[string]any{}
	}

	data, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode aggregate: %w", err)
	}
	return be.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(aggregateBucket).Put(docKey, data)
	})
}

func (be *BackendBolt) ListObjectKeys(context.Context) ([]string, error) {
	if be.bdb == nil {
		return nil, ErrNotConnected
	}

	var keys []string
	err := be.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(objectsBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (be *BackendBolt) CreateObject(_ context.Context, key string, value any) error {
	if err := pathutil.ValidateKey(key); err != nil {
		return err
	}
	if be.bdb == nil {
		return ErrNotConnected
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode object %q: %w", key, err)
	}

	return be.bdb.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(objectsBucket).Put([]byte(key), data); err != nil {
			return err
		}

		// Drop a same-named aggregate entry in the same transaction.
		agg := tx.Bucket(aggregateBucket)
		v, ok := be.decode(agg.Get(docKey), "aggregate")
		if !ok {
			return nil
		}
		doc, isMap := v.(map[string]any)
		if !isMap {
			return nil
		}
		if _, found := doc[key]; !found {
			return nil
		}
		delete(doc, key)
		raw, err := msgpack.Marshal(doc)
		if err != nil {
			return err
		}
		return agg.Put(docKey, raw)
	})
}

func (be *BackendBolt) RetrieveObject(_ context.Context, key string) (any, bool, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return nil, false, err
	}
	if be.bdb == nil {
		return nil, false, ErrNotConnected
	}

	var (
		value any
		found bool
	)
	err := be.bdb.View(func(tx *bbolt.Tx) error {
		value, found = be.decode(tx.Bucket(objectsBucket).Get([]byte(key)), key)
		return nil
	})
	return value, found, err
}

func (be *BackendBolt) DeleteObject(_ context.Context, key string) (bool, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return false, err
	}
	if be.bdb == nil {
		return false, ErrNotConnected
	}

	var existed bool
	err := be.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		existed = b.Get([]byte(key)) != nil
		if !existed {
			return nil
		}
		return b.Delete([]byte(key))
	})
	return existed, err
}

func (be *BackendBolt) Size(context.Context) (int64, error) {
	if be.bdb == nil {
		return 0, ErrNotConnected
	}
	var size int64
	err := be.bdb.View(func(tx *bbolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size, err
}

func (be *BackendBolt) Close() error {
	if be.bdb == nil {
		return nil
	}
	err := be.bdb.Close()
	be.bdb = nil
	return err
}

func (be *BackendBolt) String() string {
	return "backend-bolt:" + be.DatabasePath()
}

// decode copies raw out of the transaction's memory map while decoding. A
// missing or undecodable entry reports false.
func (be *BackendBolt) decode(raw []byte, what string) (any, bool) {
	if raw == nil {
		return nil, false
	}
	var v any
	if err := msgpack.Unmarshal(raw, &v); err != nil {
		log.WithField("cache", be.Name).WithError(err).Warnf("ignoring corrupt %s entry", what)
		return nil, false
	}
	n, err := pathutil.Normalize(v)
	if err != nil {
		log.WithField("cache", be.Name).WithError(err).Warnf("ignoring corrupt %s entry", what)
		return nil, false
	}
	return n, true
}
