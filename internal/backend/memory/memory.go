// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package memory is a process-local backend. Nothing survives the instance.
package memory

import (
	"context"
	"sort"

	"github.com/staranto/dotcache/internal/pathutil"
)

type BackendMemory struct {
	Name    string
	doc     map[string]any
	objects map[string]any
}

func NewBackendMemory(name string) *BackendMemory {
	return &BackendMemory{
		Name:    name,
		doc:     map[string]any{},
		objects: map[string]any{},
	}
}

func (be *BackendMemory) Connect(context.Context) error { return nil }

func (be *BackendMemory) Fetch(context.Context) (map[string]any, error) {
	return pathutil.DeepCopyMap(be.doc), nil
}

func (be *BackendMemory) Save(_ context.Context, doc map[string]any) error {
	be.doc = pathutil.DeepCopyMap(doc)
	return nil
}

func (be *BackendMemory) ListObjectKeys(context.Context) ([]string, error) {
	keys := make([]string, 0, len(be.objects))
	for k := range be.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (be *BackendMemory) CreateObject(_ context.Context, key string, value any) error {
	if err := pathutil.ValidateKey(key); err != nil {
		return err
	}
	be.objects[key] = pathutil.DeepCopy(value)
	delete(be.doc, key)
	return nil
}

func (be *BackendMemory) RetrieveObject(_ context.Context, key string) (any, bool, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return nil, false, err
	}
	v, ok := be.objects[key]
	if !ok {
		return nil, false, nil
	}
	return pathutil.DeepCopy(v), true, nil
}

func (be *BackendMemory) DeleteObject(_ context.Context, key string) (bool, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return false, err
	}
	_, ok := be.objects[key]
	delete(be.objects, key)
	return ok, nil
}

func (be *BackendMemory) Close() error { return nil }

func (be *BackendMemory) String() string {
	return "backend-memory"
}
