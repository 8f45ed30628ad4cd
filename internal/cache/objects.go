// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/staranto/dotcache/internal/backend"
	"github.com/staranto/dotcache/internal/pathutil"
)

// CreateObject makes key object-backed with a copy of value. Any aggregate
// entry under key is discarded and a pending delete of key is cancelled.
// Keys the backend cannot store are rejected before anything changes.
func (c *Cache) CreateObject(ctx context.Context, key string, value any, opts ...WriteOption) error {
	if err := c.validateObjectKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return err
	}

	v, err := pathutil.Normalize(value)
	if err != nil {
		return fmt.Errorf("failed to create object %s: %w", key, err)
	}

	if _, ok := c.aggregate[key]; ok {
		delete(c.aggregate, key)
		c.dirty = true
	}
	delete(c.pendingDeletes, key)
	c.objectKeys[key] = struct{}{}
	c.objects[key] = v
	c.dirtyObjects[key] = struct{}{}

	return c.flush(ctx, opts)
}

// RetrieveObject returns a copy of the object stored under key. ok is false
// when key is not object-backed or the backend no longer holds it.
func (c *Cache) RetrieveObject(ctx context.Context, key string) (any, bool, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return nil, false, err
	}
	if !c.isObject(key) {
		return nil, false, nil
	}

	v, ok, err := c.hydrate(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return pathutil.DeepCopy(v), true, nil
}

// DeleteObject removes key whether it is object-backed or an aggregate
// entry, and reports whether anything was removed.
func (c *Cache) DeleteObject(ctx context.Context, key string, opts ...WriteOption) (bool, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return false, err
	}

	removed := false
	if c.isObject(key) {
		c.dropObject(key)
		removed = true
	}
	if _, ok := c.aggregate[key]; ok {
		delete(c.aggregate, key)
		c.dirty = true
		removed = true
	}
	if !removed {
		return false, nil
	}
	return true, c.flush(ctx, opts)
}

// validateObjectKey applies the common key rules, rejects dotted keys and
// then defers to the backend when it restricts keys further.
func (c *Cache) validateObjectKey(key string) error {
	if err := pathutil.ValidateKey(key); err != nil {
		return err
	}
	if strings.Contains(key, ".") {
		return fmt.Errorf("%q: %w", key, ErrDottedObjectKey)
	}
	if kv, ok := c.be.(backend.KeyValidator); ok {
		if err := kv.ValidateObjectKey(key); err != nil {
			return err
		}
	}
	return nil
}

// hydrate returns the cached object for key, loading it on first touch.
func (c *Cache) hydrate(ctx context.Context, key string) (any, bool, error) {
	if v, ok := c.objects[key]; ok {
		return v, true, nil
	}

	v, ok, err := c.be.RetrieveObject(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load object %s: %w", key, err)
	}
	if !ok {
		c.logger.Debugf("object %q is listed but not stored", key)
		return nil, false, nil
	}

	v, err = pathutil.Normalize(v)
	if err != nil {
		c.logger.WithError(err).Warnf("ignoring unreadable object %q", key)
		return nil, false, nil
	}
	c.objects[key] = v
	c.hydrations++
	return v, true, nil
}

// dropObject forgets key as an object and schedules its backend deletion.
func (c *Cache) dropObject(key string) {
	delete(c.objectKeys, key)
	delete(c.objects, key)
	delete(c.dirtyObjects, key)
	c.pendingDeletes[key] = struct{}{}
}
