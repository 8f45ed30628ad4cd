// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"

	"github.com/staranto/dotcache/internal/pathutil"
)

// Sync writes pending changes to the backend: the aggregate document when
// dirty or force is set, then pending object deletes, then dirty objects.
// With nothing pending and force unset it makes no backend calls.
func (c *Cache) Sync(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return err
	}
	return c.sync(ctx, force)
}

// Clear drops every key. Object-backed keys are deleted from the backend on
// the next sync. With write-through the sync is forced.
func (c *Cache) Clear(ctx context.Context, opts ...WriteOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return err
	}

	pending := c.pendingDeletes
	for k := range c.objectKeys {
		pending[k] = struct{}{}
	}
	c.reset()
	c.pendingDeletes = pending
	c.dirty = true

	if c.writeThrough(opts) {
		return c.sync(ctx, true)
	}
	return nil
}

// Snapshot returns a copy of the whole cache with every object loaded.
func (c *Cache) Snapshot(ctx context.Context) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return nil, err
	}

	out := pathutil.DeepCopyMap(c.aggregate)
	for _, k := range sortedKeys(c.objectKeys) {
		v, ok, err := c.hydrate(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = pathutil.DeepCopy(v)
		}
	}
	return out, nil
}

// flush syncs when the call's write policy asks for it.
func (c *Cache) flush(ctx context.Context, opts []WriteOption) error {
	if !c.writeThrough(opts) {
		return nil
	}
	return c.sync(ctx, false)
}

func (c *Cache) sync(ctx context.Context, force bool) error {
	var writes, deletes uint64

	if c.dirty || force {
		if err := c.be.Save(ctx, pathutil.DeepCopyMap(c.aggregate)); err != nil {
			return fmt.Errorf("failed to save %s: %w", c.be, err)
		}
		c.dirty = false
		writes++
	}

	for _, k := range sortedKeys(c.pendingDeletes) {
		if _, err := c.be.DeleteObject(ctx, k); err != nil {
			return fmt.Errorf("failed to delete object %s: %w", k, err)
		}
		delete(c.pendingDeletes, k)
		deletes++
	}

	for _, k := range sortedKeys(c.dirtyObjects) {
		if err := c.be.CreateObject(ctx, k, pathutil.DeepCopy(c.objects[k])); err != nil {
			return fmt.Errorf("failed to write object %s: %w", k, err)
		}
		delete(c.dirtyObjects, k)
		writes++
	}

	if writes+deletes == 0 {
		return nil
	}

	c.syncs++
	c.writes += writes
	c.deletes += deletes
	c.logger.WithField("writes", writes).WithField("deletes", deletes).Debug("synced")
	return nil
}
