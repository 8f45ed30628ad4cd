// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/staranto/dotcache/internal/pathutil"
)

// Get returns a copy of the value at path. ok is false when nothing is
// stored there.
func (c *Cache) Get(ctx context.Context, path string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return nil, false, err
	}

	v, ok, err := c.lookup(ctx, pathutil.Parse(path))
	if err != nil || !ok {
		return nil, false, err
	}
	return pathutil.DeepCopy(v), true, nil
}

// Has reports whether a value is stored at path. A bare object-backed key is
// present without being loaded.
func (c *Cache) Has(ctx context.Context, path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return false, err
	}

	p := pathutil.Parse(path)
	if len(p) == 1 && c.isObject(p.Root()) {
		return true, nil
	}
	_, ok, err := c.lookup(ctx, p)
	return ok, err
}

// Set stores a copy of value at path. Under an object-backed key the
// object is modified; assigning the bare key of an object demotes it back to
// an aggregate entry and schedules the object's deletion.
func (c *Cache) Set(ctx context.Context, path string, value any, opts ...WriteOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return err
	}

	v, err := pathutil.Normalize(value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}

	changed, err := c.set(ctx, pathutil.Parse(path), v)
	if err != nil || !changed {
		return err
	}
	return c.flush(ctx, opts)
}

// Delete removes the value at path and reports whether anything was there.
// Deleting a bare object-backed key deletes the object.
func (c *Cache) Delete(ctx context.Context, path string, opts ...WriteOption) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return false, err
	}

	removed, err := c.delete(ctx, pathutil.Parse(path))
	if err != nil || !removed {
		return false, err
	}
	return true, c.flush(ctx, opts)
}

// Add adds delta to the number at path and returns the result. A missing or
// non-numeric value counts as 0.
func (c *Cache) Add(ctx context.Context, path string, delta float64, opts ...WriteOption) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.add(ctx, path, delta, opts)
}

// Subtract is Add with the delta negated.
func (c *Cache) Subtract(ctx context.Context, path string, delta float64, opts ...WriteOption) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.add(ctx, path, -delta, opts)
}

// Push appends a copy of elem to the sequence at path and returns the new
// length. A missing or non-sequence value counts as empty.
func (c *Cache) Push(ctx context.Context, path string, elem any, opts ...WriteOption) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return 0, err
	}

	p := pathutil.Parse(path)
	if len(p) == 0 {
		return 0, nil
	}

	e, err := pathutil.Normalize(elem)
	if err != nil {
		return 0, fmt.Errorf("failed to push to %s: %w", path, err)
	}

	cur, _, err := c.lookup(ctx, p)
	if err != nil {
		return 0, err
	}
	old, _ := cur.([]any)

	seq := make([]any, len(old), len(old)+1)
	copy(seq, old)
	seq = append(seq, e)

	if _, err := c.set(ctx, p, seq); err != nil {
		return 0, err
	}
	return len(seq), c.flush(ctx, opts)
}

func (c *Cache) add(ctx context.Context, path string, delta float64, opts []WriteOption) (float64, error) {
	if err := c.usable(); err != nil {
		return 0, err
	}

	p := pathutil.Parse(path)
	if len(p) == 0 {
		return 0, nil
	}

	cur, _, err := c.lookup(ctx, p)
	if err != nil {
		return 0, err
	}

	n := toNumber(cur) + delta
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("failed to update %s: result %v is not a finite number", path, n)
	}

	if _, err := c.set(ctx, p, n); err != nil {
		return 0, err
	}
	return n, c.flush(ctx, opts)
}

// lookup resolves p without copying. Object roots are hydrated on demand.
func (c *Cache) lookup(ctx context.Context, p pathutil.Path) (any, bool, error) {
	if len(p) == 0 {
		return nil, false, nil
	}

	root := p.Root()
	if !c.isObject(root) {
		v, ok := pathutil.Get(c.aggregate, p)
		return v, ok, nil
	}

	obj, ok, err := c.hydrate(ctx, root)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(p) == 1 {
		return obj, true, nil
	}
	v, ok := pathutil.Get(obj, p[1:])
	return v, ok, nil
}

// set assigns an already normalised value and marks what it touched dirty.
func (c *Cache) set(ctx context.Context, p pathutil.Path, v any) (bool, error) {
	if len(p) == 0 {
		return false, nil
	}

	root := p.Root()
	if !c.isObject(root) {
		pathutil.Set(c.aggregate, p, v)
		c.dirty = true
		return true, nil
	}

	if len(p) == 1 {
		c.dropObject(root)
		c.aggregate[root] = v
		c.dirty = true
		c.logger.Debugf("object %q replaced by an aggregate value", root)
		return true, nil
	}

	obj, ok, err := c.hydrate(ctx, root)
	if err != nil {
		return false, err
	}
	m, isMap := obj.(map[string]any)
	if !ok || !isMap {
		m = map[string]any{}
	}
	pathutil.Set(m, p[1:], v)
	c.objects[root] = m
	c.dirtyObjects[root] = struct{}{}
	return true, nil
}

func (c *Cache) delete(ctx context.Context, p pathutil.Path) (bool, error) {
	if len(p) == 0 {
		return false, nil
	}

	root := p.Root()
	if !c.isObject(root) {
		if !pathutil.Delete(c.aggregate, p) {
			return false, nil
		}
		c.dirty = true
		return true, nil
	}

	if len(p) == 1 {
		c.dropObject(root)
		return true, nil
	}

	obj, ok, err := c.hydrate(ctx, root)
	if err != nil || !ok {
		return false, err
	}
	m, isMap := obj.(map[string]any)
	if !isMap || !pathutil.Delete(m, p[1:]) {
		return false, nil
	}
	c.dirtyObjects[root] = struct{}{}
	return true, nil
}

// toNumber coerces v to a number. Anything that is not a number or a
// numeric string is 0.
func toNumber(v any) float64 {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
