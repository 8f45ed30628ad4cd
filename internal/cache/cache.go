// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/apex/log"

	"github.com/staranto/dotcache/internal/backend"
	mylog "github.com/staranto/dotcache/internal/log"
	"github.com/staranto/dotcache/internal/pathutil"
	"github.com/staranto/dotcache/internal/scheduler"
)

// Cache is the path-addressed engine. A key is never in both aggregate and
// objectKeys. Every dirty object is present in objects, and a pending delete
// is never also a dirty object.
type Cache struct {
	opts      Options
	be        backend.Backend
	logger    log.Interface
	scheduler *scheduler.Scheduler

	// mu serialises callers with the interval scheduler's goroutine.
	mu sync.Mutex

	aggregate      map[string]any
	objectKeys     map[string]struct{}
	objects        map[string]any
	dirty          bool
	dirtyObjects   map[string]struct{}
	pendingDeletes map[string]struct{}

	initialized bool
	closed      bool

	syncs      uint64
	writes     uint64
	deletes    uint64
	hydrations uint64
}

// Stats is a point-in-time view of the cache's bookkeeping.
type Stats struct {
	AggregateKeys   int
	ObjectKeys      int
	HydratedObjects int
	Dirty           bool
	DirtyObjects    int
	PendingDeletes  int

	// Syncs counts Sync calls that reached the backend.
	Syncs uint64
	// Writes counts aggregate saves plus object writes.
	Writes uint64
	// Deletes counts object deletions sent to the backend.
	Deletes uint64
	// Hydrations counts objects loaded from the backend.
	Hydrations uint64
}

// New builds a cache and its backend from opts. Call Init before use.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.Name == "" {
		return nil, ErrMissingName
	}

	be, err := backend.NewBackend(ctx, opts.Backend, backend.Options{
		Name:          opts.Name,
		Dir:           opts.Dir,
		KeyToFilename: opts.KeyToFilename,
		FilenameToKey: opts.FilenameToKey,
		Bucket:        opts.Bucket,
		Prefix:        opts.Prefix,
		Region:        opts.Region,
		Profile:       opts.Profile,
		Endpoint:      opts.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return NewWithBackend(opts, be)
}

// NewWithBackend builds a cache over an already constructed backend.
// opts.Backend and the storage fields are ignored.
func NewWithBackend(opts Options, be backend.Backend) (*Cache, error) {
	if opts.Name == "" {
		return nil, ErrMissingName
	}
	if be == nil {
		return nil, errors.New("backend is required")
	}

	c := &Cache{
		opts:   opts,
		be:     be,
		logger: mylog.NewLogger(opts.Name, opts.Debug, opts.LogFunc),
	}
	c.reset()
	c.scheduler = scheduler.New(c, opts.SyncInterval, c.logger)
	return c, nil
}

// Open is New followed by Init.
func Open(ctx context.Context, opts Options, seed map[string]any) (*Cache, error) {
	c, err := New(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx, seed); err != nil {
		_ = c.be.Close()
		return nil, err
	}
	return c, nil
}

// Init loads the backend's persisted state into memory, replacing anything
// held. When nothing is persisted and seed is non-nil, seed becomes the
// aggregate content and is written immediately. Init starts the interval
// scheduler when one is configured.
func (c *Cache) Init(ctx context.Context, seed map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if err := c.be.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect %s: %w", c.be, err)
	}

	doc, err := c.be.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", c.be, err)
	}
	keys, err := c.be.ListObjectKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list objects in %s: %w", c.be, err)
	}

	c.reset()
	c.aggregate = pathutil.DeepCopyMap(doc)
	for _, k := range keys {
		if strings.Contains(k, ".") {
			c.logger.Warnf("ignoring stored object %q: object keys must not contain '.'", k)
			continue
		}
		c.objectKeys[k] = struct{}{}
		if _, ok := c.aggregate[k]; ok {
			c.logger.Warnf("dropping aggregate entry %q shadowed by an object", k)
			delete(c.aggregate, k)
			c.dirty = true
		}
	}
	c.initialized = true

	c.logger.Debugf("loaded %d aggregate keys and %d objects from %s", len(c.aggregate), len(c.objectKeys), c.be)

	if seed != nil && len(c.aggregate) == 0 && len(c.objectKeys) == 0 {
		v, err := pathutil.Normalize(seed)
		if err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
		if m, ok := v.(map[string]any); ok {
			c.aggregate = m
		}
		c.dirty = true
		c.logger.Debugf("seeded with %d keys", len(c.aggregate))
		if err := c.sync(ctx, false); err != nil {
			return err
		}
	}

	c.scheduler.Start(ctx)
	return nil
}

// Close stops the interval scheduler, optionally syncs, and closes the
// backend. Every later operation returns ErrClosed. Closing twice is a no-op.
func (c *Cache) Close(ctx context.Context) error {
	// Stop before locking: an in-flight periodic sync needs the lock.
	c.scheduler.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var syncErr error
	if c.opts.FlushOnClose && c.initialized {
		syncErr = c.sync(ctx, false)
	}
	return errors.Join(syncErr, c.be.Close())
}

// Name returns the cache name.
func (c *Cache) Name() string {
	return c.opts.Name
}

// Backend returns the backend the cache persists through.
func (c *Cache) Backend() backend.Backend {
	return c.be
}

// Keys returns every top-level key, aggregate and object-backed, sorted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.aggregate)+len(c.objectKeys))
	for k := range c.aggregate {
		keys = append(keys, k)
	}
	for k := range c.objectKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns len(Keys()).
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.aggregate) + len(c.objectKeys)
}

// IsObject reports whether key is object-backed.
func (c *Cache) IsObject(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isObject(key)
}

// Stats returns a point-in-time copy of the cache's bookkeeping counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		AggregateKeys:   len(c.aggregate),
		ObjectKeys:      len(c.objectKeys),
		HydratedObjects: len(c.objects),
		Dirty:           c.dirty,
		DirtyObjects:    len(c.dirtyObjects),
		PendingDeletes:  len(c.pendingDeletes),
		Syncs:           c.syncs,
		Writes:          c.writes,
		Deletes:         c.deletes,
		Hydrations:      c.hydrations,
	}
}

func (c *Cache) reset() {
	c.aggregate = map[string]any{}
	c.objectKeys = map[string]struct{}{}
	c.objects = map[string]any{}
	c.dirty = false
	c.dirtyObjects = map[string]struct{}{}
	c.pendingDeletes = map[string]struct{}{}
}

func (c *Cache) usable() error {
	if c.closed {
		return ErrClosed
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	return nil
}

func (c *Cache) isObject(key string) bool {
	_, ok := c.objectKeys[key]
	return ok
}

// writeThrough resolves the per-call write policy.
func (c *Cache) writeThrough(opts []WriteOption) bool {
	wo := writeOptions{syncNow: c.opts.WriteThrough}
	for _, opt := range opts {
		opt(&wo)
	}
	return wo.syncNow
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
