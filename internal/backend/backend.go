// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/dotcache/internal/backend/bolt"
	"github.com/staranto/dotcache/internal/backend/file"
	"github.com/staranto/dotcache/internal/backend/memory"
	"github.com/staranto/dotcache/internal/backend/s3"
)

// Kind selects a backend implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindBolt   Kind = "bolt"
	KindS3     Kind = "s3"
)

// Kinds lists every selector NewBackend understands.
func Kinds() []Kind {
	return []Kind{KindMemory, KindFile, KindBolt, KindS3}
}

// Backend persists one aggregate document plus independently keyed objects.
// Not-found is never an error: Fetch returns an empty map, RetrieveObject
// reports ok=false and DeleteObject reports false.
type Backend interface {
	// Connect prepares the storage location. It is idempotent.
	Connect(ctx context.Context) error
	// Fetch returns the persisted aggregate document.
	Fetch(ctx context.Context) (map[string]any, error)
	// Save replaces the persisted aggregate document.
	Save(ctx context.Context, doc map[string]any) error
	// ListObjectKeys enumerates persisted object keys.
	ListObjectKeys(ctx context.Context) ([]string, error)
	// CreateObject persists value under key and drops any aggregate entry of
	// the same name.
	CreateObject(ctx context.Context, key string, value any) error
	// RetrieveObject loads a previously created object.
	RetrieveObject(ctx context.Context, key string) (any, bool, error)
	// DeleteObject removes a persisted object and reports whether it existed.
	DeleteObject(ctx context.Context, key string) (bool, error)
	// Close releases held resources.
	Close() error
	String() string
}

// Sizer is implemented by backends that can report how many bytes they
// currently persist.
type Sizer interface {
	Size(ctx context.Context) (int64, error)
}

// KeyValidator is implemented by backends whose storage layout rejects some
// object keys. The cache asks before it accepts a new object, so a bad key
// fails the call instead of every later sync.
type KeyValidator interface {
	ValidateObjectKey(key string) error
}

// Options carries everything any backend kind may need. Each kind reads only
// the fields that apply to it.
type Options struct {
	Name string
	Dir  string

	KeyToFilename func(key string) string
	FilenameToKey func(filename string) (string, bool)

	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string
	// S3Client overrides the client built from Region/Profile.
	S3Client s3.API
}

// ParseKind maps a selector string to a Kind. Empty selects memory. Unknown
// selectors report false.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindMemory, true
	}
	for _, known := range Kinds() {
		if k == known {
			return k, true
		}
	}
	return KindMemory, false
}

// NewBackend builds the backend for kind. Unknown kinds fall back to memory
// with a logged notice.
func NewBackend(ctx context.Context, kind string, opts Options) (Backend, error) {
	k, ok := ParseKind(kind)
	if !ok {
		log.WithField("cache", opts.Name).Infof("unknown backend %q, falling back to %s", kind, KindMemory)
	}
	log.Debugf("NewBackend: kind=%s name=%s dir=%s", k, opts.Name, opts.Dir)

	switch k {
	case KindFile:
		fopts := []file.Option{file.FromDir(opts.Dir)}
		if opts.KeyToFilename != nil {
			fopts = append(fopts, file.WithKeyToFilename(opts.KeyToFilename))
		}
		if opts.FilenameToKey != nil {
			fopts = append(fopts, file.WithFilenameToKey(opts.FilenameToKey))
		}
		return file.NewBackendFile(opts.Name, fopts...)
	case KindBolt:
		return bolt.NewBackendBolt(opts.Name, bolt.FromDir(opts.Dir))
	case KindS3:
		sopts := []s3.Option{
			s3.WithBucket(opts.Bucket),
			s3.WithPrefix(opts.Prefix),
			s3.WithRegion(opts.Region),
			s3.WithProfile(opts.Profile),
			s3.WithEndpoint(opts.Endpoint),
		}
		if opts.S3Client != nil {
			sopts = append(sopts, s3.WithClient(opts.S3Client))
		}
		return s3.NewBackendS3(ctx, opts.Name, sopts...)
	case KindMemory:
		return memory.NewBackendMemory(opts.Name), nil
	}

	// This is a fail-safe. ParseKind never returns anything else.
	return nil, fmt.Errorf("unknown backend kind %s", k)
}
