// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pathutil

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyKey is returned when a key is required but the empty string was
	// given.
	ErrEmptyKey = errors.New("key must be a non-empty string")
	// ErrKeySeparator is returned for keys that contain a path separator.
	ErrKeySeparator = errors.New("key must not contain a path separator")
)

// Path is an ordered list of non-empty segments. The empty Path addresses
// nothing.
type Path []string

// Parse splits a dotted path into segments. A literal dot inside a segment is
// written as `\.`. Empty segments are dropped, so "", "." and ".." all parse
// to the empty Path.
func Parse(s string) Path {
	var (
		segments Path
		b        strings.Builder
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == '.':
			b.WriteByte('.')
			i++
		case c == '.':
			if b.Len() > 0 {
				segments = append(segments, b.String())
			}
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if b.Len() > 0 {
		segments = append(segments, b.String())
	}

	return segments
}

// Join is the inverse of Parse. Dots inside segments are escaped and empty
// segments are skipped.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(s, ".", `\.`))
	}
	return strings.Join(parts, ".")
}

func (p Path) String() string {
	return Join(p...)
}

// Root returns the top-level segment, or "" for the empty Path.
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Get walks p through nested maps. It reports false as soon as a segment is
// missing or an intermediate value is not a map. The returned value is not
// copied.
func Get(container any, p Path) (any, bool) {
	if len(p) == 0 {
		return nil, false
	}

	current := container
	for _, seg := range p {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Set assigns value at p, creating intermediate maps as needed. Any
// intermediate that is not a map is replaced by an empty one.
func Set(container map[string]any, p Path, value any) {
	if len(p) == 0 || container == nil {
		return
	}

	current := container
	for _, seg := range p[:len(p)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[seg] = next
		}
		current = next
	}

	current[p[len(p)-1]] = value
}

// Delete removes the value at p and reports whether it existed. Intermediate
// maps left empty by the removal are pruned, working upward until the first
// non-empty ancestor. The container itself is never removed.
func Delete(container map[string]any, p Path) bool {
	if len(p) == 0 || container == nil {
		return false
	}

	parents := make([]map[string]any, 0, len(p)-1)
	current := container
	for _, seg := range p[:len(p)-1] {
		parents = append(parents, current)
		next, ok := current[seg].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	leaf := p[len(p)-1]
	if _, ok := current[leaf]; !ok {
		return false
	}
	delete(current, leaf)

	for i := len(parents) - 1; i >= 0 && len(current) == 0; i-- {
		delete(parents[i], p[i])
		current = parents[i]
	}

	return true
}

// ValidateKey checks a top-level key that may become a standalone document.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.ContainsAny(key, `/\`) {
		return ErrKeySeparator
	}
	return nil
}
