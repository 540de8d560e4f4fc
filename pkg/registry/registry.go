package registry

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"sync"

	"github.com/vorteil/moses/pkg/moerr"
)

type entry struct {
	formatter FilesystemFormatter
	metadata  FormatterMetadata
}

// Registry is a process-wide, name-keyed map of formatter handles plus an
// alias index. Entries are immutable once published: Register serializes
// writes behind a mutex; every read method (Resolve, ListByCategory,
// ListByPlatform) takes only a read lock, matching spec's single-writer/
// lock-free-reader discipline for a table that is populated once at
// startup and never mutated afterward.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*entry
	aliases map[string]string
}

// New returns an empty Registry ready for Register calls.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]*entry),
		aliases: make(map[string]string),
	}
}

// Register adds formatter under name, with metadata.Aliases also resolving
// to it. It fails with a *moerr.DuplicateNameError if name or any alias
// already names a registered formatter.
func (r *Registry) Register(name string, formatter FilesystemFormatter, metadata FormatterMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return &moerr.DuplicateNameError{Name: name}
	}
	if _, ok := r.aliases[name]; ok {
		return &moerr.DuplicateNameError{Name: name}
	}
	for _, alias := range metadata.Aliases {
		if _, ok := r.byName[alias]; ok {
			return &moerr.DuplicateNameError{Name: alias}
		}
		if _, ok := r.aliases[alias]; ok {
			return &moerr.DuplicateNameError{Name: alias}
		}
	}

	e := &entry{formatter: formatter, metadata: metadata}
	r.byName[name] = e
	for _, alias := range metadata.Aliases {
		r.aliases[alias] = name
	}
	return nil
}

// Resolve looks up a formatter by its canonical name or any alias.
func (r *Registry) Resolve(nameOrAlias string) (FilesystemFormatter, FormatterMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical := nameOrAlias
	if target, ok := r.aliases[nameOrAlias]; ok {
		canonical = target
	}
	e, ok := r.byName[canonical]
	if !ok {
		return nil, FormatterMetadata{}, &moerr.OptionInvalidError{
			Kind:  moerr.UnknownFormatter,
			Field: "filesystem",
			Value: nameOrAlias,
		}
	}
	return e.formatter, e.metadata, nil
}

// ListByCategory returns every registered formatter's metadata whose
// Category matches cat, in map iteration order (unordered; registration
// order is not preserved).
func (r *Registry) ListByCategory(cat Category) []FormatterMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []FormatterMetadata
	for _, e := range r.byName {
		if e.metadata.Category == cat {
			out = append(out, e.metadata)
		}
	}
	return out
}

// ListByPlatform returns every registered formatter's metadata that
// declares support for platform p.
func (r *Registry) ListByPlatform(p Platform) []FormatterMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []FormatterMetadata
	for _, e := range r.byName {
		for _, sp := range e.metadata.SupportedPlatforms {
			if sp == p {
				out = append(out, e.metadata)
				break
			}
		}
	}
	return out
}

// All returns every registered formatter's metadata, for list-formats
// with no category filter.
func (r *Registry) All() []FormatterMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FormatterMetadata, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e.metadata)
	}
	return out
}

// CanFormat applies the formatter's own capability gate to dev, beyond
// the registry's generic size/mount/option gates.
func CanFormat(formatter FilesystemFormatter, dev Device) bool {
	return formatter.CanFormat(dev)
}
