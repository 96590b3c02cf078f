// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrAlreadyRegistered indicates a duplicate benchmark name.
	ErrAlreadyRegistered = errors.New("benchmark already registered")

	// ErrNotFound indicates the named benchmark is not registered.
	ErrNotFound = errors.New("benchmark not found")
)

// Entry pairs a benchmark with its configuration in a registry.
type Entry struct {
	Config    Config
	Benchmark Benchmark
}

// Registry holds named benchmarks for lookup and suite runs.
//
// Description:
//
//	The Registry is a central place to register benchmarks so the CLI and
//	RunAll can find them by name. Registration is concurrency-safe; running
//	the registered benchmarks remains strictly sequential and is the
//	Runner's business.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	hooks   []RegistrationHook
}

// RegistrationHook is called when a benchmark is registered or unregistered.
type RegistrationHook func(name string, entry *Entry, registered bool)

// NewRegistry creates a new empty registry.
//
// Outputs:
//   - *Registry: The new registry. Never nil.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		hooks:   make([]RegistrationHook, 0),
	}
}

// Register adds a benchmark under its config name.
//
// Inputs:
//   - cfg: The benchmark's configuration. Validated before registration.
//   - b: The work unit. Must not be nil.
//
// Outputs:
//   - error: nil on success; ErrNilBenchmark, a config validation error, or
//     ErrAlreadyRegistered.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Register(cfg Config, b Benchmark) error {
	if b == nil {
		return ErrNilBenchmark
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[cfg.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, cfg.Name)
	}

	entry := &Entry{Config: cfg, Benchmark: b}
	r.entries[cfg.Name] = entry

	for _, hook := range r.hooks {
		hook(cfg.Name, entry, true)
	}

	return nil
}

// MustRegister registers a benchmark and panics on error. Intended for
// start-up wiring, not runtime registration.
func (r *Registry) MustRegister(cfg Config, b Benchmark) {
	if err := r.Register(cfg, b); err != nil {
		panic(fmt.Sprintf("benchmark: failed to register %q: %v", cfg.Name, err))
	}
}

// Unregister removes the named benchmark.
//
// Outputs:
//   - error: nil on success, ErrNotFound if not registered.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	delete(r.entries, name)

	for _, hook := range r.hooks {
		hook(name, entry, false)
	}

	return nil
}

// Get retrieves a benchmark entry by name.
//
// Outputs:
//   - *Entry: The entry, or nil if not found.
//   - bool: true if found.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	return entry, exists
}

// MustGet retrieves a benchmark entry by name, panicking if not found.
func (r *Registry) MustGet(name string) *Entry {
	entry, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("benchmark: not registered: %s", name))
	}
	return entry
}

// List returns all registered benchmark names, sorted.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the entries map.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) All() map[string]*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Entry, len(r.entries))
	for name, entry := range r.entries {
		result[name] = entry
	}
	return result
}

// Count returns the number of registered benchmarks.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes all benchmarks from the registry.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, entry := range r.entries {
		for _, hook := range r.hooks {
			hook(name, entry, false)
		}
	}

	r.entries = make(map[string]*Entry)
}

// AddHook adds a registration hook.
//
// Description:
//
//	Hooks fire on register and unregister with the benchmark name, its
//	entry, and whether it was added (true) or removed (false).
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) AddHook(hook RegistrationHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// DefaultResultKeys maps each registered benchmark to its default result
// key, for monitoring that tracks one series per benchmark.
//
// Thread Safety: Safe for concurrent use.
func (r *Registry) DefaultResultKeys() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]string, len(r.entries))
	for name, entry := range r.entries {
		result[name] = entry.Benchmark.DefaultResultKey()
	}
	return result
}

// -----------------------------------------------------------------------------
// Default Registry
// -----------------------------------------------------------------------------

// DefaultRegistry is the global registry instance. Benchmarks can register
// themselves during init() using MustRegister.
var DefaultRegistry = NewRegistry()

// Register registers a benchmark with the default registry.
func Register(cfg Config, b Benchmark) error {
	return DefaultRegistry.Register(cfg, b)
}

// MustRegister registers a benchmark with the default registry, panicking on
// error.
func MustRegister(cfg Config, b Benchmark) {
	DefaultRegistry.MustRegister(cfg, b)
}

// Get retrieves a benchmark entry from the default registry.
func Get(name string) (*Entry, bool) {
	return DefaultRegistry.Get(name)
}

// List returns all benchmark names from the default registry.
func List() []string {
	return DefaultRegistry.List()
}
