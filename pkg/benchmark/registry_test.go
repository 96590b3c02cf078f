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
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("Count = %d, want 0", reg.Count())
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		reg := NewRegistry()
		cfg := mustConfig(t, "scan", 2, 3)

		if err := reg.Register(cfg, newTestUnit()); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if reg.Count() != 1 {
			t.Errorf("Count = %d, want 1", reg.Count())
		}
		entry, ok := reg.Get("scan")
		if !ok {
			t.Fatal("registered benchmark not found")
		}
		if entry.Config.WarmupIterations != 2 {
			t.Errorf("WarmupIterations = %d, want 2", entry.Config.WarmupIterations)
		}
	})

	t.Run("nil benchmark", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.Register(mustConfig(t, "scan", 0, 1), nil)
		if !errors.Is(err, ErrNilBenchmark) {
			t.Errorf("error = %v, want ErrNilBenchmark", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.Register(Config{Name: "", MeasuredIterations: 1}, newTestUnit())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		reg := NewRegistry()
		cfg := mustConfig(t, "scan", 0, 1)
		if err := reg.Register(cfg, newTestUnit()); err != nil {
			t.Fatalf("first Register failed: %v", err)
		}
		err := reg.Register(cfg, newTestUnit())
		if !errors.Is(err, ErrAlreadyRegistered) {
			t.Errorf("error = %v, want ErrAlreadyRegistered", err)
		}
	})
}

func TestRegistry_MustRegister(t *testing.T) {
	t.Run("success does not panic", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(mustConfig(t, "scan", 0, 1), newTestUnit())
		if reg.Count() != 1 {
			t.Errorf("Count = %d, want 1", reg.Count())
		}
	})

	t.Run("duplicate panics", func(t *testing.T) {
		reg := NewRegistry()
		cfg := mustConfig(t, "scan", 0, 1)
		reg.MustRegister(cfg, newTestUnit())

		defer func() {
			if recover() == nil {
				t.Error("MustRegister should panic on duplicate registration")
			}
		}()
		reg.MustRegister(cfg, newTestUnit())
	})
}

func TestRegistry_Unregister(t *testing.T) {
	t.Run("removes the benchmark", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(mustConfig(t, "scan", 0, 1), newTestUnit())

		if err := reg.Unregister("scan"); err != nil {
			t.Fatalf("Unregister failed: %v", err)
		}
		if reg.Count() != 0 {
			t.Errorf("Count = %d, want 0", reg.Count())
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		reg := NewRegistry()
		if err := reg.Unregister("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestRegistry_MustGet(t *testing.T) {
	t.Run("returns the entry", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(mustConfig(t, "scan", 0, 1), newTestUnit())
		if entry := reg.MustGet("scan"); entry.Config.Name != "scan" {
			t.Errorf("Name = %q, want scan", entry.Config.Name)
		}
	})

	t.Run("unknown name panics", func(t *testing.T) {
		reg := NewRegistry()
		defer func() {
			if recover() == nil {
				t.Error("MustGet should panic for an unknown name")
			}
		}()
		reg.MustGet("missing")
	})
}

func TestRegistry_List(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(mustConfig(t, "charlie", 0, 1), newTestUnit())
	reg.MustRegister(mustConfig(t, "alpha", 0, 1), newTestUnit())
	reg.MustRegister(mustConfig(t, "bravo", 0, 1), newTestUnit())

	names := reg.List()
	want := []string{"alpha", "bravo", "charlie"}
	if len(names) != len(want) {
		t.Fatalf("List = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistry_All(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(mustConfig(t, "scan", 0, 1), newTestUnit())

	all := reg.All()
	if len(all) != 1 {
		t.Fatalf("All = %d entries, want 1", len(all))
	}

	// The returned map is a copy; mutating it must not affect the registry.
	delete(all, "scan")
	if reg.Count() != 1 {
		t.Error("mutating the All() copy changed the registry")
	}
}

func TestRegistry_Clear(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(mustConfig(t, "one", 0, 1), newTestUnit())
	reg.MustRegister(mustConfig(t, "two", 0, 1), newTestUnit())

	reg.Clear()
	if reg.Count() != 0 {
		t.Errorf("Count = %d, want 0", reg.Count())
	}
}

func TestRegistry_AddHook(t *testing.T) {
	reg := NewRegistry()

	type event struct {
		name       string
		registered bool
	}
	var events []event
	reg.AddHook(func(name string, entry *Entry, registered bool) {
		events = append(events, event{name, registered})
	})

	reg.MustRegister(mustConfig(t, "scan", 0, 1), newTestUnit())
	if err := reg.Unregister("scan"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0] != (event{"scan", true}) {
		t.Errorf("first event = %+v, want register", events[0])
	}
	if events[1] != (event{"scan", false}) {
		t.Errorf("second event = %+v, want unregister", events[1])
	}
}

func TestRegistry_DefaultResultKeys(t *testing.T) {
	reg := NewRegistry()
	rows := newTestUnit()
	rows.defaultKey = MetricOutputRows
	reg.MustRegister(mustConfig(t, "cpu_bench", 0, 1), newTestUnit())
	reg.MustRegister(mustConfig(t, "rows_bench", 0, 1), rows)

	keys := reg.DefaultResultKeys()
	if keys["cpu_bench"] != MetricCPUNanos {
		t.Errorf("cpu_bench key = %q, want cpu_nanos", keys["cpu_bench"])
	}
	if keys["rows_bench"] != MetricOutputRows {
		t.Errorf("rows_bench key = %q, want output_rows", keys["rows_bench"])
	}
}

func TestDefaultRegistry(t *testing.T) {
	// The package-level helpers operate on DefaultRegistry; clean up so other
	// tests see a pristine global.
	t.Cleanup(DefaultRegistry.Clear)

	if err := Register(mustConfig(t, "global_bench", 0, 1), newTestUnit()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, ok := Get("global_bench"); !ok {
		t.Error("Get did not find the globally registered benchmark")
	}
	found := false
	for _, name := range List() {
		if name == "global_bench" {
			found = true
		}
	}
	if !found {
		t.Error("List did not include the globally registered benchmark")
	}
}
