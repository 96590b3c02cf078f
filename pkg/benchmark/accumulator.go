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

// Accumulator collects metric snapshots and computes running averages.
//
// Description:
//
//	Accumulator keeps an independent (sum, count) pair per metric key, so
//	snapshots with differing key sets still average correctly: each key's
//	mean covers only the snapshots that contained it. Mismatched key sets
//	are tolerated silently rather than validated. A fresh Accumulator is
//	created for every run and discarded after Averages.
//
// Thread Safety: NOT safe for concurrent use. The run protocol is strictly
// sequential and the accumulator is owned by a single run invocation.
type Accumulator struct {
	sums   map[string]float64
	counts map[string]int64
	added  int
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		sums:   make(map[string]float64),
		counts: make(map[string]int64),
	}
}

// Add folds one snapshot into the running sums.
//
// Description:
//
//	For every (key, value) pair the value is added to the key's running sum
//	and the key's count is incremented by one. Keys never seen before start
//	at (value, 1). A nil or empty snapshot still counts as an added
//	snapshot but contributes to no key.
func (a *Accumulator) Add(s Snapshot) {
	for k, v := range s {
		a.sums[k] += float64(v)
		a.counts[k]++
	}
	a.added++
}

// Averages computes sum/count for every key seen so far.
//
// Outputs:
//   - map[string]float64: Per-key arithmetic mean. Empty (never nil) when no
//     snapshots carried any keys, so zero measured iterations produce an
//     empty mapping and no division by zero.
func (a *Accumulator) Averages() map[string]float64 {
	out := make(map[string]float64, len(a.sums))
	for k, sum := range a.sums {
		if n := a.counts[k]; n > 0 {
			out[k] = sum / float64(n)
		}
	}
	return out
}

// Len returns the number of snapshots added, including empty ones.
func (a *Accumulator) Len() int {
	return a.added
}

// Count returns how many snapshots contained key.
func (a *Accumulator) Count(key string) int64 {
	return a.counts[key]
}
