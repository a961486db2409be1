// Package db implements the incremental query-database substrate described
// in spec.md §4.1: input slots with per-slot revision stamps, a single
// process-wide Storage guarded by one RWMutex, and Snapshots that pin a
// consistent read-only view by holding that mutex in read mode for their
// entire lifetime.
//
// Holding a live Snapshot while calling Storage.Set is a programming error:
// Set takes the write lock, which cannot be acquired while any Snapshot's
// read lock is outstanding, so the call blocks for as long as the Snapshot
// stays open. This is intentional — see the package-level tests — and is
// the mechanism by which the "single-writer / multi-reader" discipline in
// spec.md §5 is enforced without a reference-counting scheme.
package db

import (
	"sync"
)

// Slot is a single versioned input cell. The zero Slot has revision 0 and
// a nil value; the first Set call bumps it to revision 1.
type Slot[T any] struct {
	revision uint64
	value    T
	has      bool
}

// Revision returns the slot's current revision (0 until first Set).
func (s *Slot[T]) Revision() uint64 { return s.revision }

// Get returns the slot's current value and whether it has ever been set.
func (s *Slot[T]) Get() (T, bool) {
	return s.value, s.has
}

// Set stores a new value and bumps the revision. Callers must hold the
// owning Storage's write lock.
func (s *Slot[T]) Set(v T) {
	s.value = v
	s.has = true
	s.revision++
}

// Dep identifies one input read by a derived query, captured at the
// revision it was read at. A memo is valid as long as every Dep it recorded
// still matches the slot's current revision.
type Dep struct {
	Kind string
	Key  uint64
	Rev  uint64
}

type memoEntry struct {
	value any
	deps  []Dep
}

// Storage is the process-wide, cloneable-by-reference incremental database.
// All exported mutation goes through Set; all exported reads go through a
// Snapshot. Storage itself is never read or written directly by feature
// code — everything routes through the typed wrappers in internal/registry
// and internal/hir.
type Storage struct {
	mu sync.RWMutex

	revision uint64 // global counter, bumped on every Set, used for diagnostics only

	memo   map[string]*memoEntry
	memoMu sync.Mutex

	recomputeCounts map[string]uint64
	countsMu        sync.Mutex
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{
		memo:            make(map[string]*memoEntry),
		recomputeCounts: make(map[string]uint64),
	}
}

// Set runs fn while holding the exclusive write lock. fn is expected to
// call Slot.Set on one or more input slots owned by the caller. This is the
// only way input slots may be mutated; it is what a live Snapshot blocks.
func (s *Storage) Set(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	fn()
}

// Revision returns the storage's global revision counter (monotonically
// increasing on every Set; not itself a dependency key).
func (s *Storage) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot is an immutable, cheaply cloned handle through which derived
// queries read the database at a pinned revision. The zero value is not
// usable; obtain one via Storage.Snapshot. Close must be called exactly
// once, or the Storage deadlocks on the next Set.
type Snapshot struct {
	storage *Storage
	closed  bool
}

// Snapshot acquires a read lock on storage and returns a handle that holds
// it until Close is called. Two Snapshots taken without an intervening Set
// observe identical data, because no Set can proceed while either is open.
func (s *Storage) Snapshot() *Snapshot {
	s.mu.RLock()
	return &Snapshot{storage: s}
}

// Close releases the read lock. Safe to call once; calling it twice panics,
// matching sync.RWMutex's own double-unlock behavior, so misuse is loud.
func (snap *Snapshot) Close() {
	if snap.closed {
		panic("db: Snapshot closed twice")
	}
	snap.closed = true
	snap.storage.mu.RUnlock()
}

// Storage exposes the owning Storage for read helpers (internal/registry,
// internal/hir) that need to read Slot values under the pinned lock.
func (snap *Snapshot) Storage() *Storage {
	return snap.storage
}

// RecomputeCount returns how many times the named query actually
// recomputed (as opposed to served a cache hit), for invalidation-
// correctness tests (spec.md §8 property 3).
func (s *Storage) RecomputeCount(query string) uint64 {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	return s.recomputeCounts[query]
}

func (s *Storage) bumpRecompute(query string) {
	s.countsMu.Lock()
	s.recomputeCounts[query]++
	s.countsMu.Unlock()
}

// Memoize looks up the memo cache entry for (query, key). If it exists and
// every recorded Dep still matches currentRev, the cached value is
// returned without calling compute. Otherwise compute is invoked, its
// result is cached alongside newDeps, and the query's recompute counter is
// bumped.
//
// currentRev must return, for a given Dep (identified by Kind/Key), its
// current revision; compute must return both the value and the set of Deps
// it actually read (so unrelated Sets never invalidate this entry).
func Memoize[T any](s *Storage, query string, key string, currentRev func(Dep) uint64, compute func() (T, []Dep)) T {
	cacheKey := query + "\x00" + key

	s.memoMu.Lock()
	entry, ok := s.memo[cacheKey]
	s.memoMu.Unlock()

	if ok {
		valid := true
		for _, d := range entry.deps {
			if currentRev(d) != d.Rev {
				valid = false
				break
			}
		}
		if valid {
			return entry.value.(T)
		}
	}

	value, deps := compute()
	s.bumpRecompute(query)

	s.memoMu.Lock()
	s.memo[cacheKey] = &memoEntry{value: value, deps: deps}
	s.memoMu.Unlock()

	return value
}

// InvalidateAll drops every memoized derived-query result. Used by
// rebuild-project-files style operations that touch so much of the
// dependency surface that per-dep revision bookkeeping isn't worth it.
func (s *Storage) InvalidateAll() {
	s.memoMu.Lock()
	s.memo = make(map[string]*memoEntry)
	s.memoMu.Unlock()
}
