package lazy

import "sync"

// rwLocker implements the scoped reader/writer discipline described in
// spec §4.3: a search enters in read mode for its whole duration; a flush
// needs the writer briefly. The upgrade from reader to writer is NOT
// atomic — any State pointers resolved before the upgrade must not be
// dereferenced afterward. Callers that need to survive an upgrade use a
// stateSaver (below) to re-resolve canonical identity once the writer lock
// (and later the reader lock) is reacquired.
type rwLocker struct {
	mu      *sync.RWMutex
	writing bool
}

func newRWLocker(mu *sync.RWMutex) *rwLocker {
	l := &rwLocker{mu: mu}
	l.mu.RLock()
	return l
}

// upgradeToWriting releases the reader lock and acquires the writer lock.
// Not atomic: another goroutine may flush or mutate state in between.
func (l *rwLocker) upgradeToWriting() {
	if l.writing {
		return
	}
	l.mu.RUnlock()
	l.mu.Lock()
	l.writing = true
}

// downgradeToReading releases the writer lock and re-acquires the reader
// lock, so the caller can resume searching after a flush.
func (l *rwLocker) downgradeToReading() {
	if !l.writing {
		return
	}
	l.mu.Unlock()
	l.mu.RLock()
	l.writing = false
}

// release drops whichever lock is currently held. Must be called exactly
// once, typically via defer, when a search or maintenance operation ends.
func (l *rwLocker) release() {
	if l.writing {
		l.mu.Unlock()
	} else {
		l.mu.RUnlock()
	}
}

// stateSaver holds a State's (inst, flag) by value so that, across a cache
// flush, its canonical identity can be recovered by re-interning rather
// than by dereferencing a now-possibly-stale pointer (spec §4.5).
type stateSaver struct {
	inst          []uint32
	flag          uint32
	matchPatterns []uint32
}

func saveState(s *State) stateSaver {
	inst := make([]uint32, len(s.inst))
	copy(inst, s.inst)
	matchPatterns := make([]uint32, len(s.matchPatterns))
	copy(matchPatterns, s.matchPatterns)
	return stateSaver{inst: inst, flag: s.flag, matchPatterns: matchPatterns}
}

// resetCache clears the intern pool and arena, re-seeds the DeadState
// sentinel, and drops all cached start states, per spec §4.3's flush policy.
// The caller must hold the writer lock (cacheMu) and the plain mutex when
// calling this.
func (d *DFA) resetCache() {
	d.pool.reset()
	d.seedSentinels()
	d.starts.reset()
	d.clearCount++
}

// seedSentinels installs DeadState into the intern pool under its fixed,
// hand-chosen key. It is unique per DFA instance and survives flushes
// untouched (spec §3 invariant): resetCache re-seeds it with the very same
// *State pointer each time, so any goroutine still holding a reference to
// d.dead observes a stable identity.
func (d *DFA) seedSentinels() {
	d.pool.registerSentinel("\x00dead", d.dead)
}

// CacheStats reports basic occupancy counters, useful for tests and metrics.
type CacheStats struct {
	States     int
	UsedBytes  int64
	BudgetByte int64
	Flushes    int
}

// CacheStats returns a snapshot of the cache's current occupancy.
func (d *DFA) CacheStats() CacheStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return CacheStats{
		States:     d.pool.size(),
		UsedBytes:  d.pool.used,
		BudgetByte: d.pool.budget,
		Flushes:    d.clearCount,
	}
}

// ResetCache forces an unconditional flush, for tests that want to observe
// flush-transparency (spec §8: "after a cache flush, re-running the same
// search yields the same end pointer").
func (d *DFA) ResetCache() {
	l := newRWLocker(&d.cacheMu)
	defer l.release()
	l.upgradeToWriting()
	d.mu.Lock()
	d.resetCache()
	d.mu.Unlock()
}
