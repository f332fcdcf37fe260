package lazy

// internPool canonicalizes (flag, inst[]) pairs into unique *State pointers
// and accounts the memory those States occupy against a fixed budget.
//
// All methods here run under the DFA's plain mutex (cache.go's `mu`); the
// pool itself performs no locking of its own, matching spec §4.3's
// division of labor between `cache_mutex` (search-wide reader lock,
// upgraded briefly to flush) and `mutex` (protects the pool and the
// scratch Workqs).
type internPool struct {
	states      map[string]*State
	alphabetLen int
	budget      int64
	used        int64
}

func newInternPool(alphabetLen int, budget int64) *internPool {
	return &internPool{
		states:      make(map[string]*State),
		alphabetLen: alphabetLen,
		budget:      budget,
	}
}

// get returns the already-interned State for (flag, inst, matchPatterns), if
// any.
func (p *internPool) get(flag uint32, inst, matchPatterns []uint32) *State {
	return p.states[stateKey(flag, inst, matchPatterns)]
}

// intern returns the canonical State for (flag, inst, matchPatterns),
// allocating and registering a new one if needed and if the budget allows.
// matchPatterns is nil outside MatchKindMany. Returns (nil, false) if
// allocating a new State would exceed the budget: the caller
// (transition.go / cache.go) must flush and retry.
func (p *internPool) intern(flag uint32, inst, matchPatterns []uint32) (*State, bool) {
	key := stateKey(flag, inst, matchPatterns)
	if s, ok := p.states[key]; ok {
		return s, true
	}
	cost := approxStateBytes(len(inst), p.alphabetLen) + 4*int64(len(matchPatterns))
	if p.used+cost > p.budget {
		return nil, false
	}
	s := newState(inst, flag, matchPatterns, p.alphabetLen)
	p.states[key] = s
	p.used += cost
	return s, true
}

// registerSentinel force-registers a pre-built sentinel State (DeadState)
// without going through the normal budget check: sentinels are cheap,
// unique per DFA instance, and survive flushes (§3 invariant).
func (p *internPool) registerSentinel(key string, s *State) {
	p.states[key] = s
}

// reset clears the pool and its accounted usage back to zero, as part of a
// cache flush (§4.3 ResetCache). Sentinels are re-seeded by the caller
// immediately afterward.
func (p *internPool) reset() {
	p.states = make(map[string]*State)
	p.used = 0
}

// size returns the number of interned states, for CacheStats/testing.
func (p *internPool) size() int {
	return len(p.states)
}
