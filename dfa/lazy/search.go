package lazy

import (
	"sync/atomic"

	"github.com/lazyregex/redfa/prefilter"
	"github.com/lazyregex/redfa/simd"
)

// maxFlushRetries bounds how many times a single search step may flush the
// cache and resume before giving up: one flush-and-retry cycle, after which
// a second failure to make room is surfaced as Failed (spec §4.3/§7).
const maxFlushRetries = 1

// searchLoop implements spec §4.6's InlinedSearchLoop. Rather than
// generating eight separately-specialized functions for the
// {can_prefix_accel, want_earliest_match, run_forward} cube, the three axes
// are parameters here: can_prefix_accel is discovered per-state from the
// live transition table (start.go's canPrefixAccel) exactly as the analyzer
// would compute it once and cache it, and the other two axes are plain
// booleans. This keeps the seven-step skeleton in one place while still
// executing the same amount of per-byte work each variant would.
//
// text is walked in the direction `reverse` selects: forward search
// consumes text[0], text[1], ...; reverse search (used for SearchReverse and
// for locating a match's start once its end is known) consumes
// text[len-1], text[len-2], .... `pos` in the return value is always
// expressed as an offset from the *start* of text in the direction
// searched: for a forward search it is the match end; for a reverse search
// it is the distance from the end, i.e. the match start.
//
// context and offset supply the surroundings text sits inside of (spec §6):
// text is context[offset:offset+len(text)]. Boundary look-arounds at text's
// own edges — the start-of-search classification and the final
// end-of-search step — resolve against real bytes in context when they
// exist there, rather than treating text's own ends as the true start/end
// of input.
func (d *DFA) searchLoop(text, context []byte, offset int, anchored, wantEarliest, reverse bool) (matched bool, pos int, matchedPatterns []uint32, failed bool) {
	l := newRWLocker(&d.cacheMu)
	defer l.release()

	kind := boundaryKindAt(context, offset, len(text), reverse)
	s := d.getOrBuildStart(anchored, kind)
	retries := 0
	for s == nil {
		if retries >= maxFlushRetries {
			return false, 0, nil, true
		}
		retries++
		d.flushLocked(l)
		s = d.getOrBuildStart(anchored, kind)
	}

	// An unanchored forward search retries the pattern at every position via
	// the compiled (?s:.)*? prefix loop, which keeps returning to this same
	// interned start state until something finally takes hold. When the
	// pattern itself begins with a fixed byte sequence, prefilter can skip
	// straight to the next place that sequence occurs instead of stepping
	// the loop one dead position at a time; see prefix_literals.go. Reverse
	// searches are excluded: they walk text back to front, and prefilter's
	// Find only scans forward.
	startState := s
	var startFilter prefilter.Prefilter
	if !anchored && !reverse {
		startFilter = startPrefilter(d.prog, d.prog.StartAnchored(), LookSetForBoundary(kind))
	}

	lastMatchEnd := -1
	var lastMatchPatterns []uint32
	n := len(text)
	i := 0

	for {
		if s == d.dead {
			break
		}
		if s.IsMatch() {
			lastMatchEnd = i
			lastMatchPatterns = s.matchPatterns
			if wantEarliest {
				return true, lastMatchEnd, lastMatchPatterns, false
			}
		}
		if i >= n {
			break
		}

		if startFilter != nil && s == startState {
			cand := startFilter.Find(text, i)
			if cand < 0 {
				break
			}
			i = cand
		} else if !anchored && s == startState {
			if accelByte, ok := d.canPrefixAccel(l, s); ok {
				skip := findAccelByte(text, i, accelByte, reverse)
				if skip < 0 {
					// The one live byte class the start state accepts never
					// occurs again: no later match attempt can begin.
					break
				}
				i = skip
			}
		}

		b := byteAt(text, i, reverse)
		cls := d.byteClasses.Get(b)

		next, matchedHere, matchedHerePatterns, ok := d.step(l, s, int(cls), int(b))
		if !ok {
			return false, 0, nil, true
		}
		if matchedHere {
			// b resolved a trailing assertion pending on s (e.g. \b, $)
			// straight through to a match: that match ends at i, one byte
			// short of what b itself will go on to produce.
			lastMatchEnd = i
			lastMatchPatterns = matchedHerePatterns
			if wantEarliest {
				return true, lastMatchEnd, lastMatchPatterns, false
			}
		}
		s = next
		i++
	}

	eoiCls, eoiActual := d.eoiStep(context, offset, n, reverse)
	_, matchedAtEOI, matchedAtEOIPatterns, ok := d.step(l, s, eoiCls, eoiActual)
	if !ok {
		return false, 0, nil, true
	}
	if matchedAtEOI {
		lastMatchEnd = n
		lastMatchPatterns = matchedAtEOIPatterns
	}

	if lastMatchEnd < 0 {
		return false, 0, nil, false
	}
	return true, lastMatchEnd, lastMatchPatterns, false
}

// step resolves state s's successor on byte class cls (actualByte is the
// concrete byte driving look-around resolution, or eoiByte), computing and
// publishing it if not already cached (spec §4.4's RunStateOnByte), and
// transparently flushing-and-retrying once if the intern pool has no room
// (spec §4.5's StateSaver protocol). Returns ok=false only once retries are
// exhausted, signaling the caller to surface CacheFull.
//
// matchedAtEntry reports whether s itself — not the returned successor —
// turned out to be a match once actualByte resolved one of its pending
// trailing assertions; see pendingResolver and runWorkqOnByte.
// matchedAtEntryPatterns is the pattern-ID set behind it under MatchKindMany.
// Unlike a plain "first computation only" result, both are stored alongside
// s.next[cls] in s.matchAtEntry[cls]/s.entryMatchPatterns[cls] so that later
// cache hits on the same (s, cls) — a second search revisiting the same
// state, or the same state reached twice within one search — see the same
// answer as the call that originally computed the transition.
func (d *DFA) step(l *rwLocker, s *State, cls int, actualByte int) (next *State, matchedAtEntry bool, matchedAtEntryPatterns []uint32, ok bool) {
	if cached := s.next[cls].Load(); cached != nil {
		return cached, s.matchAtEntry[cls].Load(), loadPatterns(&s.entryMatchPatterns[cls]), true
	}

	retries := 0
	for {
		d.mu.Lock()
		if cached := s.next[cls].Load(); cached != nil {
			d.mu.Unlock()
			return cached, s.matchAtEntry[cls].Load(), loadPatterns(&s.entryMatchPatterns[cls]), true
		}
		nextInst, nextFlag, ismatch, matchedAtEntry, nextMatchPatterns, matchedAtEntryPatterns := d.runWorkqOnByte(s.inst, s.flag, actualByte)
		if len(nextInst) == 0 && !ismatch {
			// No live thread survives and this byte itself wasn't a match:
			// canonicalize to the one shared DeadState rather than interning
			// a new, merely-equivalent sink (spec §3's "at most one dead
			// state" invariant).
			s.entryMatchPatterns[cls].Store(&matchedAtEntryPatterns)
			s.matchAtEntry[cls].Store(matchedAtEntry)
			s.next[cls].Store(d.dead)
			d.mu.Unlock()
			return d.dead, matchedAtEntry, matchedAtEntryPatterns, true
		}
		built, interned := d.pool.intern(nextFlag, nextInst, nextMatchPatterns)
		if interned {
			s.entryMatchPatterns[cls].Store(&matchedAtEntryPatterns)
			s.matchAtEntry[cls].Store(matchedAtEntry)
			s.next[cls].Store(built)
			d.mu.Unlock()
			return built, matchedAtEntry, matchedAtEntryPatterns, true
		}
		d.mu.Unlock()

		if retries >= maxFlushRetries {
			return nil, false, nil, false
		}
		retries++

		saved := saveState(s)
		d.flushLocked(l)

		d.mu.Lock()
		restored, interned := d.pool.intern(saved.flag, saved.inst, saved.matchPatterns)
		d.mu.Unlock()
		if !interned {
			return nil, false, nil, false
		}
		s = restored
	}
}

// loadPatterns dereferences an entryMatchPatterns slot, treating an
// as-yet-unpublished (nil pointer) slot the same as an empty set.
func loadPatterns(p *atomic.Pointer[[]uint32]) []uint32 {
	if v := p.Load(); v != nil {
		return *v
	}
	return nil
}

// flushLocked upgrades l to the writer lock, resets the cache, and
// downgrades back to the reader lock, matching spec §4.3's flush policy.
func (d *DFA) flushLocked(l *rwLocker) {
	l.upgradeToWriting()
	d.mu.Lock()
	d.resetCache()
	d.mu.Unlock()
	l.downgradeToReading()
}

// eoiSlot returns the index of the end-of-text sentinel column in a
// State's next[] table, one past the last real byte class.
func (d *DFA) eoiSlot() int {
	return d.alphabetLen
}

// boundaryKindAt classifies the context immediately before a search's
// starting edge, against the real surrounding context rather than text's
// own ends (spec §4.2, §6): the leading edge of text for a forward search
// (context position offset), or the trailing edge for a reverse search
// (context position offset+textLen).
func boundaryKindAt(context []byte, offset, textLen int, reverse bool) StartKind {
	if reverse {
		return classifyBoundary(context, offset+textLen, false)
	}
	return classifyBoundary(context, offset, true)
}

// eoiStep computes the byte class and actual-byte arguments d.step should
// use once a search has consumed the whole of text, resolving trailing
// look-arounds (\b, $, \z) against a real following/preceding byte in
// context when one exists there, rather than always treating text's own
// edge as the true end of input (spec §6). n is len(text); reverse selects
// which edge of text this call represents (the low edge, when walking
// backward).
func (d *DFA) eoiStep(context []byte, offset, n int, reverse bool) (cls int, actualByte int) {
	var followPos int
	if reverse {
		followPos = offset - 1
	} else {
		followPos = offset + n
	}
	if followPos >= 0 && followPos < len(context) {
		b := context[followPos]
		return int(d.byteClasses.Get(b)), int(b)
	}
	return d.eoiSlot(), eoiByte
}

// byteAt returns the byte the search loop consumes at step i, honoring the
// walk direction.
func byteAt(haystack []byte, i int, reverse bool) byte {
	if reverse {
		return haystack[len(haystack)-1-i]
	}
	return haystack[i]
}

// findAccelByte scans forward from step i for the next occurrence of
// target, honoring the walk direction, and returns the new step index (or
// -1 if target does not occur again). It prefers simd.Memchr, the same
// vectorized byte scan the accelerated literal prefilter uses, over a
// hand-rolled loop.
func findAccelByte(haystack []byte, i int, target byte, reverse bool) int {
	n := len(haystack)
	if reverse {
		// The window still to be scanned is haystack[0 : n-i], searched
		// from its end. Memchr finds the first (leftmost) occurrence, so
		// the reversed-in-place window is scanned by a plain descending
		// loop instead: the window shrinks from the right, not the left.
		limit := n - i
		for j := limit - 1; j >= 0; j-- {
			if haystack[j] == target {
				return n - 1 - j
			}
		}
		return -1
	}
	window := haystack[i:]
	off := simd.Memchr(window, target)
	if off < 0 {
		return -1
	}
	return i + off
}
