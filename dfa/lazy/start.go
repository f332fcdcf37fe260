package lazy

import (
	"sync/atomic"

	"github.com/lazyregex/redfa/nfa"
)

// StartKind classifies the context immediately before a search's starting
// position, one of the four boundary kinds spec §3/§4.2 enumerates.
type StartKind uint8

const (
	// StartBeginText is the true beginning of the context: both \A and ^
	// hold.
	StartBeginText StartKind = iota
	// StartBeginLine follows a '\n': only ^ holds (multiline).
	StartBeginLine
	// StartAfterWordChar follows a word byte, relevant to \b/\B.
	StartAfterWordChar
	// StartAfterNonWordChar follows a non-word byte (or nothing, outside
	// StartBeginText), relevant to \b/\B.
	StartAfterNonWordChar

	// startKindCount is the number of context kinds.
	startKindCount
)

// kMaxStart is the size of the StartInfo table: one slot per
// (anchored-bit, context-kind) combination (spec §3).
const kMaxStart = int(startKindCount) * 2

func (k StartKind) String() string {
	switch k {
	case StartBeginText:
		return "BeginText"
	case StartBeginLine:
		return "BeginLine"
	case StartAfterWordChar:
		return "AfterWordChar"
	case StartAfterNonWordChar:
		return "AfterNonWordChar"
	default:
		return "Unknown"
	}
}

// startIndex packs (anchored, kind) into the [0, kMaxStart) index spec §3
// describes: bit 0 is the anchored bit, bits 1-2 select the context kind.
func startIndex(anchored bool, kind StartKind) int {
	idx := int(kind) << 1
	if anchored {
		idx |= 1
	}
	return idx
}

// startTable holds the eight lazily-populated start states; classifyBoundary
// decides which of them a search uses.
type startTable struct {
	info [kMaxStart]atomic.Pointer[State]
}

func newStartTable() *startTable {
	return &startTable{}
}

// reset clears all eight cached start-state pointers, part of a cache
// flush: they must be recomputed against the fresh intern pool (spec §4.3).
func (t *startTable) reset() {
	for i := range t.info {
		t.info[i].Store(nil)
	}
}

// classifyBoundary implements spec §4.2's context classification: given the
// context slice and the position immediately before which the search
// begins, decide which of the four StartKinds applies. `forward` selects
// whether "previous" means context[pos-1] (forward search) or
// context[pos] (backward search, where the roles of before/after invert).
func classifyBoundary(context []byte, pos int, forward bool) StartKind {
	var prev byte
	var atBoundary bool
	if forward {
		atBoundary = pos == 0
		if pos > 0 {
			prev = context[pos-1]
		}
	} else {
		atBoundary = pos == len(context)
		if pos < len(context) {
			prev = context[pos]
		}
	}
	switch {
	case atBoundary:
		return StartBeginText
	case prev == '\n':
		return StartBeginLine
	case isWordByte(prev):
		return StartAfterWordChar
	default:
		return StartAfterNonWordChar
	}
}

// getOrBuildStart resolves the start state for (anchored, kind), building
// and interning it on first use. It must be called with cacheMu held for
// reading (or writing); the resulting pointer is only valid while that
// lock is held (spec §4.3, §5).
func (d *DFA) getOrBuildStart(anchored bool, kind StartKind) *State {
	idx := startIndex(anchored, kind)
	if s := d.starts.info[idx].Load(); s != nil {
		return s
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if s := d.starts.info[idx].Load(); s != nil {
		return s
	}

	var seed nfa.StateID
	if anchored {
		seed = d.prog.StartAnchored()
	} else {
		seed = d.prog.StartUnanchored()
	}

	resolved := LookSetForBoundary(kind)
	inst, ismatch, needed, matchPatterns := d.startFrontier(seed, resolved)

	isFromWord := kind == StartAfterWordChar
	flag := makeFlag(resolved, ismatch, isFromWord, needed)

	var s *State
	if len(inst) == 0 && !ismatch {
		s = d.dead
	} else {
		var ok bool
		s, ok = d.pool.intern(flag, inst, matchPatterns)
		if !ok {
			// Budget too small even for a start state: caller flushes and
			// retries (spec §4.3/§7).
			return nil
		}
	}
	d.starts.info[idx].Store(s)
	return s
}

// canPrefixAccel reports whether a state has exactly one live outgoing byte
// class (besides the end-of-text slot) — every other class a guaranteed
// dead end — and that class contains a single byte, which it returns; the
// fallback definition of "the NFA exposes a cheap byte-skip
// hint" from spec §4.2 when no dedicated compiler-provided hint exists.
//
// Every class is resolved via d.step, not merely peeked: a class whose
// transition has not been computed yet is unknown, not dead, and treating
// it as dead can misclassify a state with several live classes (only one
// of which happens to have been visited so far) as single-live-class,
// which then makes the caller's memchr skip jump straight over bytes that
// were never actually dead ends. Forcing computation here is safe because
// it lands on d.step's own memoized next[cls] slots — a class already
// computed by ordinary search traffic costs nothing extra, and one that
// isn't costs exactly what BuildAllStates would spend on it anyway.
func (d *DFA) canPrefixAccel(l *rwLocker, s *State) (accelByte byte, ok bool) {
	if !d.cfg.UsePrefixAccel || s == d.dead {
		return 0, false
	}
	found := -1
	for b := 0; b < d.alphabetLen; b++ {
		rep := representativeByte(d.byteClasses, b)
		next, _, _, computed := d.step(l, s, b, int(rep))
		if !computed {
			return 0, false
		}
		if next == d.dead {
			continue
		}
		if found != -1 {
			return 0, false
		}
		found = b
	}
	if found == -1 {
		return 0, false
	}
	// The caller's skip scans for one byte value, so the live class must
	// hold exactly one byte; found is a class index, not that byte.
	var only byte
	members := 0
	for b := 0; b < 256; b++ {
		if int(d.byteClasses.Get(byte(b))) == found {
			only = byte(b)
			members++
		}
	}
	if members != 1 {
		return 0, false
	}
	return only, true
}
