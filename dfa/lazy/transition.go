package lazy

import (
	"github.com/lazyregex/redfa/internal/sparse"
	"github.com/lazyregex/redfa/nfa"
)

// eoiByte is the imaginary end-of-text alphabet member (spec §3): one extra
// slot past the real byte classes, used to drive the final "feed one more
// input" step described in spec §4.6 step 7.
const eoiByte = -1

// closure performs the priority-ordered epsilon closure used throughout
// subset construction (spec §4.1). It walks from seeds, following
// StateEpsilon/StateSplit/StateCapture unconditionally (in left-before-right
// order, preserving the NFA's leftmost-first priority) and StateLook only
// when its assertion is already known to hold in `resolved`. StateLook
// instructions whose assertion cannot yet be evaluated (its bit is absent
// from `resolved`) are recorded as pending: they
// are re-tried, with full information, on the very next byte step (see
// runWorkqOnByte). StateByteRange/StateSparse instructions terminate the
// walk and are collected as byte-consuming frontier entries.
//
// Under MatchKindFirst, once a StateMatch is reached the walk stops
// immediately: per leftmost-first semantics, no lower-priority alternative
// can ever be preferred over an already-found match (spec §4.1's "mark
// sentinel" rule). Under MatchKindLongest the walk continues so that a
// longer match reachable through a different alternative is not missed.
// MatchKindMany behaves like MatchKindLongest here for the same reason: a
// regexp-set's alternatives are independent patterns, not priority-ordered
// options, so a match on one alternative must not hide a lower-priority
// alternative's own byte-consuming continuation or its own StateMatch.
type closer struct {
	prog     *nfa.NFA
	frontier *Workq // byte-consuming and pending-look leaves, in priority order
	visited  *Workq // de-dup guard across the whole closure call
	kind     MatchKind
	patterns *sparse.SparseSet // matched pattern IDs, non-nil only under MatchKindMany
	ismatch  bool
	stopped  bool
}

func newCloser(prog *nfa.NFA, frontier, visited *Workq, kind MatchKind, patterns *sparse.SparseSet) *closer {
	return &closer{prog: prog, frontier: frontier, visited: visited, kind: kind, patterns: patterns}
}

// walk closes over one seed instruction ID.
func (c *closer) walk(id nfa.StateID, resolved LookSet) {
	if c.stopped || id == nfa.InvalidState {
		return
	}
	if !c.visited.Insert(id) {
		return
	}
	s := c.prog.State(id)
	if s == nil {
		return
	}
	switch s.Kind() {
	case nfa.StateByteRange, nfa.StateSparse:
		c.frontier.Insert(id)

	case nfa.StateEpsilon:
		c.walk(s.Epsilon(), resolved)

	case nfa.StateSplit:
		left, right := s.Split()
		c.walk(left, resolved)
		if c.stopped && c.kind == MatchKindFirst {
			return
		}
		c.walk(right, resolved)

	case nfa.StateCapture:
		_, _, next := s.Capture()
		c.walk(next, resolved)

	case nfa.StateLook:
		look, next := s.Look()
		if resolved.Contains(look) {
			c.walk(next, resolved)
		} else {
			// Cannot resolve without the next byte: keep as a pending leaf.
			c.frontier.Insert(id)
		}

	case nfa.StateMatch:
		c.ismatch = true
		if c.patterns != nil {
			c.patterns.Insert(s.MatchPattern())
		}
		if c.kind == MatchKindFirst {
			c.stopped = true
		}

	case nfa.StateFail:
		// dead end

	case nfa.StateRuneAny, nfa.StateRuneAnyNotNL:
		// Unsupported: caller must have already rejected the program via
		// programSupported before reaching here.
	}
}

// forwardLook resolves the four look-around kinds that depend on the byte
// about to be consumed (or the lack of one, at end-of-text), combined with
// whether the previously consumed byte was a word character. StartText and
// StartLine never appear here: they depend only on backward context and
// are folded into a state's entryLook when the state is built.
func forwardLook(wasWordBefore bool, c int) LookSet {
	var out LookSet
	atEOI := c == eoiByte
	curIsNL := !atEOI && byte(c) == '\n'
	curIsWord := !atEOI && isWordByte(byte(c))

	if atEOI {
		out |= LookSetForEOI()
	} else if curIsNL {
		out |= LookEndLine
	}
	if wasWordBefore != curIsWord {
		out |= LookWordBoundary
	} else {
		out |= LookNoWordBoundary
	}
	return out
}

// backwardLookAfter computes the entry-look bits that hold immediately
// after consuming byte c (StartText never re-applies mid-search; StartLine
// holds iff c is a newline).
func backwardLookAfter(c int) LookSet {
	if c != eoiByte && byte(c) == '\n' {
		return LookStartLine
	}
	return LookNone
}

// pendingResolver replays the closure a pending instruction (one left over,
// unresolved, in a state's own inst[]) would have gone through had its
// look assertion been resolvable back when that state was first built. A
// pending entry sits at the state's own position, one byte short of
// whatever comes next; resolving it against the concrete byte c (or
// eoiByte) about to be consumed from that position — rather than deferring
// the resolution to the state that byte produces — is what
// RunWorkqOnByte's needflags-from-c trick buys: the assertion and whatever
// immediately follows it are settled in the same step.
//
// Two distinct outcomes fall out of one resolution pass, both anchored at
// the *pending* state's own position, not the position after c:
//   - it can reach StateMatch directly (matched, with no byte consumed) —
//     spec §4.4's case of an empty-width assertion, such as a trailing \b,
//     completing a match with nothing left to read;
//   - it can reach a byte-consuming node, which is then tested against the
//     very same c and — if it matches — contributes to the frontier being
//     built for the position after c, exactly like an ordinary seed would.
type pendingResolver struct {
	prog     *nfa.NFA
	kind     MatchKind
	here     LookSet
	c        int
	out      []nfa.StateID
	patterns *sparse.SparseSet // matched pattern IDs, non-nil only under MatchKindMany
	matched  bool
	stopped  bool
}

func (r *pendingResolver) resolve(id nfa.StateID) {
	if r.stopped || id == nfa.InvalidState {
		return
	}
	s := r.prog.State(id)
	if s == nil {
		return
	}
	switch s.Kind() {
	case nfa.StateByteRange:
		lo, hi, next := s.ByteRange()
		if r.c != eoiByte && byte(r.c) >= lo && byte(r.c) <= hi {
			r.out = append(r.out, next)
		}

	case nfa.StateSparse:
		if r.c != eoiByte {
			b := byte(r.c)
			for _, tr := range s.Transitions() {
				if b >= tr.Lo && b <= tr.Hi {
					r.out = append(r.out, tr.Next)
				}
			}
		}

	case nfa.StateLook:
		look, next := s.Look()
		if r.here.Contains(look) {
			r.resolve(next)
		}
		// Otherwise it is still unresolved: it was already re-inserted as a
		// pending leaf in this state's own inst[] and needs no further
		// action here.

	case nfa.StateEpsilon:
		r.resolve(s.Epsilon())

	case nfa.StateSplit:
		left, right := s.Split()
		r.resolve(left)
		if r.stopped && r.kind == MatchKindFirst {
			return
		}
		r.resolve(right)

	case nfa.StateCapture:
		_, _, next := s.Capture()
		r.resolve(next)

	case nfa.StateMatch:
		r.matched = true
		if r.patterns != nil {
			r.patterns.Insert(s.MatchPattern())
		}
		if r.kind == MatchKindFirst {
			r.stopped = true
		}

	case nfa.StateFail:
		// dead end
	}
}

// runWorkqOnByte computes the successor frontier for state `inst` when
// byte `c` (or eoiByte) is consumed, given the flags in force on
// entry to `inst` (spec §4.1/§4.4's RunWorkqOnByte). It returns the new
// instruction set (sorted ascending and deduped), the flag to store on
// the successor, whether that successor is itself an (unconditional) match,
// and — separately — whether `inst` (the state byte c is being read *from*,
// not the one being built) turned out to be a match once c made its
// trailing assertion resolvable. The latter belongs to the caller's current
// position, one byte earlier than the former; see pendingResolver.
//
// nextMatchPatterns and matchedAtEntryPatterns are the sorted, deduped
// pattern-ID sets behind ismatch/matchedAtEntry, populated only under
// MatchKindMany; both are nil otherwise.
func (d *DFA) runWorkqOnByte(inst []uint32, entryFlag uint32, c int) (nextInst []uint32, nextFlag uint32, ismatch, matchedAtEntry bool, nextMatchPatterns, matchedAtEntryPatterns []uint32) {
	here := flagEntryLook(entryFlag) | forwardLook(flagLastWordBit(entryFlag), c)

	var pendingPatterns, closerPatterns *sparse.SparseSet
	if d.cfg.Kind == MatchKindMany {
		d.wqMatchedEntry.Clear()
		d.wqMatched.Clear()
		pendingPatterns = d.wqMatchedEntry
		closerPatterns = d.wqMatched
	}

	pr := &pendingResolver{prog: d.prog, kind: d.cfg.Kind, here: here, c: c, out: d.scratchSeeds[:0], patterns: pendingPatterns}
	for _, raw := range inst {
		pr.resolve(nfa.StateID(raw))
		if pr.stopped && d.cfg.Kind == MatchKindFirst {
			break
		}
	}
	d.scratchSeeds = pr.out
	seeds := pr.out

	newEntryLook := backwardLookAfter(c)
	newLastWord := c != eoiByte && isWordByte(byte(c))

	d.wqFrontier.Reset()
	d.wqVisited.Reset()
	cl := newCloser(d.prog, d.wqFrontier, d.wqVisited, d.cfg.Kind, closerPatterns)
	for _, seed := range seeds {
		cl.walk(seed, newEntryLook)
		if cl.stopped && d.cfg.Kind == MatchKindFirst {
			break
		}
	}

	pending := collectPendingLook(d.prog, d.wqFrontier.IDs())
	nextFlag = makeFlag(newEntryLook, cl.ismatch, newLastWord, pending)
	return sortedDedup(idsToUint32(d.wqFrontier.IDs())), nextFlag, cl.ismatch, pr.matched,
		snapshotSortedPatterns(closerPatterns), snapshotSortedPatterns(pendingPatterns)
}

// snapshotSortedPatterns copies a scratch pattern-ID set into a sorted,
// standalone slice safe to store on a State past the next reset of set. Nil
// (not merely empty) when set is nil or empty, so State.matchPatterns stays
// nil outside MatchKindMany.
func snapshotSortedPatterns(set *sparse.SparseSet) []uint32 {
	if set == nil || set.IsEmpty() {
		return nil
	}
	return sortedDedup(set.Values())
}

// collectPendingLook returns the OR of look kinds required by any StateLook
// instructions still present (unresolved) in ids, populating the upper
// "needed" bits of a state's flag (spec §3, §4.4).
func collectPendingLook(prog *nfa.NFA, ids []nfa.StateID) LookSet {
	var need LookSet
	for _, id := range ids {
		s := prog.State(id)
		if s != nil && s.Kind() == nfa.StateLook {
			look, _ := s.Look()
			need = need.Insert(look)
		}
	}
	return need
}

func idsToUint32(ids []nfa.StateID) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

// startFrontier builds the initial instruction set for a start state seeded
// from a single NFA entry point under the given already-fully-backward-
// resolved look set (spec §4.2). Forward-dependent look kinds remain
// pending, to be resolved on the first real byte step exactly like any
// other state. matchPatterns is populated only under MatchKindMany.
func (d *DFA) startFrontier(seed nfa.StateID, resolved LookSet) (inst []uint32, ismatch bool, needed LookSet, matchPatterns []uint32) {
	d.wqFrontier.Reset()
	d.wqVisited.Reset()
	var patterns *sparse.SparseSet
	if d.cfg.Kind == MatchKindMany {
		d.wqMatched.Clear()
		patterns = d.wqMatched
	}
	cl := newCloser(d.prog, d.wqFrontier, d.wqVisited, d.cfg.Kind, patterns)
	cl.walk(seed, resolved)
	ids := cl.frontier.IDs()
	needed = collectPendingLook(d.prog, ids)
	return sortedDedup(idsToUint32(ids)), cl.ismatch, needed, snapshotSortedPatterns(patterns)
}
