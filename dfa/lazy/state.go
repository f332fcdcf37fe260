package lazy

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/lazyregex/redfa/internal/conv"
)

// flag bit layout, per spec §3:
//
//	bits 0-7:   empty-width (look) flags in force on entry to this state
//	bit 8:      this state is a match state
//	bit 9:      the byte consumed to reach this state was a word character
//	bits 16-31: OR of look flags required by inst[] entries still pending
//	            resolution (StateLook instructions this state could not
//	            resolve without knowing the next byte)
const (
	flagLookMask  uint32 = 0xFF
	flagMatch     uint32 = 1 << 8
	flagLastWord  uint32 = 1 << 9
	flagNeedShift        = 16
)

func makeFlag(entryLook LookSet, isMatch, lastWord bool, needed LookSet) uint32 {
	f := uint32(entryLook) & flagLookMask
	if isMatch {
		f |= flagMatch
	}
	if lastWord {
		f |= flagLastWord
	}
	f |= uint32(needed) << flagNeedShift
	return f
}

func flagEntryLook(f uint32) LookSet { return LookSet(f & flagLookMask) }
func flagIsMatch(f uint32) bool      { return f&flagMatch != 0 }
func flagLastWordBit(f uint32) bool  { return f&flagLastWord != 0 }
func flagNeeded(f uint32) LookSet    { return LookSet(f >> flagNeedShift) }

// State is the canonical DFA state: a sorted, de-duplicated set of NFA
// instruction IDs plus the flag bits describing what was true on entry and
// what remains pending, together with one atomic successor pointer per
// byte class (plus one for the end-of-text sentinel).
//
// A State is immutable after construction except for its next slots, which
// advance from nil to a published pointer exactly once each, using
// atomic.Pointer's release/acquire semantics (§5). Two states with equal
// (flag, inst) are the same intern-pool entry: pointer equality is semantic
// equality (§3 invariant).
type State struct {
	inst []uint32 // sorted ascending, deduped nfa.StateID values
	flag uint32
	next []atomic.Pointer[State] // len == alphabetLen+1; last slot is end-of-text

	// matchPatterns holds the sorted, deduped set of pattern IDs (from
	// nfa.State.MatchPattern) that reached StateMatch while this state's own
	// closure was built, under MatchKindMany. Two states built from
	// different seed sets can otherwise land on the same (flag, inst) — the
	// surviving byte-consuming instructions look identical even though a
	// different subset of patterns matched to get there — so matchPatterns
	// is folded into stateKey alongside (flag, inst) rather than treated as
	// separate bookkeeping. Nil under MatchKindFirst/MatchKindLongest.
	matchPatterns []uint32

	// matchAtEntry[cls] records, once next[cls] has been published, whether
	// resolving this state's own pending look assertions against that byte
	// class completed a match ending here rather than at next[cls] (see
	// pendingResolver in transition.go). It must be published (Store) before
	// next[cls] and read after loading next[cls]; Go's sequentially
	// consistent atomics make that ordering enough to publish both together
	// without a shared lock.
	matchAtEntry []atomic.Bool

	// entryMatchPatterns[cls] mirrors matchAtEntry[cls] under MatchKindMany:
	// the set of pattern IDs whose pending assertions resolved to a match at
	// this state's own position when byte class cls is read. Populated (and
	// read) under the same publish/load discipline as matchAtEntry; nil
	// under MatchKindFirst/MatchKindLongest, and nil for any class where
	// nothing matched at entry.
	entryMatchPatterns []atomic.Pointer[[]uint32]
}

// newState allocates a State with a fresh, zeroed next[] table. It does not
// intern it; callers go through the intern pool (intern.go) so that
// identical (flag, inst, matchPatterns) triples collapse to one pointer.
func newState(inst []uint32, flag uint32, matchPatterns []uint32, alphabetLen int) *State {
	return &State{
		inst:               inst,
		flag:               flag,
		matchPatterns:      matchPatterns,
		next:               make([]atomic.Pointer[State], alphabetLen+1),
		matchAtEntry:       make([]atomic.Bool, alphabetLen+1),
		entryMatchPatterns: make([]atomic.Pointer[[]uint32], alphabetLen+1),
	}
}

// IsMatch reports whether this state represents a match (spec's kFlagMatch).
func (s *State) IsMatch() bool {
	return flagIsMatch(s.flag)
}

// approxStateBytes estimates the memory a State occupies, per spec §4.3:
// header + one word per instruction + one atomic pointer per transition slot.
func approxStateBytes(ninst, alphabetLen int) int64 {
	const header = 64 // struct overhead, slice headers, map bucket share
	return header + int64(ninst)*4 + int64(alphabetLen+1)*8 + int64(alphabetLen+1)
}

// stateKey returns a comparable, hashable identity for (flag, inst,
// matchPatterns): spec's invariant that state equality is defined by
// exactly (flag, inst) is extended with matchPatterns for MatchKindMany,
// since two closures can share the same surviving byte-consuming
// instructions while having reached StateMatch via different pattern IDs
// along the way (see State.matchPatterns). matchPatterns is empty for
// MatchKindFirst/MatchKindLongest, so this is a no-op there.
func stateKey(flag uint32, inst, matchPatterns []uint32) string {
	buf := make([]byte, 8+4*len(matchPatterns)+4*len(inst))
	putU32 := func(o int, v uint32) {
		buf[o] = byte(v)
		buf[o+1] = byte(v >> 8)
		buf[o+2] = byte(v >> 16)
		buf[o+3] = byte(v >> 24)
	}
	putU32(0, flag)
	putU32(4, uint32(len(matchPatterns)))
	o := 8
	for _, id := range matchPatterns {
		putU32(o, id)
		o += 4
	}
	for _, id := range inst {
		putU32(o, id)
		o += 4
	}
	return string(buf)
}

// sortedDedup returns a new, ascending, duplicate-free copy of ids. It uses
// conv.IntToUint32 defensively when converting lengths that feed into
// downstream budget arithmetic.
func sortedDedup(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint32, len(ids))
	copy(out, ids)
	insertionSortUint32(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	_ = conv.IntToUint32(n)
	return out[:n]
}

// insertionSortUint32 sorts small slices without pulling in sort.Slice's
// interface overhead; workq outputs are rarely larger than a few dozen
// entries.
func insertionSortUint32(a []uint32) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}

// String renders the state for debugging, in the style of RE2's DumpState.
func (s *State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "State{inst=%v flag=%#x match=%v lastWord=%v entryLook=%#x needed=%#x}",
		s.inst, s.flag, flagIsMatch(s.flag), flagLastWordBit(s.flag),
		uint32(flagEntryLook(s.flag)), uint32(flagNeeded(s.flag)))
	return b.String()
}
