// Package lazy implements a lazy, cache-bounded DFA over a compiled NFA
// program: states are subset-constructed and interned on demand, transitions
// are memoized behind a byte-class table, and the whole cache is discarded
// and rebuilt if it ever exceeds its configured memory budget.
//
// Compiling a pattern into an *nfa.NFA is out of scope here; this package
// only consumes one.
package lazy

import (
	"sync"

	"github.com/lazyregex/redfa/internal/sparse"
	"github.com/lazyregex/redfa/nfa"
)

// minViableBudget is the smallest MemBudgetBytes NewDFA accepts: enough for
// a modest number of live states alongside the DeadState sentinel (the only
// sentinel; there is no separate full-match sentinel state). Anything
// smaller can never make forward progress even immediately after a flush.
const minViableBudget = 4 << 10

// DFA is a lazy, cache-bounded matcher over a single *nfa.NFA program.
type DFA struct {
	prog        *nfa.NFA
	cfg         Config
	byteClasses *nfa.ByteClasses
	alphabetLen int

	mu      sync.Mutex   // guards pool, starts, wqFrontier/wqVisited, scratchSeeds
	cacheMu sync.RWMutex // held for reading during a whole search; upgraded to flush

	pool   *internPool
	starts *startTable
	dead   *State

	wqFrontier   *Workq
	wqVisited    *Workq
	scratchSeeds []nfa.StateID

	// wqMatched/wqMatchedEntry are scratch sparse sets of pattern IDs, reused
	// under d.mu across transitions the same way wqFrontier/wqVisited are.
	// Only populated under MatchKindMany (transition.go's closer and
	// pendingResolver leave them untouched otherwise).
	wqMatched      *sparse.SparseSet
	wqMatchedEntry *sparse.SparseSet

	clearCount int

	revOnce sync.Once
	rev     *DFA
	revErr  error
}

// NewDFA constructs a lazy DFA over prog with the given configuration.
func NewDFA(prog *nfa.NFA, cfg Config) (*DFA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MemBudgetBytes < minViableBudget {
		return nil, &DFAError{Kind: InitFailed, Message: "MemBudgetBytes too small to hold even the sentinel states", Cause: ErrInitFailed}
	}
	if err := programSupported(prog); err != nil {
		return nil, err
	}

	bc := refineByteClasses(prog)
	alphabetLen := bc.AlphabetLen()

	patternCapacity := patternCapacityFor(prog)

	d := &DFA{
		prog:           prog,
		cfg:            cfg,
		byteClasses:    bc,
		alphabetLen:    alphabetLen,
		pool:           newInternPool(alphabetLen, cfg.MemBudgetBytes),
		starts:         newStartTable(),
		wqFrontier:     NewWorkq(prog.States()),
		wqVisited:      NewWorkq(prog.States()),
		wqMatched:      sparse.NewSparseSet(patternCapacity),
		wqMatchedEntry: sparse.NewSparseSet(patternCapacity),
	}
	d.scratchSeeds = make([]nfa.StateID, 0, 32)
	d.dead = newState(nil, 0, nil, alphabetLen)
	d.seedSelfLoops()
	d.seedSentinels()

	return d, nil
}

// seedSelfLoops points every transition slot of DeadState back at itself:
// once a search enters it, it can never leave.
func (d *DFA) seedSelfLoops() {
	for i := range d.dead.next {
		d.dead.next[i].Store(d.dead)
	}
}

// programSupported rejects NFA programs that use a construct the DFA cannot
// subset-construct over: variable-width rune consumption requires expanding
// into byte ranges at compile time, which belongs to NFA construction, not
// this package (spec §1's stated boundary; see DESIGN.md).
func programSupported(prog *nfa.NFA) error {
	it := prog.Iter()
	for s := it.Next(); s != nil; s = it.Next() {
		switch s.Kind() {
		case nfa.StateRuneAny, nfa.StateRuneAnyNotNL:
			return ErrUnsupportedProgram
		}
	}
	return nil
}

// patternCapacityFor sizes the MatchKindMany pattern-ID scratch sets:
// prog.PatternCount() is trusted when it covers every StateMatch actually
// present, but a mismatched builder (a hand-assembled multi-pattern NFA that
// forgot WithPatternCount) is guarded against by also scanning for the
// highest MatchPattern id actually used.
func patternCapacityFor(prog *nfa.NFA) uint32 {
	capacity := uint32(prog.PatternCount())
	it := prog.Iter()
	for s := it.Next(); s != nil; s = it.Next() {
		if s.Kind() == nfa.StateMatch && s.MatchPattern()+1 > capacity {
			capacity = s.MatchPattern() + 1
		}
	}
	if capacity == 0 {
		capacity = 1
	}
	return capacity
}

// ok reports whether construction succeeded and the DFA is usable.
func (d *DFA) ok() bool {
	return d != nil && d.pool != nil
}

// SearchInput describes one search request, matching spec §6's external
// interface.
type SearchInput struct {
	// Text is the byte span to search.
	Text []byte
	// Context supplies the surroundings ^, $, \A, \z, and \b resolve
	// against; it must contain Text as a subrange, with Text starting at
	// ContextOffset within it. This lets a caller searching a submatch (or
	// any slice cut out of a larger buffer) still get correct boundary
	// behavior at Text's edges, instead of the search treating Text's own
	// ends as the true start/end of input.
	//
	// If Context is nil, Text is its own context (ContextOffset is then
	// ignored and treated as 0) — the common case of searching a
	// standalone byte slice.
	Context []byte
	// ContextOffset is Text's starting offset within Context.
	ContextOffset int
	// Anchored requires the match to begin at Text's first position (for a
	// forward search) or, for SearchReverse, at Text's last position.
	Anchored bool
	// WantEarliestMatch stops at the first position a match is known,
	// without extending it further under leftmost-first/leftmost-longest
	// tie-breaking (spec §4.6 step 6).
	WantEarliestMatch bool
}

// context returns the (context, offset) pair boundaryKindAt resolves
// against, defaulting Context to Text itself when the caller left it unset.
func (in SearchInput) context() ([]byte, int) {
	if in.Context == nil {
		return in.Text, 0
	}
	return in.Context, in.ContextOffset
}

// SearchResult reports the outcome of a search.
type SearchResult struct {
	// Matched reports whether a match was found.
	Matched bool
	// EndPos is the byte offset within Text one past the match's last
	// byte, valid only if Matched is true.
	EndPos int
	// MatchedPatterns holds the sorted, deduped set of pattern IDs that
	// matched at EndPos, under MatchKindMany. Nil for every other MatchKind
	// and whenever Matched is false.
	MatchedPatterns []uint32
	// Failed reports that the cache could not make room for a required
	// state even after a flush; the caller should fall back to the
	// Reference Backtracker or another unbounded engine.
	Failed bool
}

// Search runs a forward search over in.Text and reports whether the NFA
// program matches, and where the match ends, per the DFA's configured
// MatchKind (spec §6).
func (d *DFA) Search(in SearchInput) SearchResult {
	context, offset := in.context()
	matched, pos, patterns, failed := d.searchLoop(in.Text, context, offset, in.Anchored, in.WantEarliestMatch, false)
	return SearchResult{Matched: matched, EndPos: pos, MatchedPatterns: patterns, Failed: failed}
}

// IsMatch reports only whether text matches anywhere, the cheapest possible
// query: it stops at the first match found. text is its own context.
func (d *DFA) IsMatch(text []byte) (bool, bool) {
	matched, _, _, failed := d.searchLoop(text, text, 0, false, true, false)
	return matched, failed
}

// SearchReverse runs a search over the reverse of the program, used to find
// a match's start position once its end position is already known (e.g.
// from a prior forward Search). StartPos is expressed as a byte offset
// from the start of in.Text, matching a forward EndPos's coordinate space.
func (d *DFA) SearchReverse(in SearchInput) (result SearchResult, startPos int) {
	rev, err := d.reverseDFA()
	if err != nil {
		return SearchResult{Failed: true}, 0
	}
	context, offset := in.context()
	matched, distFromEnd, patterns, failed := rev.searchLoop(in.Text, context, offset, in.Anchored, in.WantEarliestMatch, true)
	if !matched {
		return SearchResult{Matched: false, Failed: failed}, 0
	}
	return SearchResult{Matched: true, EndPos: len(in.Text), MatchedPatterns: patterns, Failed: false}, len(in.Text) - distFromEnd
}

// reverseDFA lazily builds and caches the reverse-program DFA SearchReverse
// needs, sharing the same MatchKind and half the memory budget (the
// reverse cache is typically much smaller since its states never carry
// capture-adjacent bookkeeping).
func (d *DFA) reverseDFA() (*DFA, error) {
	d.revOnce.Do(func() {
		revProg := nfa.Reverse(d.prog)
		revCfg := d.cfg
		revCfg.MemBudgetBytes = maxInt64(minViableBudget, d.cfg.MemBudgetBytes/2)
		d.rev, d.revErr = NewDFA(revProg, revCfg)
	})
	return d.rev, d.revErr
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
