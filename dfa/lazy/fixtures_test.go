package lazy

import "github.com/lazyregex/redfa/nfa"

// The fixtures below hand-assemble small byte-oriented NFA programs using
// nfa.Builder directly, the same low-level API nfa/compile.go's syntax-tree
// compiler drives. Going through the compiler instead would route control
// characters like '.' through StateRuneAny/StateRuneAnyNotNL, which
// programSupported rejects (variable-width rune consumption is NFA-
// compilation work, out of this package's scope); these fixtures stay
// within the byte-range-only subset the lazy DFA actually consumes.

// buildLiteral compiles a fixed byte string with no branching.
func buildLiteral(s string) *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	next := match
	for i := len(s) - 1; i >= 0; i-- {
		next = b.AddByteRange(s[i], s[i], next)
	}
	b.SetStarts(next, next)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildAStarB compiles `a*b`: greedy a*, then a literal b.
func buildAStarB() *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	bState := b.AddByteRange('b', 'b', match)
	loop := b.AddQuantifierSplit(nfa.InvalidState, bState)
	aState := b.AddByteRange('a', 'a', loop)
	if err := b.PatchSplit(loop, aState, bState); err != nil {
		panic(err)
	}
	b.SetStarts(loop, loop)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildAlternate compiles (lits[0]|lits[1]|...), left-to-right priority
// order, e.g. (foo|foobar).
func buildAlternate(lits []string) *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	starts := make([]nfa.StateID, len(lits))
	for i, s := range lits {
		next := match
		for j := len(s) - 1; j >= 0; j-- {
			next = b.AddByteRange(s[j], s[j], next)
		}
		starts[i] = next
	}
	cur := starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		cur = b.AddSplit(starts[i], cur)
	}
	b.SetStarts(cur, cur)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildWordBoundary compiles \bword\b for the given literal word.
func buildWordBoundary(word string) *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	endLook := b.AddLook(nfa.LookWordBoundary, match)
	next := endLook
	for j := len(word) - 1; j >= 0; j-- {
		next = b.AddByteRange(word[j], word[j], next)
	}
	startLook := b.AddLook(nfa.LookWordBoundary, next)
	b.SetStarts(startLook, startLook)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildWordBoundaryUnanchored compiles \bword\b the same way
// buildWordBoundary does, but wires StartUnanchored to a lazy (any byte)*
// prefix loop ahead of it, mirroring how nfa/compile.go wires a real
// pattern's unanchored start (nfa.go's "Points to the (?s:.)*? prefix").
// The prefix's split puts the literal-match branch first (left) so that,
// under leftmost-first priority, a match starting at an earlier position is
// always preferred over skipping ahead — closer.walk visits left before
// right with no other greedy/lazy handling, so branch order alone decides
// it here.
func buildWordBoundaryUnanchored(word string) *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	endLook := b.AddLook(nfa.LookWordBoundary, match)
	next := endLook
	for j := len(word) - 1; j >= 0; j-- {
		next = b.AddByteRange(word[j], word[j], next)
	}
	anchoredStart := b.AddLook(nfa.LookWordBoundary, next)

	loop := b.AddQuantifierSplit(anchoredStart, nfa.InvalidState)
	skip := b.AddByteRange(0x00, 0xFF, loop)
	if err := b.PatchSplit(loop, anchoredStart, skip); err != nil {
		panic(err)
	}

	b.SetStarts(anchoredStart, loop)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildLiteralUnanchored compiles a plain literal, wired to a lazy (any
// byte)* skip loop ahead of it exactly the way buildWordBoundaryUnanchored
// wires \bword\b, so an unanchored search over junk-then-literal haystacks
// exercises the real StartUnanchored path (and, since the anchored branch
// begins with a fixed byte sequence, the literal-prefix accelerator in
// prefix_literals.go).
func buildLiteralUnanchored(s string) *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	anchoredStart := match
	for j := len(s) - 1; j >= 0; j-- {
		anchoredStart = b.AddByteRange(s[j], s[j], anchoredStart)
	}

	loop := b.AddQuantifierSplit(anchoredStart, nfa.InvalidState)
	skip := b.AddByteRange(0x00, 0xFF, loop)
	if err := b.PatchSplit(loop, anchoredStart, skip); err != nil {
		panic(err)
	}

	b.SetStarts(anchoredStart, loop)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildRepeatedGroupUnanchored compiles (a[lo-hi])+ — one or more repeats of
// 'a' followed by a byte in [lo, hi] — wired to the same unanchored skip
// loop as buildLiteralUnanchored. This is the shape the review that found
// canPrefixAccel's partial-computation bug used as its regression case: the
// state reached right after consuming 'a' has two live outgoing classes
// (lo and hi, when they differ), and revisiting that state a second time
// with only one of the two classes computed so far is exactly what
// mis-triggered the old accelerator.
func buildRepeatedGroupUnanchored(lo, hi byte) *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	loopSplit := b.AddQuantifierSplit(nfa.InvalidState, match)
	classState := b.AddByteRange(lo, hi, loopSplit)
	aState := b.AddByteRange('a', 'a', classState)
	if err := b.PatchSplit(loopSplit, aState, match); err != nil {
		panic(err)
	}
	anchoredStart := aState

	skipLoop := b.AddQuantifierSplit(anchoredStart, nfa.InvalidState)
	skip := b.AddByteRange(0x00, 0xFF, skipLoop)
	if err := b.PatchSplit(skipLoop, anchoredStart, skip); err != nil {
		panic(err)
	}

	b.SetStarts(anchoredStart, skipLoop)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildAlternateUnanchored compiles (lits[0]|lits[1]|...) the same way
// buildAlternate does, wired to the same unanchored skip loop as
// buildLiteralUnanchored, so the literal-prefix accelerator sees a real
// multi-literal alternative set (prefilter.Builder's Teddy path) rather
// than a single fixed sequence.
func buildAlternateUnanchored(lits []string) *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	starts := make([]nfa.StateID, len(lits))
	for i, s := range lits {
		next := match
		for j := len(s) - 1; j >= 0; j-- {
			next = b.AddByteRange(s[j], s[j], next)
		}
		starts[i] = next
	}
	anchoredStart := starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		anchoredStart = b.AddSplit(starts[i], anchoredStart)
	}

	loop := b.AddQuantifierSplit(anchoredStart, nfa.InvalidState)
	skip := b.AddByteRange(0x00, 0xFF, loop)
	if err := b.PatchSplit(loop, anchoredStart, skip); err != nil {
		panic(err)
	}

	b.SetStarts(anchoredStart, loop)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// buildPatternSet compiles lits as independent patterns unioned into one
// program (each with its own AddMatchPattern accepting state, tagged by its
// index into lits), the shape a regexp-set MatchKindMany search runs over.
// Unlike buildAlternate, priority order among the branches carries no
// meaning here: any subset of lits may match at once.
func buildPatternSet(lits []string) *nfa.NFA {
	b := nfa.NewBuilder()
	starts := make([]nfa.StateID, len(lits))
	for i, s := range lits {
		match := b.AddMatchPattern(uint32(i))
		next := match
		for j := len(s) - 1; j >= 0; j-- {
			next = b.AddByteRange(s[j], s[j], next)
		}
		starts[i] = next
	}
	cur := starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		cur = b.AddSplit(starts[i], cur)
	}
	b.SetStarts(cur, cur)
	n, err := b.Build(nfa.WithPatternCount(len(lits)))
	if err != nil {
		panic(err)
	}
	return n
}

// newBuilderWithRuneAny returns a Builder whose program uses StateRuneAny,
// the shape programSupported must reject.
func newBuilderWithRuneAny() *nfa.Builder {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	any := b.AddRuneAny(match)
	b.SetStarts(any, any)
	return b
}

// buildDotStar compiles a byte-level stand-in for `.*`: zero or more of
// any byte, greedy.
func buildDotStar() *nfa.NFA {
	b := nfa.NewBuilder()
	match := b.AddMatch()
	loop := b.AddQuantifierSplit(nfa.InvalidState, match)
	any := b.AddByteRange(0x00, 0xFF, loop)
	if err := b.PatchSplit(loop, any, match); err != nil {
		panic(err)
	}
	b.SetStarts(loop, loop)
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}
