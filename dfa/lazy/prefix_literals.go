package lazy

import (
	"github.com/lazyregex/redfa/literal"
	"github.com/lazyregex/redfa/nfa"
	"github.com/lazyregex/redfa/prefilter"
)

// maxPrefixLiterals bounds how many alternative literal chains
// extractPrefixLiterals collects out of a single split tree, matching
// prefilter's own Teddy ceiling: past 8 alternatives Teddy stops being
// worth it and there is nothing more specific to fall back to here.
const maxPrefixLiterals = 8

// maxPrefixLiteralLen bounds how many bytes a single chain walk will
// accumulate, so a pattern built from many one-byte repeats can't walk the
// program forever looking for a branch point.
const maxPrefixLiteralLen = 32

// startPrefilter builds the best available prefilter over the fixed byte
// sequence(s) that must appear at the very start of any match beginning at
// seed, under the look assertions already known to hold there. It answers
// the same question literal.Extractor answers from a regexp/syntax.Regexp
// AST, but directly from the compiled program: the DFA never sees the
// source AST (compiling a pattern is out of scope for this package). Returns
// nil when no literal prefix can be pinned down, or when prefilter.Builder
// itself declines (e.g. a single alternative with no byte at all).
func startPrefilter(prog *nfa.NFA, seed nfa.StateID, resolved LookSet) prefilter.Prefilter {
	var lits []literal.Literal
	if !collectPrefixChains(prog, seed, resolved, nil, &lits) || len(lits) == 0 {
		return nil
	}
	return prefilter.NewBuilder(literal.NewSeq(lits...), nil).Build()
}

// collectPrefixChains walks the unconditional epsilon closure from id,
// following StateSplit into both branches (left before right, mirroring
// closer.walk's priority order) and accumulating one literal per surviving
// chain into *out. Every chain must bottom out at a pinned, non-empty byte
// sequence for the result to be usable: a branch that could start matching
// with no fixed byte at all (an immediate wide byte range, a StateSparse,
// or a look assertion this context can't resolve) makes the whole
// extraction unsound to use as a skip-ahead filter, since scanning only for
// the OTHER branches' literals could jump straight over a valid match
// start. That case, and having collected more than maxPrefixLiterals
// chains, both abort the whole walk by returning false.
func collectPrefixChains(prog *nfa.NFA, id nfa.StateID, resolved LookSet, acc []byte, out *[]literal.Literal) bool {
	if len(*out) >= maxPrefixLiterals {
		return false
	}
	if id == nfa.InvalidState {
		return true
	}
	s := prog.State(id)
	if s == nil {
		return true
	}
	switch s.Kind() {
	case nfa.StateByteRange:
		lo, hi, next := s.ByteRange()
		if lo != hi || len(acc) >= maxPrefixLiteralLen {
			return finishPrefixChain(acc, out)
		}
		extended := make([]byte, len(acc)+1)
		copy(extended, acc)
		extended[len(acc)] = lo
		return collectPrefixChains(prog, next, resolved, extended, out)

	case nfa.StateSparse:
		return finishPrefixChain(acc, out)

	case nfa.StateEpsilon:
		return collectPrefixChains(prog, s.Epsilon(), resolved, acc, out)

	case nfa.StateCapture:
		_, _, next := s.Capture()
		return collectPrefixChains(prog, next, resolved, acc, out)

	case nfa.StateSplit:
		left, right := s.Split()
		if !collectPrefixChains(prog, left, resolved, acc, out) {
			return false
		}
		return collectPrefixChains(prog, right, resolved, acc, out)

	case nfa.StateLook:
		look, next := s.Look()
		if resolved.Contains(look) {
			return collectPrefixChains(prog, next, resolved, acc, out)
		}
		return finishPrefixChain(acc, out)

	case nfa.StateMatch:
		return finishPrefixChain(acc, out)

	case nfa.StateFail:
		return true

	default:
		// StateRuneAny/StateRuneAnyNotNL never reach here: programSupported
		// rejects them before a DFA is built at all.
		return finishPrefixChain(acc, out)
	}
}

// finishPrefixChain records acc as one complete literal, provided it is
// non-empty. An empty accumulator means this chain never pinned down even
// one byte before terminating, which makes it unsafe to skip past using the
// other chains' literals alone; the caller aborts the whole extraction in
// that case.
func finishPrefixChain(acc []byte, out *[]literal.Literal) bool {
	if len(acc) == 0 {
		return false
	}
	*out = append(*out, literal.NewLiteral(acc, false))
	return true
}
