package lazy

import "github.com/lazyregex/redfa/nfa"

// LookSet is a bitset representing satisfied look-around assertions.
//
// The DFA uses LookSet during epsilon closure to determine which StateLook
// transitions can be followed. Different start positions have different
// look assertions satisfied:
//   - BeginText: both \A and ^ are satisfied.
//   - BeginLine (previous byte was '\n'): only ^ is satisfied.
//   - Other positions: neither is satisfied.
//
// Word-boundary assertions (\b, \B) are resolved separately, via
// forwardLook at each byte step (see transition.go), since they
// depend on both the incoming and the about-to-be-consumed byte.
type LookSet uint32

const (
	// LookNone represents no assertions satisfied.
	LookNone LookSet = 0
	// LookStartText represents \A - start of input.
	LookStartText LookSet = 1 << 0
	// LookEndText represents \z - end of input.
	LookEndText LookSet = 1 << 1
	// LookStartLine represents ^ - start of line (after \n or at input start).
	LookStartLine LookSet = 1 << 2
	// LookEndLine represents $ - end of line (before \n or at input end).
	LookEndLine LookSet = 1 << 3
	// LookWordBoundary represents \b.
	LookWordBoundary LookSet = 1 << 4
	// LookNoWordBoundary represents \B.
	LookNoWordBoundary LookSet = 1 << 5
)

// Contains returns true if the look assertion is in this set.
func (s LookSet) Contains(look nfa.Look) bool {
	switch look {
	case nfa.LookStartText:
		return s&LookStartText != 0
	case nfa.LookEndText:
		return s&LookEndText != 0
	case nfa.LookStartLine:
		return s&LookStartLine != 0
	case nfa.LookEndLine:
		return s&LookEndLine != 0
	case nfa.LookWordBoundary:
		return s&LookWordBoundary != 0
	case nfa.LookNoWordBoundary:
		return s&LookNoWordBoundary != 0
	default:
		return false
	}
}

// Insert adds a look assertion to the set.
func (s LookSet) Insert(look nfa.Look) LookSet {
	switch look {
	case nfa.LookStartText:
		return s | LookStartText
	case nfa.LookEndText:
		return s | LookEndText
	case nfa.LookStartLine:
		return s | LookStartLine
	case nfa.LookEndLine:
		return s | LookEndLine
	case nfa.LookWordBoundary:
		return s | LookWordBoundary
	case nfa.LookNoWordBoundary:
		return s | LookNoWordBoundary
	default:
		return s
	}
}

// LookSetForBoundary returns the look assertions satisfied at the given
// StartKind, per spec §4.2's context boundary classification.
func LookSetForBoundary(kind StartKind) LookSet {
	switch kind {
	case StartBeginText:
		return LookStartText | LookStartLine
	case StartBeginLine:
		return LookStartLine
	case StartAfterWordChar, StartAfterNonWordChar:
		return LookNone
	default:
		return LookNone
	}
}

// LookSetForEOI returns look assertions satisfied at end-of-input.
// Both \z and $ are satisfied at the true end of input.
func LookSetForEOI() LookSet {
	return LookEndText | LookEndLine
}

// isWordByte returns true if the byte is an ASCII word character [a-zA-Z0-9_].
func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}
