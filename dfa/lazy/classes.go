package lazy

import "github.com/lazyregex/redfa/nfa"

// refineByteClasses extends the compiler's own byte classes (built purely
// from literal ByteRange/Sparse transitions) with the splits look-around
// resolution needs but nfa.Builder.AddLook never registers: \b/\B require
// every word byte to be distinguishable from every non-word byte, and
// ^/$ (in multiline form) require '\n' to be distinguishable from
// everything else. Without this, two bytes that the compiler happened to
// leave in the same class (e.g. 'y' and ' ', both outside any literal's
// byte ranges) could resolve a pending look differently — one word, one
// not — while sharing the single cached transition slot runWorkqOnByte's
// caller keys by class alone.
func refineByteClasses(prog *nfa.NFA) *nfa.ByteClasses {
	base := prog.ByteClasses()
	needsWord, needsNL := scanLookSplits(prog)
	if !needsWord && !needsNL {
		return base
	}

	key := func(b byte) int {
		k := int(base.Get(b))
		if needsWord {
			k = k<<1 | boolInt(isWordByte(b))
		}
		if needsNL {
			k = k<<1 | boolInt(b == '\n')
		}
		return k
	}

	bcs := nfa.NewByteClassSet()
	for b := 0; b < 255; b++ {
		if key(byte(b)) != key(byte(b+1)) {
			bcs.SetByte(byte(b + 1))
		}
	}
	refined := bcs.ByteClasses()
	return &refined
}

// scanLookSplits reports which extra split criteria prog's look-around
// instructions require.
func scanLookSplits(prog *nfa.NFA) (needsWord, needsNL bool) {
	it := prog.Iter()
	for s := it.Next(); s != nil; s = it.Next() {
		if s.Kind() != nfa.StateLook {
			continue
		}
		look, _ := s.Look()
		switch look {
		case nfa.LookWordBoundary, nfa.LookNoWordBoundary:
			needsWord = true
		case nfa.LookStartLine, nfa.LookEndLine:
			needsNL = true
		}
	}
	return needsWord, needsNL
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
