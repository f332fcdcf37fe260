package lazy

import "github.com/lazyregex/redfa/nfa"

// BuildAllStates forces the entire reachable state graph to be built and
// interned eagerly, and invokes visit once per newly discovered state
// (spec §6's BuildAllStates). It is meant for tests and offline analysis,
// not for the search hot path: a pathological program can make the
// reachable set arbitrarily larger than any sane memory budget, in which
// case BuildAllStates itself surfaces ErrCacheFull rather than looping.
func (d *DFA) BuildAllStates(visit func(*State)) error {
	l := newRWLocker(&d.cacheMu)
	defer l.release()

	start := d.getOrBuildStart(false, StartBeginText)
	if start == nil {
		return ErrCacheFull
	}

	seen := map[*State]bool{d.dead: true}
	queue := []*State{start}
	seen[start] = true

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		visit(s)

		for cls := 0; cls <= d.alphabetLen; cls++ {
			actualByte := eoiByte
			if cls < d.alphabetLen {
				actualByte = int(representativeByte(d.byteClasses, cls))
			}
			next, _, _, ok := d.step(l, s, cls, actualByte)
			if !ok {
				return ErrCacheFull
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return nil
}

// PossibleMatchRange computes [min, max], the lexicographically smallest
// and largest strings of length at most maxLen that this program could
// possibly match as a prefix, per spec §6. It walks the DFA greedily: at
// each step, min follows the lowest live byte class and max follows the
// highest, stopping early on a dead end, a cycle (a state seen before at
// the same walk), or maxLen bytes; the min walk also stops at a match.
//
// PossibleMatchRange is a coarse over-approximation, exactly as RE2's is:
// a false positive (a prefix reported as possible that no full match ever
// realizes) is acceptable; a false negative is not.
func (d *DFA) PossibleMatchRange(maxLen int) (min, max []byte, ok bool) {
	l := newRWLocker(&d.cacheMu)
	defer l.release()

	start := d.getOrBuildStart(true, StartBeginText)
	if start == nil {
		return nil, nil, false
	}

	minB, okMin := d.walkExtreme(l, start, maxLen, false)
	maxB, okMax := d.walkExtreme(l, start, maxLen, true)
	if !okMin || !okMax {
		return nil, nil, false
	}
	return minB, maxB, true
}

// walkExtreme walks from s following, at each step, the lowest (want
// high=false) or highest (want high=true) byte class with a live
// transition, until a dead end, maxLen bytes, or a previously-visited
// state (cycle) is reached. The low walk additionally stops as soon as it
// reaches a match state, since any further extension only ever compares
// greater than the prefix already built.
func (d *DFA) walkExtreme(l *rwLocker, s *State, maxLen int, high bool) ([]byte, bool) {
	var out []byte
	visited := map[*State]bool{}

	for len(out) < maxLen {
		if s == d.dead {
			break
		}
		if visited[s] {
			// Cycle: the current prefix is already a valid extreme,
			// extending it further would only ever repeat.
			break
		}
		visited[s] = true

		if !high && s.IsMatch() {
			// A proper prefix always sorts below every one of its own
			// extensions, so the smallest possible match is exactly the
			// first one reached walking lowest-byte-first; continuing
			// past it could only produce a longer, larger string. The
			// max walk has no such stopping rule: extending past a match
			// only ever grows the reported upper bound, which stays a
			// valid over-approximation.
			break
		}

		cls, b, found := d.extremeLiveClass(l, s, high)
		if !found {
			break
		}
		out = append(out, b)
		next, _, _, ok := d.step(l, s, cls, int(b))
		if !ok {
			return nil, false
		}
		s = next
	}
	return out, true
}

// extremeLiveClass finds the lowest or highest byte class with a
// transition that does not lead straight to DeadState, computing
// transitions as needed.
func (d *DFA) extremeLiveClass(l *rwLocker, s *State, high bool) (cls int, b byte, found bool) {
	classes := make([]int, 0, d.alphabetLen)
	for c := 0; c < d.alphabetLen; c++ {
		classes = append(classes, c)
	}
	if high {
		for i, j := 0, len(classes)-1; i < j; i, j = i+1, j-1 {
			classes[i], classes[j] = classes[j], classes[i]
		}
	}
	for _, c := range classes {
		rep := representativeByte(d.byteClasses, c)
		next, _, _, ok := d.step(l, s, c, int(rep))
		if !ok || next == d.dead {
			continue
		}
		return c, rep, true
	}
	return 0, 0, false
}

// representativeByte returns one concrete byte belonging to class cls,
// used whenever a transition must be computed from a class index alone
// (BuildAllStates, PossibleMatchRange): any member of the class produces
// an identical transition by construction of the byte-class partition.
func representativeByte(bc *nfa.ByteClasses, cls int) byte {
	for b := 0; b < 256; b++ {
		if int(bc.Get(byte(b))) == cls {
			return byte(b)
		}
	}
	return 0
}
