package lazy

import "testing"

func TestBacktrackerFindsLiteral(t *testing.T) {
	prog := buildLiteral("needle")
	b := NewBacktracker(prog)

	start, m, ok := b.Find([]byte("needle"), true, MatchKindFirst)
	if !ok || start != 0 || m.End != 6 {
		t.Fatalf("expected match at [0,6), got start=%d m=%+v ok=%v", start, m, ok)
	}

	if _, _, ok := b.Find([]byte("haystack"), true, MatchKindFirst); ok {
		t.Fatal("expected no match")
	}
}

func TestBacktrackerLeftmostFirstVsLongest(t *testing.T) {
	prog := buildAlternate([]string{"foo", "foobar"})
	b := NewBacktracker(prog)

	start, m, ok := b.Find([]byte("foobar"), true, MatchKindFirst)
	if !ok || start != 0 || m.End != 3 {
		t.Fatalf("MatchKindFirst: want end 3 (foo), got start=%d m=%+v", start, m)
	}

	start, m, ok = b.Find([]byte("foobar"), true, MatchKindLongest)
	if !ok || start != 0 || m.End != 6 {
		t.Fatalf("MatchKindLongest: want end 6 (foobar), got start=%d m=%+v", start, m)
	}
}

func TestBacktrackerAgreesWithDFAOnWordBoundary(t *testing.T) {
	prog := buildWordBoundaryUnanchored("word")
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}
	b := NewBacktracker(prog)

	texts := []string{"word", "wordy", "sword", "a word", "  word  "}
	for _, text := range texts {
		dfaRes := d.Search(SearchInput{Text: []byte(text), Anchored: false})
		_, _, btOK := b.Find([]byte(text), false, MatchKindFirst)
		if dfaRes.Matched != btOK {
			t.Errorf("text=%q: DFA matched=%v, Backtracker matched=%v", text, dfaRes.Matched, btOK)
		}
	}
}

func TestBacktrackerUnanchoredSkipsToMatch(t *testing.T) {
	prog := buildLiteral("bar")
	b := NewBacktracker(prog)

	start, m, ok := b.Find([]byte("foobar"), false, MatchKindFirst)
	if !ok || start != 3 || m.End != 6 {
		t.Fatalf("expected match at [3,6), got start=%d m=%+v ok=%v", start, m, ok)
	}

	if _, _, ok := b.Find([]byte("foobar"), true, MatchKindFirst); ok {
		t.Fatal("anchored search should not skip to offset 3")
	}
}

func TestBacktrackerCanHandleRejectsOversizedInput(t *testing.T) {
	prog := buildLiteral("x")
	b := NewBacktracker(prog)

	huge := make([]byte, maxBacktrackVisited)
	if b.CanHandle(len(huge)) {
		t.Fatal("expected CanHandle to reject an input this large")
	}
	if _, _, ok := b.Find(huge, true, MatchKindFirst); ok {
		t.Fatal("expected Find to refuse an input CanHandle rejects")
	}
}
