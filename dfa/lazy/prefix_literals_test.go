package lazy

import "testing"

// TestRepeatedGroupSurvivesPartiallyComputedAccelClasses is the review
// regression for canPrefixAccel's old peekTransition-based check: revisiting
// the post-'a' state of (a[bc])+ a second time, with only one of its two
// live classes computed so far, used to be misclassified as
// single-live-class and accelerated straight past the other.
func TestRepeatedGroupSurvivesPartiallyComputedAccelClasses(t *testing.T) {
	prog := buildRepeatedGroupUnanchored('b', 'c')
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}

	res := d.Search(SearchInput{Text: []byte("abac"), Anchored: false})
	if !res.Matched {
		t.Fatalf("expected match, got %+v", res)
	}
	if res.EndPos != 4 {
		t.Fatalf("expected end pos 4 (\"abac\" fully consumed), got %d", res.EndPos)
	}
}

// TestStartPrefilterSkipsJunkBeforeLiteral confirms an unanchored search
// over a pattern with a fixed literal prefix uses the literal-prefix
// accelerator to jump straight past a long unrelated prefix rather than
// stepping through it one dead position at a time.
func TestStartPrefilterSkipsJunkBeforeLiteral(t *testing.T) {
	prog := buildLiteralUnanchored("hello")
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}

	text := "xxxxxxxxxxhello"
	res := d.Search(SearchInput{Text: []byte(text), Anchored: false})
	if !res.Matched {
		t.Fatalf("expected match, got %+v", res)
	}
	if res.EndPos != len(text) {
		t.Fatalf("expected end pos %d, got %d", len(text), res.EndPos)
	}
}

// TestStartPrefilterHandlesAlternation confirms the literal-prefix
// accelerator still finds the correct (leftmost-first) match when the
// pattern begins with several alternative literals rather than one.
func TestStartPrefilterHandlesAlternation(t *testing.T) {
	prog := buildAlternateUnanchored([]string{"cat", "dog", "fish"})
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}

	cases := []struct {
		text    string
		wantEnd int
	}{
		{"zzzzzdog", 8},
		{"zzzzzzzzzzfish", 14},
		{"catdog", 3}, // leftmost-first: "cat" wins at position 0
	}
	for _, c := range cases {
		res := d.Search(SearchInput{Text: []byte(c.text), Anchored: false})
		if !res.Matched || res.EndPos != c.wantEnd {
			t.Errorf("text=%q: got matched=%v end=%d, want end=%d", c.text, res.Matched, res.EndPos, c.wantEnd)
		}
	}
}

// TestStartPrefilterAbsentWithNoFixedPrefix confirms a pattern that can
// begin matching on any byte at all (no fixed prefix to pin down) never
// builds a literal-prefix filter, since there would be nothing safe to
// skip past.
func TestStartPrefilterAbsentWithNoFixedPrefix(t *testing.T) {
	prog := buildDotStar()
	pf := startPrefilter(prog, prog.StartAnchored(), LookSetForBoundary(StartBeginText))
	if pf != nil {
		t.Fatalf("expected nil prefilter for a pattern with no fixed prefix, got %v", pf)
	}
}

// TestStartPrefilterFindsLiteralFromSeed exercises collectPrefixChains
// directly against a plain anchored literal, independent of the search
// loop's own wiring.
func TestStartPrefilterFindsLiteralFromSeed(t *testing.T) {
	prog := buildLiteral("needle")
	pf := startPrefilter(prog, prog.StartAnchored(), LookSetForBoundary(StartBeginText))
	if pf == nil {
		t.Fatalf("expected a non-nil prefilter for a fixed literal")
	}
	haystack := []byte("hay hay hay needle hay")
	got := pf.Find(haystack, 0)
	want := len("hay hay hay ")
	if got != want {
		t.Fatalf("Find: got %d, want %d", got, want)
	}
}
