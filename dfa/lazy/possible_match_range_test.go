package lazy

import (
	"bytes"
	"testing"
)

func TestPossibleMatchRangeLiteral(t *testing.T) {
	prog := buildLiteral("needle")
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}

	min, max, ok := d.PossibleMatchRange(16)
	if !ok {
		t.Fatal("expected PossibleMatchRange to succeed")
	}
	if !bytes.Equal(min, []byte("needle")) || !bytes.Equal(max, []byte("needle")) {
		t.Fatalf("expected [needle, needle], got [%q, %q]", min, max)
	}
}

func TestPossibleMatchRangeAlternate(t *testing.T) {
	prog := buildAlternate([]string{"foo", "foobar"})
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}

	min, max, ok := d.PossibleMatchRange(16)
	if !ok {
		t.Fatal("expected PossibleMatchRange to succeed")
	}
	// "foo" is a prefix of "foobar" and reaches a match state first, so the
	// min walk stops there; the max walk continues past the match and
	// reports "foobar".
	if !bytes.Equal(min, []byte("foo")) {
		t.Fatalf("min: got %q, want prefix of foo/foobar", min)
	}
	if !bytes.HasPrefix(max, []byte("foo")) {
		t.Fatalf("max: got %q, want to start with foo", max)
	}
}

func TestPossibleMatchRangeRespectsMaxLen(t *testing.T) {
	prog := buildDotStar()
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}

	min, max, ok := d.PossibleMatchRange(4)
	if !ok {
		t.Fatal("expected PossibleMatchRange to succeed")
	}
	if len(min) > 4 || len(max) > 4 {
		t.Fatalf("expected walks capped at 4 bytes, got min=%q max=%q", min, max)
	}
}

func TestBuildAllStatesVisitsEveryReachableState(t *testing.T) {
	prog := buildAStarB()
	d, err := NewDFA(prog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDFA: %v", err)
	}

	count := 0
	if err := d.BuildAllStates(func(s *State) { count++ }); err != nil {
		t.Fatalf("BuildAllStates: %v", err)
	}
	if count == 0 {
		t.Fatal("expected at least one reachable state to be visited")
	}

	// Rerunning after ResetCache must rediscover the same number of states.
	d.ResetCache()
	count2 := 0
	if err := d.BuildAllStates(func(s *State) { count2++ }); err != nil {
		t.Fatalf("BuildAllStates after reset: %v", err)
	}
	if count != count2 {
		t.Fatalf("state count changed after ResetCache: before=%d after=%d", count, count2)
	}
}
