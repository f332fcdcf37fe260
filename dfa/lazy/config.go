package lazy

// MatchKind selects the semantics a search reports.
type MatchKind uint8

const (
	// MatchKindFirst reports the leftmost-first (Perl-like) match: earlier
	// alternatives win over later ones at the same start position.
	MatchKindFirst MatchKind = iota

	// MatchKindLongest reports the leftmost-longest (POSIX-like) match:
	// among matches starting at the same position, the longest wins.
	MatchKindLongest

	// MatchKindMany collects the set of matching sub-pattern IDs in a
	// multi-pattern union (SearchResult.MatchedPatterns), reporting the
	// leftmost-longest end point among them the way MatchKindLongest does:
	// stopping the closure walk at the first pattern to match would hide a
	// lower-priority alternative's own byte-consuming continuation and its
	// own match, so the walk explores every alternative to completion.
	MatchKindMany
)

// String returns a human-readable MatchKind name.
func (k MatchKind) String() string {
	switch k {
	case MatchKindFirst:
		return "First"
	case MatchKindLongest:
		return "Longest"
	case MatchKindMany:
		return "Many"
	default:
		return "Unknown"
	}
}

// Config configures the behavior of the lazy DFA engine.
//
// The configuration allows tuning the trade-off between memory usage and
// performance. Larger budgets provide better hit rates but consume more memory.
type Config struct {
	// MemBudgetBytes is the total number of bytes the state cache (arena +
	// intern pool) may occupy before a flush is triggered. Must be at least
	// 4 KiB (minViableBudget), or construction fails with ErrInitFailed.
	//
	// Default: 8 MiB.
	MemBudgetBytes int64

	// Kind selects leftmost-first, leftmost-longest, or many-match semantics.
	//
	// Default: MatchKindFirst.
	Kind MatchKind

	// UsePrefixAccel enables the single-byte scan acceleration described in
	// spec §4.2/§4.6 at the start state of an unanchored search, when that
	// state's only live outgoing byte class is a single byte. Anchored
	// searches and all other states never skip. The literal-prefix prefilter
	// at the unanchored start state is not controlled by this setting.
	//
	// Default: true.
	UsePrefixAccel bool
}

// DefaultConfig returns a configuration with sensible defaults: an 8 MiB
// budget, leftmost-first matching, and prefix acceleration enabled.
func DefaultConfig() Config {
	return Config{
		MemBudgetBytes: 8 << 20,
		Kind:           MatchKindFirst,
		UsePrefixAccel: true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MemBudgetBytes <= 0 {
		return &DFAError{Kind: InvalidConfig, Message: "MemBudgetBytes must be > 0"}
	}
	switch c.Kind {
	case MatchKindFirst, MatchKindLongest, MatchKindMany:
	default:
		return &DFAError{Kind: InvalidConfig, Message: "unknown MatchKind"}
	}
	return nil
}

// WithMemBudgetBytes returns a copy of c with the given memory budget.
func (c Config) WithMemBudgetBytes(n int64) Config {
	c.MemBudgetBytes = n
	return c
}

// WithMatchKind returns a copy of c with the given match kind.
func (c Config) WithMatchKind(k MatchKind) Config {
	c.Kind = k
	return c
}

// WithPrefixAccel returns a copy of c with prefix acceleration enabled or disabled.
func (c Config) WithPrefixAccel(enabled bool) Config {
	c.UsePrefixAccel = enabled
	return c
}
