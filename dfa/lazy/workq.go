package lazy

import (
	"fmt"
	"strings"

	"github.com/lazyregex/redfa/internal/sparse"
	"github.com/lazyregex/redfa/nfa"
)

// Workq is an insertion-ordered, de-duplicating set of NFA instruction IDs
// used as scratch space during subset construction. Insertion order encodes
// priority: entries pushed earlier represent higher-priority (more
// leftmost, more greedy) alternatives, mirroring the NFA's own left-before-
// right thread scheduling.
//
// The DFA keeps two pre-allocated Workqs (§4.3) reused across transitions
// under the write mutex, to avoid allocating on every byte consumed.
type Workq struct {
	set *sparse.SparseSet
}

// NewWorkq creates a Workq sized for an NFA program with the given number
// of states.
func NewWorkq(numStates int) *Workq {
	return &Workq{set: sparse.NewSparseSet(uint32(numStates))}
}

// Reset empties the queue in O(1) time, keeping its backing storage.
func (q *Workq) Reset() {
	q.set.Clear()
}

// Insert adds id to the queue if not already present, preserving priority
// order. Returns true if it was newly inserted.
func (q *Workq) Insert(id nfa.StateID) bool {
	if q.set.Contains(uint32(id)) {
		return false
	}
	q.set.Insert(uint32(id))
	return true
}

// Contains reports whether id is already queued.
func (q *Workq) Contains(id nfa.StateID) bool {
	return q.set.Contains(uint32(id))
}

// Len returns the number of queued entries.
func (q *Workq) Len() int {
	return q.set.Size()
}

// IDs returns the queued instruction IDs in priority (insertion) order, as
// a freshly allocated slice that later mutations of q do not affect.
func (q *Workq) IDs() []nfa.StateID {
	raw := q.set.Values()
	ids := make([]nfa.StateID, len(raw))
	for i, v := range raw {
		ids[i] = nfa.StateID(v)
	}
	return ids
}

// String renders the queue contents for debugging, in the style of RE2's
// DumpWorkq.
func (q *Workq) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range q.IDs() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	b.WriteByte('}')
	return b.String()
}
