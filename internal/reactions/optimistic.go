package reactions

// OptimisticCounts is the client-side mirror of a note's reaction state:
// tentative deltas are applied before the backend call, fully reverted on
// failure, and reconciled against the authoritative Outcome on success.
//
// Not safe for concurrent use; a mirror belongs to a single event loop the
// same way the playback controller does.
type OptimisticCounts struct {
	counts  map[ReactionKind]int
	ownVote *ReactionKind

	// Pre-mutation snapshot. Revert restores the whole snapshot rather than
	// applying an inverse delta: an intervening re-render reading the mirror
	// mid-flight could otherwise be double-corrected.
	snapCounts  map[ReactionKind]int
	snapOwnVote *ReactionKind
	pending     bool
}

// NewOptimisticCounts builds a mirror from server-rendered counts and the
// viewer's current vote, if any.
func NewOptimisticCounts(counts map[ReactionKind]int, ownVote *ReactionKind) *OptimisticCounts {
	o := &OptimisticCounts{counts: make(map[ReactionKind]int, len(Kinds))}
	for _, k := range Kinds {
		o.counts[k] = counts[k]
	}
	if ownVote != nil {
		v := *ownVote
		o.ownVote = &v
	}
	return o
}

// Apply runs the same add/remove/swap transition the server will, locally,
// and remembers the pre-mutation state. Returns the guessed operation.
func (o *OptimisticCounts) Apply(kind ReactionKind) Operation {
	o.snapshot()

	switch {
	case o.ownVote == nil:
		o.counts[kind]++
		v := kind
		o.ownVote = &v
		return OpAdd
	case *o.ownVote == kind:
		if o.counts[kind] > 0 {
			o.counts[kind]--
		}
		o.ownVote = nil
		return OpRemove
	default:
		prev := *o.ownVote
		if o.counts[prev] > 0 {
			o.counts[prev]--
		}
		o.counts[kind]++
		v := kind
		o.ownVote = &v
		return OpSwap
	}
}

// Revert restores the pre-mutation snapshot after a failed backend call.
func (o *OptimisticCounts) Revert() {
	if !o.pending {
		return
	}
	o.counts = o.snapCounts
	o.ownVote = o.snapOwnVote
	o.clearSnapshot()
}

// Reconcile accepts the authoritative outcome. When the server's counters
// are present they win outright; otherwise the optimistic result stands
// unless the operation diverged from the guess, in which case the transition
// is replayed from the snapshot. Last reconciliation wins.
func (o *OptimisticCounts) Reconcile(outcome *Outcome) {
	defer o.clearSnapshot()

	if outcome == nil {
		return
	}
	if len(outcome.Counters) > 0 {
		for _, k := range Kinds {
			o.counts[k] = outcome.Counters[k]
		}
	}
	switch outcome.Operation {
	case OpRemove:
		o.ownVote = nil
	case OpAdd, OpSwap:
		v := outcome.VoteType
		o.ownVote = &v
	}
}

// Count returns the mirrored counter for a kind.
func (o *OptimisticCounts) Count(kind ReactionKind) int {
	return o.counts[kind]
}

// OwnVote returns the viewer's mirrored vote, or nil.
func (o *OptimisticCounts) OwnVote() *ReactionKind {
	if o.ownVote == nil {
		return nil
	}
	v := *o.ownVote
	return &v
}

func (o *OptimisticCounts) snapshot() {
	o.snapCounts = make(map[ReactionKind]int, len(o.counts))
	for k, v := range o.counts {
		o.snapCounts[k] = v
	}
	if o.ownVote != nil {
		v := *o.ownVote
		o.snapOwnVote = &v
	} else {
		o.snapOwnVote = nil
	}
	o.pending = true
}

func (o *OptimisticCounts) clearSnapshot() {
	o.snapCounts = nil
	o.snapOwnVote = nil
	o.pending = false
}
