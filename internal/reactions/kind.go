package reactions

import (
	"github.com/thirtyvoice/backend/internal/models"
)

// ReactionKind is the fixed set of reactions a note can receive.
type ReactionKind string

const (
	KindHumourous        ReactionKind = "humourous"
	KindInformative      ReactionKind = "informative"
	KindGameChanger      ReactionKind = "game_changer"
	KindUseful           ReactionKind = "useful"
	KindThoughtProvoking ReactionKind = "thought_provoking"
	KindDebatable        ReactionKind = "debatable"
)

// Kinds lists every valid reaction kind in display order.
var Kinds = []ReactionKind{
	KindHumourous,
	KindInformative,
	KindGameChanger,
	KindUseful,
	KindThoughtProvoking,
	KindDebatable,
}

// counterField binds a kind to its denormalized counter: the column the
// engine updates and the struct accessors the read side uses. Kinds map
// through this table only; counter columns are never derived from the kind
// string at runtime.
type counterField struct {
	column string
	get    func(*models.VoiceNote) int
	set    func(*models.VoiceNote, int)
}

var counterFields = map[ReactionKind]counterField{
	KindHumourous: {
		column: "humourous_count",
		get:    func(n *models.VoiceNote) int { return n.HumourousCount },
		set:    func(n *models.VoiceNote, v int) { n.HumourousCount = v },
	},
	KindInformative: {
		column: "informative_count",
		get:    func(n *models.VoiceNote) int { return n.InformativeCount },
		set:    func(n *models.VoiceNote, v int) { n.InformativeCount = v },
	},
	KindGameChanger: {
		column: "game_changer_count",
		get:    func(n *models.VoiceNote) int { return n.GameChangerCount },
		set:    func(n *models.VoiceNote, v int) { n.GameChangerCount = v },
	},
	KindUseful: {
		column: "useful_count",
		get:    func(n *models.VoiceNote) int { return n.UsefulCount },
		set:    func(n *models.VoiceNote, v int) { n.UsefulCount = v },
	},
	KindThoughtProvoking: {
		column: "thought_provoking_count",
		get:    func(n *models.VoiceNote) int { return n.ThoughtProvokingCount },
		set:    func(n *models.VoiceNote, v int) { n.ThoughtProvokingCount = v },
	},
	KindDebatable: {
		column: "debatable_count",
		get:    func(n *models.VoiceNote) int { return n.DebatableCount },
		set:    func(n *models.VoiceNote, v int) { n.DebatableCount = v },
	},
}

// ParseKind validates a wire value against the fixed kind set.
func ParseKind(s string) (ReactionKind, bool) {
	k := ReactionKind(s)
	_, ok := counterFields[k]
	return k, ok
}

// CounterColumn returns the database column holding this kind's counter.
func (k ReactionKind) CounterColumn() string {
	return counterFields[k].column
}

// CounterOf reads this kind's counter from a note.
func (k ReactionKind) CounterOf(n *models.VoiceNote) int {
	return counterFields[k].get(n)
}

// CountersOf snapshots every reaction counter on a note.
func CountersOf(n *models.VoiceNote) map[ReactionKind]int {
	counts := make(map[ReactionKind]int, len(Kinds))
	for _, k := range Kinds {
		counts[k] = counterFields[k].get(n)
	}
	return counts
}
