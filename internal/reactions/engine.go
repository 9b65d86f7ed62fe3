package reactions

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/thirtyvoice/backend/internal/errors"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/models"
	"gorm.io/gorm"
)

// Operation is the transition the engine applied.
type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
	OpSwap   Operation = "swap"
)

// Outcome is the authoritative result of a toggle, returned so optimistic
// clients can reconcile.
type Outcome struct {
	Operation    Operation            `json:"operation"`
	VoteType     ReactionKind         `json:"vote_type"`
	PreviousKind *ReactionKind        `json:"previous_kind,omitempty"`
	Counters     map[ReactionKind]int `json:"counters"`
}

// Engine applies toggle/swap transitions against the vote ledger while
// keeping the note's denormalized counters in sync. Every transition runs in
// a single transaction; the (user_id, voice_note_id) unique index is the
// mutual-exclusion point for concurrent votes from the same user.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Toggle computes and applies the add/remove/swap transition for
// (voter, note, kind).
func (e *Engine) Toggle(ctx context.Context, voterID, noteID string, kind ReactionKind) (*Outcome, error) {
	if _, ok := ParseKind(string(kind)); !ok {
		return nil, apierrors.ValidationError("vote_type", fmt.Sprintf("unknown vote type %q", kind))
	}

	var outcome *Outcome
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.VoiceNote
		if err := tx.First(&note, "id = ? AND is_deleted = false", noteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("voice note")
			}
			return err
		}

		var existing models.VoiceVote
		err := tx.First(&existing, "user_id = ? AND voice_note_id = ?", voterID, noteID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.VoiceVote{
				UserID:      voterID,
				VoiceNoteID: noteID,
				VoteType:    string(kind),
			}
			if createErr := tx.Create(&vote).Error; createErr != nil {
				if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
					return createErr
				}
				// Lost a race with another request from the same voter.
				// Re-read and resolve through the remove/swap branch.
				if err := tx.First(&existing, "user_id = ? AND voice_note_id = ?", voterID, noteID).Error; err != nil {
					return err
				}
				o, err := e.resolveExisting(tx, &existing, kind)
				if err != nil {
					return err
				}
				outcome = o
				return nil
			}
			if err := tx.Model(&models.VoiceNote{}).Where("id = ?", noteID).
				UpdateColumn(kind.CounterColumn(), incrementExpr(kind.CounterColumn())).Error; err != nil {
				return err
			}
			outcome = &Outcome{Operation: OpAdd, VoteType: kind}
			return nil

		case err != nil:
			return err

		default:
			o, err := e.resolveExisting(tx, &existing, kind)
			if err != nil {
				return err
			}
			outcome = o
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	// Reload counters for the authoritative outcome snapshot.
	var note models.VoiceNote
	if err := e.db.WithContext(ctx).First(&note, "id = ?", noteID).Error; err != nil {
		return nil, err
	}
	outcome.Counters = CountersOf(&note)

	logger.Log.Debug("reaction toggled",
		logger.WithUserID(voterID),
		logger.WithNoteID(noteID),
	)
	return outcome, nil
}

// resolveExisting handles the two branches where the voter already holds a
// vote row: toggle-off on a matching kind, swap otherwise.
func (e *Engine) resolveExisting(tx *gorm.DB, existing *models.VoiceVote, kind ReactionKind) (*Outcome, error) {
	previous, ok := ParseKind(existing.VoteType)
	if !ok {
		// A row with a retired kind still has to toggle off cleanly; treat
		// its counter as absent.
		previous = ReactionKind(existing.VoteType)
	}

	if previous == kind {
		if err := tx.Delete(&models.VoiceVote{}, "id = ?", existing.ID).Error; err != nil {
			return nil, err
		}
		if ok {
			if err := tx.Model(&models.VoiceNote{}).Where("id = ?", existing.VoiceNoteID).
				UpdateColumn(kind.CounterColumn(), decrementExpr(kind.CounterColumn())).Error; err != nil {
				return nil, err
			}
		}
		prev := previous
		return &Outcome{Operation: OpRemove, VoteType: kind, PreviousKind: &prev}, nil
	}

	// Swap: update the row in place, never insert a second one.
	if err := tx.Model(&models.VoiceVote{}).Where("id = ?", existing.ID).
		UpdateColumn("vote_type", string(kind)).Error; err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		kind.CounterColumn(): incrementExpr(kind.CounterColumn()),
	}
	if ok {
		updates[previous.CounterColumn()] = decrementExpr(previous.CounterColumn())
	}
	if err := tx.Model(&models.VoiceNote{}).Where("id = ?", existing.VoiceNoteID).
		UpdateColumns(updates).Error; err != nil {
		return nil, err
	}
	prev := previous
	return &Outcome{Operation: OpSwap, VoteType: kind, PreviousKind: &prev}, nil
}

// incrementExpr bumps a counter column atomically. Column names come from
// the fixed kind table, never from request input.
func incrementExpr(column string) interface{} {
	return gorm.Expr(column + " + 1")
}

// decrementExpr lowers a counter column, floored at zero.
func decrementExpr(column string) interface{} {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", column, column))
}
