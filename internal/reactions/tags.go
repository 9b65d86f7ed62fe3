package reactions

import (
	"context"
	"errors"
	"strings"

	apierrors "github.com/thirtyvoice/backend/internal/errors"
	"github.com/thirtyvoice/backend/internal/models"
	"gorm.io/gorm"
)

// TagOutcome is the result of a binary tag-vote toggle.
type TagOutcome struct {
	Operation Operation `json:"operation"`
	TagName   string    `json:"tag_name"`
	VoteCount int       `json:"vote_count"`
}

// ToggleTag applies the binary add/remove toggle for a named tag on a note.
// Tags have no swap: a user either backs a tag or doesn't. The tag row
// itself is created lazily on the first vote for that name.
func (e *Engine) ToggleTag(ctx context.Context, voterID, noteID, tagName string) (*TagOutcome, error) {
	tagName = strings.TrimSpace(strings.ToLower(tagName))
	if tagName == "" {
		return nil, apierrors.ValidationError("tag_name", "tag name is required")
	}

	var outcome *TagOutcome
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.VoiceNote
		if err := tx.First(&note, "id = ? AND is_deleted = false", noteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("voice note")
			}
			return err
		}

		tag := models.VoiceTag{VoiceNoteID: noteID, TagName: tagName}
		if err := tx.Where("voice_note_id = ? AND tag_name = ?", noteID, tagName).
			FirstOrCreate(&tag).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// Concurrent first vote created it between the read and the
			// insert; fetch the winner's row.
			if err := tx.First(&tag, "voice_note_id = ? AND tag_name = ?", noteID, tagName).Error; err != nil {
				return err
			}
		}

		var existing models.TagVote
		err := tx.First(&existing, "tag_id = ? AND user_id = ?", tag.ID, voterID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.TagVote{TagID: tag.ID, UserID: voterID}
			if createErr := tx.Create(&vote).Error; createErr != nil {
				if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
					return createErr
				}
				// Same-user race: the vote exists now, so this request
				// resolves as a toggle-off.
				if err := tx.Delete(&models.TagVote{}, "tag_id = ? AND user_id = ?", tag.ID, voterID).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.VoiceTag{}).Where("id = ?", tag.ID).
					UpdateColumn("vote_count", decrementExpr("vote_count")).Error; err != nil {
					return err
				}
				outcome = &TagOutcome{Operation: OpRemove, TagName: tagName}
				return nil
			}
			if err := tx.Model(&models.VoiceTag{}).Where("id = ?", tag.ID).
				UpdateColumn("vote_count", incrementExpr("vote_count")).Error; err != nil {
				return err
			}
			outcome = &TagOutcome{Operation: OpAdd, TagName: tagName}
			return nil

		case err != nil:
			return err

		default:
			if err := tx.Delete(&models.TagVote{}, "id = ?", existing.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.VoiceTag{}).Where("id = ?", tag.ID).
				UpdateColumn("vote_count", decrementExpr("vote_count")).Error; err != nil {
				return err
			}
			outcome = &TagOutcome{Operation: OpRemove, TagName: tagName}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	var tag models.VoiceTag
	if err := e.db.WithContext(ctx).First(&tag, "voice_note_id = ? AND tag_name = ?", noteID, tagName).Error; err == nil {
		outcome.VoteCount = tag.VoteCount
	}
	return outcome, nil
}

// TagsFor lists a note's tags with their vote counts.
func (e *Engine) TagsFor(ctx context.Context, noteID string) ([]models.VoiceTag, error) {
	var tags []models.VoiceTag
	err := e.db.WithContext(ctx).
		Where("voice_note_id = ?", noteID).
		Order("vote_count DESC, tag_name ASC").
		Find(&tags).Error
	return tags, err
}
