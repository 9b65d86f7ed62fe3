package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoiceVote is a user's current reaction on a note. The composite unique
// index is what makes the toggle engine's swap semantics safe: a voter can
// hold at most one row per note, updated in place on kind change and
// hard-deleted on toggle-off.
type VoiceVote struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string `gorm:"not null;uniqueIndex:idx_voice_votes_user_note" json:"user_id"`
	VoiceNoteID string `gorm:"not null;uniqueIndex:idx_voice_votes_user_note;index" json:"voice_note_id"`
	VoteType    string `gorm:"not null" json:"vote_type"`

	CreatedAt time.Time `json:"created_at"`
}

func (v *VoiceVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// VoiceTag is a named tag attached to a note, created lazily the first time
// somebody votes for it.
type VoiceTag struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	VoiceNoteID string `gorm:"not null;uniqueIndex:idx_voice_tags_note_name;index" json:"voice_note_id"`
	TagName     string `gorm:"not null;uniqueIndex:idx_voice_tags_note_name" json:"tag_name"`
	VoteCount   int    `gorm:"not null;default:0" json:"vote_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *VoiceTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TagVote is the binary (no swap) variant of a vote, one per user per tag.
type TagVote struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	TagID  string `gorm:"not null;uniqueIndex:idx_tag_votes_tag_user;index" json:"tag_id"`
	UserID string `gorm:"not null;uniqueIndex:idx_tag_votes_tag_user" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (v *TagVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
