package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListenRecord is one playback start. Append-only; anonymous listens carry a
// nil UserID. SessionID is the client-generated playback session token the
// controller hands to its first-play callback, used server-side to dedupe.
type ListenRecord struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	VoiceNoteID string  `gorm:"not null;index" json:"voice_note_id"`
	UserID      *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	IPAddress   string  `gorm:"type:text" json:"ip_address,omitempty"`
	SessionID   string  `gorm:"not null" json:"session_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *ListenRecord) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}
