package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxReplyDepth bounds the reply tree. A reply to a depth-3 node is rejected
// at creation time.
const MaxReplyDepth = 3

// VoiceNote is a voice recording, either a top-level note or a threaded
// reply (ParentID set). Deletion is a state transition: rows are never
// physically removed, and every read path filters is_deleted = false.
type VoiceNote struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	ActionText string  `gorm:"type:text" json:"action_text"`
	TldrText   string  `gorm:"type:text" json:"tldr_text"`
	Transcript *string `gorm:"type:text" json:"transcript,omitempty"`

	// Primary encoding is webm; mp3 is the optional playback fallback.
	AudioURL    string  `gorm:"not null" json:"audio_url"`
	AudioURLMP3 *string `json:"audio_url_mp3,omitempty"`
	Duration    float64 `gorm:"not null;default:0" json:"duration"`

	// Replies self-reference their parent note or reply.
	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	// Denormalized reaction counters, one per ReactionKind. Kept in sync by
	// the toggle engine; never negative.
	HumourousCount        int `gorm:"not null;default:0" json:"humourous_count"`
	InformativeCount      int `gorm:"not null;default:0" json:"informative_count"`
	GameChangerCount      int `gorm:"not null;default:0" json:"game_changer_count"`
	UsefulCount           int `gorm:"not null;default:0" json:"useful_count"`
	ThoughtProvokingCount int `gorm:"not null;default:0" json:"thought_provoking_count"`
	DebatableCount        int `gorm:"not null;default:0" json:"debatable_count"`

	ListenCount int `gorm:"not null;default:0" json:"listen_count"`

	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *VoiceNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
