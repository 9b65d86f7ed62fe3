package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thirtyvoice/backend/internal/cache"
	apierrors "github.com/thirtyvoice/backend/internal/errors"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/metrics"
	"github.com/thirtyvoice/backend/internal/models"
	"gorm.io/gorm"
)

// dedupeTTL is how long a playback session token suppresses repeat listen
// events for the same note.
const dedupeTTL = 6 * time.Hour

// ListenEvent is one playback start reported by a client. Idempotency
// within a playback session is the caller's job (the playback controller
// fires its first-play callback once per session); the redis latch here only
// guards against replays of the same session token.
type ListenEvent struct {
	VoiceNoteID string
	UserID      *string
	IPAddress   string
	SessionID   string
}

// ListenSink appends listen telemetry and keeps the displayed listen_count
// on the note in step with it. The denormalized counter is the source of
// truth for display; listen_records rows are append-only analytics.
type ListenSink struct {
	db    *gorm.DB
	cache *cache.RedisClient // nil disables session dedupe
}

func NewListenSink(db *gorm.DB, redisClient *cache.RedisClient) *ListenSink {
	return &ListenSink{db: db, cache: redisClient}
}

// Record appends the event and increments the note's listen count, returning
// the updated count. A session token that already recorded a listen for this
// note returns the current count without incrementing.
func (s *ListenSink) Record(ctx context.Context, ev ListenEvent) (int, error) {
	if ev.VoiceNoteID == "" {
		return 0, apierrors.ValidationError("voice_note_id", "voice note id is required")
	}
	if ev.SessionID == "" {
		ev.SessionID = uuid.New().String()
	}

	if s.cache != nil {
		key := fmt.Sprintf("listen:%s:%s", ev.VoiceNoteID, ev.SessionID)
		claimed, err := s.cache.SetNX(ctx, key, 1, dedupeTTL)
		if err != nil {
			// Dedupe is best-effort; a dead redis must not block telemetry.
			logger.WarnWithFields("listen dedupe unavailable", err)
		} else if !claimed {
			metrics.Get().ListensDeduped.Inc()
			return s.currentCount(ctx, ev.VoiceNoteID)
		}
	}

	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.VoiceNote
		if err := tx.First(&note, "id = ? AND is_deleted = false", ev.VoiceNoteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("voice note")
			}
			return err
		}

		record := models.ListenRecord{
			VoiceNoteID: ev.VoiceNoteID,
			UserID:      ev.UserID,
			IPAddress:   ev.IPAddress,
			SessionID:   ev.SessionID,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.VoiceNote{}).Where("id = ?", ev.VoiceNoteID).
			UpdateColumn("listen_count", gorm.Expr("listen_count + 1")).Error; err != nil {
			return err
		}

		count = note.ListenCount + 1
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.Get().ListensRecorded.Inc()
	return count, nil
}

// RecordedListens aggregates the append-only log for a note. Kept alongside
// the denormalized counter so drift between the two is observable.
func (s *ListenSink) RecordedListens(ctx context.Context, noteID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ListenRecord{}).
		Where("voice_note_id = ?", noteID).
		Count(&n).Error
	return n, err
}

func (s *ListenSink) currentCount(ctx context.Context, noteID string) (int, error) {
	var note models.VoiceNote
	if err := s.db.WithContext(ctx).Select("listen_count").First(&note, "id = ? AND is_deleted = false", noteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apierrors.NotFound("voice note")
		}
		return 0, err
	}
	return note.ListenCount, nil
}
