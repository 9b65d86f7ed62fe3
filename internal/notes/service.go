package notes

import (
	"context"
	"errors"
	"time"

	apierrors "github.com/thirtyvoice/backend/internal/errors"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns voice note and reply lifecycle: creation with thread-depth
// enforcement, deleted-filtered reads, and the cascading soft-delete.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput carries the caller-supplied fields for a new note or reply.
type CreateInput struct {
	ActionText  string
	TldrText    string
	Transcript  *string
	AudioURL    string
	AudioURLMP3 *string
	Duration    float64
}

// Create stores a new top-level voice note owned by userID.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*models.VoiceNote, error) {
	note := models.VoiceNote{
		UserID:      userID,
		ActionText:  in.ActionText,
		TldrText:    in.TldrText,
		Transcript:  in.Transcript,
		AudioURL:    in.AudioURL,
		AudioURLMP3: in.AudioURLMP3,
		Duration:    in.Duration,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// CreateReply stores a reply under parentID, which may itself be a reply.
// The thread depth is capped at models.MaxReplyDepth.
func (s *Service) CreateReply(ctx context.Context, userID, parentID string, in CreateInput) (*models.VoiceNote, error) {
	var parent models.VoiceNote
	if err := s.db.WithContext(ctx).First(&parent, "id = ? AND is_deleted = false", parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("voice note")
		}
		return nil, err
	}

	depth, err := s.depthOf(ctx, &parent)
	if err != nil {
		return nil, err
	}
	if depth+1 > models.MaxReplyDepth {
		return nil, apierrors.ValidationError("parent_id", "reply thread is too deep")
	}

	reply := models.VoiceNote{
		UserID:      userID,
		ActionText:  in.ActionText,
		TldrText:    in.TldrText,
		Transcript:  in.Transcript,
		AudioURL:    in.AudioURL,
		AudioURLMP3: in.AudioURLMP3,
		Duration:    in.Duration,
		ParentID:    &parent.ID,
	}
	if err := s.db.WithContext(ctx).Create(&reply).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// depthOf walks the parent chain; a top-level note is depth 0.
func (s *Service) depthOf(ctx context.Context, note *models.VoiceNote) (int, error) {
	depth := 0
	current := note
	for current.ParentID != nil {
		depth++
		if depth > models.MaxReplyDepth {
			break
		}
		var parent models.VoiceNote
		if err := s.db.WithContext(ctx).Select("id", "parent_id").First(&parent, "id = ?", *current.ParentID).Error; err != nil {
			return depth, err
		}
		current = &parent
	}
	return depth, nil
}

// Get fetches a single non-deleted note.
func (s *Service) Get(ctx context.Context, id string) (*models.VoiceNote, error) {
	var note models.VoiceNote
	err := s.db.WithContext(ctx).Preload("User").
		First(&note, "id = ? AND is_deleted = false", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("voice note")
		}
		return nil, err
	}
	return &note, nil
}

// List returns non-deleted top-level notes, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.VoiceNote, int64, error) {
	var notesList []models.VoiceNote
	q := s.db.WithContext(ctx).Preload("User").
		Where("is_deleted = false AND parent_id IS NULL").
		Order("created_at DESC").
		Limit(limit).Offset(offset)
	if err := q.Find(&notesList).Error; err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.VoiceNote{}).
		Where("is_deleted = false AND parent_id IS NULL").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return notesList, total, nil
}

// Replies returns non-deleted direct replies of a note, oldest first.
func (s *Service) Replies(ctx context.Context, parentID string, limit, offset int) ([]models.VoiceNote, int64, error) {
	var replies []models.VoiceNote
	err := s.db.WithContext(ctx).Preload("User").
		Where("parent_id = ? AND is_deleted = false", parentID).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.VoiceNote{}).
		Where("parent_id = ? AND is_deleted = false", parentID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}

// DeleteResult reports a soft-delete, including how many descendants were
// cascaded and whether the cascade completed.
type DeleteResult struct {
	Cascaded int  `json:"cascaded"`
	Partial  bool `json:"partial"`
}

// Delete retires a note and its reply subtree. The requester must own the
// root; descendants are cascaded regardless of who owns them. Re-deleting an
// already-deleted note is an idempotent no-op success.
//
// The root mark is the operation's success criterion. The cascade is
// best-effort: a failed descendant update is logged and reported as partial,
// never rolled back into a failure of the whole delete.
func (s *Service) Delete(ctx context.Context, requesterID, noteID string) (*DeleteResult, error) {
	var note models.VoiceNote
	if err := s.db.WithContext(ctx).First(&note, "id = ?", noteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFound("voice note")
		}
		return nil, err
	}

	// Same generic shape whether the note exists or not; non-owners learn
	// nothing beyond "you can't delete this".
	if note.UserID != requesterID {
		return nil, apierrors.Forbidden("you do not own this voice note")
	}

	if note.IsDeleted {
		return &DeleteResult{}, nil
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&models.VoiceNote{}).
		Where("id = ? AND is_deleted = false", noteID).
		UpdateColumns(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		}).Error; err != nil {
		return nil, err
	}

	result := &DeleteResult{}
	frontier := []string{noteID}
	for len(frontier) > 0 {
		var children []models.VoiceNote
		if err := s.db.WithContext(ctx).Select("id").
			Where("parent_id IN ? AND is_deleted = false", frontier).
			Find(&children).Error; err != nil {
			logger.Warn("reply cascade lookup failed",
				logger.WithNoteID(noteID),
				zap.Error(err),
			)
			result.Partial = true
			break
		}
		if len(children) == 0 {
			break
		}

		ids := make([]string, len(children))
		for i, c := range children {
			ids[i] = c.ID
		}
		res := s.db.WithContext(ctx).Model(&models.VoiceNote{}).
			Where("id IN ? AND is_deleted = false", ids).
			UpdateColumns(map[string]interface{}{
				"is_deleted": true,
				"deleted_at": now,
			})
		if res.Error != nil {
			logger.Warn("reply cascade update failed",
				logger.WithNoteID(noteID),
				zap.Error(res.Error),
			)
			result.Partial = true
			break
		}
		result.Cascaded += int(res.RowsAffected)
		frontier = ids
	}

	logger.Log.Info("voice note soft-deleted",
		logger.WithNoteID(noteID),
		logger.WithUserID(requesterID),
		zap.Int("cascaded", result.Cascaded),
		zap.Bool("partial", result.Partial),
	)
	return result, nil
}
