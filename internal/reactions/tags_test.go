package reactions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apierrors "github.com/thirtyvoice/backend/internal/errors"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/models"
	"gorm.io/gorm"
)

type TagsTestSuite struct {
	suite.Suite
	db     *gorm.DB
	engine *Engine

	author models.User
	voter  models.User
	note   models.VoiceNote
}

func (s *TagsTestSuite) SetupSuite() {
	logger.InitializeForTests()
}

func (s *TagsTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.engine = NewEngine(s.db)

	s.author = models.User{Email: "author@test.com", Username: "author", DisplayName: "Author"}
	s.voter = models.User{Email: "voter@test.com", Username: "voter", DisplayName: "Voter"}
	s.Require().NoError(s.db.Create(&s.author).Error)
	s.Require().NoError(s.db.Create(&s.voter).Error)

	s.note = models.VoiceNote{
		UserID:     s.author.ID,
		ActionText: "Read your writing out loud",
		AudioURL:   "https://cdn.test/note.webm",
		Duration:   25,
	}
	s.Require().NoError(s.db.Create(&s.note).Error)
}

func (s *TagsTestSuite) TestFirstVoteCreatesTag() {
	outcome, err := s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, "writing")
	s.Require().NoError(err)

	s.Equal(OpAdd, outcome.Operation)
	s.Equal("writing", outcome.TagName)
	s.Equal(1, outcome.VoteCount)

	var tag models.VoiceTag
	s.Require().NoError(s.db.First(&tag, "voice_note_id = ? AND tag_name = ?", s.note.ID, "writing").Error)
	s.Equal(1, tag.VoteCount)
}

func (s *TagsTestSuite) TestSecondVoteRemoves() {
	_, err := s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, "writing")
	s.Require().NoError(err)

	outcome, err := s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, "writing")
	s.Require().NoError(err)

	s.Equal(OpRemove, outcome.Operation)
	s.Equal(0, outcome.VoteCount)

	// The tag row stays; only the vote is gone.
	var tag models.VoiceTag
	s.Require().NoError(s.db.First(&tag, "voice_note_id = ? AND tag_name = ?", s.note.ID, "writing").Error)
	s.Equal(0, tag.VoteCount)
}

func (s *TagsTestSuite) TestNameNormalized() {
	outcome, err := s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, "  Remote-Work ")
	s.Require().NoError(err)
	s.Equal("remote-work", outcome.TagName)

	// The normalized and raw forms are the same tag.
	outcome, err = s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, "remote-work")
	s.Require().NoError(err)
	s.Equal(OpRemove, outcome.Operation)
}

func (s *TagsTestSuite) TestEmptyNameRejected() {
	_, err := s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, "   ")
	s.Require().Error(err)

	apiErr, ok := err.(*apierrors.APIError)
	s.Require().True(ok)
	s.Equal(apierrors.ErrValidation, apiErr.Code)
}

func (s *TagsTestSuite) TestDeletedNoteNotFound() {
	s.Require().NoError(s.db.Model(&models.VoiceNote{}).
		Where("id = ?", s.note.ID).
		UpdateColumn("is_deleted", true).Error)

	_, err := s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, "writing")
	s.Require().Error(err)

	apiErr, ok := err.(*apierrors.APIError)
	s.Require().True(ok)
	s.Equal(apierrors.ErrNotFound, apiErr.Code)
}

func (s *TagsTestSuite) TestTagsForOrdersByVotes() {
	for _, name := range []string{"craft", "startups"} {
		_, err := s.engine.ToggleTag(context.Background(), s.voter.ID, s.note.ID, name)
		s.Require().NoError(err)
	}
	_, err := s.engine.ToggleTag(context.Background(), s.author.ID, s.note.ID, "startups")
	s.Require().NoError(err)

	tags, err := s.engine.TagsFor(context.Background(), s.note.ID)
	s.Require().NoError(err)
	s.Require().Len(tags, 2)
	s.Equal("startups", tags[0].TagName)
	s.Equal(2, tags[0].VoteCount)
	s.Equal("craft", tags[1].TagName)
}

func TestTagsTestSuite(t *testing.T) {
	suite.Run(t, new(TagsTestSuite))
}
