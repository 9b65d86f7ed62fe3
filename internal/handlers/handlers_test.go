package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/models"
	"github.com/thirtyvoice/backend/internal/notes"
	"github.com/thirtyvoice/backend/internal/reactions"
	"github.com/thirtyvoice/backend/internal/telemetry"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.VoiceNote{},
		&models.VoiceVote{},
		&models.VoiceTag{},
		&models.TagVote{},
		&models.ListenRecord{},
	))
	return db
}

// mockAuth resolves the identity from the X-User-ID header. Routes behind it
// reject requests without one; optional routes just pass what they get.
func mockAuth(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			if required {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
				c.Abort()
			}
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

type HandlersTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	owner models.User
	other models.User
}

func (s *HandlersTestSuite) SetupSuite() {
	logger.InitializeForTests()
	gin.SetMode(gin.TestMode)
}

func (s *HandlersTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())

	h := New(
		notes.NewService(s.db),
		reactions.NewEngine(s.db),
		telemetry.NewListenSink(s.db, nil),
		20,
	)

	s.router = s.buildRouter(h)

	s.owner = models.User{Email: "owner@test.com", Username: "owner", DisplayName: "Owner"}
	s.other = models.User{Email: "other@test.com", Username: "other", DisplayName: "Other"}
	s.Require().NoError(s.db.Create(&s.owner).Error)
	s.Require().NoError(s.db.Create(&s.other).Error)
}

func (s *HandlersTestSuite) buildRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	api := router.Group("/api/v1")
	notesGroup := api.Group("/notes")
	{
		notesGroup.GET("", h.ListNotes)
		notesGroup.GET("/:id", h.GetNote)
		notesGroup.GET("/:id/replies", h.GetReplies)
		notesGroup.GET("/:id/tags", h.GetTags)
		notesGroup.POST("/:id/listen", mockAuth(false), h.RecordListen)

		authed := notesGroup.Group("")
		authed.Use(mockAuth(true))
		{
			authed.POST("", h.CreateNote)
			authed.DELETE("/:id", h.DeleteNote)
			authed.POST("/:id/replies", h.CreateReply)
			authed.POST("/:id/vote", h.ToggleVote)
			authed.POST("/:id/tags/vote", h.ToggleTagVote)
		}
	}
	return router
}

func (s *HandlersTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) createNote(userID string) models.VoiceNote {
	w := s.request(http.MethodPost, "/api/v1/notes", userID, gin.H{
		"action_text": "Ship the ugly version first",
		"tldr_text":   "Perfectionism kills side projects.",
		"audio_url":   "https://cdn.test/note.webm",
		"duration":    28.4,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var note models.VoiceNote
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &note))
	return note
}

func (s *HandlersTestSuite) TestCreateNoteRequiresAuth() {
	w := s.request(http.MethodPost, "/api/v1/notes", "", gin.H{
		"action_text": "x",
		"audio_url":   "https://cdn.test/x.webm",
		"duration":    10,
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestCreateNoteValidatesBody() {
	w := s.request(http.MethodPost, "/api/v1/notes", s.owner.ID, gin.H{
		"action_text": "missing audio",
		"duration":    10,
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestCreateAndFetchNote() {
	note := s.createNote(s.owner.ID)
	s.NotEmpty(note.ID)

	w := s.request(http.MethodGet, "/api/v1/notes/"+note.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var got models.VoiceNote
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal(note.ID, got.ID)
	s.Equal(s.owner.ID, got.UserID)
}

func (s *HandlersTestSuite) TestListNotes() {
	s.createNote(s.owner.ID)
	s.createNote(s.other.ID)

	w := s.request(http.MethodGet, "/api/v1/notes", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Notes []models.VoiceNote `json:"notes"`
		Total int64              `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(int64(2), resp.Total)
	s.Len(resp.Notes, 2)
}

func (s *HandlersTestSuite) TestListUsesConfiguredPageSize() {
	s.createNote(s.owner.ID)
	s.createNote(s.other.ID)

	// A router with a one-item default page; no limit query sent.
	small := New(
		notes.NewService(s.db),
		reactions.NewEngine(s.db),
		telemetry.NewListenSink(s.db, nil),
		1,
	)
	router := s.buildRouter(small)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Notes []models.VoiceNote `json:"notes"`
		Total int64              `json:"total"`
		Limit int                `json:"limit"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(int64(2), resp.Total)
	s.Len(resp.Notes, 1)
	s.Equal(1, resp.Limit)
}

func (s *HandlersTestSuite) TestReplyRoundTrip() {
	note := s.createNote(s.owner.ID)

	w := s.request(http.MethodPost, "/api/v1/notes/"+note.ID+"/replies", s.other.ID, gin.H{
		"action_text": "Counterpoint",
		"audio_url":   "https://cdn.test/reply.webm",
		"duration":    20,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.request(http.MethodGet, "/api/v1/notes/"+note.ID+"/replies", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Replies []models.VoiceNote `json:"replies"`
		Total   int64              `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(int64(1), resp.Total)
}

func (s *HandlersTestSuite) TestVoteToggleAndSwap() {
	note := s.createNote(s.owner.ID)

	w := s.request(http.MethodPost, "/api/v1/notes/"+note.ID+"/vote", s.other.ID, gin.H{
		"vote_type": "useful",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var outcome reactions.Outcome
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &outcome))
	s.Equal(reactions.OpAdd, outcome.Operation)
	s.Equal(1, outcome.Counters[reactions.KindUseful])

	w = s.request(http.MethodPost, "/api/v1/notes/"+note.ID+"/vote", s.other.ID, gin.H{
		"vote_type": "game_changer",
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &outcome))
	s.Equal(reactions.OpSwap, outcome.Operation)
	s.Equal(0, outcome.Counters[reactions.KindUseful])
	s.Equal(1, outcome.Counters[reactions.KindGameChanger])
}

func (s *HandlersTestSuite) TestVoteUnknownKind() {
	note := s.createNote(s.owner.ID)

	w := s.request(http.MethodPost, "/api/v1/notes/"+note.ID+"/vote", s.other.ID, gin.H{
		"vote_type": "amazing",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestTagVoteRoundTrip() {
	note := s.createNote(s.owner.ID)

	w := s.request(http.MethodPost, "/api/v1/notes/"+note.ID+"/tags/vote", s.other.ID, gin.H{
		"tag_name": "Startups",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var outcome reactions.TagOutcome
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &outcome))
	s.Equal(reactions.OpAdd, outcome.Operation)
	s.Equal("startups", outcome.TagName)

	w = s.request(http.MethodGet, "/api/v1/notes/"+note.ID+"/tags", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Tags []models.VoiceTag `json:"tags"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Tags, 1)
	s.Equal(1, resp.Tags[0].VoteCount)
}

func (s *HandlersTestSuite) TestAnonymousListen() {
	note := s.createNote(s.owner.ID)

	w := s.request(http.MethodPost, "/api/v1/notes/"+note.ID+"/listen", "", gin.H{
		"session_id": "session-1",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ListenCount int `json:"listen_count"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(1, resp.ListenCount)
}

func (s *HandlersTestSuite) TestDeleteRequiresOwnership() {
	note := s.createNote(s.owner.ID)

	w := s.request(http.MethodDelete, "/api/v1/notes/"+note.ID, s.other.ID, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestDeleteCascades() {
	note := s.createNote(s.owner.ID)
	w := s.request(http.MethodPost, "/api/v1/notes/"+note.ID+"/replies", s.other.ID, gin.H{
		"action_text": "Counterpoint",
		"audio_url":   "https://cdn.test/reply.webm",
		"duration":    20,
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/notes/"+note.ID, s.owner.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Deleted  bool `json:"deleted"`
		Cascaded int  `json:"cascaded"`
		Partial  bool `json:"partial"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Deleted)
	s.Equal(1, resp.Cascaded)
	s.False(resp.Partial)

	w = s.request(http.MethodGet, "/api/v1/notes/"+note.ID, "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestDeleteMissingNote() {
	w := s.request(http.MethodDelete, "/api/v1/notes/00000000-0000-0000-0000-000000000000", s.owner.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
