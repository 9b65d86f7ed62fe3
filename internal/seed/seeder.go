package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/models"
	"github.com/thirtyvoice/backend/internal/notes"
	"github.com/thirtyvoice/backend/internal/reactions"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder populates a development database with a small voice-note community:
// a curated set of fixtures plus generated filler on top.
type Seeder struct {
	db     *gorm.DB
	notes  *notes.Service
	engine *reactions.Engine

	// Generated demo volume on top of the curated fixtures.
	ExtraUsers int
	ExtraNotes int
}

func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:         db,
		notes:      notes.NewService(db),
		engine:     reactions.NewEngine(db),
		ExtraUsers: 8,
		ExtraNotes: 12,
	}
}

type seedUser struct {
	email       string
	username    string
	displayName string
	company     string
	role        string
}

var seedUsers = []seedUser{
	{"maya@example.com", "maya", "Maya Okafor", "Lighthouse Labs", "Product Designer"},
	{"dev@example.com", "devraj", "Dev Raj", "Freelance", "iOS Engineer"},
	{"sam@example.com", "sam_codes", "Sam Whitfield", "Parallel", "Founder"},
	{"ines@example.com", "ines", "Inés Moreno", "", "Writer"},
}

type seedNote struct {
	author   int
	action   string
	tldr     string
	audio    string
	duration float64
	replies  []seedNote
}

var seedNotes = []seedNote{
	{
		author:   0,
		action:   "Ship the ugly version first",
		tldr:     "Perfectionism killed three of my side projects before anyone saw them.",
		audio:    "https://cdn.thirtyvoice.dev/seed/ship-ugly.webm",
		duration: 28.4,
		replies: []seedNote{
			{author: 1, action: "Counterpoint from app review land", tldr: "Apple rejects ugly.", audio: "https://cdn.thirtyvoice.dev/seed/counterpoint.webm", duration: 22.1},
			{author: 2, action: "Agreed, with a caveat", tldr: "Ugly is fine, broken is not.", audio: "https://cdn.thirtyvoice.dev/seed/caveat.webm", duration: 19.8},
		},
	},
	{
		author:   2,
		action:   "Stop scheduling meetings before noon",
		tldr:     "We moved all syncs to the afternoon and shipped 30% more.",
		audio:    "https://cdn.thirtyvoice.dev/seed/no-morning-meetings.webm",
		duration: 29.9,
	},
	{
		author:   3,
		action:   "Read your writing out loud",
		tldr:     "Your ear catches what your eye forgives.",
		audio:    "https://cdn.thirtyvoice.dev/seed/read-aloud.webm",
		duration: 25.0,
	},
}

// Run seeds users, notes, replies, and a spread of reactions. Safe to re-run;
// existing users short-circuit the whole seed.
func (s *Seeder) Run(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Log.Info("database already seeded, skipping", zap.Int64("users", count))
		return nil
	}

	users := make([]models.User, len(seedUsers))
	for i, su := range seedUsers {
		users[i] = models.User{
			Email:       su.email,
			Username:    su.username,
			DisplayName: su.displayName,
			Company:     su.company,
			Role:        su.role,
			Verified:    i == 0,
		}
		if err := s.db.WithContext(ctx).Create(&users[i]).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", su.username, err)
		}
	}

	created := make([]string, 0, len(seedNotes))
	for _, sn := range seedNotes {
		note, err := s.notes.Create(ctx, users[sn.author].ID, notes.CreateInput{
			ActionText: sn.action,
			TldrText:   sn.tldr,
			AudioURL:   sn.audio,
			Duration:   sn.duration,
		})
		if err != nil {
			return fmt.Errorf("seed note %q: %w", sn.action, err)
		}
		created = append(created, note.ID)

		for _, sr := range sn.replies {
			if _, err := s.notes.CreateReply(ctx, users[sr.author].ID, note.ID, notes.CreateInput{
				ActionText: sr.action,
				TldrText:   sr.tldr,
				AudioURL:   sr.audio,
				Duration:   sr.duration,
			}); err != nil {
				return fmt.Errorf("seed reply %q: %w", sr.action, err)
			}
		}
	}

	// Reactions go through the engine so the denormalized counters stay honest.
	votes := []struct {
		voter int
		note  int
		kind  reactions.ReactionKind
	}{
		{1, 0, reactions.KindGameChanger},
		{2, 0, reactions.KindUseful},
		{3, 0, reactions.KindThoughtProvoking},
		{0, 1, reactions.KindDebatable},
		{3, 1, reactions.KindInformative},
		{0, 2, reactions.KindUseful},
		{1, 2, reactions.KindHumourous},
	}
	for _, v := range votes {
		if _, err := s.engine.Toggle(ctx, users[v.voter].ID, created[v.note], v.kind); err != nil {
			return fmt.Errorf("seed vote: %w", err)
		}
	}

	tags := []struct {
		voter int
		note  int
		name  string
	}{
		{1, 0, "startups"},
		{2, 0, "startups"},
		{3, 0, "craft"},
		{0, 1, "remote-work"},
		{1, 2, "writing"},
	}
	for _, t := range tags {
		if _, err := s.engine.ToggleTag(ctx, users[t.voter].ID, created[t.note], t.name); err != nil {
			return fmt.Errorf("seed tag vote: %w", err)
		}
	}

	generated, err := s.generateUsers(ctx, s.ExtraUsers)
	if err != nil {
		return err
	}
	allUsers := append(users, generated...)
	if err := s.generateNotes(ctx, allUsers, s.ExtraNotes); err != nil {
		return err
	}

	logger.Log.Info("database seeded",
		zap.Int("users", len(allUsers)),
		zap.Int("curated_notes", len(created)),
		zap.Int("generated_notes", s.ExtraNotes),
	)
	return nil
}

// generateUsers fills the community out past the curated fixtures.
func (s *Seeder) generateUsers(ctx context.Context, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		// Ensure unique username/email
		var existing models.User
		for {
			err := s.db.WithContext(ctx).
				Where("username = ? OR email = ?", username, email).
				First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			if err != nil {
				return nil, err
			}
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		user := models.User{
			Email:       email,
			Username:    username,
			DisplayName: gofakeit.Name(),
			Company:     gofakeit.Company(),
			Role:        gofakeit.JobTitle(),
			Verified:    rand.Float32() < 0.3,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("generate user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

// generateNotes creates filler notes with a random spread of reactions.
func (s *Seeder) generateNotes(ctx context.Context, users []models.User, count int) error {
	if len(users) == 0 {
		return nil
	}
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		note, err := s.notes.Create(ctx, author.ID, notes.CreateInput{
			ActionText: gofakeit.HipsterSentence(),
			TldrText:   gofakeit.HipsterSentence(),
			AudioURL:   fmt.Sprintf("https://cdn.thirtyvoice.dev/seed/%s.webm", gofakeit.UUID()),
			Duration:   5 + rand.Float64()*25,
		})
		if err != nil {
			return fmt.Errorf("generate note: %w", err)
		}

		for _, voter := range users {
			if voter.ID == author.ID || rand.Float32() >= 0.3 {
				continue
			}
			kind := reactions.Kinds[rand.Intn(len(reactions.Kinds))]
			if _, err := s.engine.Toggle(ctx, voter.ID, note.ID, kind); err != nil {
				return fmt.Errorf("generate vote: %w", err)
			}
		}
	}
	return nil
}
