package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/thirtyvoice/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "thirtyvoice")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.VoiceNote{},
		&models.VoiceVote{},
		&models.VoiceTag{},
		&models.TagVote{},
		&models.ListenRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// User indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// VoiceNote indexes for feed and thread queries; every read path filters
	// on is_deleted so the partial indexes carry that predicate
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_voice_notes_user_created ON voice_notes (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_voice_notes_feed ON voice_notes (created_at DESC) WHERE is_deleted = false AND parent_id IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_voice_notes_parent ON voice_notes (parent_id) WHERE parent_id IS NOT NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_voice_notes_parent_not_deleted ON voice_notes (parent_id, created_at ASC) WHERE is_deleted = false AND parent_id IS NOT NULL")

	// Vote ledger: the composite unique index comes from the model tags;
	// these cover count recomputation and per-note listings
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_voice_votes_note_type ON voice_votes (voice_note_id, vote_type)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_tag_votes_tag ON tag_votes (tag_id)")

	// Listen telemetry
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_listen_records_note_created ON listen_records (voice_note_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_listen_records_session ON listen_records (voice_note_id, session_id)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
