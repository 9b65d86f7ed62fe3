package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirtyvoice/backend/internal/database"
	"github.com/thirtyvoice/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupAuthDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	// ValidateToken resolves the user through the package-level handle.
	database.DB = db
	return db
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	db := setupAuthDB(t)

	user := models.User{Email: "maya@test.com", Username: "maya", DisplayName: "Maya"}
	require.NoError(t, db.Create(&user).Error)

	svc := NewService([]byte("test-secret"))
	token, expiresAt, err := svc.IssueToken(&user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	db := setupAuthDB(t)

	user := models.User{Email: "maya@test.com", Username: "maya", DisplayName: "Maya"}
	require.NoError(t, db.Create(&user).Error)

	token, _, err := NewService([]byte("secret-a")).IssueToken(&user)
	require.NoError(t, err)

	_, err = NewService([]byte("secret-b")).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	setupAuthDB(t)

	_, err := NewService([]byte("test-secret")).ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateRejectsUnknownUser(t *testing.T) {
	setupAuthDB(t)

	// Token is well-formed but its subject was never persisted.
	ghost := models.User{ID: "11111111-1111-1111-1111-111111111111", Email: "ghost@test.com", Username: "ghost"}
	svc := NewService([]byte("test-secret"))
	token, _, err := svc.IssueToken(&ghost)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
