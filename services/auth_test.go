package services

import (
	"itr_flow_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.AutoMigrate(&models.User{}, &models.Session{})
	return db
}

func seedAuthUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := &models.User{
		Name:     "Test Agent",
		Email:    email,
		Password: hash,
		Role:     models.RoleAgent,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestAuthenticate(t *testing.T) {
	db := setupAuthTestDB()
	seedAuthUser(t, db, "agent@example.com", "secret123")

	t.Run("Valid credentials", func(t *testing.T) {
		user, err := Authenticate(db, "agent@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "agent@example.com", user.Email)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, err := Authenticate(db, "agent@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, err := Authenticate(db, "nobody@example.com", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Deactivated user", func(t *testing.T) {
		user := seedAuthUser(t, db, "gone@example.com", "secret123")
		require.NoError(t, db.Model(user).Update("is_active", false).Error)

		_, err := Authenticate(db, "gone@example.com", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestSessions(t *testing.T) {
	db := setupAuthTestDB()
	user := seedAuthUser(t, db, "agent@example.com", "secret123")

	t.Run("Create and validate", func(t *testing.T) {
		session, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		assert.Len(t, session.Token, SessionTokenLength*2)

		validated, err := ValidateSession(db, session.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, validated.UserID)
		assert.Equal(t, user.Email, validated.User.Email)
	})

	t.Run("Unknown token", func(t *testing.T) {
		_, err := ValidateSession(db, "not-a-token")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Expired session is rejected and removed", func(t *testing.T) {
		session, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.Session{}).
			Where("id = ?", session.ID).
			Update("expires_at", time.Now().Add(-time.Hour)).Error)

		_, err = ValidateSession(db, session.Token)
		assert.ErrorIs(t, err, ErrSessionExpired)

		_, err = ValidateSession(db, session.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Logout deletes the session", func(t *testing.T) {
		session, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)

		require.NoError(t, DeleteSession(db, session.Token))
		_, err = ValidateSession(db, session.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Cleanup removes only expired sessions", func(t *testing.T) {
		stale, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.Session{}).
			Where("id = ?", stale.ID).
			Update("expires_at", time.Now().Add(-time.Hour)).Error)
		fresh, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)

		require.NoError(t, CleanupExpiredSessions(db))

		_, err = ValidateSession(db, stale.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = ValidateSession(db, fresh.Token)
		assert.NoError(t, err)
	})
}
