package auth

import (
	"testing"
	"time"

	"github.com/campuslink/identity/services/ratelimit"
	"github.com/campuslink/identity/services/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func backdateTokens(t *testing.T, db *gorm.DB, userID uint, age time.Duration) {
	t.Helper()
	err := db.Model(&token.VerificationToken{}).Where("user_id = ?", userID).
		Update("created_at", time.Now().Add(-age)).Error
	require.NoError(t, err)
}

func TestService_VerifyEmail(t *testing.T) {
	svc, db, _ := newTestService(t)

	reg, err := svc.Register(validRegistration())
	require.NoError(t, err)

	alreadyVerified, err := svc.VerifyEmail(reg.VerificationToken)
	require.NoError(t, err)
	assert.False(t, alreadyVerified)

	var user User
	require.NoError(t, db.First(&user, reg.User.ID).Error)
	assert.True(t, user.Enabled)

	var tok token.VerificationToken
	require.NoError(t, db.Where("token = ?", reg.VerificationToken).First(&tok).Error)
	assert.Equal(t, token.StateUsed, tok.State)
	require.NotNil(t, tok.UsedAt)
}

func TestService_VerifyEmail_DoubleRedemption(t *testing.T) {
	svc, _, _ := newTestService(t)

	reg, err := svc.Register(validRegistration())
	require.NoError(t, err)

	_, err = svc.VerifyEmail(reg.VerificationToken)
	require.NoError(t, err)

	_, err = svc.VerifyEmail(reg.VerificationToken)
	assert.ErrorIs(t, err, token.ErrTokenUsed)
}

func TestService_VerifyEmail_AlreadyEnabled(t *testing.T) {
	svc, db, _ := newTestService(t)

	reg, err := svc.Register(validRegistration())
	require.NoError(t, err)

	// account got enabled out of band, then the old token arrives
	require.NoError(t, db.Model(&User{}).Where("id = ?", reg.User.ID).Update("enabled", true).Error)

	alreadyVerified, err := svc.VerifyEmail(reg.VerificationToken)
	require.NoError(t, err)
	assert.True(t, alreadyVerified)

	// the no-op does not consume the token
	var tok token.VerificationToken
	require.NoError(t, db.Where("token = ?", reg.VerificationToken).First(&tok).Error)
	assert.Equal(t, token.StateUnused, tok.State)
}

func TestService_VerifyEmail_BadTokens(t *testing.T) {
	svc, db, _ := newTestService(t)

	reg, err := svc.Register(validRegistration())
	require.NoError(t, err)

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.VerifyEmail("no-such-token")
		assert.ErrorIs(t, err, token.ErrTokenNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		err := db.Model(&token.VerificationToken{}).Where("token = ?", reg.VerificationToken).
			Update("expires_at", time.Now().Add(-time.Minute)).Error
		require.NoError(t, err)

		_, err = svc.VerifyEmail(reg.VerificationToken)
		assert.ErrorIs(t, err, token.ErrTokenExpired)
	})
}

func TestService_ResendVerification(t *testing.T) {
	svc, db, _ := newTestService(t)
	mailer := &recordingMailer{}
	svc.SetMailer(mailer)

	reg, err := svc.Register(validRegistration())
	require.NoError(t, err)

	// step past the cooldown left by registration
	backdateTokens(t, db, reg.User.ID, 2*time.Minute)

	result, err := svc.ResendVerification("ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, result.VerificationToken)
	assert.NotEqual(t, reg.VerificationToken, result.VerificationToken)
	assert.Equal(t, result.VerificationToken, mailer.verificationToken)

	// the superseded token is gone
	var count int64
	require.NoError(t, db.Model(&token.VerificationToken{}).
		Where("token = ?", reg.VerificationToken).Count(&count).Error)
	assert.Zero(t, count)
}

func TestService_ResendVerification_Cooldown(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(validRegistration())
	require.NoError(t, err)

	// registration just issued a token, so the resend is inside the cooldown
	_, err = svc.ResendVerification("ada@example.com")
	assert.ErrorIs(t, err, ratelimit.ErrCooldownActive)
}

func TestService_ResendVerification_AlreadyVerified(t *testing.T) {
	svc, _, _ := newTestService(t)

	reg, err := svc.Register(validRegistration())
	require.NoError(t, err)
	_, err = svc.VerifyEmail(reg.VerificationToken)
	require.NoError(t, err)

	_, err = svc.ResendVerification("ada@example.com")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestService_ResendVerification_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ResendVerification("ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
