package testutils

import (
	"time"

	"github.com/campuslink/identity/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "identity-test",
			URL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireNumber:  true,
			RequireSpecial: false,
			BcryptCost:     bcrypt.MinCost,
		},
		JWT: config.JWTConfig{
			SecretKey:    "test-secret-key-32-chars-long!!!",
			Issuer:       "identity-test",
			AccessExpiry: 15 * time.Minute,
		},
		Token: config.TokenConfig{
			Length:              32,
			VerificationExpiry:  24 * time.Hour,
			PasswordResetExpiry: time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			Cooldown:      time.Minute,
			AttemptWindow: time.Hour,
			MaxAttempts:   5,
			HTTPRate:      30,
			HTTPPeriod:    time.Minute,
		},
		RefreshToken: config.RefreshTokenConfig{
			Expiry:      7 * 24 * time.Hour,
			TokenLength: 32,
		},
		Cleanup: config.CleanupConfig{
			Interval:    24 * time.Hour,
			GracePeriod: 24 * time.Hour,
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Mail: config.MailConfig{
			Host:       "localhost",
			Port:       587,
			Encryption: "starttls",
		},
	}
}

var TestPasswords = struct {
	Valid    string
	TooShort string
	NoUpper  string
	NoLower  string
	NoNumber string
	Mismatch string
}{
	Valid:    "Password123",
	TooShort: "Pass1",
	NoUpper:  "password123",
	NoLower:  "PASSWORD123",
	NoNumber: "PasswordAbc",
	Mismatch: "Different456",
}
