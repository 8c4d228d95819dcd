package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	err := LoadConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Token.VerificationExpiry)
	assert.Equal(t, time.Hour, cfg.Token.PasswordResetExpiry)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Cooldown)
	assert.Equal(t, time.Hour, cfg.RateLimit.AttemptWindow)
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 168*time.Hour, cfg.RefreshToken.Expiry)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.GracePeriod)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.False(t, cfg.App.ExposeTokens)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("IDENTITY_SERVER_PORT", "9090")
	t.Setenv("IDENTITY_RATELIMIT_MAX_ATTEMPTS", "3")
	t.Setenv("IDENTITY_TOKEN_VERIFICATION_EXPIRY", "48h")

	cfg := &Config{}
	err := LoadConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 48*time.Hour, cfg.Token.VerificationExpiry)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "short JWT secret",
			mutate:  func(cfg *Config) { cfg.JWT.SecretKey = "too-short" },
			wantErr: "JWT secret key",
		},
		{
			name:    "token length too small",
			mutate:  func(cfg *Config) { cfg.Token.Length = 8 },
			wantErr: "token length",
		},
		{
			name:    "zero max attempts",
			mutate:  func(cfg *Config) { cfg.RateLimit.MaxAttempts = 0 },
			wantErr: "max attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				JWT:       JWTConfig{SecretKey: "test-secret-key-32-chars-long!!!"},
				Token:     TokenConfig{Length: 32},
				RateLimit: RateLimitConfig{MaxAttempts: 5},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
