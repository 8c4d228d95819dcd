package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig          `envPrefix:"IDENTITY_APP_"`
	Server       ServerConfig       `envPrefix:"IDENTITY_SERVER_"`
	Log          LogConfig          `envPrefix:"IDENTITY_LOG_"`
	Database     DatabaseConfig     `envPrefix:"IDENTITY_DATABASE_"`
	Auth         AuthConfig         `envPrefix:"IDENTITY_AUTH_"`
	JWT          JWTConfig          `envPrefix:"IDENTITY_JWT_"`
	Token        TokenConfig        `envPrefix:"IDENTITY_TOKEN_"`
	RateLimit    RateLimitConfig    `envPrefix:"IDENTITY_RATELIMIT_"`
	RefreshToken RefreshTokenConfig `envPrefix:"IDENTITY_REFRESH_"`
	Cleanup      CleanupConfig      `envPrefix:"IDENTITY_CLEANUP_"`
	Mail         MailConfig         `envPrefix:"IDENTITY_MAIL_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"identity"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`

	// ExposeTokens echoes raw verification tokens in API responses.
	// Development convenience only; must stay off in production.
	ExposeTokens bool `env:"EXPOSE_TOKENS" envDefault:"false"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"identity.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	MinLength      int  `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	RequireUpper   bool `env:"PASSWORD_REQUIRE_UPPER" envDefault:"true"`
	RequireLower   bool `env:"PASSWORD_REQUIRE_LOWER" envDefault:"true"`
	RequireNumber  bool `env:"PASSWORD_REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial bool `env:"PASSWORD_REQUIRE_SPECIAL" envDefault:"false"`
	BcryptCost     int  `env:"BCRYPT_COST" envDefault:"10"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET_KEY"`
	Issuer       string        `env:"ISSUER" envDefault:"identity"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
}

type TokenConfig struct {
	// Byte length of the random token value before hex encoding.
	Length              int           `env:"LENGTH" envDefault:"32"`
	VerificationExpiry  time.Duration `env:"VERIFICATION_EXPIRY" envDefault:"24h"`
	PasswordResetExpiry time.Duration `env:"PASSWORD_RESET_EXPIRY" envDefault:"1h"`
}

type RateLimitConfig struct {
	Cooldown      time.Duration `env:"COOLDOWN" envDefault:"60s"`
	AttemptWindow time.Duration `env:"ATTEMPT_WINDOW" envDefault:"1h"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS" envDefault:"5"`

	// HTTP-level limits applied to the public auth endpoints.
	HTTPRate   int           `env:"HTTP_RATE" envDefault:"30"`
	HTTPPeriod time.Duration `env:"HTTP_PERIOD" envDefault:"1m"`
}

type RefreshTokenConfig struct {
	Expiry      time.Duration `env:"EXPIRY" envDefault:"168h"`
	TokenLength int           `env:"TOKEN_LENGTH" envDefault:"32"`
}

type CleanupConfig struct {
	Interval    time.Duration `env:"INTERVAL" envDefault:"24h"`
	GracePeriod time.Duration `env:"GRACE_PERIOD" envDefault:"24h"`
}

type MailConfig struct {
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME"`
	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"templates/mail"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}

func (c *Config) Validate() error {
	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT secret key must be at least 32 characters, got %d", len(c.JWT.SecretKey))
	}

	if c.Token.Length < 16 {
		return fmt.Errorf("token length must be at least 16 bytes, got %d", c.Token.Length)
	}

	if c.RateLimit.MaxAttempts < 1 {
		return fmt.Errorf("rate limit max attempts must be positive, got %d", c.RateLimit.MaxAttempts)
	}

	return nil
}
