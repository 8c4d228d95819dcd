package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/campuslink/identity/authz"
	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/jwt"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/ratelimit"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken            = errors.New("email is already in use")
	ErrPhoneTaken            = errors.New("phone number is already in use")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUserNotFound          = errors.New("user not found")
	ErrAlreadyVerified       = errors.New("account is already verified")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrPasswordHashingFailed = errors.New("failed to hash password")
)

// Mailer is the external notification collaborator. It receives the raw
// token value; its internals are not this package's concern.
type Mailer interface {
	SendVerificationEmail(to, tokenValue string, expiry time.Duration) error
	SendPasswordResetEmail(to, tokenValue string, expiry time.Duration) error
}

// Service orchestrates the register / login / verify / reset / refresh
// flows. It is the only caller of the token issuer, validator and rate
// limiter, and of session and refresh token issuance.
type Service struct {
	config   *config.Config
	db       *gorm.DB
	tokens   *token.Service
	limiter  *ratelimit.Service
	sessions *jwt.Service
	refresh  *refreshtoken.Service
	mailer   Mailer
	logger   *logging.Service
}

func NewService(
	cfg *config.Config,
	db *gorm.DB,
	tokens *token.Service,
	limiter *ratelimit.Service,
	sessions *jwt.Service,
	refresh *refreshtoken.Service,
	logger *logging.Service,
) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config:   cfg,
		db:       db,
		tokens:   tokens,
		limiter:  limiter,
		sessions: sessions,
		refresh:  refresh,
		logger:   logger,
	}
}

// SetMailer wires the notification collaborator; flows degrade to
// log-only delivery when none is configured.
func (s *Service) SetMailer(mailer Mailer) {
	s.mailer = mailer
}

type RegisterRequest struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	PhoneNumber string
}

type RegisterResult struct {
	User *User

	// VerificationToken is the raw issued token value. Handlers must only
	// surface it when config.App.ExposeTokens is set.
	VerificationToken string
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	UserID       uint
	Username     string
	Roles        []string
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.config.Auth.MinLength {
		return fmt.Errorf("password must be at least %d characters", s.config.Auth.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	var missing []string

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if s.config.Auth.RequireUpper && !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.Auth.RequireLower && !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.Auth.RequireNumber && !hasNumber {
		missing = append(missing, "one number")
	}
	if s.config.Auth.RequireSpecial && !hasSpecial {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least %s", strings.Join(missing, ", "))
	}

	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	if err := s.ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register persists a new disabled user and issues their verification
// token. Mail delivery failure does not undo the registration; the token
// can be resent.
func (s *Service) Register(req RegisterRequest) (*RegisterResult, error) {
	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		s.logger.Warn("registration with taken email", zap.String("email", req.Email))
		return nil, ErrEmailTaken
	}

	if err := s.db.Model(&User{}).Where("phone_number = ?", req.PhoneNumber).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check phone number: %w", err)
	}
	if count > 0 {
		s.logger.Warn("registration with taken phone number", zap.String("email", req.Email))
		return nil, ErrPhoneTaken
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    hash,
		Role:        authz.RoleUser,
		Enabled:     false,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	tok, err := s.tokens.Issue(user.ID, token.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}

	s.notifyVerification(user, tok.Token)

	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return &RegisterResult{User: user, VerificationToken: tok.Token}, nil
}

// Login verifies credentials and mints the session bundle. The enabled
// flag is intentionally not consulted: unverified accounts can
// authenticate.
func (s *Service) Login(email, password string, sessionInfo refreshtoken.SessionInfo) (*LoginResult, error) {
	user, err := s.findUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.VerifyPassword(user.Password, password); err != nil {
		s.logger.Warn("login failed", zap.String("email", email))
		return nil, err
	}

	accessToken, err := s.sessions.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshData, err := s.refresh.Create(user.ID, sessionInfo)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshData.Token,
		UserID:       user.ID,
		Username:     user.Email,
		Roles:        []string{string(user.Role)},
	}, nil
}

// Refresh exchanges a live refresh token for a fresh access token. The
// refresh token value itself is returned unchanged.
func (s *Service) Refresh(refreshValue string) (*LoginResult, error) {
	record, err := s.refresh.FindByToken(refreshValue)
	if err != nil {
		return nil, err
	}

	if _, err := s.refresh.VerifyNotExpired(record); err != nil {
		return nil, err
	}

	user, err := s.findUserByID(record.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.sessions.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		UserID:       user.ID,
		Username:     user.Email,
		Roles:        []string{string(user.Role)},
	}, nil
}

// Logout revokes the presented refresh token. The access token remains
// valid until its embedded expiry.
func (s *Service) Logout(refreshValue string) error {
	return s.refresh.Revoke(refreshValue)
}

func (s *Service) findUserByEmail(email string) (*User, error) {
	var user User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

func (s *Service) findUserByID(id uint) (*User, error) {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

func (s *Service) notifyVerification(user *User, tokenValue string) {
	if s.mailer == nil {
		s.logger.Warn("no mailer configured, skipping verification email",
			zap.String("email", user.Email))
		return
	}
	if err := s.mailer.SendVerificationEmail(user.Email, tokenValue, s.config.Token.VerificationExpiry); err != nil {
		s.logger.Error("failed to send verification email",
			zap.Error(err),
			zap.String("email", user.Email))
	}
}

func (s *Service) notifyPasswordReset(user *User, tokenValue string) {
	if s.mailer == nil {
		s.logger.Warn("no mailer configured, skipping password reset email",
			zap.String("email", user.Email))
		return
	}
	if err := s.mailer.SendPasswordResetEmail(user.Email, tokenValue, s.config.Token.PasswordResetExpiry); err != nil {
		s.logger.Error("failed to send password reset email",
			zap.Error(err),
			zap.String("email", user.Email))
	}
}
