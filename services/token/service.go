package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTokenNotFound         = errors.New("token not found")
	ErrTokenWrongPurpose     = errors.New("token is not valid for this operation")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenUsed             = errors.New("token has already been used")
	ErrUnknownPurpose        = errors.New("unknown token purpose")
	ErrTokenGenerationFailed = errors.New("failed to generate secure token")
)

// Service owns the verification_tokens table: issuance, validation and
// the used-state transition all go through it.
type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) expiry(purpose Purpose) (time.Duration, error) {
	switch purpose {
	case PurposeEmailVerification:
		return s.config.Token.VerificationExpiry, nil
	case PurposePasswordReset:
		return s.config.Token.PasswordResetExpiry, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownPurpose, purpose)
	}
}

func (s *Service) generateTokenValue() (string, error) {
	bytes := make([]byte, s.config.Token.Length)
	if _, err := rand.Read(bytes); err != nil {
		return "", ErrTokenGenerationFailed
	}
	return hex.EncodeToString(bytes), nil
}

// Issue replaces any unused token of the same (user, purpose) pair with a
// freshly generated one. The delete and insert run in a single transaction
// so concurrent issues cannot leave more than one active token behind.
func (s *Service) Issue(userID uint, purpose Purpose) (*VerificationToken, error) {
	ttl, err := s.expiry(purpose)
	if err != nil {
		return nil, err
	}

	value, err := s.generateTokenValue()
	if err != nil {
		s.logger.Error("token value generation failed", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	tok := &VerificationToken{
		UserID:    userID,
		Token:     value,
		Purpose:   purpose,
		State:     StateUnused,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND purpose = ? AND state = ?", userID, purpose, StateUnused).
			Delete(&VerificationToken{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			s.logger.Debug("superseded unused tokens",
				zap.Uint("user_id", userID),
				zap.String("purpose", string(purpose)),
				zap.Int64("count", result.RowsAffected))
		}

		return tx.Create(tok).Error
	})
	if err != nil {
		s.logger.Error("failed to issue token",
			zap.Error(err),
			zap.Uint("user_id", userID),
			zap.String("purpose", string(purpose)))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("token issued",
		zap.Uint("user_id", userID),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", tok.ExpiresAt))
	return tok, nil
}

// Validate is a pure read. Checks run in a fixed order and short-circuit:
// existence, purpose, expiry, used state.
func (s *Service) Validate(value string, expected Purpose) (*VerificationToken, error) {
	var tok VerificationToken
	if err := s.db.Where("token = ?", value).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("unknown token presented", zap.String("purpose", string(expected)))
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if tok.Purpose != expected {
		s.logger.Warn("token presented against wrong purpose",
			zap.String("expected", string(expected)),
			zap.String("actual", string(tok.Purpose)))
		return nil, ErrTokenWrongPurpose
	}

	if tok.Expired() {
		s.logger.Warn("expired token presented",
			zap.Uint("user_id", tok.UserID),
			zap.Time("expired_at", tok.ExpiresAt))
		return nil, ErrTokenExpired
	}

	if tok.Used() {
		s.logger.Warn("used token presented", zap.Uint("user_id", tok.UserID))
		return nil, ErrTokenUsed
	}

	return &tok, nil
}

// MarkUsed transitions a token from unused to used. The update is guarded
// by the current state so two racing redemptions cannot both succeed; the
// loser sees ErrTokenUsed. Pass the transaction the authorized action runs
// in, or nil to use the service's own connection.
func (s *Service) MarkUsed(tx *gorm.DB, tok *VerificationToken) error {
	if tx == nil {
		tx = s.db
	}

	now := time.Now()
	result := tx.Model(&VerificationToken{}).
		Where("id = ? AND state = ?", tok.ID, StateUnused).
		Updates(map[string]any{"state": StateUsed, "used_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark token used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		s.logger.Warn("lost race to redeem token", zap.Uint("token_id", tok.ID))
		return ErrTokenUsed
	}

	tok.State = StateUsed
	tok.UsedAt = &now
	return nil
}

// CountIssuedSince reports how many tokens of a purpose were created for
// the user after the given instant. The rate limiter derives both of its
// checks from this history; no separate counter state exists.
func (s *Service) CountIssuedSince(userID uint, purpose Purpose, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&VerificationToken{}).
		Where("user_id = ? AND purpose = ? AND created_at > ?", userID, purpose, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recent tokens: %w", err)
	}
	return count, nil
}

// CleanupExpired removes tokens that expired before the cutoff, plus used
// tokens created before it. cutoff = now - grace, so freshly used tokens
// survive one grace period for audit.
func (s *Service) CleanupExpired(grace time.Duration) (int64, error) {
	cutoff := time.Now().Add(-grace)

	result := s.db.Where("expires_at < ? OR (state = ? AND created_at < ?)", cutoff, StateUsed, cutoff).
		Delete(&VerificationToken{})
	if result.Error != nil {
		s.logger.Error("token cleanup failed", zap.Error(result.Error))
		return 0, fmt.Errorf("failed to cleanup tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("token cleanup completed", zap.Int64("removed", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
