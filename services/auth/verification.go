package auth

import (
	"fmt"

	"github.com/campuslink/identity/services/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerifyEmail redeems an email verification token. An already-enabled
// account is an informative no-op: the token is left untouched.
// Otherwise the enabled flip and the token transition commit together,
// so a racing second presentation cannot also succeed.
func (s *Service) VerifyEmail(tokenValue string) (alreadyVerified bool, err error) {
	tok, err := s.tokens.Validate(tokenValue, token.PurposeEmailVerification)
	if err != nil {
		return false, err
	}

	user, err := s.findUserByID(tok.UserID)
	if err != nil {
		return false, err
	}

	if user.Enabled {
		s.logger.Info("verification for already enabled account",
			zap.Uint("user_id", user.ID))
		return true, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&User{}).Where("id = ?", user.ID).Update("enabled", true).Error; err != nil {
			return fmt.Errorf("failed to enable user: %w", err)
		}
		return s.tokens.MarkUsed(tx, tok)
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("account verified", zap.Uint("user_id", user.ID))
	return false, nil
}

// ResendVerification reissues the verification token after the rate
// limiter clears the request. Already-verified accounts are rejected
// before any token work happens.
func (s *Service) ResendVerification(email string) (*RegisterResult, error) {
	user, err := s.findUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if user.Enabled {
		return nil, ErrAlreadyVerified
	}

	if err := s.limiter.Check(user.ID, token.PurposeEmailVerification); err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(user.ID, token.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}

	s.notifyVerification(user, tok.Token)

	s.logger.Info("verification token resent", zap.Uint("user_id", user.ID))
	return &RegisterResult{User: user, VerificationToken: tok.Token}, nil
}
