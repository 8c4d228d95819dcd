package auth

import (
	"fmt"

	"github.com/campuslink/identity/services/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestPasswordReset issues a reset token for the account behind the
// email. The same rate limiter that governs verification resends applies
// here.
func (s *Service) RequestPasswordReset(email string) (*RegisterResult, error) {
	user, err := s.findUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Check(user.ID, token.PurposePasswordReset); err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(user.ID, token.PurposePasswordReset)
	if err != nil {
		return nil, err
	}

	s.notifyPasswordReset(user, tok.Token)

	s.logger.Info("password reset requested", zap.Uint("user_id", user.ID))
	return &RegisterResult{User: user, VerificationToken: tok.Token}, nil
}

// ResetPassword redeems a reset token and sets the new password. The
// confirmation check runs before the token is even looked up, so a
// mismatch leaves the token redeemable. Password update and token
// transition commit together.
func (s *Service) ResetPassword(tokenValue, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	tok, err := s.tokens.Validate(tokenValue, token.PurposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&User{}).Where("id = ?", tok.UserID).Update("password", hash).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return s.tokens.MarkUsed(tx, tok)
	})
	if err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.Uint("user_id", tok.UserID))
	return nil
}
