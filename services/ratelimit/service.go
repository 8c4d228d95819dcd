package ratelimit

import (
	"errors"
	"time"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/token"
	"go.uber.org/zap"
)

var (
	ErrCooldownActive  = errors.New("please wait before requesting another token")
	ErrTooManyAttempts = errors.New("maximum token requests exceeded, try again later")
)

// Service gates token issuance per (user, purpose). Both checks derive
// from the token store's creation timestamps, so the window slides and
// the cap resets by itself as old attempts age out.
type Service struct {
	tokens *token.Service
	config *config.Config
	logger *logging.Service
}

func NewService(tokens *token.Service, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		tokens: tokens,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) Check(userID uint, purpose token.Purpose) error {
	if err := s.checkCooldown(userID, purpose); err != nil {
		return err
	}
	return s.checkAttemptCap(userID, purpose)
}

func (s *Service) checkCooldown(userID uint, purpose token.Purpose) error {
	since := time.Now().Add(-s.config.RateLimit.Cooldown)

	count, err := s.tokens.CountIssuedSince(userID, purpose, since)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Warn("token request within cooldown",
			zap.Uint("user_id", userID),
			zap.String("purpose", string(purpose)))
		return ErrCooldownActive
	}
	return nil
}

func (s *Service) checkAttemptCap(userID uint, purpose token.Purpose) error {
	since := time.Now().Add(-s.config.RateLimit.AttemptWindow)

	count, err := s.tokens.CountIssuedSince(userID, purpose, since)
	if err != nil {
		return err
	}
	if count >= int64(s.config.RateLimit.MaxAttempts) {
		s.logger.Warn("token request over attempt cap",
			zap.Uint("user_id", userID),
			zap.String("purpose", string(purpose)),
			zap.Int64("attempts", count))
		return ErrTooManyAttempts
	}
	return nil
}
