package refreshtoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
	ErrRefreshTokenExpired   = errors.New("refresh token expired")
	ErrTokenGenerationFailed = errors.New("failed to generate secure token")
)

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

// Create mints a refresh token for the user, replacing any existing one.
// Delete and insert share a transaction so there is no window with zero
// or two live tokens for the same user.
func (s *Service) Create(userID uint, sessionInfo SessionInfo) (*TokenData, error) {
	value, err := s.generateSecureToken()
	if err != nil {
		s.logger.Error("failed to generate refresh token", zap.Error(err))
		return nil, ErrTokenGenerationFailed
	}

	deviceInfoJSON := ""
	if info := sessionInfo.DeviceInfo(); info != nil {
		if jsonBytes, err := json.Marshal(info); err == nil {
			deviceInfoJSON = string(jsonBytes)
		}
	}

	record := RefreshToken{
		UserID:     userID,
		TokenHash:  s.hashToken(value),
		ExpiresAt:  time.Now().Add(s.config.RefreshToken.Expiry),
		DeviceInfo: deviceInfoJSON,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		s.logger.Error("failed to store refresh token", zap.Error(err), zap.Uint("user_id", userID))
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.Info("refresh token created",
		zap.Uint("user_id", userID),
		zap.Time("expires_at", record.ExpiresAt))

	return &TokenData{
		Token:     value,
		TokenID:   record.ID,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

func (s *Service) FindByToken(value string) (*RefreshToken, error) {
	var record RefreshToken
	err := s.db.Where("token_hash = ?", s.hashToken(value)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("refresh token not found")
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &record, nil
}

// VerifyNotExpired returns the token unchanged if it is still live. An
// expired record is deleted as a side effect so dead rows never pile up
// waiting for the cleanup sweep.
func (s *Service) VerifyNotExpired(record *RefreshToken) (*RefreshToken, error) {
	if record.Expired() {
		s.logger.Warn("expired refresh token presented",
			zap.Uint("user_id", record.UserID),
			zap.Time("expired_at", record.ExpiresAt))
		if err := s.db.Delete(record).Error; err != nil {
			s.logger.Error("failed to delete expired refresh token", zap.Error(err))
		}
		return nil, ErrRefreshTokenExpired
	}
	return record, nil
}

// Revoke deletes the record for a presented token value, if any.
func (s *Service) Revoke(value string) error {
	result := s.db.Where("token_hash = ?", s.hashToken(value)).Delete(&RefreshToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}

	s.logger.Info("refresh token revoked", zap.Int64("affected_rows", result.RowsAffected))
	return nil
}

func (s *Service) RevokeAllForUser(userID uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&RefreshToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", result.Error)
	}

	s.logger.Info("user refresh tokens revoked",
		zap.Uint("user_id", userID),
		zap.Int64("count", result.RowsAffected))
	return nil
}

func (s *Service) CleanupExpired() (int64, error) {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&RefreshToken{})
	if result.Error != nil {
		s.logger.Error("refresh token cleanup failed", zap.Error(result.Error))
		return 0, fmt.Errorf("failed to cleanup expired refresh tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("expired refresh tokens cleaned up", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *Service) generateSecureToken() (string, error) {
	tokenBytes := make([]byte, s.config.RefreshToken.TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

func (s *Service) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
