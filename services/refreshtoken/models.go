package refreshtoken

import (
	"time"

	"github.com/mileusna/useragent"
)

// RefreshToken is the single live refresh credential for a user. Creating
// a new one replaces any existing row for the same user.
type RefreshToken struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex"`
	TokenHash  string    `json:"-" gorm:"uniqueIndex;size:255;not null"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	DeviceInfo string    `json:"device_info" gorm:"size:500"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// SessionInfo carries request metadata captured at login.
type SessionInfo struct {
	IPAddress string
	UserAgent string
}

// DeviceInfo parses the raw User-Agent into a compact description.
func (si SessionInfo) DeviceInfo() map[string]any {
	if si.UserAgent == "" {
		return nil
	}

	ua := useragent.Parse(si.UserAgent)
	return map[string]any{
		"browser": ua.Name,
		"version": ua.Version,
		"os":      ua.OS,
		"mobile":  ua.Mobile,
		"ip":      si.IPAddress,
	}
}

// TokenData pairs the raw opaque value handed to the client with the
// persisted record; only the hash is stored.
type TokenData struct {
	Token     string
	TokenID   uint
	ExpiresAt time.Time
}
