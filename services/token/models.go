package token

import (
	"time"
)

// Purpose narrows what a verification token may be redeemed for. A token
// presented against a different purpose is rejected.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	return p == PurposeEmailVerification || p == PurposePasswordReset
}

// State is a one-way flag: tokens move from unused to used exactly once
// and never back.
type State string

const (
	StateUnused State = "unused"
	StateUsed   State = "used"
)

type VerificationToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	Token     string     `json:"-" gorm:"uniqueIndex;not null"`
	Purpose   Purpose    `json:"purpose" gorm:"not null;index;size:32"`
	State     State      `json:"state" gorm:"not null;default:unused;size:16"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
}

func (VerificationToken) TableName() string {
	return "verification_tokens"
}

func (t *VerificationToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *VerificationToken) Used() bool {
	return t.State == StateUsed
}
