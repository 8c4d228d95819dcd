package cleanup

import (
	"testing"
	"time"

	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"github.com/campuslink/identity/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestWorker(t *testing.T) (*Worker, *gorm.DB) {
	db := testutils.SetupTestDB(t, &token.VerificationToken{}, &refreshtoken.RefreshToken{})
	cfg := testutils.GetTestConfig()

	tokens := token.NewService(db, cfg, nil)
	refresh := refreshtoken.NewService(db, cfg, nil)

	return NewWorker(cfg, tokens, refresh, nil), db
}

func TestWorker_Sweep(t *testing.T) {
	worker, db := newTestWorker(t)

	now := time.Now()
	stale := now.Add(-48 * time.Hour)

	seed := []any{
		// past grace, removed
		&token.VerificationToken{UserID: 1, Token: "expired", Purpose: token.PurposeEmailVerification,
			State: token.StateUnused, ExpiresAt: stale, CreatedAt: stale},
		&token.VerificationToken{UserID: 1, Token: "used-old", Purpose: token.PurposeEmailVerification,
			State: token.StateUsed, ExpiresAt: now.Add(time.Hour), CreatedAt: stale},
		// live, retained
		&token.VerificationToken{UserID: 2, Token: "fresh", Purpose: token.PurposePasswordReset,
			State: token.StateUnused, ExpiresAt: now.Add(time.Hour), CreatedAt: now},
		&refreshtoken.RefreshToken{UserID: 1, TokenHash: "dead-hash", ExpiresAt: stale},
		&refreshtoken.RefreshToken{UserID: 2, TokenHash: "live-hash", ExpiresAt: now.Add(time.Hour)},
	}
	for _, record := range seed {
		require.NoError(t, db.Create(record).Error)
	}

	worker.Sweep()

	var tokens []token.VerificationToken
	require.NoError(t, db.Find(&tokens).Error)
	require.Len(t, tokens, 1)
	assert.Equal(t, "fresh", tokens[0].Token)

	var refreshTokens []refreshtoken.RefreshToken
	require.NoError(t, db.Find(&refreshTokens).Error)
	require.Len(t, refreshTokens, 1)
	assert.Equal(t, "live-hash", refreshTokens[0].TokenHash)
}

func TestWorker_StartStop(t *testing.T) {
	worker, _ := newTestWorker(t)
	worker.config.Cleanup.Interval = 5 * time.Millisecond

	worker.Start()
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
