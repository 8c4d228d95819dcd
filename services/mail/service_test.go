package mail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/campuslink/identity/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestNewService_RequiresFromAddress(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Mail.Host = "localhost"

	svc, err := NewService(cfg, nil)
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "FROM_ADDRESS")
}

func TestNewService(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Mail.Host = "localhost"
	cfg.Mail.FromAddress = "noreply@example.com"
	cfg.Mail.FromName = "Identity"

	svc, err := NewService(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestService_RenderTemplate(t *testing.T) {
	dir := t.TempDir()
	html := `<p>Hello {{.Email}}, verify at {{.VerificationURL}}</p>`
	text := `Hello {{.Email}}, verify at {{.VerificationURL}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "email_verification.html"), []byte(html), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "email_verification.txt"), []byte(text), 0o644))

	cfg := testutils.GetTestConfig()
	cfg.Mail.Host = "localhost"
	cfg.Mail.FromAddress = "noreply@example.com"
	cfg.Mail.TemplateDir = dir

	svc, err := NewService(cfg, nil)
	require.NoError(t, err)

	msg := mail.NewMsg()
	err = svc.renderTemplate("email_verification", map[string]any{
		"Email":           "user@example.com",
		"VerificationURL": "http://localhost:8080/auth/verify-email?token=abc",
		"ExpiryDuration":  (24 * time.Hour).String(),
	}, msg)
	require.NoError(t, err)
}

func TestService_RenderTemplate_Missing(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Mail.Host = "localhost"
	cfg.Mail.FromAddress = "noreply@example.com"
	cfg.Mail.TemplateDir = t.TempDir()

	svc, err := NewService(cfg, nil)
	require.NoError(t, err)

	err = svc.renderTemplate("does_not_exist", nil, mail.NewMsg())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
