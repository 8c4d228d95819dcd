package mail

import (
	"bytes"
	"fmt"
	htmlTemplate "html/template"
	"path/filepath"
	"strings"
	textTemplate "text/template"
	"time"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Service delivers the outbound notification mail for token flows. It is
// a collaborator: callers hand it a recipient and a raw token value, and
// its failures never decide the outcome of an auth flow.
type Service struct {
	config        *config.MailConfig
	appCfg        *config.AppConfig
	client        *mail.Client
	htmlTemplates *htmlTemplate.Template
	textTemplates *textTemplate.Template
	logger        *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if cfg.Mail.FromAddress == "" {
		return nil, fmt.Errorf("IDENTITY_MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Mail.Port),
	}

	if cfg.Mail.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Mail.Username))
	}
	if cfg.Mail.Password != "" {
		clientOpts = append(clientOpts, mail.WithPassword(cfg.Mail.Password))
	}

	switch cfg.Mail.Encryption {
	case "tls", "starttls":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Mail.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	service := &Service{
		config: &cfg.Mail,
		appCfg: &cfg.App,
		client: client,
		logger: logger,
	}

	if err := service.loadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}

	logger.Info("mail service initialized",
		zap.String("host", cfg.Mail.Host),
		zap.Int("port", cfg.Mail.Port),
		zap.String("from_address", cfg.Mail.FromAddress))
	return service, nil
}

func (s *Service) loadTemplates() error {
	if s.config.TemplateDir == "" {
		return nil
	}

	htmlPattern := filepath.Join(s.config.TemplateDir, "*.html")
	textPattern := filepath.Join(s.config.TemplateDir, "*.txt")

	var err error
	s.htmlTemplates, err = htmlTemplate.ParseGlob(htmlPattern)
	if err != nil && !strings.Contains(err.Error(), "pattern matches no files") {
		return fmt.Errorf("failed to parse HTML templates: %w", err)
	}

	s.textTemplates, err = textTemplate.ParseGlob(textPattern)
	if err != nil && !strings.Contains(err.Error(), "pattern matches no files") {
		return fmt.Errorf("failed to parse text templates: %w", err)
	}

	return nil
}

// SendVerificationEmail delivers the account verification link for a
// freshly issued token.
func (s *Service) SendVerificationEmail(to, tokenValue string, expiry time.Duration) error {
	verificationURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.appCfg.URL, tokenValue)

	return s.sendTemplate("email_verification", to, "Please verify your email address", map[string]any{
		"Email":           to,
		"VerificationURL": verificationURL,
		"ExpiryDuration":  expiry.String(),
		"AppName":         s.appCfg.Name,
	})
}

// SendPasswordResetEmail delivers the password reset link for a freshly
// issued token.
func (s *Service) SendPasswordResetEmail(to, tokenValue string, expiry time.Duration) error {
	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.appCfg.URL, tokenValue)

	return s.sendTemplate("password_reset", to, "Password Reset Request", map[string]any{
		"Email":          to,
		"ResetURL":       resetURL,
		"ExpiryDuration": expiry.String(),
		"AppName":        s.appCfg.Name,
	})
}

func (s *Service) sendTemplate(templateName, to, subject string, data map[string]any) error {
	message := mail.NewMsg()

	fromAddr := s.config.FromAddress
	if s.config.FromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}
	if err := message.From(fromAddr); err != nil {
		return fmt.Errorf("failed to set FROM address: %w", err)
	}
	if err := message.To(to); err != nil {
		return fmt.Errorf("failed to set TO address: %w", err)
	}
	message.Subject(subject)

	if err := s.renderTemplate(templateName, data, message); err != nil {
		s.logger.Error("failed to render mail template",
			zap.Error(err),
			zap.String("template", templateName))
		return err
	}

	start := time.Now()
	if err := s.client.DialAndSend(message); err != nil {
		s.logger.Error("failed to send email",
			zap.Error(err),
			zap.String("template", templateName),
			zap.Duration("attempt_duration", time.Since(start)))
		return err
	}

	s.logger.Info("email sent",
		zap.String("template", templateName),
		zap.Duration("send_duration", time.Since(start)))
	return nil
}

func (s *Service) renderTemplate(templateName string, data map[string]any, message *mail.Msg) error {
	var hasTemplate bool

	if s.htmlTemplates != nil {
		if tmpl := s.htmlTemplates.Lookup(templateName + ".html"); tmpl != nil {
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("failed to execute HTML template: %w", err)
			}
			message.SetBodyString(mail.TypeTextHTML, buf.String())
			hasTemplate = true
		}
	}

	if s.textTemplates != nil {
		if tmpl := s.textTemplates.Lookup(templateName + ".txt"); tmpl != nil {
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("failed to execute text template: %w", err)
			}
			if hasTemplate {
				message.AddAlternativeString(mail.TypeTextPlain, buf.String())
			} else {
				message.SetBodyString(mail.TypeTextPlain, buf.String())
			}
			hasTemplate = true
		}
	}

	if !hasTemplate {
		return fmt.Errorf("template '%s' not found", templateName)
	}

	return nil
}
