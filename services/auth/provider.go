package auth

import (
	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/jwt"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/ratelimit"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideAuthService(
	cfg *config.Config,
	db *gorm.DB,
	tokens *token.Service,
	limiter *ratelimit.Service,
	sessions *jwt.Service,
	refresh *refreshtoken.Service,
	logger *logging.Service,
) *Service {
	return NewService(cfg, db, tokens, limiter, sessions, refresh, logger)
}

type OptionalMailer struct {
	fx.In
	Mailer Mailer `optional:"true"`
}

func WireMailer(svc *Service, opt OptionalMailer) {
	if svc != nil && opt.Mailer != nil {
		svc.SetMailer(opt.Mailer)
	}
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService),
	fx.Invoke(WireMailer),
)
