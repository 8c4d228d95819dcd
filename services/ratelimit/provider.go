package ratelimit

import (
	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/token"
	"go.uber.org/fx"
)

func ProvideRateLimitService(tokens *token.Service, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(tokens, cfg, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideRateLimitService),
)
