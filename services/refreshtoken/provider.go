package refreshtoken

import (
	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRefreshTokenService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, cfg, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideRefreshTokenService),
)
