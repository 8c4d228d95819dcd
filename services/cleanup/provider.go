package cleanup

import (
	"context"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"go.uber.org/fx"
)

func ProvideCleanupWorker(cfg *config.Config, tokens *token.Service, refresh *refreshtoken.Service, logger *logging.Service) *Worker {
	return NewWorker(cfg, tokens, refresh, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideCleanupWorker),
	fx.Invoke(func(lc fx.Lifecycle, worker *Worker) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				worker.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				worker.Stop()
				return nil
			},
		})
	}),
)
