package cleanup

import (
	"time"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"go.uber.org/zap"
)

// Worker periodically purges dead verification tokens and expired
// refresh tokens. A failed sweep is logged and the next tick runs as
// scheduled.
type Worker struct {
	config  *config.Config
	tokens  *token.Service
	refresh *refreshtoken.Service
	logger  *logging.Service

	stop chan struct{}
	done chan struct{}
}

func NewWorker(cfg *config.Config, tokens *token.Service, refresh *refreshtoken.Service, logger *logging.Service) *Worker {
	return &Worker{
		config:  cfg,
		tokens:  tokens,
		refresh: refresh,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go w.run()
	w.logger.Info("started token cleanup worker",
		zap.Duration("interval", w.config.Cleanup.Interval),
		zap.Duration("grace_period", w.config.Cleanup.GracePeriod))
}

// Stop signals the worker and waits for the current sweep to finish.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
	w.logger.Info("stopped token cleanup worker")
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.config.Cleanup.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Sweep()
		case <-w.stop:
			return
		}
	}
}

// Sweep runs one cleanup pass over both token stores.
func (w *Worker) Sweep() {
	removed, err := w.tokens.CleanupExpired(w.config.Cleanup.GracePeriod)
	if err != nil {
		w.logger.Error("verification token cleanup failed", zap.Error(err))
	} else if removed > 0 {
		w.logger.Info("cleaned up verification tokens", zap.Int64("count", removed))
	}

	removed, err = w.refresh.CleanupExpired()
	if err != nil {
		w.logger.Error("refresh token cleanup failed", zap.Error(err))
	} else if removed > 0 {
		w.logger.Info("cleaned up refresh tokens", zap.Int64("count", removed))
	}
}
