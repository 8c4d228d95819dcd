package app

import (
	"fmt"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/database"
	"github.com/campuslink/identity/handlers"
	"github.com/campuslink/identity/middleware/ratelimit"
	"github.com/campuslink/identity/openapi"
	"github.com/campuslink/identity/server"
	"github.com/campuslink/identity/services/auth"
	"github.com/campuslink/identity/services/cleanup"
	"github.com/campuslink/identity/services/jwt"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/mail"
	rls "github.com/campuslink/identity/services/ratelimit"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"go.uber.org/fx"
)

// Builder assembles the service graph. The credential core (database,
// token issuance, JWT, refresh tokens, auth flows, HTTP API) is always
// on; mail delivery, the cleanup worker and the openapi document are
// opt-in.
type Builder struct {
	config    *config.Config
	mail      bool
	cleanup   bool
	openapi   bool
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	if cfg == nil {
		b.errors = append(b.errors, fmt.Errorf("config cannot be nil"))
		return b
	}
	b.config = cfg
	return b
}

// WithAutoConfig loads configuration from the environment.
func (b *Builder) WithAutoConfig() *Builder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.errors = append(b.errors, fmt.Errorf("failed to load config: %w", err))
		return b
	}
	b.config = cfg
	return b
}

func (b *Builder) WithMail() *Builder {
	b.mail = true
	return b
}

func (b *Builder) WithCleanupWorker() *Builder {
	b.cleanup = true
	return b
}

func (b *Builder) WithOpenAPI() *Builder {
	b.openapi = true
	return b
}

// WithModels registers extra models for auto-migration alongside the
// identity tables.
func (b *Builder) WithModels(models ...any) *Builder {
	b.models = append(b.models, models...)
	return b
}

func (b *Builder) WithFxOptions(opts ...fx.Option) *Builder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *Builder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		b.WithAutoConfig()
		if len(b.errors) > 0 {
			return nil, fmt.Errorf("configuration errors: %v", b.errors)
		}
	}

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.NewService(logging.Config{
		Level:      b.config.Log.Level,
		Format:     b.config.Log.Format,
		OutputPath: b.config.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	models := append([]any{
		&auth.User{},
		&token.VerificationToken{},
		&refreshtoken.RefreshToken{},
	}, b.models...)

	db, err := database.ProvideDatabase(b.config, database.WithModels(models...), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		config: b.config,
		logger: logger,
		db:     db,
	}

	options := []fx.Option{
		fx.Supply(b.config),
		fx.Supply(logger),
		fx.Supply(db),
		fx.NopLogger,

		token.Module,
		rls.Module,
		jwt.Module,
		refreshtoken.Module,
		auth.Module,

		server.NewProvider(),
		ratelimit.Module,
		handlers.Module,
	}

	if b.mail {
		options = append(options,
			mail.Module,
			fx.Provide(func(svc *mail.Service) auth.Mailer { return svc }),
		)
	}
	if b.cleanup {
		options = append(options, cleanup.Module)
	}
	if b.openapi {
		options = append(options, openapi.Module)
	}

	options = append(options, b.fxOptions...)
	options = append(options, fx.Invoke(func(srv *server.Server) {
		app.server = srv
	}))

	app.fx = fx.New(options...)
	if err := app.fx.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application graph: %w", err)
	}

	return app, nil
}
