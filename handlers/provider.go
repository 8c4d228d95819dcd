package handlers

import (
	"github.com/campuslink/identity/middleware/ratelimit"
	"github.com/campuslink/identity/server"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewAuthHandler),
	fx.Invoke(func(handler *AuthHandler, srv *server.Server, store ratelimit.Store) {
		handler.RegisterRoutes(srv, store)
	}),
)
