package openapi

import (
	"github.com/campuslink/identity/server"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewDocument),
	fx.Invoke(func(doc *Document, srv *server.Server) {
		doc.RegisterRoutes(srv)
	}),
)
