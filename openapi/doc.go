// Package openapi publishes the API description for the identity
// service at /docs/openapi.{json,yaml}.
package openapi

import (
	"net/http"

	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/server"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

type Document struct {
	spec *openapi3.T
}

func NewDocument(cfg *config.Config) *Document {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       cfg.App.Name,
			Version:     "1.0.0",
			Description: "Identity credential and session lifecycle API",
		},
		Servers: openapi3.Servers{
			&openapi3.Server{URL: cfg.App.URL},
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: openapi3.SecuritySchemes{
				"bearerAuth": &openapi3.SecuritySchemeRef{
					Value: &openapi3.SecurityScheme{
						Type:         "http",
						Scheme:       "bearer",
						BearerFormat: "JWT",
					},
				},
			},
		},
	}

	doc := &Document{spec: spec}
	doc.describeAuthPaths()
	return doc
}

func (d *Document) describeAuthPaths() {
	d.addJSONOperation(http.MethodPost, "/api/v1/auth/signup",
		"Register a new account",
		"Creates a disabled account and emails a verification token.")
	d.addJSONOperation(http.MethodPost, "/api/v1/auth/login",
		"Authenticate",
		"Exchanges email and password for an access token and a refresh token.")
	d.addQueryOperation(http.MethodGet, "/api/v1/auth/verify-email",
		"Verify email address",
		"Redeems the verification token and enables the account.",
		"token")
	d.addJSONOperation(http.MethodPost, "/api/v1/auth/resend-verification",
		"Resend verification token",
		"Issues a fresh verification token, subject to rate limiting.")
	d.addJSONOperation(http.MethodPost, "/api/v1/auth/forgot-password",
		"Request password reset",
		"Emails a password reset token, subject to rate limiting.")
	d.addJSONOperation(http.MethodPost, "/api/v1/auth/reset-password",
		"Reset password",
		"Redeems the reset token and stores the new password.")
	d.addJSONOperation(http.MethodPost, "/api/v1/auth/refresh-token",
		"Refresh access token",
		"Issues a new access token against a live refresh token.")
	d.addJSONOperation(http.MethodPost, "/api/v1/auth/logout",
		"Log out",
		"Revokes the presented refresh token.")

	me := d.addOperation(http.MethodGet, "/api/v1/me",
		"Current identity",
		"Returns the authenticated user's id, role and permissions.")
	me.Security = openapi3.NewSecurityRequirements().
		With(openapi3.SecurityRequirement{"bearerAuth": []string{}})

	d.addOperation(http.MethodGet, "/health", "Health check", "Liveness probe.")
}

func (d *Document) addOperation(method, path, summary, description string) *openapi3.Operation {
	op := &openapi3.Operation{
		Summary:     summary,
		Description: description,
		Responses:   openapi3.NewResponses(),
	}

	item := d.spec.Paths.Value(path)
	if item == nil {
		item = &openapi3.PathItem{}
		d.spec.Paths.Set(path, item)
	}
	item.SetOperation(method, op)
	return op
}

func (d *Document) addJSONOperation(method, path, summary, description string) *openapi3.Operation {
	op := d.addOperation(method, path, summary, description)
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchema(openapi3.NewObjectSchema()),
	}
	return op
}

func (d *Document) addQueryOperation(method, path, summary, description, param string) *openapi3.Operation {
	op := d.addOperation(method, path, summary, description)
	op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     param,
			In:       "query",
			Required: true,
			Schema:   openapi3.NewStringSchema().NewRef(),
		},
	})
	return op
}

func (d *Document) Spec() *openapi3.T {
	return d.spec
}

func (d *Document) JSON() ([]byte, error) {
	return d.spec.MarshalJSON()
}

func (d *Document) YAML() ([]byte, error) {
	data, err := d.spec.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var intermediate any
	if err := yaml.Unmarshal(data, &intermediate); err != nil {
		return nil, err
	}
	return yaml.Marshal(intermediate)
}

// RegisterRoutes exposes the document under /docs.
func (d *Document) RegisterRoutes(srv *server.Server) {
	srv.Get("/docs/openapi.json", d.JSONHandler())
	srv.Get("/docs/openapi.yaml", d.YAMLHandler())
}

func (d *Document) JSONHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.JSON()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render openapi spec")
		}
		return c.Blob(http.StatusOK, "application/json", data)
	}
}

func (d *Document) YAMLHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := d.YAML()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render openapi spec")
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
}
