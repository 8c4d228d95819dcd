package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campuslink/identity/services/auth"
	"github.com/campuslink/identity/services/ratelimit"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"github.com/campuslink/identity/testutils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return New(testutils.GetTestConfig(), nil)
}

func performError(t *testing.T, srv *Server, err error) (int, ErrorResponse) {
	t.Helper()

	srv.Get("/boom", func(c echo.Context) error {
		return err
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestServer_RouteRegistration(t *testing.T) {
	srv := newTestServer()
	srv.Get("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"email taken", auth.ErrEmailTaken, http.StatusConflict, CodeConflict},
		{"phone taken", auth.ErrPhoneTaken, http.StatusConflict, CodeConflict},
		{"already verified", auth.ErrAlreadyVerified, http.StatusConflict, CodeConflict},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthorized},
		{"user not found", auth.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
		{"password mismatch", auth.ErrPasswordMismatch, http.StatusBadRequest, CodeCredentialMismatch},
		{"token expired", token.ErrTokenExpired, http.StatusBadRequest, CodeTokenExpired},
		{"token used", token.ErrTokenUsed, http.StatusConflict, CodeTokenUsed},
		{"token not found", token.ErrTokenNotFound, http.StatusBadRequest, CodeInvalidToken},
		{"wrong purpose", token.ErrTokenWrongPurpose, http.StatusBadRequest, CodeInvalidToken},
		{"cooldown", ratelimit.ErrCooldownActive, http.StatusTooManyRequests, CodeRateLimited},
		{"attempt cap", ratelimit.ErrTooManyAttempts, http.StatusTooManyRequests, CodeRateLimited},
		{"refresh expired", refreshtoken.ErrRefreshTokenExpired, http.StatusUnauthorized, CodeTokenExpired},
		{"refresh unknown", refreshtoken.ErrRefreshTokenNotFound, http.StatusUnauthorized, CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := performError(t, newTestServer(), tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, "/boom", body.Path)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestErrorHandler_WrappedDomainError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), auth.ErrEmailTaken)

	status, body := performError(t, newTestServer(), wrapped)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, CodeConflict, body.Code)
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	err := echo.NewHTTPError(http.StatusBadRequest, "missing field")

	status, body := performError(t, newTestServer(), err)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, body.Code)
	assert.Equal(t, "missing field", body.Message)
}

func TestErrorHandler_UnknownError(t *testing.T) {
	status, body := performError(t, newTestServer(), errors.New("db exploded"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, body.Code)
	// internals never leak to the client
	assert.Equal(t, "internal server error", body.Message)
}

func TestErrorHandler_NotFoundRoute(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeNotFound, body.Code)
}
