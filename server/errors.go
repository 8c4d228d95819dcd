package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/campuslink/identity/services/auth"
	"github.com/campuslink/identity/services/logging"
	"github.com/campuslink/identity/services/ratelimit"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/campuslink/identity/services/token"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Stable machine-readable error codes. Clients branch on Code, not on
// Message text.
const (
	CodeValidation         = "VALIDATION"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenUsed          = "TOKEN_USED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeCredentialMismatch = "CREDENTIAL_MISMATCH"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInternal           = "INTERNAL"
)

type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// errorHandler is the single boundary where domain errors become HTTP
// responses. Services return sentinel errors and never touch status
// codes.
func errorHandler(logger *logging.Service) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, message := classify(err)

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.Error(err),
				zap.String("path", c.Request().URL.Path))
			message = "internal server error"
		}

		response := ErrorResponse{
			Timestamp: time.Now().UTC(),
			Status:    status,
			Code:      code,
			Message:   message,
			Path:      c.Request().URL.Path,
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, response)
		}
		if err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error) (status int, code string, message string) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrPhoneTaken),
		errors.Is(err, auth.ErrAlreadyVerified):
		return http.StatusConflict, CodeConflict, err.Error()

	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeUnauthorized, err.Error()

	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()

	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, CodeCredentialMismatch, err.Error()

	case errors.Is(err, token.ErrTokenExpired):
		return http.StatusBadRequest, CodeTokenExpired, err.Error()

	case errors.Is(err, token.ErrTokenUsed):
		return http.StatusConflict, CodeTokenUsed, err.Error()

	case errors.Is(err, token.ErrTokenNotFound),
		errors.Is(err, token.ErrTokenWrongPurpose):
		return http.StatusBadRequest, CodeInvalidToken, err.Error()

	case errors.Is(err, ratelimit.ErrCooldownActive),
		errors.Is(err, ratelimit.ErrTooManyAttempts):
		return http.StatusTooManyRequests, CodeRateLimited, err.Error()

	case errors.Is(err, refreshtoken.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, CodeTokenExpired, err.Error()

	case errors.Is(err, refreshtoken.ErrRefreshTokenNotFound):
		return http.StatusUnauthorized, CodeUnauthorized, "invalid refresh token"
	}

	var httpError *echo.HTTPError
	if errors.As(err, &httpError) {
		message := httpError.Error()
		if msg, ok := httpError.Message.(string); ok {
			message = msg
		}
		return httpError.Code, codeForStatus(httpError.Code), message
	}

	return http.StatusInternalServerError, CodeInternal, err.Error()
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		return CodeInternal
	}
}
