package jwtauth

import (
	"net/http"
	"strings"

	"github.com/campuslink/identity/authz"
	"github.com/campuslink/identity/services/jwt"
	"github.com/labstack/echo/v4"
)

const (
	UserIDKey      = "_auth_user_id"
	ClaimsKey      = "_auth_claims"
	RoleKey        = "_auth_role"
	PermissionsKey = "_auth_permissions"
)

// Authenticate resolves the bearer token when one is presented. A
// missing or unusable token leaves the request anonymous; route-level
// guards decide whether that is acceptable.
func Authenticate(jwtService *jwt.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractBearer(c)
			if tokenString == "" {
				return next(c)
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				return next(c)
			}

			setIdentity(c, claims)
			return next(c)
		}
	}
}

// RequireAuth rejects requests that did not present a valid bearer
// token, mapping each validation failure to a distinct message.
func RequireAuth(jwtService *jwt.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractBearer(c)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization required")
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				switch err {
				case jwt.ErrExpiredToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "token has expired")
				case jwt.ErrMalformedToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "malformed token")
				case jwt.ErrInvalidSignature:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token signature")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
			}

			setIdentity(c, claims)
			return next(c)
		}
	}
}

// RequirePermission gates a route on a permission derived from the
// authenticated role. It must run after RequireAuth.
func RequirePermission(perm authz.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(RoleKey).(authz.Role)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization required")
			}
			if !authz.Can(role, perm) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, claims *jwt.Claims) {
	role := authz.Role(claims.Role)
	c.Set(UserIDKey, claims.UserID)
	c.Set(ClaimsKey, claims)
	c.Set(RoleKey, role)
	c.Set(PermissionsKey, authz.Permissions(role))
}

func extractBearer(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

func GetUserID(c echo.Context) uint {
	if userID, ok := c.Get(UserIDKey).(uint); ok {
		return userID
	}
	return 0
}

func GetClaims(c echo.Context) *jwt.Claims {
	if claims, ok := c.Get(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

func GetRole(c echo.Context) authz.Role {
	if role, ok := c.Get(RoleKey).(authz.Role); ok {
		return role
	}
	return ""
}

func GetPermissions(c echo.Context) []authz.Permission {
	if perms, ok := c.Get(PermissionsKey).([]authz.Permission); ok {
		return perms
	}
	return nil
}
