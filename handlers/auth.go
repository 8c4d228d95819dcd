package handlers

import (
	"net/http"

	"github.com/campuslink/identity/authz"
	"github.com/campuslink/identity/config"
	"github.com/campuslink/identity/middleware/jwtauth"
	"github.com/campuslink/identity/middleware/ratelimit"
	"github.com/campuslink/identity/server"
	"github.com/campuslink/identity/services/auth"
	"github.com/campuslink/identity/services/jwt"
	"github.com/campuslink/identity/services/refreshtoken"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	cfg  *config.Config
	auth *auth.Service
	jwt  *jwt.Service
}

func NewAuthHandler(cfg *config.Config, authService *auth.Service, jwtService *jwt.Service) *AuthHandler {
	return &AuthHandler{
		cfg:  cfg,
		auth: authService,
		jwt:  jwtService,
	}
}

// RegisterRoutes mounts the authentication API. Bearer tokens are
// resolved server-wide; requests without one stay anonymous, so the
// auth group and /health remain public. The auth group sits behind the
// per-IP request limiter, and /me demands the profile:read permission.
func (h *AuthHandler) RegisterRoutes(srv *server.Server, store ratelimit.Store) {
	srv.Use(jwtauth.Authenticate(h.jwt))

	group := srv.Group("/api/v1/auth", ratelimit.FromAppConfig(h.cfg, store))

	group.POST("/signup", h.Signup)
	group.POST("/login", h.Login)
	group.GET("/verify-email", h.VerifyEmail)
	group.POST("/resend-verification", h.ResendVerification)
	group.POST("/forgot-password", h.ForgotPassword)
	group.POST("/reset-password", h.ResetPassword)
	group.POST("/refresh-token", h.RefreshToken)
	group.POST("/logout", h.Logout)

	srv.Echo().GET("/api/v1/me", h.Me, jwtauth.RequirePermission(authz.PermProfileRead))

	srv.Get("/health", h.Health)
}

type signupRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`

	// Token carries the raw issued value only when App.ExposeTokens is
	// on. Production deployments deliver tokens by email exclusively.
	Token string `json:"token,omitempty"`
}

type jwtResponse struct {
	Token        string   `json:"token"`
	Type         string   `json:"type"`
	RefreshToken string   `json:"refresh_token"`
	ID           uint     `json:"id"`
	Username     string   `json:"username"`
	Roles        []string `json:"roles"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.PhoneNumber == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "first_name, last_name, email, phone_number and password are required")
	}

	result, err := h.auth.Register(auth.RegisterRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.message(
		"registration successful, check your email for the verification link",
		result.VerificationToken,
	))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	result, err := h.auth.Login(req.Email, req.Password, sessionInfo(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toJWTResponse(result))
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	tokenValue := c.QueryParam("token")
	if tokenValue == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token query parameter is required")
	}

	alreadyVerified, err := h.auth.VerifyEmail(tokenValue)
	if err != nil {
		return err
	}

	if alreadyVerified {
		return c.JSON(http.StatusOK, messageResponse{Message: "email already verified"})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "email verified successfully"})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	result, err := h.auth.ResendVerification(req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.message("verification email resent", result.VerificationToken))
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	result, err := h.auth.RequestPasswordReset(req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.message("password reset email sent", result.VerificationToken))
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token and new_password are required")
	}

	if err := h.auth.ResetPassword(req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password reset successfully"})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	result, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toJWTResponse(result))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	if err := h.auth.Logout(req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

type meResponse struct {
	UserID      uint     `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (h *AuthHandler) Me(c echo.Context) error {
	perms := jwtauth.GetPermissions(c)
	permStrings := make([]string, len(perms))
	for i, p := range perms {
		permStrings[i] = string(p)
	}

	return c.JSON(http.StatusOK, meResponse{
		UserID:      jwtauth.GetUserID(c),
		Role:        string(jwtauth.GetRole(c)),
		Permissions: permStrings,
	})
}

func (h *AuthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.cfg.App.Name,
	})
}

func (h *AuthHandler) message(message, tokenValue string) messageResponse {
	response := messageResponse{Message: message}
	if h.cfg.App.ExposeTokens {
		response.Token = tokenValue
	}
	return response
}

func toJWTResponse(result *auth.LoginResult) jwtResponse {
	return jwtResponse{
		Token:        result.AccessToken,
		Type:         "Bearer",
		RefreshToken: result.RefreshToken,
		ID:           result.UserID,
		Username:     result.Username,
		Roles:        result.Roles,
	}
}

func sessionInfo(c echo.Context) refreshtoken.SessionInfo {
	return refreshtoken.SessionInfo{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
