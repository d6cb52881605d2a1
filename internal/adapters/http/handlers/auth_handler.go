package handlers

import (
	"errors"
	"time"

	"makerhub-api/internal/config"
	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// RefreshRequest lets non-browser clients send the refresh token in the body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// EmailRequest carries a single address
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Register handles user registration
// @Summary Register new user
// @Description Create a customer account; a verification code is emailed
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to register user")
	}

	result, err := h.authService.Register(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			return response.Conflict(c, "A user with this email already exists")
		case errors.Is(err, services.ErrPhoneTaken):
			return response.Conflict(c, "A user with this phone number already exists")
		case errors.Is(err, services.ErrWeakPassword):
			return response.ValidationError(c, map[string]string{"password": "Password must contain letters and digits."})
		default:
			return handleError(c, err, "Failed to register user")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Created(c, "User registered successfully", result)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate by email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to login")
	}

	result, err := h.authService.Login(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, services.ErrUserInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return handleError(c, err, "Failed to login")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Login successful", result)
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotate the refresh token (cookie or body) and issue a new pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token when not using cookies"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, services.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please login again")
		case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrUserNotFound):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, services.ErrUserInactive):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "User account is inactive")
		default:
			return handleError(c, err, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "Token refreshed successfully", result)
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the refresh token and clear cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := h.refreshTokenFrom(c); refreshToken != "" {
		_ = h.authService.Logout(c.Context(), refreshToken)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout from all devices
// @Description Revoke all refresh tokens for the user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.LogoutAll(c.Context(), userID); err != nil {
		return handleError(c, err, "Failed to logout from all devices")
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the current user info
// @Summary Get current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// VerifyEmail confirms the code mailed at sign-up
// @Summary Verify email
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.VerifyEmailInput true "Email and code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var input services.VerifyEmailInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to verify email")
	}

	user, err := h.authService.VerifyEmail(c.Context(), &input)
	if err != nil {
		return h.codeError(c, err, "Failed to verify email")
	}
	return response.Success(c, "Email verified successfully", fiber.Map{"user": user})
}

// ResendVerification mails a new sign-up code
// @Summary Resend verification code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req EmailRequest
	if err := validator.ParseAndValidate(c, &req); err != nil {
		return handleError(c, err, "Failed to send verification code")
	}

	if err := h.authService.ResendVerification(c.Context(), req.Email); err != nil {
		return h.codeError(c, err, "Failed to send verification code")
	}
	return response.Success(c, "Verification code sent", nil)
}

// RequestPasswordReset mails a reset code
// @Summary Request password reset
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/password-reset/request [post]
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req EmailRequest
	if err := validator.ParseAndValidate(c, &req); err != nil {
		return handleError(c, err, "Failed to send reset code")
	}

	if err := h.authService.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return h.codeError(c, err, "Failed to send reset code")
	}
	return response.Success(c, "Password reset code sent", nil)
}

// ConfirmPasswordReset sets a new password using the mailed code
// @Summary Confirm password reset
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.PasswordResetConfirmInput true "Code and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var input services.PasswordResetConfirmInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to reset password")
	}

	if err := h.authService.ConfirmPasswordReset(c.Context(), &input); err != nil {
		return h.codeError(c, err, "Failed to reset password")
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Password has been reset, please login again", nil)
}

func (h *AuthHandler) codeError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "No user with this email")
	case errors.Is(err, services.ErrInvalidCode):
		return response.BadRequest(c, "Invalid or expired code")
	case errors.Is(err, services.ErrAlreadyVerified):
		return response.BadRequest(c, "Email is already verified")
	case errors.Is(err, services.ErrWeakPassword):
		return response.ValidationError(c, map[string]string{"new_password": "Password must contain letters and digits."})
	default:
		return handleError(c, err, fallback)
	}
}

func (h *AuthHandler) refreshTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("refresh_token"); token != "" {
		return token
	}
	var req RefreshRequest
	if err := c.BodyParser(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	h.setCookie(c, "access_token", accessToken, h.cfg.JWT.AccessTokenMins*60)
	h.setCookie(c, "refresh_token", refreshToken, h.cfg.JWT.RefreshTokenDays*24*60*60)
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	h.setCookie(c, "access_token", "", -1)
	h.setCookie(c, "refresh_token", "", -1)
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, maxAge int) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	}
	if maxAge < 0 {
		cookie.Expires = time.Now().Add(-1 * time.Hour)
	}
	c.Cookie(cookie)
}
