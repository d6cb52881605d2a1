package handlers

import (
	"errors"
	"strconv"

	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles profile and user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers handles listing all users (Admin only)
// @Summary List all users
// @Description Paginated user list with optional search, role and is_active filters
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param search query string false "Matches email, name or phone"
// @Param role query string false "CUSTOMER, STAFF or ADMIN"
// @Param is_active query bool false "Filter by active flag"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	input := &services.ListUsersInput{
		Search: c.Query("search"),
		Role:   c.Query("role"),
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "is_active must be true or false")
		}
		input.IsActive = &active
	}

	result, err := h.userService.ListUsers(c.Context(), input, pagination.GetParams(c))
	if err != nil {
		if errors.Is(err, services.ErrInvalidRole) {
			return response.BadRequest(c, "Invalid role")
		}
		return handleError(c, err, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// GetUser handles getting a user by ID (Admin only)
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.Context(), id)
	if err != nil {
		return h.userError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", user)
}

// ActivateUser re-enables an account (Admin only)
// @Summary Activate user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Router /users/{id}/activate [patch]
func (h *UserHandler) ActivateUser(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// DeactivateUser disables an account and revokes its sessions (Admin only)
// @Summary Deactivate user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/{id}/deactivate [patch]
func (h *UserHandler) DeactivateUser(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c *fiber.Ctx, active bool) error {
	adminID, _, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid user ID")
	}

	user, err := h.userService.SetActive(c.Context(), id, adminID, active)
	if err != nil {
		return h.userError(c, err, "Failed to update user")
	}

	msg := "User deactivated successfully"
	if active {
		msg = "User activated successfully"
	}
	return response.Success(c, msg, user)
}

// SetRole changes a user's role (Admin only)
// @Summary Change user role
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.SetRoleInput true "New role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/{id}/role [patch]
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	adminID, _, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid user ID")
	}

	var input services.SetRoleInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to update role")
	}

	user, err := h.userService.SetRole(c.Context(), id, adminID, &input)
	if err != nil {
		return h.userError(c, err, "Failed to update role")
	}

	return response.Success(c, "Role updated successfully", user)
}

// GetProfile returns the caller's own profile
// @Summary Get my profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return h.userError(c, err, "Failed to get profile")
	}

	return response.Success(c, "Profile retrieved successfully", user)
}

// UpdateProfile edits name and phone number
// @Summary Update my profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Profile fields"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	var input services.UpdateProfileInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to update profile")
	}

	user, err := h.userService.UpdateProfile(c.Context(), userID, &input)
	if err != nil {
		return h.userError(c, err, "Failed to update profile")
	}

	return response.Success(c, "Profile updated successfully", user)
}

// ChangePassword changes the caller's password and revokes other sessions
// @Summary Change password
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Old and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	var input services.ChangePasswordInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to change password")
	}

	if err := h.userService.ChangePassword(c.Context(), userID, &input); err != nil {
		return h.userError(c, err, "Failed to change password")
	}

	return response.Success(c, "Password changed successfully", nil)
}

func (h *UserHandler) userError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrPhoneTaken):
		return response.Conflict(c, "A user with this phone number already exists")
	case errors.Is(err, services.ErrOldPasswordWrong):
		return response.BadRequest(c, "Old password is incorrect")
	case errors.Is(err, services.ErrSamePassword):
		return response.BadRequest(c, "New password must differ from the old one")
	case errors.Is(err, services.ErrWeakPassword):
		return response.ValidationError(c, map[string]string{"new_password": "Password must contain letters and digits."})
	case errors.Is(err, services.ErrCannotChangeOwnRole):
		return response.BadRequest(c, "Cannot change your own role")
	case errors.Is(err, services.ErrCannotDeactivateSelf):
		return response.BadRequest(c, "Cannot deactivate your own account")
	case errors.Is(err, services.ErrInvalidRole):
		return response.BadRequest(c, "Invalid role")
	default:
		return handleError(c, err, fallback)
	}
}
