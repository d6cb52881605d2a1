package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/password"
	"makerhub-api/internal/pkg/phone"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrOldPasswordWrong     = errors.New("old password is incorrect")
	ErrSamePassword         = errors.New("new password must differ from the old one")
	ErrCannotChangeOwnRole  = errors.New("cannot change your own role")
	ErrCannotDeactivateSelf = errors.New("cannot deactivate your own account")
	ErrInvalidRole          = errors.New("invalid role")
)

// UserService handles profile and user management
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Search   string
	IsActive *bool
	Role     string
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=1,max=50"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,min=10,max=16"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// SetRoleInput represents an admin role change
type SetRoleInput struct {
	Role string `json:"role" validate:"required,oneof=CUSTOMER STAFF ADMIN"`
}

// ListUsers lists users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput, p *pagination.Params) (*pagination.Response, error) {
	filter := repositories.UserFilter{Search: strings.TrimSpace(input.Search), IsActive: input.IsActive}
	if input.Role != "" {
		role, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		filter.Role = role
	}

	users, total, err := s.userRepo.List(ctx, filter, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, user := range users {
		out[i] = user.ToResponse()
	}
	return pagination.NewResponse(out, p, total), nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// SetActive activates or deactivates an account; deactivation ends its sessions
func (s *UserService) SetActive(ctx context.Context, id, adminID uint, active bool) (*models.UserResponse, error) {
	if id == adminID && !active {
		return nil, ErrCannotDeactivateSelf
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if !active {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, id); err != nil {
			return nil, err
		}
	}

	log.Printf("✅ User %d active=%t (by admin %d)", id, active, adminID)
	return user.ToResponse(), nil
}

// SetRole changes a user's role
func (s *UserService) SetRole(ctx context.Context, id, adminID uint, input *SetRoleInput) (*models.UserResponse, error) {
	if id == adminID {
		return nil, ErrCannotChangeOwnRole
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User %d role set to %s (by admin %d)", id, role, adminID)
	return user.ToResponse(), nil
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates own name and phone
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}

	if input.PhoneNumber != nil {
		number := phone.Normalize(*input.PhoneNumber)
		if number != user.PhoneNumber {
			exists, err := s.userRepo.ExistsByPhone(ctx, number, user.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrPhoneTaken
			}
			user.PhoneNumber = number
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if input.OldPassword == input.NewPassword {
		return ErrSamePassword
	}
	if !password.IsStrong(input.NewPassword) {
		return ErrWeakPassword
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword)
}

func (s *UserService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
