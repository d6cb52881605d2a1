package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/config"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/jwt"
	"makerhub-api/internal/pkg/password"
	"makerhub-api/internal/pkg/phone"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrPhoneTaken         = errors.New("a user with this phone number already exists")
	ErrWeakPassword       = errors.New("password must contain letters and digits")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrAlreadyVerified    = errors.New("email is already verified")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	codes            *VerificationService
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	codes *VerificationService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		codes:            codes,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	FullName        string `json:"full_name" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email,max=100"`
	PhoneNumber     string `json:"phone_number" validate:"required,min=10,max=16"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailInput confirms the REGISTER code
type VerifyEmailInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// PasswordResetConfirmInput sets a new password using a RESET_PASSWORD code
type PasswordResetConfirmInput struct {
	Email              string `json:"email" validate:"required,email"`
	Code               string `json:"code" validate:"required,len=6,numeric"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates a customer account and mails a REGISTER code
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	email := normalizeEmail(input.Email)
	number := phone.Normalize(input.PhoneNumber)

	if !password.IsStrong(input.Password) {
		return nil, ErrWeakPassword
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	exists, err = s.userRepo.ExistsByPhone(ctx, number, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPhoneTaken
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:    strings.TrimSpace(input.FullName),
		Email:       email,
		PhoneNumber: number,
		Password:    hashedPassword,
		Role:        domain.RoleCustomer,
		IsActive:    true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// the account exists either way; the code can be re-sent
	if err := s.codes.Issue(ctx, &user.ID, user.Email, domain.LabelRegister); err != nil {
		log.Printf("⚠️ Verification mail for %s failed: %v", user.Email, err)
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User registered: %s", user.Email)
	return resp, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Email)
	return resp, nil
}

// RefreshToken rotates the refresh token and returns a new pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// rotation: the presented token is spent
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}
	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// VerifyEmail consumes a REGISTER code and flags the address as verified
func (s *AuthService) VerifyEmail(ctx context.Context, input *VerifyEmailInput) (*models.UserResponse, error) {
	email := normalizeEmail(input.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.EmailVerified {
		return nil, ErrAlreadyVerified
	}

	if _, err := s.codes.Consume(ctx, email, domain.LabelRegister, input.Code); err != nil {
		return nil, err
	}

	user.EmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Email verified: %s", user.Email)
	return user.ToResponse(), nil
}

// ResendVerification mails a fresh REGISTER code
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	return s.codes.Issue(ctx, &user.ID, user.Email, domain.LabelRegister)
}

// RequestPasswordReset mails a RESET_PASSWORD code to a known address
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.codes.Issue(ctx, &user.ID, user.Email, domain.LabelResetPassword)
}

// ConfirmPasswordReset sets the new password and ends every session
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, input *PasswordResetConfirmInput) error {
	if !password.IsStrong(input.NewPassword) {
		return ErrWeakPassword
	}

	email := normalizeEmail(input.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	vc, err := s.codes.Consume(ctx, email, domain.LabelResetPassword, input.Code)
	if err != nil {
		return err
	}
	if vc.UserID != nil && *vc.UserID != user.ID {
		return ErrInvalidCode
	}

	hash, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		return err
	}

	log.Printf("✅ Password reset for user ID: %d", user.ID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Email,
		user.Role.String(),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	return s.refreshTokenRepo.Create(ctx, &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
