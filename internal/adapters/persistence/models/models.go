package models

import (
	"time"

	"makerhub-api/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity Tables
// ============================================================

// User represents users table
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Email         string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PhoneNumber   string         `gorm:"uniqueIndex;size:10;not null" json:"phone_number"`
	FullName      string         `gorm:"size:50;not null" json:"full_name"`
	Password      string         `gorm:"size:255;not null" json:"-"`
	Role          domain.Role    `gorm:"size:20;default:'CUSTOMER'" json:"role"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	EmailVerified bool           `gorm:"default:false" json:"email_verified"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID            uint        `json:"id"`
	Email         string      `json:"email"`
	PhoneNumber   string      `json:"phone_number"`
	FullName      string      `json:"full_name"`
	Role          domain.Role `json:"role"`
	IsActive      bool        `json:"is_active"`
	EmailVerified bool        `json:"email_verified"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		PhoneNumber:   u.PhoneNumber,
		FullName:      u.FullName,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// VerificationCode is a short numeric code mailed to a user for one purpose
type VerificationCode struct {
	ID        uint                     `gorm:"primaryKey" json:"id"`
	UserID    *uint                    `gorm:"index" json:"user_id"`
	Code      string                   `gorm:"size:6;not null" json:"-"`
	Label     domain.VerificationLabel `gorm:"size:20;not null;index" json:"label"`
	Email     string                   `gorm:"size:100;not null;index" json:"email"`
	IsPending bool                     `gorm:"not null" json:"is_pending"`
	CreatedAt time.Time                `gorm:"autoCreateTime" json:"created_on"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

// IsValid holds while the code is unused and younger than lifetime
func (v *VerificationCode) IsValid(now time.Time, lifetime time.Duration) bool {
	return v.IsPending && now.Before(v.CreatedAt.Add(lifetime))
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates every table the API owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&User{},
		&RefreshToken{},
		&VerificationCode{},
		// Catalog
		&ServiceCategory{},
		&Product{},
		&ProductMedia{},
		&Feedback{},
		&CustomRequest{},
		&CustomRequestControl{},
		&Wishlist{},
		&WishlistItem{},
		&Discount{},
		&ProductDiscount{},
		// Orders
		&Order{},
		&OrderItem{},
		&Return{},
		&Refund{},
		&Payment{},
	)
}
