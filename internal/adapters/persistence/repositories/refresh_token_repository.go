package repositories

import (
	"context"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Refresh tokens
// ============================================================

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByTokenHash only returns tokens that have not been revoked
func (r *refreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, id uint) error {
	return r.revoke(ctx, "id = ?", id)
}

func (r *refreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, "token_hash = ?", tokenHash)
}

// RevokeAllByUserID ends every session of a user, used after a password change
func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.revoke(ctx, "user_id = ? AND revoked_at IS NULL", userID)
}

func (r *refreshTokenRepository) revoke(ctx context.Context, query string, args ...interface{}) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where(query, args...).
		Update("revoked_at", &now).Error
}

// DeleteExpired removes expired and revoked tokens (cleanup job)
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

// ============================================================
// Verification codes
// ============================================================

type verificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// FindPending returns the newest pending code matching all three keys
func (r *verificationCodeRepository) FindPending(ctx context.Context, email string, label domain.VerificationLabel, code string) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND label = ? AND code = ? AND is_pending = ?", email, label, code, true).
		Order("created_at DESC").
		First(&vc).Error
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

func (r *verificationCodeRepository) MarkUsed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ?", id).
		Update("is_pending", false).Error
}

// InvalidatePending retires older codes before a new one is issued
func (r *verificationCodeRepository) InvalidatePending(ctx context.Context, email string, label domain.VerificationLabel) error {
	return r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("email = ? AND label = ? AND is_pending = ?", email, label, true).
		Update("is_pending", false).Error
}

// DeleteStale removes used codes and codes created before the cutoff
func (r *verificationCodeRepository) DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_pending = ? OR created_at < ?", false, createdBefore).
		Delete(&models.VerificationCode{})
	return res.RowsAffected, res.Error
}
