package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"makerhub-api/internal/adapters/mailer"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Verification codes - 6-digit codes mailed for sign-up and resets
// ============================================================

var ErrInvalidCode = errors.New("invalid or expired verification code")

const codeLength = 6

// VerificationService issues and checks one-time codes
type VerificationService struct {
	repo     repositories.VerificationCodeRepository
	mailer   mailer.Mailer
	lifetime time.Duration
	now      func() time.Time
}

func NewVerificationService(repo repositories.VerificationCodeRepository, m mailer.Mailer, lifetime time.Duration) *VerificationService {
	if lifetime <= 0 {
		lifetime = 15 * time.Minute
	}
	return &VerificationService{repo: repo, mailer: m, lifetime: lifetime, now: time.Now}
}

// Issue retires earlier pending codes for the same purpose, stores a new one
// and mails it
func (s *VerificationService) Issue(ctx context.Context, userID *uint, email string, label domain.VerificationLabel) error {
	if err := s.repo.InvalidatePending(ctx, email, label); err != nil {
		return err
	}

	code, err := generateSecureOTP(codeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	vc := &models.VerificationCode{
		UserID:    userID,
		Code:      code,
		Label:     label,
		Email:     email,
		IsPending: true,
	}
	if err := s.repo.Create(ctx, vc); err != nil {
		return err
	}

	subject, body := codeMessage(label, code, s.lifetime)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return err
	}

	log.Printf("✅ Verification code issued: %s (%s)", email, label)
	return nil
}

// Consume checks the code and marks it used. A code works exactly once.
func (s *VerificationService) Consume(ctx context.Context, email string, label domain.VerificationLabel, code string) (*models.VerificationCode, error) {
	vc, err := s.repo.FindPending(ctx, email, label, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if !vc.IsValid(s.now(), s.lifetime) {
		return nil, ErrInvalidCode
	}

	if err := s.repo.MarkUsed(ctx, vc.ID); err != nil {
		return nil, err
	}
	vc.IsPending = false
	return vc, nil
}

// PurgeStale drops used and expired codes
func (s *VerificationService) PurgeStale(ctx context.Context) (int64, error) {
	return s.repo.DeleteStale(ctx, s.now().Add(-s.lifetime))
}

func codeMessage(label domain.VerificationLabel, code string, lifetime time.Duration) (string, string) {
	mins := int(lifetime.Minutes())
	switch label {
	case domain.LabelResetPassword:
		return "Reset your password",
			fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.\nIf you did not ask for a reset you can ignore this email.", code, mins)
	case domain.LabelChangeEmail:
		return "Confirm your new email",
			fmt.Sprintf("Your email change code is %s. It expires in %d minutes.", code, mins)
	default:
		return "Verify your email",
			fmt.Sprintf("Welcome! Your verification code is %s. It expires in %d minutes.", code, mins)
	}
}

// generateSecureOTP creates a cryptographically random numeric code
func generateSecureOTP(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
