package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/phone"
	"makerhub-api/internal/pkg/validator"

	"gorm.io/gorm"
)

var (
	ErrRefundNotFound      = errors.New("refund not found")
	ErrInvalidRefundStatus = errors.New("status must be one of: PENDING, COMPLETED, FAILED")
	ErrRefundBusy          = errors.New("This refund is already being settled.")
)

// a payout times out after 30s; older claims belong to a dead request
const refundClaimTTL = 2 * time.Minute

// RefundService settles refunds opened by completed returns
type RefundService struct {
	refundRepo  repositories.RefundRepository
	paymentRepo repositories.PaymentRepository
	gateway     PaymentGateway
	events      events.Publisher
	now         func() time.Time
}

func NewRefundService(
	refundRepo repositories.RefundRepository,
	paymentRepo repositories.PaymentRepository,
	gateway PaymentGateway,
	publisher events.Publisher,
) *RefundService {
	return &RefundService{
		refundRepo:  refundRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		events:      publisher,
		now:         time.Now,
	}
}

// CompleteRefundInput either records an out-of-band transfer by its id or,
// with Payout set, sends the money to Phone through the provider
type CompleteRefundInput struct {
	TransactionID string `json:"transaction_id" validate:"max=100"`
	Payout        bool   `json:"payout"`
	Phone         string `json:"phone" validate:"omitempty,min=10,max=16"`
}

func (s *RefundService) List(ctx context.Context, actorID uint, role domain.Role, status string, p *pagination.Params) (*pagination.Response, error) {
	filter := repositories.RefundFilter{}
	if !domain.Can(role, domain.ActionManageRefund) {
		filter.UserID = &actorID
	}
	if status != "" {
		st := domain.RefundStatus(strings.ToUpper(status))
		switch st {
		case domain.RefundPending, domain.RefundCompleted, domain.RefundFailed:
			filter.Status = st
		default:
			return nil, ErrInvalidRefundStatus
		}
	}

	items, total, err := s.refundRepo.List(ctx, filter, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(items, p, total), nil
}

func (s *RefundService) Get(ctx context.Context, id, actorID uint, role domain.Role) (*models.Refund, error) {
	refund, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessOwned(role, domain.ActionManageRefund, actorID, &refund.UserID) {
		return nil, ErrRefundNotFound
	}
	return refund, nil
}

// Complete settles a PENDING refund. A failed payout leaves it PENDING so it
// can be retried or settled by hand. The refund is claimed before any money
// moves, so concurrent calls cannot pay it out twice.
func (s *RefundService) Complete(ctx context.Context, id uint, input *CompleteRefundInput) (*models.Refund, error) {
	refund, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if refund.Status != domain.RefundPending {
		return nil, domain.NewTransitionError("refund", refund.Status, domain.RefundCompleted)
	}
	if input.Payout && strings.TrimSpace(input.Phone) == "" {
		return nil, validator.FieldErrors{"phone": "This field is required for a payout."}
	}

	if err := s.claim(ctx, refund.ID); err != nil {
		return nil, err
	}

	txID := strings.TrimSpace(input.TransactionID)
	if input.Payout {
		ref, err := s.payout(ctx, refund, input.Phone)
		if err != nil {
			s.release(refund.ID)
			return nil, err
		}
		txID = ref
	}

	if err := refund.MarkCompleted(txID, s.now()); err != nil {
		s.release(refund.ID)
		return nil, err
	}
	if err := s.refundRepo.Settle(ctx, refund); err != nil {
		if input.Payout {
			log.Printf("❌ Refund %s was paid out as %s but could not be saved: %v", refund.RefundNumber, txID, err)
		}
		return nil, err
	}

	events.Emit(ctx, s.events, events.RefundCompleted, map[string]interface{}{
		"refund_id":      refund.ID,
		"refund_number":  refund.RefundNumber,
		"order_id":       refund.OrderID,
		"amount":         refund.Amount,
		"transaction_id": refund.TransactionID,
	})
	log.Printf("✅ Refund %s completed (%s)", refund.RefundNumber, refund.Amount.StringFixed(2))
	return refund, nil
}

// Fail gives up on a PENDING refund that is not being settled
func (s *RefundService) Fail(ctx context.Context, id uint) (*models.Refund, error) {
	refund, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := refund.MarkFailed(); err != nil {
		return nil, err
	}
	if err := s.claim(ctx, refund.ID); err != nil {
		return nil, err
	}
	if err := s.refundRepo.Settle(ctx, refund); err != nil {
		return nil, err
	}
	log.Printf("⚠️ Refund %s marked as failed", refund.RefundNumber)
	return refund, nil
}

func (s *RefundService) claim(ctx context.Context, id uint) error {
	now := s.now()
	claimed, err := s.refundRepo.Claim(ctx, id, now, now.Add(-refundClaimTTL))
	if err != nil {
		return err
	}
	if !claimed {
		return ErrRefundBusy
	}
	return nil
}

// release runs on a fresh context so a cancelled request still frees the refund
func (s *RefundService) release(id uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.refundRepo.Release(ctx, id); err != nil {
		log.Printf("⚠️ Failed to release claim on refund %d: %v", id, err)
	}
}

// payout cashes the refund out and records the transfer as a CASHOUT payment
func (s *RefundService) payout(ctx context.Context, refund *models.Refund, to string) (string, error) {
	number := phone.Normalize(to)
	res := s.gateway.CashOut(ctx, refund.Amount, number)

	payment := &models.Payment{
		OrderID:   refund.OrderID,
		UserID:    refund.UserID,
		RefundID:  &refund.ID,
		Direction: domain.PaymentCashOut,
		Phone:     number,
		Amount:    refund.Amount,
	}
	applyResult(payment, res)
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return "", err
	}

	if !res.OK {
		log.Printf("❌ Payout for refund %s failed: %s", refund.RefundNumber, res.Error)
		return "", &ProviderError{Message: res.Error, Details: res.Details}
	}
	return res.Ref, nil
}

func (s *RefundService) get(ctx context.Context, id uint) (*models.Refund, error) {
	refund, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}
	return refund, nil
}
