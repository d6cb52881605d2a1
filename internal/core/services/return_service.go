package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrReturnNotFound      = errors.New("return not found")
	ErrOrderNotReturnable  = errors.New("order is not eligible for return: it must be delivered within the last 30 days")
	ErrActiveReturnExists  = errors.New("an active return already exists for this order")
	ErrInvalidRefundAmount = errors.New("requested refund amount must be greater than 0 and no more than the order total")
	ErrInvalidReturnStatus = errors.New("status must be one of: REQUESTED, APPROVED, REJECTED, COMPLETED, CANCELLED")
)

// ReturnService runs the return workflow; completing a return opens a refund
type ReturnService struct {
	returnRepo repositories.ReturnRepository
	orderRepo  repositories.OrderRepository
	events     events.Publisher
	now        func() time.Time
}

func NewReturnService(returnRepo repositories.ReturnRepository, orderRepo repositories.OrderRepository, publisher events.Publisher) *ReturnService {
	return &ReturnService{returnRepo: returnRepo, orderRepo: orderRepo, events: publisher, now: time.Now}
}

type CreateReturnInput struct {
	OrderID               uint            `json:"order_id" validate:"required"`
	Reason                string          `json:"reason" validate:"required,max=50"`
	DetailedReason        string          `json:"detailed_reason" validate:"required"`
	RequestedRefundAmount decimal.Decimal `json:"requested_refund_amount"`
}

type ApproveReturnInput struct {
	ApprovedRefundAmount *decimal.Decimal `json:"approved_refund_amount"`
}

type RejectReturnInput struct {
	RejectionReason string `json:"rejection_reason" validate:"required"`
}

// Create opens a return for a delivered order owned by userID
func (s *ReturnService) Create(ctx context.Context, userID uint, input *CreateReturnInput) (*models.Return, error) {
	order, err := s.orderRepo.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}

	now := s.now()
	if !order.CanBeReturned(now) {
		return nil, ErrOrderNotReturnable
	}

	active, err := s.returnRepo.HasActiveForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveReturnExists
	}

	amount := input.RequestedRefundAmount
	if !amount.IsPositive() || amount.GreaterThan(order.TotalAmount()) {
		return nil, ErrInvalidRefundAmount
	}

	ret := &models.Return{
		ReturnNumber:          models.NewReturnNumber(now),
		OrderID:               order.ID,
		UserID:                userID,
		Reason:                strings.TrimSpace(input.Reason),
		DetailedReason:        strings.TrimSpace(input.DetailedReason),
		Status:                domain.ReturnRequested,
		RequestedRefundAmount: amount.Round(2),
	}
	if err := s.returnRepo.Create(ctx, ret); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.ReturnRequested, map[string]interface{}{
		"return_id":     ret.ID,
		"return_number": ret.ReturnNumber,
		"order_id":      ret.OrderID,
	})
	log.Printf("✅ Return %s requested for order %d", ret.ReturnNumber, order.ID)
	return ret, nil
}

// List shows reviewers every return and customers their own
func (s *ReturnService) List(ctx context.Context, actorID uint, role domain.Role, status string, p *pagination.Params) (*pagination.Response, error) {
	filter := repositories.ReturnFilter{}
	if !domain.Can(role, domain.ActionReviewReturn) {
		filter.UserID = &actorID
	}
	if status != "" {
		st := domain.ReturnStatus(strings.ToUpper(status))
		switch st {
		case domain.ReturnRequested, domain.ReturnApproved, domain.ReturnRejected, domain.ReturnCompleted, domain.ReturnCancelled:
			filter.Status = st
		default:
			return nil, ErrInvalidReturnStatus
		}
	}

	items, total, err := s.returnRepo.List(ctx, filter, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(items, p, total), nil
}

func (s *ReturnService) Get(ctx context.Context, id, actorID uint, role domain.Role) (*models.Return, error) {
	ret, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessOwned(role, domain.ActionReviewReturn, actorID, &ret.UserID) {
		return nil, ErrReturnNotFound
	}
	return ret, nil
}

func (s *ReturnService) Approve(ctx context.Context, id uint, input *ApproveReturnInput) (*models.Return, error) {
	ret, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var override *decimal.Decimal
	if input != nil {
		override = input.ApprovedRefundAmount
	}
	from := ret.Status
	if err := ret.Approve(override, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, ret, from)
}

func (s *ReturnService) Reject(ctx context.Context, id uint, input *RejectReturnInput) (*models.Return, error) {
	ret, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := ret.Status
	if err := ret.Reject(strings.TrimSpace(input.RejectionReason)); err != nil {
		return nil, err
	}
	return s.save(ctx, ret, from)
}

// Cancel is open to the owner while the return is still REQUESTED
func (s *ReturnService) Cancel(ctx context.Context, id, actorID uint, role domain.Role) (*models.Return, error) {
	ret, err := s.Get(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	from := ret.Status
	if err := ret.Cancel(); err != nil {
		return nil, err
	}
	return s.save(ctx, ret, from)
}

// Complete closes an approved return and creates its pending refund atomically.
// Only the first of two concurrent calls opens a refund.
func (s *ReturnService) Complete(ctx context.Context, id uint) (*models.Return, *models.Refund, error) {
	ret, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := ret.Complete(); err != nil {
		return nil, nil, err
	}

	refund := &models.Refund{
		RefundNumber: models.NewRefundNumber(s.now()),
		OrderID:      ret.OrderID,
		UserID:       ret.UserID,
		ReturnID:     &ret.ID,
		Amount:       ret.RefundAmount(),
		Status:       domain.RefundPending,
		Reason:       fmt.Sprintf("Return %s: %s", ret.ReturnNumber, ret.Reason),
	}
	if err := s.returnRepo.CompleteWithRefund(ctx, ret, refund); err != nil {
		return nil, nil, err
	}

	s.emitStatus(ctx, ret)
	log.Printf("✅ Return %s completed, refund %s opened for %s", ret.ReturnNumber, refund.RefundNumber, refund.Amount.StringFixed(2))
	return ret, refund, nil
}

// save persists ret only if nobody moved it off from meanwhile
func (s *ReturnService) save(ctx context.Context, ret *models.Return, from domain.ReturnStatus) (*models.Return, error) {
	if err := s.returnRepo.Transition(ctx, ret, from); err != nil {
		return nil, err
	}
	s.emitStatus(ctx, ret)
	log.Printf("✅ Return %s is now %s", ret.ReturnNumber, ret.Status)
	return ret, nil
}

func (s *ReturnService) emitStatus(ctx context.Context, ret *models.Return) {
	events.Emit(ctx, s.events, events.ReturnStatusChanged, map[string]interface{}{
		"return_id":     ret.ID,
		"return_number": ret.ReturnNumber,
		"status":        ret.Status,
	})
}

func (s *ReturnService) get(ctx context.Context, id uint) (*models.Return, error) {
	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReturnNotFound
		}
		return nil, err
	}
	return ret, nil
}
