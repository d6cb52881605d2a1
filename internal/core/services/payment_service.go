package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/paypack"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/phone"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrOrderNotPayable = errors.New("Only PENDING orders can be paid.")
	ErrNothingToPay    = errors.New("order total is zero")
	ErrPaymentProvider = errors.New("payment provider error")
	ErrPaymentOngoing  = errors.New("A payment for this order is already in progress.")
)

const (
	// reconcile payments the provider has had at least this long to settle
	reconcileGrace = time.Minute
	// a cash-in call times out after 30s; older claims belong to a dead request
	paymentClaimTTL = 2 * time.Minute
)

// ProviderError carries the provider's failure message and payload
type ProviderError struct {
	Message string
	Details map[string]interface{}
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Is(target error) bool { return target == ErrPaymentProvider }

// PaymentService collects order payments and reconciles them with the provider
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	orderRepo   repositories.OrderRepository
	gateway     PaymentGateway
	events      events.Publisher
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	orderRepo repositories.OrderRepository,
	gateway PaymentGateway,
	publisher events.Publisher,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		events:      publisher,
		now:         time.Now,
	}
}

type PayOrderInput struct {
	Phone string `json:"phone" validate:"required,min=10,max=16"`
}

// StatusOutput is a payment plus whatever the provider reported
type StatusOutput struct {
	Payment  *models.Payment        `json:"payment"`
	Provider map[string]interface{} `json:"provider"`
}

// PayOrder starts a cash-in for the order total. The payment row is stored
// even when the provider refuses, so failed attempts stay visible. While a
// cash-in is pending or has succeeded the order cannot be charged again.
func (s *PaymentService) PayOrder(ctx context.Context, orderID, userID uint, input *PayOrderInput) (*models.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	if order.Status != domain.OrderPending {
		return nil, ErrOrderNotPayable
	}

	total := order.TotalAmount()
	if !total.IsPositive() {
		return nil, ErrNothingToPay
	}

	now := s.now()
	claimed, err := s.orderRepo.ClaimPayment(ctx, order.ID, now, now.Add(-paymentClaimTTL))
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrPaymentOngoing
	}
	defer s.releaseClaim(order.ID)

	open, err := s.paymentRepo.HasOpenCashIn(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrPaymentOngoing
	}

	number := phone.Normalize(input.Phone)
	res := s.gateway.CashIn(ctx, total, number)

	payment := &models.Payment{
		OrderID:   order.ID,
		UserID:    userID,
		Direction: domain.PaymentCashIn,
		Phone:     number,
		Amount:    total,
	}
	applyResult(payment, res)

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	if !res.OK {
		log.Printf("❌ Cash-in for order %d failed: %s", order.ID, res.Error)
		return payment, &ProviderError{Message: res.Error, Details: res.Details}
	}

	log.Printf("✅ Cash-in %s started for order %d (%s)", res.Ref, order.ID, total.StringFixed(2))
	return payment, nil
}

// releaseClaim runs on a fresh context so a cancelled request still frees the order
func (s *PaymentService) releaseClaim(orderID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.orderRepo.ReleasePayment(ctx, orderID); err != nil {
		log.Printf("⚠️ Failed to release payment claim on order %d: %v", orderID, err)
	}
}

// CheckStatus asks the provider about a payment and applies the answer
func (s *PaymentService) CheckStatus(ctx context.Context, ref string, actorID uint, role domain.Role) (*StatusOutput, error) {
	payment, err := s.paymentRepo.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if !domain.CanAccessOwned(role, domain.ActionViewAllPayments, actorID, &payment.UserID) {
		return nil, ErrPaymentNotFound
	}

	data := s.gateway.CheckStatus(ctx, ref)
	if data == nil {
		return &StatusOutput{Payment: payment}, nil
	}
	if err := s.reconcile(ctx, payment, data); err != nil {
		return nil, err
	}
	return &StatusOutput{Payment: payment, Provider: data}, nil
}

// ReconcilePending polls the provider for payments still pending after the
// grace period; used by the scheduler
func (s *PaymentService) ReconcilePending(ctx context.Context, limit int) (int, error) {
	payments, err := s.paymentRepo.ListPendingBefore(ctx, s.now().Add(-reconcileGrace), limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, p := range payments {
		if p.Ref == nil {
			continue
		}
		data := s.gateway.CheckStatus(ctx, *p.Ref)
		if data == nil {
			continue
		}
		if err := s.reconcile(ctx, p, data); err != nil {
			log.Printf("❌ Reconcile %s: %v", *p.Ref, err)
			continue
		}
		if !p.IsPending() {
			settled++
		}
	}
	return settled, nil
}

// reconcile moves a pending payment to its final state; a successful
// cash-in marks a PENDING order PAID
func (s *PaymentService) reconcile(ctx context.Context, payment *models.Payment, data map[string]interface{}) error {
	if !payment.IsPending() {
		return nil
	}

	status := providerStatus(data)
	if status == domain.PaymentPending {
		return nil
	}

	raw, _ := json.Marshal(data)
	payment.Status = status
	payment.RawPayload = string(raw)
	if err := s.paymentRepo.Settle(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			// settled by a concurrent status check or the scheduler
			return nil
		}
		return err
	}

	if status != domain.PaymentSuccessful {
		events.Emit(ctx, s.events, events.PaymentFailed, payment)
		log.Printf("⚠️ Payment %s settled as %s", derefRef(payment.Ref), status)
		return nil
	}

	events.Emit(ctx, s.events, events.PaymentSucceeded, payment)
	if payment.Direction == domain.PaymentCashIn {
		if err := s.markOrderPaid(ctx, payment.OrderID); err != nil {
			return err
		}
	}

	log.Printf("✅ Payment %s settled as %s", derefRef(payment.Ref), status)
	return nil
}

func (s *PaymentService) markOrderPaid(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderPending {
		// cancelled meanwhile or already paid
		log.Printf("⚠️ Order %d is %s, not marking as paid", order.ID, order.Status)
		return nil
	}
	if err := order.TransitionTo(domain.OrderPaid); err != nil {
		return err
	}
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderPaid); err != nil {
		return err
	}
	events.Emit(ctx, s.events, events.OrderStatusChanged, map[string]interface{}{
		"order_id": order.ID,
		"from":     domain.OrderPending,
		"to":       domain.OrderPaid,
	})
	return nil
}

// applyResult copies a provider answer onto a new payment row
func applyResult(p *models.Payment, res paypack.Result) {
	if !res.OK {
		p.Status = domain.PaymentFailed
		p.Error = truncate(res.Error, 255)
		if res.Details != nil {
			raw, _ := json.Marshal(res.Details)
			p.RawPayload = string(raw)
		}
		return
	}
	ref := res.Ref
	p.Ref = &ref
	p.Status = mapStatus(res.Status)
}

// providerStatus reads the status from a transaction event or a bare payload
func providerStatus(data map[string]interface{}) domain.PaymentStatus {
	if inner, ok := data["data"].(map[string]interface{}); ok {
		if st, ok := inner["status"].(string); ok {
			return mapStatus(st)
		}
	}
	if st, ok := data["status"].(string); ok {
		return mapStatus(st)
	}
	return domain.PaymentPending
}

func mapStatus(s string) domain.PaymentStatus {
	switch strings.ToLower(s) {
	case "successful", "success", "completed":
		return domain.PaymentSuccessful
	case "failed", "failure", "rejected":
		return domain.PaymentFailed
	default:
		return domain.PaymentPending
	}
}

func derefRef(ref *string) string {
	if ref == nil {
		return "-"
	}
	return *ref
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
