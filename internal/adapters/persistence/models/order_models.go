package models

import (
	"fmt"
	"strings"
	"time"

	"makerhub-api/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnWindowDays is how long after delivery an order stays returnable
const ReturnWindowDays = 30

// ============================================================
// Order Tables
// ============================================================

// Order is a customer purchase; prices live on its items
type Order struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	UserID         uint               `gorm:"not null;index" json:"user_id"`
	User           *User              `gorm:"foreignKey:UserID" json:"-"`
	DiscountID     *uint              `gorm:"index" json:"discount_id"`
	Discount       *Discount          `gorm:"foreignKey:DiscountID;constraint:OnDelete:SET NULL" json:"discount,omitempty"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	Status         domain.OrderStatus `gorm:"size:20;default:'PENDING';index" json:"status"`
	Items          []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	// set while a cash-in request is in flight
	PaymentClaimedAt *time.Time `json:"-"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Subtotal sums price_at_purchase x quantity over the loaded items
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].LineTotal())
	}
	return total
}

// ApplyDiscount recomputes DiscountAmount from the linked discount.
// A missing or invalid discount resets the amount to zero. The amount is
// rounded half away from zero to cents, the precision of the column.
func (o *Order) ApplyDiscount(now time.Time) decimal.Decimal {
	if o.Discount != nil && o.Discount.IsValid(now) {
		o.DiscountAmount = o.Discount.AmountFor(o.Subtotal()).Round(2)
	} else {
		o.DiscountAmount = decimal.Zero
	}
	return o.DiscountAmount
}

// TotalAmount never goes below zero
func (o *Order) TotalAmount() decimal.Decimal {
	return decimal.Max(o.Subtotal().Sub(o.DiscountAmount), decimal.Zero)
}

// CanBeReturned counts whole days since the last update, as a delivered order
// is not touched again once delivered
func (o *Order) CanBeReturned(now time.Time) bool {
	if o.Status != domain.OrderDelivered || o.UpdatedAt.IsZero() {
		return false
	}
	days := int(now.Sub(o.UpdatedAt).Hours() / 24)
	return days <= ReturnWindowDays
}

// TransitionTo moves the order along its lifecycle
func (o *Order) TransitionTo(next domain.OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return domain.NewTransitionError("order", o.Status, next)
	}
	o.Status = next
	return nil
}

// OrderSummary is the compact pricing view of an order
type OrderSummary struct {
	OrderID        uint               `json:"order_id"`
	Status         domain.OrderStatus `json:"status"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	ItemsCount     int                `json:"items_count"`
}

func (o *Order) Summary() *OrderSummary {
	return &OrderSummary{
		OrderID:        o.ID,
		Status:         o.Status,
		Subtotal:       o.Subtotal(),
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount(),
		ItemsCount:     len(o.Items),
	}
}

// OrderResponse DTO
type OrderResponse struct {
	*Order
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CanBeReturned bool            `json:"can_be_returned"`
}

func (o *Order) ToResponse(now time.Time) *OrderResponse {
	return &OrderResponse{
		Order:         o,
		Subtotal:      o.Subtotal(),
		TotalAmount:   o.TotalAmount(),
		CanBeReturned: o.CanBeReturned(now),
	}
}

// OrderItem snapshots the product price at the time of purchase
type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	ProductID       *uint           `gorm:"index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"product,omitempty"`
	Quantity        int             `gorm:"not null;default:1" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_purchase"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ============================================================
// Return & Refund Tables
// ============================================================

// Return is a customer's request to send back a delivered order
type Return struct {
	ID                    uint                `gorm:"primaryKey" json:"id"`
	ReturnNumber          string              `gorm:"uniqueIndex;size:50;not null" json:"return_number"`
	OrderID               uint                `gorm:"not null;index" json:"order_id"`
	Order                 *Order              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	UserID                uint                `gorm:"not null;index:idx_returns_user_created" json:"user_id"`
	Reason                string              `gorm:"size:50;not null" json:"reason"`
	DetailedReason        string              `gorm:"type:text;not null" json:"detailed_reason"`
	RejectionReason       string              `gorm:"type:text" json:"rejection_reason"`
	Status                domain.ReturnStatus `gorm:"size:20;default:'REQUESTED';index" json:"status"`
	RequestedRefundAmount decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"requested_refund_amount"`
	ApprovedRefundAmount  decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"approved_refund_amount"`
	CreatedAt             time.Time           `gorm:"autoCreateTime;index:idx_returns_user_created" json:"created_at"`
	ApprovedAt            *time.Time          `json:"approved_at"`
	UpdatedAt             time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Return) TableName() string {
	return "returns"
}

// IsActive is false once the return reached a terminal state
func (r *Return) IsActive() bool {
	return r.Status.IsActive()
}

// Approve uses the requested amount unless a positive override is given
func (r *Return) Approve(amount *decimal.Decimal, now time.Time) error {
	if r.Status != domain.ReturnRequested {
		return domain.NewTransitionError("return", r.Status, domain.ReturnApproved)
	}
	approved := r.RequestedRefundAmount
	if amount != nil && amount.IsPositive() {
		approved = *amount
	}
	r.Status = domain.ReturnApproved
	r.ApprovedRefundAmount = decimal.NewNullDecimal(approved)
	r.ApprovedAt = &now
	return nil
}

// Reject requires a non-blank reason
func (r *Return) Reject(reason string) error {
	if r.Status != domain.ReturnRequested {
		return domain.NewTransitionError("return", r.Status, domain.ReturnRejected)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: rejection reason is required", domain.ErrInvalidInput)
	}
	r.Status = domain.ReturnRejected
	r.RejectionReason = reason
	return nil
}

func (r *Return) Complete() error {
	if r.Status != domain.ReturnApproved {
		return domain.NewTransitionError("return", r.Status, domain.ReturnCompleted)
	}
	r.Status = domain.ReturnCompleted
	return nil
}

func (r *Return) Cancel() error {
	if r.Status != domain.ReturnRequested {
		return domain.NewTransitionError("return", r.Status, domain.ReturnCancelled)
	}
	r.Status = domain.ReturnCancelled
	return nil
}

// RefundAmount is the approved amount, or the requested one before approval
func (r *Return) RefundAmount() decimal.Decimal {
	if r.ApprovedRefundAmount.Valid {
		return r.ApprovedRefundAmount.Decimal
	}
	return r.RequestedRefundAmount
}

// Refund is money owed back to a customer
type Refund struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	RefundNumber  string              `gorm:"uniqueIndex;size:50;not null" json:"refund_number"`
	OrderID       uint                `gorm:"not null;index" json:"order_id"`
	UserID        uint                `gorm:"not null;index:idx_refunds_user_created" json:"user_id"`
	ReturnID      *uint               `gorm:"index" json:"return_id"`
	Amount        decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status        domain.RefundStatus `gorm:"size:20;default:'PENDING';index" json:"status"`
	TransactionID string              `gorm:"size:100" json:"transaction_id"`
	Reason        string              `gorm:"type:text;not null" json:"reason"`
	CreatedAt     time.Time           `gorm:"autoCreateTime;index:idx_refunds_user_created" json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	// set while a settlement (and possibly a payout) is in flight
	ClaimedAt *time.Time `json:"-"`
}

func (Refund) TableName() string {
	return "refunds"
}

// MarkCompleted keeps any existing transaction id when none is supplied
func (r *Refund) MarkCompleted(transactionID string, now time.Time) error {
	if r.Status != domain.RefundPending {
		return domain.NewTransitionError("refund", r.Status, domain.RefundCompleted)
	}
	r.Status = domain.RefundCompleted
	r.CompletedAt = &now
	if transactionID != "" {
		r.TransactionID = transactionID
	}
	return nil
}

func (r *Refund) MarkFailed() error {
	if r.Status != domain.RefundPending {
		return domain.NewTransitionError("refund", r.Status, domain.RefundFailed)
	}
	r.Status = domain.RefundFailed
	return nil
}

// NewReturnNumber yields RTN-YYYYMMDD-XXXXXXXX
func NewReturnNumber(now time.Time) string {
	return referenceNumber("RTN", now)
}

// NewRefundNumber yields REF-YYYYMMDD-XXXXXXXX
func NewRefundNumber(now time.Time) string {
	return referenceNumber("REF", now)
}

func referenceNumber(prefix string, now time.Time) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), strings.ToUpper(hex[:8]))
}
