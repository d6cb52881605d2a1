package models

import (
	"time"

	"makerhub-api/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Payment records one mobile-money transaction against an order
type Payment struct {
	ID         uint                    `gorm:"primaryKey" json:"id"`
	OrderID    uint                    `gorm:"not null;index" json:"order_id"`
	UserID     uint                    `gorm:"not null;index" json:"user_id"`
	RefundID   *uint                   `gorm:"index" json:"refund_id,omitempty"`
	Direction  domain.PaymentDirection `gorm:"size:10;not null" json:"direction"`
	Ref        *string                 `gorm:"uniqueIndex;size:100" json:"ref"`
	Phone      string                  `gorm:"size:20;not null" json:"phone"`
	Amount     decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status     domain.PaymentStatus    `gorm:"size:20;default:'PENDING';index" json:"status"`
	Error      string                  `gorm:"size:255" json:"error,omitempty"`
	RawPayload string                  `gorm:"type:text" json:"-"`
	CreatedAt  time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsPending() bool {
	return p.Status == domain.PaymentPending
}
