package services

import (
	"context"

	"makerhub-api/internal/adapters/paypack"

	"github.com/shopspring/decimal"
)

// Note: the remaining services are concrete types wired in main

// PaymentGateway is the mobile-money provider as the services see it
type PaymentGateway interface {
	CashIn(ctx context.Context, amount decimal.Decimal, phone string) paypack.Result
	CashOut(ctx context.Context, amount decimal.Decimal, phone string) paypack.Result
	CheckStatus(ctx context.Context, ref string) map[string]interface{}
}

var _ PaymentGateway = (*paypack.Client)(nil)
