package models

import (
	"testing"
	"time"

	"makerhub-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_FinalPrice(t *testing.T) {
	p := &Product{UnitPrice: decimal.NewNullDecimal(dec("1000"))}

	price, ok := p.FinalPrice(now)
	assert.True(t, ok)
	assert.True(t, dec("1000").Equal(price))

	p.Discounts = []ProductDiscount{
		{IsValid: true, Discount: activeDiscount(domain.DiscountPercentage, "10")},
		{IsValid: true, Discount: activeDiscount(domain.DiscountFixed, "150")},
		{IsValid: false, Discount: activeDiscount(domain.DiscountFixed, "900")},
	}

	price, _ = p.FinalPrice(now)
	assert.True(t, dec("850").Equal(price), "best valid discount wins")

	p.UnitPrice = decimal.NullDecimal{}
	_, ok = p.FinalPrice(now)
	assert.False(t, ok)
}

func TestProduct_Volume(t *testing.T) {
	p := &Product{
		Length: decimal.NewNullDecimal(dec("2")),
		Width:  decimal.NewNullDecimal(dec("3")),
	}
	_, ok := p.Volume()
	assert.False(t, ok)

	p.Height = decimal.NewNullDecimal(dec("4"))
	v, ok := p.Volume()
	assert.True(t, ok)
	assert.True(t, dec("24").Equal(v))
}

func TestCustomRequestControl_RequestsAreOpen(t *testing.T) {
	c := &CustomRequestControl{AllowCustomRequests: true}
	open, _ := c.RequestsAreOpen(1000)
	assert.True(t, open, "zero cap means unlimited")

	c.MaxPendingRequests = 3
	open, _ = c.RequestsAreOpen(2)
	assert.True(t, open)
	open, reason := c.RequestsAreOpen(3)
	assert.False(t, open)
	assert.Equal(t, MsgCustomRequestsFull, reason)

	c.AllowCustomRequests = false
	open, reason = c.RequestsAreOpen(0)
	assert.False(t, open)
	assert.Equal(t, MsgCustomRequestsClosed, reason)

	c.DisableReason = "Workshop closed for maintenance"
	_, reason = c.RequestsAreOpen(0)
	assert.Equal(t, "Workshop closed for maintenance", reason)
}

func TestVerificationCode_IsValid(t *testing.T) {
	code := &VerificationCode{IsPending: true, CreatedAt: now.Add(-10 * time.Minute)}

	assert.True(t, code.IsValid(now, 15*time.Minute))
	assert.False(t, code.IsValid(now, 10*time.Minute))

	code.IsPending = false
	assert.False(t, code.IsValid(now, 15*time.Minute))
}

func TestServiceCategory_RequiredFields(t *testing.T) {
	c := &ServiceCategory{RequiresDimensions: true, RequiresMaterial: true}
	assert.Equal(t, []string{"length", "width", "height", "material"}, c.RequiredFields())
	assert.Empty(t, (&ServiceCategory{}).RequiredFields())
}
