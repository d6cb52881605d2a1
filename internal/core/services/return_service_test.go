package services

import (
	"context"
	"testing"
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveredOrder(id, userID uint, deliveredAgo time.Duration) *models.Order {
	o := pendingOrder(id, userID)
	o.Status = domain.OrderDelivered
	o.UpdatedAt = fixedNow.Add(-deliveredAgo)
	return o
}

func newReturnFixture(orders ...*models.Order) (*ReturnService, *fakeReturnRepo, *fakePublisher) {
	returns := newFakeReturnRepo()
	pub := &fakePublisher{}
	svc := NewReturnService(returns, newFakeOrderRepo(orders...), pub)
	svc.now = clock
	return svc, returns, pub
}

func returnInput(orderID uint, amount string) *CreateReturnInput {
	return &CreateReturnInput{
		OrderID:               orderID,
		Reason:                "Damaged",
		DetailedReason:        "Arrived cracked",
		RequestedRefundAmount: dec(amount),
	}
}

func TestReturnCreate(t *testing.T) {
	svc, _, pub := newReturnFixture(deliveredOrder(1, 7, 48*time.Hour))

	ret, err := svc.Create(context.Background(), 7, returnInput(1, "400"))
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnRequested, ret.Status)
	assert.Regexp(t, `^RTN-20260315-[0-9A-F]{8}$`, ret.ReturnNumber)
	assert.True(t, dec("400").Equal(ret.RequestedRefundAmount))
	assert.Equal(t, []string{events.ReturnRequested}, pub.subjects)
}

func TestReturnCreate_Eligibility(t *testing.T) {
	tests := []struct {
		name   string
		order  *models.Order
		userID uint
		amount string
		want   error
	}{
		{"not delivered", pendingOrder(1, 7), 7, "100", ErrOrderNotReturnable},
		{"outside window", deliveredOrder(1, 7, 31*24*time.Hour), 7, "100", ErrOrderNotReturnable},
		{"someone else's", deliveredOrder(1, 8, time.Hour), 7, "100", ErrOrderNotFound},
		{"zero amount", deliveredOrder(1, 7, time.Hour), 7, "0", ErrInvalidRefundAmount},
		{"above total", deliveredOrder(1, 7, time.Hour), 7, "1000.01", ErrInvalidRefundAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newReturnFixture(tt.order)
			_, err := svc.Create(context.Background(), tt.userID, returnInput(1, tt.amount))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReturnCreate_WindowIsInclusive(t *testing.T) {
	svc, _, _ := newReturnFixture(deliveredOrder(1, 7, 30*24*time.Hour+time.Hour))

	_, err := svc.Create(context.Background(), 7, returnInput(1, "1000"))
	assert.NoError(t, err)
}

func TestReturnCreate_OneActivePerOrder(t *testing.T) {
	svc, _, _ := newReturnFixture(deliveredOrder(1, 7, time.Hour))
	ctx := context.Background()

	first, err := svc.Create(ctx, 7, returnInput(1, "100"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, 7, returnInput(1, "100"))
	assert.ErrorIs(t, err, ErrActiveReturnExists)

	_, err = svc.Cancel(ctx, first.ID, 7, domain.RoleCustomer)
	require.NoError(t, err)

	_, err = svc.Create(ctx, 7, returnInput(1, "100"))
	assert.NoError(t, err, "a cancelled return frees the order")
}

func TestReturnWorkflow_CompleteOpensRefund(t *testing.T) {
	svc, returns, _ := newReturnFixture(deliveredOrder(1, 7, time.Hour))
	ctx := context.Background()

	ret, err := svc.Create(ctx, 7, returnInput(1, "400"))
	require.NoError(t, err)

	_, _, err = svc.Complete(ctx, ret.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "must be approved first")

	override := dec("350")
	ret, err = svc.Approve(ctx, ret.ID, &ApproveReturnInput{ApprovedRefundAmount: &override})
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnApproved, ret.Status)
	require.NotNil(t, ret.ApprovedAt)

	ret, refund, err := svc.Complete(ctx, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnCompleted, ret.Status)
	assert.Equal(t, domain.RefundPending, refund.Status)
	assert.True(t, dec("350").Equal(refund.Amount))
	assert.Equal(t, ret.ID, *refund.ReturnID)
	assert.Contains(t, refund.Reason, ret.ReturnNumber)
	assert.Len(t, returns.refunds, 1)
}

func TestReturnApprove_NonPositiveOverrideKeepsRequested(t *testing.T) {
	svc, _, _ := newReturnFixture(deliveredOrder(1, 7, time.Hour))
	ctx := context.Background()

	ret, err := svc.Create(ctx, 7, returnInput(1, "400"))
	require.NoError(t, err)

	zero := decimal.Zero
	ret, err = svc.Approve(ctx, ret.ID, &ApproveReturnInput{ApprovedRefundAmount: &zero})
	require.NoError(t, err)
	assert.True(t, dec("400").Equal(ret.ApprovedRefundAmount.Decimal))
}

func TestReturnReject(t *testing.T) {
	svc, _, _ := newReturnFixture(deliveredOrder(1, 7, time.Hour))
	ctx := context.Background()

	ret, err := svc.Create(ctx, 7, returnInput(1, "400"))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, ret.ID, &RejectReturnInput{RejectionReason: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ret, err = svc.Reject(ctx, ret.ID, &RejectReturnInput{RejectionReason: "Used item"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnRejected, ret.Status)
	assert.Equal(t, "Used item", ret.RejectionReason)

	_, err = svc.Cancel(ctx, ret.ID, 7, domain.RoleCustomer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReturnComplete_OnlyFirstConcurrentCallOpensRefund(t *testing.T) {
	svc, returns, _ := newReturnFixture(deliveredOrder(1, 7, time.Hour))
	ctx := context.Background()

	ret, err := svc.Create(ctx, 7, returnInput(1, "400"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, ret.ID, nil)
	require.NoError(t, err)

	// two reviewers loaded the approved return at the same time
	first, err := returns.GetByID(ctx, ret.ID)
	require.NoError(t, err)
	second, err := returns.GetByID(ctx, ret.ID)
	require.NoError(t, err)

	require.NoError(t, first.Complete())
	require.NoError(t, returns.CompleteWithRefund(ctx, first, &models.Refund{Status: domain.RefundPending}))

	require.NoError(t, second.Complete())
	err = returns.CompleteWithRefund(ctx, second, &models.Refund{Status: domain.RefundPending})
	assert.ErrorIs(t, err, domain.ErrStaleState)
	assert.Len(t, returns.refunds, 1)

	_, _, err = svc.Complete(ctx, ret.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, returns.refunds, 1)
}

func TestReturnReview_LosesToConcurrentCancel(t *testing.T) {
	svc, returns, _ := newReturnFixture(deliveredOrder(1, 7, time.Hour))
	ctx := context.Background()

	ret, err := svc.Create(ctx, 7, returnInput(1, "400"))
	require.NoError(t, err)

	// staff loads the return, then the customer cancels it
	stale, err := returns.GetByID(ctx, ret.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, ret.ID, 7, domain.RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, stale.Approve(nil, fixedNow))
	err = returns.Transition(ctx, stale, domain.ReturnRequested)
	assert.ErrorIs(t, err, domain.ErrStaleState)
	assert.Equal(t, domain.ReturnCancelled, returns.returns[ret.ID].Status)
}
