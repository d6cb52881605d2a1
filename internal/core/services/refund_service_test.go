package services

import (
	"context"
	"testing"
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/paypack"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRefund(id, userID uint) *models.Refund {
	return &models.Refund{
		ID:           id,
		RefundNumber: "REF-20260315-0000000" + string(rune('0'+id)),
		OrderID:      1,
		UserID:       userID,
		Amount:       dec("350"),
		Status:       domain.RefundPending,
		Reason:       "Return RTN-20260315-AAAAAAAA: Damaged",
	}
}

func newRefundFixture(gw *fakeGateway, refunds ...*models.Refund) (*RefundService, *fakePaymentRepo, *fakePublisher) {
	payments := &fakePaymentRepo{}
	pub := &fakePublisher{}
	svc := NewRefundService(newFakeRefundRepo(refunds...), payments, gw, pub)
	svc.now = clock
	return svc, payments, pub
}

func TestRefundComplete_Manual(t *testing.T) {
	gw := &fakeGateway{}
	svc, payments, pub := newRefundFixture(gw, pendingRefund(1, 7))

	rf, err := svc.Complete(context.Background(), 1, &CompleteRefundInput{TransactionID: " bank-991 "})
	require.NoError(t, err)

	assert.Equal(t, domain.RefundCompleted, rf.Status)
	assert.Equal(t, "bank-991", rf.TransactionID)
	require.NotNil(t, rf.CompletedAt)
	assert.Equal(t, fixedNow, *rf.CompletedAt)
	assert.Zero(t, gw.calls)
	assert.Empty(t, payments.payments)
	assert.Equal(t, []string{events.RefundCompleted}, pub.subjects)

	_, err = svc.Complete(context.Background(), 1, &CompleteRefundInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRefundComplete_Payout(t *testing.T) {
	gw := &fakeGateway{cashOut: paypack.Result{OK: true, Ref: "out-1", Status: "pending"}}
	svc, payments, _ := newRefundFixture(gw, pendingRefund(1, 7))

	rf, err := svc.Complete(context.Background(), 1, &CompleteRefundInput{Payout: true, Phone: "250788123456"})
	require.NoError(t, err)

	assert.Equal(t, "out-1", rf.TransactionID)
	require.Len(t, payments.payments, 1)
	p := payments.payments[0]
	assert.Equal(t, domain.PaymentCashOut, p.Direction)
	assert.Equal(t, uint(1), *p.RefundID)
	assert.Equal(t, "0788123456", p.Phone)
	assert.True(t, dec("350").Equal(p.Amount))
}

func TestRefundComplete_PayoutFailureKeepsPending(t *testing.T) {
	gw := &fakeGateway{cashOut: paypack.Result{OK: false, Error: paypack.MsgCashoutFailed}}
	svc, payments, pub := newRefundFixture(gw, pendingRefund(1, 7))

	_, err := svc.Complete(context.Background(), 1, &CompleteRefundInput{Payout: true, Phone: "0788123456"})
	assert.ErrorIs(t, err, ErrPaymentProvider)

	rf, err := svc.Get(context.Background(), 1, 1, domain.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundPending, rf.Status)
	require.Len(t, payments.payments, 1)
	assert.Equal(t, domain.PaymentFailed, payments.payments[0].Status)
	assert.Empty(t, pub.subjects)
}

func TestRefundComplete_PayoutNeedsPhone(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newRefundFixture(gw, pendingRefund(1, 7))

	_, err := svc.Complete(context.Background(), 1, &CompleteRefundInput{Payout: true})
	var fields validator.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "phone")
	assert.Zero(t, gw.calls)
}

func TestRefundFail(t *testing.T) {
	svc, _, _ := newRefundFixture(&fakeGateway{}, pendingRefund(1, 7))

	rf, err := svc.Fail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundFailed, rf.Status)

	_, err = svc.Complete(context.Background(), 1, &CompleteRefundInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRefundListAndGet_Scoped(t *testing.T) {
	svc, _, _ := newRefundFixture(&fakeGateway{}, pendingRefund(1, 7), pendingRefund(2, 8))
	ctx := context.Background()
	p := pagination.New(1, 20)

	mine, err := svc.List(ctx, 7, domain.RoleCustomer, "", p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Meta.Total)

	all, err := svc.List(ctx, 1, domain.RoleAdmin, "pending", p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Meta.Total)

	_, err = svc.List(ctx, 1, domain.RoleAdmin, "lost", p)
	assert.ErrorIs(t, err, ErrInvalidRefundStatus)

	_, err = svc.Get(ctx, 2, 7, domain.RoleCustomer)
	assert.ErrorIs(t, err, ErrRefundNotFound)
}

func TestRefundComplete_ClaimedRefundIsNotPaidTwice(t *testing.T) {
	gw := &fakeGateway{cashOut: paypack.Result{OK: true, Ref: "out-1", Status: "pending"}}
	refunds := newFakeRefundRepo(pendingRefund(1, 7))
	payments := &fakePaymentRepo{}
	svc := NewRefundService(refunds, payments, gw, &fakePublisher{})
	svc.now = clock
	ctx := context.Background()

	// a concurrent settlement got there first and is still paying out
	claimed, err := refunds.Claim(ctx, 1, fixedNow.Add(-5*time.Second), fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = svc.Complete(ctx, 1, &CompleteRefundInput{Payout: true, Phone: "0788123456"})
	assert.ErrorIs(t, err, ErrRefundBusy)
	assert.Zero(t, gw.calls)
	assert.Empty(t, payments.payments)

	_, err = svc.Fail(ctx, 1)
	assert.ErrorIs(t, err, ErrRefundBusy, "an in-flight payout cannot be failed under it")
	assert.Equal(t, domain.RefundPending, refunds.refunds[1].Status)
}

func TestRefundComplete_SequentialPayoutsPayOnce(t *testing.T) {
	gw := &fakeGateway{cashOut: paypack.Result{OK: true, Ref: "out-1", Status: "pending"}}
	svc, payments, _ := newRefundFixture(gw, pendingRefund(1, 7))
	ctx := context.Background()
	in := &CompleteRefundInput{Payout: true, Phone: "0788123456"}

	_, err := svc.Complete(ctx, 1, in)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, 1, in)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, gw.calls)
	assert.Len(t, payments.payments, 1)
}

func TestRefundComplete_FailedPayoutReleasesClaim(t *testing.T) {
	gw := &fakeGateway{cashOut: paypack.Result{OK: false, Error: paypack.MsgCashoutFailed}}
	refunds := newFakeRefundRepo(pendingRefund(1, 7))
	svc := NewRefundService(refunds, &fakePaymentRepo{}, gw, &fakePublisher{})
	svc.now = clock
	ctx := context.Background()

	_, err := svc.Complete(ctx, 1, &CompleteRefundInput{Payout: true, Phone: "0788123456"})
	require.ErrorIs(t, err, ErrPaymentProvider)
	assert.Empty(t, refunds.claims)

	gw.cashOut = paypack.Result{OK: true, Ref: "out-2"}
	rf, err := svc.Complete(ctx, 1, &CompleteRefundInput{Payout: true, Phone: "0788123456"})
	require.NoError(t, err)
	assert.Equal(t, "out-2", rf.TransactionID)
}
