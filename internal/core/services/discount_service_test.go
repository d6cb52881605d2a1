package services

import (
	"context"
	"testing"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscountFixture(discounts ...*models.Discount) (*DiscountService, *fakeDiscountRepo) {
	repo := newFakeDiscountRepo(discounts...)
	products := newFakeProductRepo(&models.Product{ID: 1, Name: "Vase", Published: true})
	svc := NewDiscountService(repo, products)
	svc.now = clock
	return svc, repo
}

func discountInput(kind domain.DiscountType, value string, start, end time.Time) *DiscountInput {
	return &DiscountInput{
		Name:          " Spring sale ",
		DiscountType:  string(kind),
		DiscountValue: dec(value),
		StartDate:     start,
		EndDate:       end,
	}
}

func TestDiscountCreate_Validation(t *testing.T) {
	start, end := fixedNow, fixedNow.Add(72*time.Hour)

	tests := []struct {
		name      string
		input     *DiscountInput
		wantField string
	}{
		{"zero value", discountInput(domain.DiscountFixed, "0", start, end), "discount_value"},
		{"negative value", discountInput(domain.DiscountFixed, "-5", start, end), "discount_value"},
		{"percentage over 100", discountInput(domain.DiscountPercentage, "100.01", start, end), "discount_value"},
		{"end before start", discountInput(domain.DiscountFixed, "500", end, start), "end_date"},
		{"empty window", discountInput(domain.DiscountFixed, "500", start, start), "end_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newDiscountFixture()
			_, err := svc.Create(context.Background(), tt.input)
			var fields validator.FieldErrors
			require.ErrorAs(t, err, &fields)
			assert.Contains(t, fields, tt.wantField)
			assert.Empty(t, repo.discounts)
		})
	}

	t.Run("100 percent and large fixed amounts are allowed", func(t *testing.T) {
		svc, _ := newDiscountFixture()
		d, err := svc.Create(context.Background(), discountInput(domain.DiscountPercentage, "100", start, end))
		require.NoError(t, err)
		assert.Equal(t, "Spring sale", d.Name)
		assert.True(t, d.IsActive, "active unless told otherwise")

		_, err = svc.Create(context.Background(), discountInput(domain.DiscountFixed, "250000", start, end))
		require.NoError(t, err)
	})
}

func TestDiscountList_ValidOnlyUnlessAll(t *testing.T) {
	inactive := validDiscount(2, domain.DiscountFixed, "100")
	inactive.IsActive = false
	expired := validDiscount(3, domain.DiscountFixed, "100")
	expired.EndDate = fixedNow.Add(-time.Hour)
	upcoming := validDiscount(4, domain.DiscountFixed, "100")
	upcoming.StartDate = fixedNow.Add(time.Hour)
	svc, _ := newDiscountFixture(validDiscount(1, domain.DiscountFixed, "100"), inactive, expired, upcoming)

	current, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, uint(1), current[0].ID)

	all, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDiscountAttach(t *testing.T) {
	tests := []struct {
		name  string
		input *AttachDiscountInput
		want  error
	}{
		{"unknown product", &AttachDiscountInput{ProductID: 9, DiscountID: 1}, ErrProductNotFound},
		{"unknown discount", &AttachDiscountInput{ProductID: 1, DiscountID: 9}, ErrDiscountNotFound},
		{"already attached", &AttachDiscountInput{ProductID: 1, DiscountID: 1}, ErrDiscountAlreadyAttached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newDiscountFixture(validDiscount(1, domain.DiscountFixed, "100"))
			_, err := svc.Attach(context.Background(), &AttachDiscountInput{ProductID: 1, DiscountID: 1})
			require.NoError(t, err)

			_, err = svc.Attach(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, repo.attached, 1)
		})
	}

	t.Run("is_valid may be switched off", func(t *testing.T) {
		svc, _ := newDiscountFixture(validDiscount(1, domain.DiscountFixed, "100"))
		off := false
		pd, err := svc.Attach(context.Background(), &AttachDiscountInput{ProductID: 1, DiscountID: 1, IsValid: &off})
		require.NoError(t, err)
		assert.False(t, pd.IsValid)
		require.NotNil(t, pd.Discount)
		assert.Equal(t, uint(1), pd.Discount.ID)
	})
}

func TestDiscountDetach(t *testing.T) {
	svc, repo := newDiscountFixture(validDiscount(1, domain.DiscountFixed, "100"))
	ctx := context.Background()
	_, err := svc.Attach(ctx, &AttachDiscountInput{ProductID: 1, DiscountID: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Detach(ctx, 1, 2), ErrProductDiscountNotFound)
	require.NoError(t, svc.Detach(ctx, 1, 1))
	assert.Empty(t, repo.attached)
	assert.ErrorIs(t, svc.Detach(ctx, 1, 1), ErrProductDiscountNotFound)
}
