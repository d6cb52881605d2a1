package services

import (
	"context"
	"testing"

	"makerhub-api/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWishlistFixture() (*WishlistService, *fakeWishlistRepo) {
	products := newFakeProductRepo(
		&models.Product{ID: 1, Name: "Vase", Published: true, UnitPrice: decimal.NewNullDecimal(dec("1000.00"))},
		&models.Product{ID: 2, Name: "Draft", Published: false},
	)
	repo := newFakeWishlistRepo(products)
	svc := NewWishlistService(repo, products)
	svc.now = clock
	return svc, repo
}

func TestWishlistAddProduct(t *testing.T) {
	svc, _ := newWishlistFixture()
	ctx := context.Background()

	out, err := svc.AddProduct(ctx, 7, 1)
	require.NoError(t, err)
	require.Len(t, out.Products, 1)
	assert.Equal(t, uint(1), out.Products[0].ID)

	again, err := svc.AddProduct(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, out.ID, again.ID)
	assert.Len(t, again.Products, 1, "adding twice keeps one entry")

	other, err := svc.Get(ctx, 8)
	require.NoError(t, err)
	assert.NotEqual(t, out.ID, other.ID)
	assert.Empty(t, other.Products)
}

func TestWishlistAddProduct_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		productID uint
	}{
		{"unknown product", 99},
		{"unpublished product", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newWishlistFixture()
			_, err := svc.AddProduct(context.Background(), 7, tt.productID)
			assert.ErrorIs(t, err, ErrProductNotFound)
			assert.Empty(t, repo.wishlists, "no wishlist is created for a rejected add")
		})
	}
}

func TestWishlistRemoveProduct(t *testing.T) {
	svc, _ := newWishlistFixture()
	ctx := context.Background()
	_, err := svc.AddProduct(ctx, 7, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveProduct(ctx, 7, 1))
	out, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, out.Products)

	assert.ErrorIs(t, svc.RemoveProduct(ctx, 7, 1), ErrWishlistItemNotFound)
}
