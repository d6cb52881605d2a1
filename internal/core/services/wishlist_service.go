package services

import (
	"context"
	"errors"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

var ErrWishlistItemNotFound = errors.New("product is not in the wishlist")

// WishlistService keeps one wishlist per user
type WishlistService struct {
	wishlistRepo repositories.WishlistRepository
	productRepo  repositories.ProductRepository
	now          func() time.Time
}

func NewWishlistService(wishlistRepo repositories.WishlistRepository, productRepo repositories.ProductRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo, now: time.Now}
}

// WishlistOutput lists saved products with their current prices
type WishlistOutput struct {
	ID       uint                      `json:"id"`
	Products []*models.ProductResponse `json:"products"`
}

func (s *WishlistService) Get(ctx context.Context, userID uint) (*WishlistOutput, error) {
	wishlist, err := s.wishlistRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &WishlistOutput{ID: wishlist.ID, Products: []*models.ProductResponse{}}
	for _, item := range wishlist.Items {
		if item.Product != nil {
			out.Products = append(out.Products, item.Product.ToResponse(now))
		}
	}
	return out, nil
}

// AddProduct is idempotent
func (s *WishlistService) AddProduct(ctx context.Context, userID, productID uint) (*WishlistOutput, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Published {
		return nil, ErrProductNotFound
	}

	wishlist, err := s.wishlistRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.wishlistRepo.AddItem(ctx, wishlist.ID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *WishlistService) RemoveProduct(ctx context.Context, userID, productID uint) error {
	wishlist, err := s.wishlistRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	removed, err := s.wishlistRepo.RemoveItem(ctx, wishlist.ID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrWishlistItemNotFound
	}
	return nil
}
