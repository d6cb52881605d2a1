package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/validator"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrDiscountNotFound        = errors.New("discount not found")
	ErrProductDiscountNotFound = errors.New("discount is not attached to this product")
	ErrDiscountAlreadyAttached = errors.New("discount is already attached to this product")
)

var hundred = decimal.NewFromInt(100)

// DiscountService manages discounts and their product attachments
type DiscountService struct {
	discountRepo repositories.DiscountRepository
	productRepo  repositories.ProductRepository
	now          func() time.Time
}

func NewDiscountService(discountRepo repositories.DiscountRepository, productRepo repositories.ProductRepository) *DiscountService {
	return &DiscountService{discountRepo: discountRepo, productRepo: productRepo, now: time.Now}
}

type DiscountInput struct {
	Name          string          `json:"name" validate:"required,max=100"`
	DiscountType  string          `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	IsActive      *bool           `json:"is_active"`
	StartDate     time.Time       `json:"start_date" validate:"required"`
	EndDate       time.Time       `json:"end_date" validate:"required"`
}

type AttachDiscountInput struct {
	ProductID  uint  `json:"product_id" validate:"required"`
	DiscountID uint  `json:"discount_id" validate:"required"`
	IsValid    *bool `json:"is_valid"`
}

// List returns every discount to staff and only currently valid ones otherwise
func (s *DiscountService) List(ctx context.Context, all bool) ([]*models.Discount, error) {
	if all {
		return s.discountRepo.List(ctx, nil)
	}
	now := s.now()
	return s.discountRepo.List(ctx, &now)
}

func (s *DiscountService) Get(ctx context.Context, id uint) (*models.Discount, error) {
	discount, err := s.discountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}
	return discount, nil
}

func (s *DiscountService) Create(ctx context.Context, input *DiscountInput) (*models.Discount, error) {
	discount := &models.Discount{}
	if err := applyDiscountInput(discount, input); err != nil {
		return nil, err
	}
	if err := s.discountRepo.Create(ctx, discount); err != nil {
		return nil, err
	}
	return discount, nil
}

func (s *DiscountService) Update(ctx context.Context, id uint, input *DiscountInput) (*models.Discount, error) {
	discount, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyDiscountInput(discount, input); err != nil {
		return nil, err
	}
	if err := s.discountRepo.Update(ctx, discount); err != nil {
		return nil, err
	}
	return discount, nil
}

func (s *DiscountService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.discountRepo.Delete(ctx, id)
}

// ============================================================
// Product discounts
// ============================================================

func (s *DiscountService) ListForProduct(ctx context.Context, productID uint) ([]*models.ProductDiscount, error) {
	return s.discountRepo.ListForProduct(ctx, productID)
}

func (s *DiscountService) Attach(ctx context.Context, input *AttachDiscountInput) (*models.ProductDiscount, error) {
	if _, err := s.productRepo.GetByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	discount, err := s.Get(ctx, input.DiscountID)
	if err != nil {
		return nil, err
	}

	existing, err := s.discountRepo.ListForProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	for _, pd := range existing {
		if pd.DiscountID == input.DiscountID {
			return nil, ErrDiscountAlreadyAttached
		}
	}

	pd := &models.ProductDiscount{
		ProductID:  input.ProductID,
		DiscountID: input.DiscountID,
		IsValid:    input.IsValid == nil || *input.IsValid,
	}
	if err := s.discountRepo.AttachToProduct(ctx, pd); err != nil {
		return nil, err
	}
	pd.Discount = discount
	return pd, nil
}

func (s *DiscountService) Detach(ctx context.Context, productID, discountID uint) error {
	removed, err := s.discountRepo.DetachFromProduct(ctx, productID, discountID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrProductDiscountNotFound
	}
	return nil
}

// applyDiscountInput validates the window and value before copying them over
func applyDiscountInput(d *models.Discount, input *DiscountInput) error {
	fields := validator.FieldErrors{}
	dtype := domain.DiscountType(input.DiscountType)

	if !input.DiscountValue.IsPositive() {
		fields["discount_value"] = "Ensure this value is greater than 0."
	} else if dtype == domain.DiscountPercentage && input.DiscountValue.GreaterThan(hundred) {
		fields["discount_value"] = "Percentage discounts cannot exceed 100."
	}
	if !input.EndDate.After(input.StartDate) {
		fields["end_date"] = "End date must be after start date."
	}
	if len(fields) > 0 {
		return fields
	}

	d.Name = strings.TrimSpace(input.Name)
	d.DiscountType = dtype
	d.DiscountValue = input.DiscountValue
	d.StartDate = input.StartDate
	d.EndDate = input.EndDate
	d.IsActive = input.IsActive == nil || *input.IsActive
	return nil
}
