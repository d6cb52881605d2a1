package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/validator"

	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Catalog errors
var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNameTaken = errors.New("a category with this name already exists")
	ErrProductNameTaken  = errors.New("a product with this name already exists")
	ErrCategoryInUse     = errors.New("category still has products")
)

// CatalogService manages service categories and products
type CatalogService struct {
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
	now          func() time.Time
}

func NewCatalogService(categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository) *CatalogService {
	return &CatalogService{categoryRepo: categoryRepo, productRepo: productRepo, now: time.Now}
}

// ============================================================
// Categories
// ============================================================

type CreateCategoryInput struct {
	Name               string `json:"name" validate:"required,max=100"`
	Slug               string `json:"slug" validate:"omitempty,max=120"`
	Description        string `json:"description"`
	RequiresDimensions bool   `json:"requires_dimensions"`
	RequiresMaterial   bool   `json:"requires_material"`
	IsActive           *bool  `json:"is_active" copier:"-"`
}

type UpdateCategoryInput struct {
	Name               *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description        *string `json:"description"`
	RequiresDimensions *bool   `json:"requires_dimensions"`
	RequiresMaterial   *bool   `json:"requires_material"`
	IsActive           *bool   `json:"is_active"`
}

// RequiredFieldsOutput tells clients which product fields a category needs
type RequiredFieldsOutput struct {
	CategoryID         uint     `json:"category_id"`
	RequiresDimensions bool     `json:"requires_dimensions"`
	RequiresMaterial   bool     `json:"requires_material"`
	RequiredFields     []string `json:"required_fields"`
}

func (s *CatalogService) ListCategories(ctx context.Context, includeInactive bool) ([]*models.ServiceCategory, error) {
	return s.categoryRepo.List(ctx, !includeInactive)
}

// GetCategory hides inactive categories from non-staff callers
func (s *CatalogService) GetCategory(ctx context.Context, id uint, includeInactive bool) (*models.ServiceCategory, error) {
	category, err := s.getCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !category.IsActive && !includeInactive {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, input *CreateCategoryInput) (*models.ServiceCategory, error) {
	name := strings.TrimSpace(input.Name)
	taken, err := s.categoryRepo.NameExists(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCategoryNameTaken
	}

	var category models.ServiceCategory
	if err := copier.Copy(&category, input); err != nil {
		return nil, err
	}
	category.Name = name
	category.IsActive = input.IsActive == nil || *input.IsActive

	base := input.Slug
	if base == "" {
		base = name
	}
	if category.Slug, err = uniqueSlug(ctx, base, s.categoryRepo.SlugExists); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		return nil, err
	}

	log.Printf("✅ Category created: %s (%s)", category.Name, category.Slug)
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, input *UpdateCategoryInput) (*models.ServiceCategory, error) {
	category, err := s.getCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		taken, err := s.categoryRepo.NameExists(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCategoryNameTaken
		}
		input.Name = &name
	}

	if err := copier.CopyWithOption(category, input, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses while products still reference the category
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.getCategory(ctx, id); err != nil {
		return err
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	return s.categoryRepo.Delete(ctx, id)
}

func (s *CatalogService) RequiredFields(ctx context.Context, id uint) (*RequiredFieldsOutput, error) {
	category, err := s.getCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RequiredFieldsOutput{
		CategoryID:         category.ID,
		RequiresDimensions: category.RequiresDimensions,
		RequiresMaterial:   category.RequiresMaterial,
		RequiredFields:     category.RequiredFields(),
	}, nil
}

func (s *CatalogService) getCategory(ctx context.Context, id uint) (*models.ServiceCategory, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// ============================================================
// Products
// ============================================================

type CreateProductInput struct {
	CategoryID          uint             `json:"category_id" validate:"required"`
	Name                string           `json:"name" validate:"required,max=200"`
	Slug                string           `json:"slug" validate:"omitempty,max=220"`
	ShortDescription    string           `json:"short_description" validate:"max=255"`
	DetailedDescription string           `json:"detailed_description"`
	UnitPrice           *decimal.Decimal `json:"unit_price" copier:"-"`
	Currency            string           `json:"currency" validate:"omitempty,len=3"`
	Material            string           `json:"material" validate:"max=100"`
	Length              *decimal.Decimal `json:"length" copier:"-"`
	Width               *decimal.Decimal `json:"width" copier:"-"`
	Height              *decimal.Decimal `json:"height" copier:"-"`
	MeasurementUnit     string           `json:"measurement_unit" validate:"omitempty,max=10"`
	AvailableSizes      []string         `json:"available_sizes"`
	AvailableColors     []string         `json:"available_colors"`
	AvailableMaterials  []string         `json:"available_materials"`
	Published           bool             `json:"published"`
}

type UpdateProductInput struct {
	CategoryID          *uint            `json:"category_id"`
	Name                *string          `json:"name" validate:"omitempty,min=1,max=200"`
	ShortDescription    *string          `json:"short_description" validate:"omitempty,max=255"`
	DetailedDescription *string          `json:"detailed_description"`
	UnitPrice           *decimal.Decimal `json:"unit_price" copier:"-"`
	Currency            *string          `json:"currency" validate:"omitempty,len=3"`
	Material            *string          `json:"material" validate:"omitempty,max=100"`
	Length              *decimal.Decimal `json:"length" copier:"-"`
	Width               *decimal.Decimal `json:"width" copier:"-"`
	Height              *decimal.Decimal `json:"height" copier:"-"`
	MeasurementUnit     *string          `json:"measurement_unit" validate:"omitempty,max=10"`
	AvailableSizes      []string         `json:"available_sizes"`
	AvailableColors     []string         `json:"available_colors"`
	AvailableMaterials  []string         `json:"available_materials"`
	Published           *bool            `json:"published"`
}

// ListProductsInput narrows a product listing
type ListProductsInput struct {
	CategoryID      *uint
	Search          string
	IncludeUnlisted bool
}

func (s *CatalogService) ListProducts(ctx context.Context, input *ListProductsInput, p *pagination.Params) (*pagination.Response, error) {
	filter := repositories.ProductFilter{
		CategoryID:    input.CategoryID,
		Search:        strings.TrimSpace(input.Search),
		PublishedOnly: !input.IncludeUnlisted,
	}
	products, total, err := s.productRepo.List(ctx, filter, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*models.ProductResponse, len(products))
	for i, product := range products {
		out[i] = product.ToResponse(now)
	}
	return pagination.NewResponse(out, p, total), nil
}

// GetProduct hides unpublished products from non-staff callers
func (s *CatalogService) GetProduct(ctx context.Context, id uint, includeUnlisted bool) (*models.ProductResponse, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Published && !includeUnlisted {
		return nil, ErrProductNotFound
	}
	return product.ToResponse(s.now()), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, uploaderID uint, input *CreateProductInput) (*models.ProductResponse, error) {
	category, err := s.getCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	taken, err := s.productRepo.NameExists(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrProductNameTaken
	}

	var product models.Product
	if err := copier.Copy(&product, input); err != nil {
		return nil, err
	}
	product.Name = name
	product.UploadedByID = &uploaderID
	product.UnitPrice = nullDecimal(input.UnitPrice)
	product.Length = nullDecimal(input.Length)
	product.Width = nullDecimal(input.Width)
	product.Height = nullDecimal(input.Height)
	if product.Currency == "" {
		product.Currency = "RWF"
	}
	if product.MeasurementUnit == "" {
		product.MeasurementUnit = "cm"
	}

	if err := validateProduct(&product, category); err != nil {
		return nil, err
	}

	base := input.Slug
	if base == "" {
		base = name
	}
	if product.Slug, err = uniqueSlug(ctx, base, s.productRepo.SlugExists); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return nil, err
	}

	log.Printf("✅ Product created: %s (%s)", product.Name, product.Slug)
	return product.ToResponse(s.now()), nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, input *UpdateProductInput) (*models.ProductResponse, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		taken, err := s.productRepo.NameExists(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrProductNameTaken
		}
		input.Name = &name
	}

	if err := copier.CopyWithOption(product, input, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, err
	}
	if input.UnitPrice != nil {
		product.UnitPrice = nullDecimal(input.UnitPrice)
	}
	if input.Length != nil {
		product.Length = nullDecimal(input.Length)
	}
	if input.Width != nil {
		product.Width = nullDecimal(input.Width)
	}
	if input.Height != nil {
		product.Height = nullDecimal(input.Height)
	}

	category, err := s.getCategory(ctx, product.CategoryID)
	if err != nil {
		return nil, err
	}
	product.Category = nil
	if err := validateProduct(product, category); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product.ToResponse(s.now()), nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.getProduct(ctx, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

func (s *CatalogService) getProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// validateProduct checks amounts and the category's required fields
func validateProduct(p *models.Product, category *models.ServiceCategory) error {
	fields := validator.FieldErrors{}

	if p.UnitPrice.Valid && p.UnitPrice.Decimal.IsNegative() {
		fields["unit_price"] = "Ensure this value is greater than or equal to 0."
	}
	for name, v := range map[string]decimal.NullDecimal{"length": p.Length, "width": p.Width, "height": p.Height} {
		if v.Valid && v.Decimal.IsNegative() {
			fields[name] = "Ensure this value is greater than or equal to 0."
		}
	}

	if category.RequiresDimensions {
		for name, v := range map[string]decimal.NullDecimal{"length": p.Length, "width": p.Width, "height": p.Height} {
			if !v.Valid {
				fields[name] = fmt.Sprintf("This field is required for %s.", category.Name)
			}
		}
	}
	if category.RequiresMaterial && strings.TrimSpace(p.Material) == "" {
		fields["material"] = fmt.Sprintf("This field is required for %s.", category.Name)
	}

	if len(fields) > 0 {
		return fields
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// uniqueSlug appends -1, -2, ... until exists reports a free slug
func uniqueSlug(ctx context.Context, source string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slug.Make(source)
	if base == "" {
		base = "item"
	}
	result := base
	for i := 1; ; i++ {
		taken, err := exists(ctx, result)
		if err != nil {
			return "", err
		}
		if !taken {
			return result, nil
		}
		result = fmt.Sprintf("%s-%d", base, i)
	}
}
