package repositories

import (
	"context"
	"errors"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ============================================================
// Categories
// ============================================================

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.ServiceCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.ServiceCategory, error) {
	var category models.ServiceCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]*models.ServiceCategory, error) {
	var categories []*models.ServiceCategory
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Update(ctx context.Context, category *models.ServiceCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ServiceCategory{}, id).Error
}

func (r *categoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceCategory{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) NameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceCategory{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

// CountProducts is checked before delete, products protect their category
func (r *categoryRepository) CountProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// ============================================================
// Products
// ============================================================

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// withPricing preloads everything FinalPrice needs
func withPricing(db *gorm.DB) *gorm.DB {
	return db.Preload("Discounts.Discount")
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := withPricing(r.db.WithContext(ctx)).
		Preload("Category").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, id ASC")
		}).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDs loads products keyed by id; missing ids are simply absent
func (r *productRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Product, error) {
	var products []*models.Product
	if err := withPricing(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter, offset, limit int) ([]*models.Product, int64, error) {
	var products []*models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR short_description LIKE ? OR material LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := withPricing(query).
		Preload("Category").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductMedia{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductDiscount{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
}

func (r *productRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *productRepository) NameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

// ============================================================
// Media
// ============================================================

type mediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *models.ProductMedia) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *mediaRepository) GetByID(ctx context.Context, id uint) (*models.ProductMedia, error) {
	var media models.ProductMedia
	if err := r.db.WithContext(ctx).First(&media, id).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepository) ListByProduct(ctx context.Context, productID uint) ([]*models.ProductMedia, error) {
	var media []*models.ProductMedia
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("display_order ASC, id ASC").
		Find(&media).Error
	return media, err
}

func (r *mediaRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ProductMedia{}, id).Error
}

// ============================================================
// Feedback
// ============================================================

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).First(&feedback, id).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) List(ctx context.Context, filter FeedbackFilter, offset, limit int) ([]*models.Feedback, int64, error) {
	var items []*models.Feedback
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Feedback{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *feedbackRepository) SetPublished(ctx context.Context, id uint, published bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ?", id).
		Update("published", published).Error
}

func (r *feedbackRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Feedback{}, id).Error
}

// ============================================================
// Custom requests
// ============================================================

type customRequestRepository struct {
	db *gorm.DB
}

func NewCustomRequestRepository(db *gorm.DB) CustomRequestRepository {
	return &customRequestRepository{db: db}
}

func (r *customRequestRepository) Create(ctx context.Context, req *models.CustomRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *customRequestRepository) GetByID(ctx context.Context, id uint) (*models.CustomRequest, error) {
	var req models.CustomRequest
	if err := r.db.WithContext(ctx).Preload("Category").First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *customRequestRepository) List(ctx context.Context, filter CustomRequestFilter, offset, limit int) ([]*models.CustomRequest, int64, error) {
	var items []*models.CustomRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CustomRequest{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Category").Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *customRequestRepository) UpdateStatus(ctx context.Context, id uint, status domain.CustomRequestStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *customRequestRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CustomRequest{}).
		Where("status = ?", domain.CustomRequestPending).
		Count(&count).Error
	return count, err
}

// GetControl returns the singleton row, creating an open default on first use
func (r *customRequestRepository) GetControl(ctx context.Context) (*models.CustomRequestControl, error) {
	var control models.CustomRequestControl
	err := r.db.WithContext(ctx).Order("id ASC").First(&control).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		control = models.CustomRequestControl{AllowCustomRequests: true}
		if err := r.db.WithContext(ctx).Create(&control).Error; err != nil {
			return nil, err
		}
		return &control, nil
	}
	if err != nil {
		return nil, err
	}
	return &control, nil
}

func (r *customRequestRepository) SaveControl(ctx context.Context, control *models.CustomRequestControl) error {
	return r.db.WithContext(ctx).Save(control).Error
}

// ============================================================
// Wishlist
// ============================================================

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) GetOrCreate(ctx context.Context, userID uint) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := r.db.WithContext(ctx).
		Where(models.Wishlist{UserID: userID}).
		Preload("Items.Product.Discounts.Discount").
		FirstOrCreate(&wishlist).Error
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// AddItem is idempotent per (wishlist, product)
func (r *wishlistRepository) AddItem(ctx context.Context, wishlistID, productID uint) error {
	item := models.WishlistItem{WishlistID: wishlistID, ProductID: productID, AddedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item).Error
}

func (r *wishlistRepository) RemoveItem(ctx context.Context, wishlistID, productID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}
