package repositories

import (
	"context"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ============================================================
// Identity
// ============================================================

// UserFilter narrows admin user listings
type UserFilter struct {
	Search   string
	IsActive *bool
	Role     domain.Role
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string, excludeID uint) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// VerificationCodeRepository stores mailed one-time codes
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *models.VerificationCode) error
	FindPending(ctx context.Context, email string, label domain.VerificationLabel, code string) (*models.VerificationCode, error)
	MarkUsed(ctx context.Context, id uint) error
	InvalidatePending(ctx context.Context, email string, label domain.VerificationLabel) error
	DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error)
}

// ============================================================
// Catalog
// ============================================================

type CategoryRepository interface {
	Create(ctx context.Context, category *models.ServiceCategory) error
	GetByID(ctx context.Context, id uint) (*models.ServiceCategory, error)
	List(ctx context.Context, activeOnly bool) ([]*models.ServiceCategory, error)
	Update(ctx context.Context, category *models.ServiceCategory) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	NameExists(ctx context.Context, name string, excludeID uint) (bool, error)
	CountProducts(ctx context.Context, id uint) (int64, error)
}

// ProductFilter narrows product listings
type ProductFilter struct {
	CategoryID    *uint
	Search        string
	PublishedOnly bool
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Product, error)
	List(ctx context.Context, filter ProductFilter, offset, limit int) ([]*models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	NameExists(ctx context.Context, name string, excludeID uint) (bool, error)
}

type MediaRepository interface {
	Create(ctx context.Context, media *models.ProductMedia) error
	GetByID(ctx context.Context, id uint) (*models.ProductMedia, error)
	ListByProduct(ctx context.Context, productID uint) ([]*models.ProductMedia, error)
	Delete(ctx context.Context, id uint) error
}

// FeedbackFilter narrows feedback listings
type FeedbackFilter struct {
	ProductID     *uint
	PublishedOnly bool
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	GetByID(ctx context.Context, id uint) (*models.Feedback, error)
	List(ctx context.Context, filter FeedbackFilter, offset, limit int) ([]*models.Feedback, int64, error)
	SetPublished(ctx context.Context, id uint, published bool) error
	Delete(ctx context.Context, id uint) error
}

// CustomRequestFilter narrows custom request listings; a nil UserID lists everyone's
type CustomRequestFilter struct {
	UserID *uint
	Status domain.CustomRequestStatus
}

type CustomRequestRepository interface {
	Create(ctx context.Context, req *models.CustomRequest) error
	GetByID(ctx context.Context, id uint) (*models.CustomRequest, error)
	List(ctx context.Context, filter CustomRequestFilter, offset, limit int) ([]*models.CustomRequest, int64, error)
	UpdateStatus(ctx context.Context, id uint, status domain.CustomRequestStatus) error
	CountPending(ctx context.Context) (int64, error)
	GetControl(ctx context.Context) (*models.CustomRequestControl, error)
	SaveControl(ctx context.Context, control *models.CustomRequestControl) error
}

type WishlistRepository interface {
	GetOrCreate(ctx context.Context, userID uint) (*models.Wishlist, error)
	AddItem(ctx context.Context, wishlistID, productID uint) error
	RemoveItem(ctx context.Context, wishlistID, productID uint) (bool, error)
}

// ============================================================
// Pricing
// ============================================================

type DiscountRepository interface {
	Create(ctx context.Context, discount *models.Discount) error
	GetByID(ctx context.Context, id uint) (*models.Discount, error)
	List(ctx context.Context, validAt *time.Time) ([]*models.Discount, error)
	Update(ctx context.Context, discount *models.Discount) error
	Delete(ctx context.Context, id uint) error
	AttachToProduct(ctx context.Context, pd *models.ProductDiscount) error
	DetachFromProduct(ctx context.Context, productID, discountID uint) (bool, error)
	ListForProduct(ctx context.Context, productID uint) ([]*models.ProductDiscount, error)
}

// ============================================================
// Orders, Returns, Refunds, Payments
// ============================================================

// OrderFilter narrows order listings; a nil UserID lists everyone's
type OrderFilter struct {
	UserID *uint
	Status domain.OrderStatus
}

type OrderRepository interface {
	// CreateWithItems writes the order and all of its items atomically
	CreateWithItems(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter, offset, limit int) ([]*models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) error
	SetDiscount(ctx context.Context, id uint, discountID uint) error
	UpdateDiscountAmount(ctx context.Context, id uint, amount decimal.Decimal) error
	// ClaimPayment reserves a PENDING order for one cash-in attempt. It is false
	// when the order left PENDING or a claim newer than staleBefore exists.
	ClaimPayment(ctx context.Context, id uint, now, staleBefore time.Time) (bool, error)
	ReleasePayment(ctx context.Context, id uint) error
}

// ReturnFilter narrows return listings; a nil UserID lists everyone's
type ReturnFilter struct {
	UserID *uint
	Status domain.ReturnStatus
}

type ReturnRepository interface {
	Create(ctx context.Context, ret *models.Return) error
	GetByID(ctx context.Context, id uint) (*models.Return, error)
	List(ctx context.Context, filter ReturnFilter, offset, limit int) ([]*models.Return, int64, error)
	// Transition saves ret only while the stored status is still from;
	// otherwise it returns domain.ErrStaleState
	Transition(ctx context.Context, ret *models.Return, from domain.ReturnStatus) error
	HasActiveForOrder(ctx context.Context, orderID uint) (bool, error)
	// CompleteWithRefund moves an APPROVED return to COMPLETED and creates its
	// refund atomically; domain.ErrStaleState when it was no longer APPROVED
	CompleteWithRefund(ctx context.Context, ret *models.Return, refund *models.Refund) error
}

// RefundFilter narrows refund listings; a nil UserID lists everyone's
type RefundFilter struct {
	UserID *uint
	Status domain.RefundStatus
}

type RefundRepository interface {
	Create(ctx context.Context, refund *models.Refund) error
	GetByID(ctx context.Context, id uint) (*models.Refund, error)
	List(ctx context.Context, filter RefundFilter, offset, limit int) ([]*models.Refund, int64, error)
	// Claim reserves a PENDING refund for one settlement; false when it is no
	// longer PENDING or a claim newer than staleBefore exists
	Claim(ctx context.Context, id uint, now, staleBefore time.Time) (bool, error)
	Release(ctx context.Context, id uint) error
	// Settle writes the final state of a claimed PENDING refund and drops the claim
	Settle(ctx context.Context, refund *models.Refund) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByRef(ctx context.Context, ref string) (*models.Payment, error)
	// Settle stores the final status of a PENDING payment;
	// domain.ErrStaleState when another request settled it first
	Settle(ctx context.Context, payment *models.Payment) error
	// HasOpenCashIn reports a PENDING or SUCCESSFUL cash-in for the order
	HasOpenCashIn(ctx context.Context, orderID uint) (bool, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*models.Payment, error)
}
