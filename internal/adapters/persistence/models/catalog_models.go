package models

import (
	"time"

	"makerhub-api/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ============================================================
// Catalog Tables
// ============================================================

// ServiceCategory groups products by the service offered (printing, design, ...)
type ServiceCategory struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Slug               string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Description        string    `gorm:"type:text" json:"description"`
	RequiresDimensions bool      `gorm:"default:false" json:"requires_dimensions"`
	RequiresMaterial   bool      `gorm:"default:false" json:"requires_material"`
	IsActive           bool      `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ServiceCategory) TableName() string {
	return "service_categories"
}

// RequiredFields lists the product fields this category insists on
func (c *ServiceCategory) RequiredFields() []string {
	fields := []string{}
	if c.RequiresDimensions {
		fields = append(fields, "length", "width", "height")
	}
	if c.RequiresMaterial {
		fields = append(fields, "material")
	}
	return fields
}

// Product is a sellable item or service offering
type Product struct {
	ID                  uint                `gorm:"primaryKey" json:"id"`
	CategoryID          uint                `gorm:"not null;index" json:"category_id"`
	Category            *ServiceCategory    `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Name                string              `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Slug                string              `gorm:"uniqueIndex;size:220;not null" json:"slug"`
	ShortDescription    string              `gorm:"size:255" json:"short_description"`
	DetailedDescription string              `gorm:"type:text" json:"detailed_description"`
	UnitPrice           decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	Currency            string              `gorm:"size:3;default:'RWF'" json:"currency"`
	Material            string              `gorm:"size:100" json:"material"`
	Length              decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"length"`
	Width               decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"width"`
	Height              decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"height"`
	MeasurementUnit     string              `gorm:"size:10;default:'cm'" json:"measurement_unit"`
	AvailableSizes      []string            `gorm:"type:text;serializer:json" json:"available_sizes"`
	AvailableColors     []string            `gorm:"type:text;serializer:json" json:"available_colors"`
	AvailableMaterials  []string            `gorm:"type:text;serializer:json" json:"available_materials"`
	Published           bool                `gorm:"default:false;index" json:"published"`
	UploadedByID        *uint               `json:"uploaded_by_id"`
	UploadedBy          *User               `gorm:"foreignKey:UploadedByID" json:"-"`
	Media               []ProductMedia      `gorm:"foreignKey:ProductID" json:"media,omitempty"`
	Discounts           []ProductDiscount   `gorm:"foreignKey:ProductID" json:"-"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Volume is only known when all three dimensions are set
func (p *Product) Volume() (decimal.Decimal, bool) {
	if !p.Length.Valid || !p.Width.Valid || !p.Height.Valid {
		return decimal.Zero, false
	}
	return p.Length.Decimal.Mul(p.Width.Decimal).Mul(p.Height.Decimal), true
}

// IsAvailableForSale requires a published product with a price
func (p *Product) IsAvailableForSale() bool {
	return p.Published && p.UnitPrice.Valid
}

// FinalPrice is the unit price less the best currently valid product discount.
// Discounts must be preloaded with their Discount.
func (p *Product) FinalPrice(now time.Time) (decimal.Decimal, bool) {
	if !p.UnitPrice.Valid {
		return decimal.Zero, false
	}
	price := p.UnitPrice.Decimal

	best := decimal.Zero
	for _, pd := range p.Discounts {
		if !pd.IsValid || pd.Discount == nil || !pd.Discount.IsValid(now) {
			continue
		}
		if off := pd.Discount.AmountFor(price); off.GreaterThan(best) {
			best = off
		}
	}

	return decimal.Max(price.Sub(best), decimal.Zero), true
}

// ProductResponse adds the derived pricing fields
type ProductResponse struct {
	*Product
	FinalPrice *decimal.Decimal `json:"final_price"`
	Volume     *decimal.Decimal `json:"volume"`
}

func (p *Product) ToResponse(now time.Time) *ProductResponse {
	resp := &ProductResponse{Product: p}
	if fp, ok := p.FinalPrice(now); ok {
		resp.FinalPrice = &fp
	}
	if v, ok := p.Volume(); ok {
		resp.Volume = &v
	}
	return resp
}

// ProductMedia is an image, video or 3D model attached to a product
type ProductMedia struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	ProductID    uint             `gorm:"not null;index" json:"product_id"`
	Kind         domain.MediaKind `gorm:"size:20;not null" json:"kind"`
	URL          string           `gorm:"size:500" json:"url"`
	PublicID     string           `gorm:"size:255" json:"-"`
	VideoURL     string           `gorm:"size:500" json:"video_url"`
	AltText      string           `gorm:"size:200" json:"alt_text"`
	DisplayOrder int              `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (ProductMedia) TableName() string {
	return "product_media"
}

// Feedback is a customer review awaiting moderation until published
type Feedback struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ClientName string    `gorm:"size:200;not null" json:"client_name"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Rating     int       `gorm:"not null" json:"rating"`
	Published  bool      `gorm:"default:false" json:"published"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

// CustomRequest is a bespoke design/manufacturing inquiry
type CustomRequest struct {
	ID                uint                       `gorm:"primaryKey" json:"id"`
	UserID            *uint                      `gorm:"index" json:"user_id"`
	ClientName        string                     `gorm:"size:200;not null" json:"client_name"`
	ClientEmail       string                     `gorm:"size:100;not null" json:"client_email"`
	ClientPhone       string                     `gorm:"size:20;not null" json:"client_phone"`
	CategoryID        *uint                      `gorm:"index" json:"service_category_id"`
	Category          *ServiceCategory           `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"service_category,omitempty"`
	Title             string                     `gorm:"size:200;not null" json:"title"`
	Description       string                     `gorm:"type:text;not null" json:"description"`
	ReferenceFileURL  string                     `gorm:"size:500" json:"reference_file"`
	ReferencePublicID string                     `gorm:"size:255" json:"-"`
	Budget            decimal.NullDecimal        `gorm:"type:decimal(10,2)" json:"budget"`
	Status            domain.CustomRequestStatus `gorm:"size:20;default:'pending';index" json:"status"`
	CreatedAt         time.Time                  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CustomRequest) TableName() string {
	return "custom_requests"
}

// CustomRequestControl is a single-row switch for custom request intake
type CustomRequestControl struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	AllowCustomRequests bool      `gorm:"not null" json:"allow_custom_requests"`
	MaxPendingRequests  int       `gorm:"not null;default:0" json:"max_pending_requests"`
	DisableReason       string    `gorm:"size:255" json:"disable_reason"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CustomRequestControl) TableName() string {
	return "custom_request_controls"
}

// Intake messages shown when submissions are refused
const (
	MsgCustomRequestsClosed = "Custom requests are currently closed."
	MsgCustomRequestsFull   = "We have reached the maximum number of pending requests. Please try again later."
)

// RequestsAreOpen decides intake given the current number of pending requests.
// A cap of zero means no cap.
func (c *CustomRequestControl) RequestsAreOpen(pending int64) (bool, string) {
	if !c.AllowCustomRequests {
		if c.DisableReason != "" {
			return false, c.DisableReason
		}
		return false, MsgCustomRequestsClosed
	}
	if c.MaxPendingRequests > 0 && pending >= int64(c.MaxPendingRequests) {
		return false, MsgCustomRequestsFull
	}
	return true, ""
}

// Wishlist belongs to exactly one user
type Wishlist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Items     []WishlistItem `gorm:"foreignKey:WishlistID" json:"items"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}

type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WishlistID uint      `gorm:"not null;uniqueIndex:idx_wishlist_product" json:"-"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_wishlist_product" json:"product_id"`
	Product    *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	AddedAt    time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// ============================================================
// Pricing Tables
// ============================================================

// Discount is a percentage or fixed reduction valid within a date window
type Discount struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"size:100;not null" json:"name"`
	DiscountType  domain.DiscountType `gorm:"size:20;not null" json:"discount_type"`
	DiscountValue decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"discount_value"`
	IsActive      bool                `gorm:"default:true" json:"is_active"`
	StartDate     time.Time           `gorm:"not null" json:"start_date"`
	EndDate       time.Time           `gorm:"not null" json:"end_date"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Discount) TableName() string {
	return "discounts"
}

// IsValid requires the active flag and start <= now <= end
func (d *Discount) IsValid(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartDate) && !now.After(d.EndDate)
}

// AmountFor is the reduction this discount gives on base; validity is not checked
func (d *Discount) AmountFor(base decimal.Decimal) decimal.Decimal {
	switch d.DiscountType {
	case domain.DiscountPercentage:
		return base.Mul(d.DiscountValue).Div(decimal.NewFromInt(100))
	case domain.DiscountFixed:
		return d.DiscountValue
	default:
		return decimal.Zero
	}
}

// ProductDiscount attaches a discount to a single product
type ProductDiscount struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_product_discount" json:"product_id"`
	DiscountID uint      `gorm:"not null;uniqueIndex:idx_product_discount" json:"discount_id"`
	Discount   *Discount `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE" json:"discount,omitempty"`
	IsValid    bool      `gorm:"default:true" json:"is_valid"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ProductDiscount) TableName() string {
	return "product_discounts"
}
