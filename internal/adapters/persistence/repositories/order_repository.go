package repositories

import (
	"context"
	"time"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ============================================================
// Discounts
// ============================================================

type discountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) Create(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *discountRepository) GetByID(ctx context.Context, id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.WithContext(ctx).First(&discount, id).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// List returns every discount, or only those valid at validAt when given
func (r *discountRepository) List(ctx context.Context, validAt *time.Time) ([]*models.Discount, error) {
	var discounts []*models.Discount
	query := r.db.WithContext(ctx).Order("end_date ASC")
	if validAt != nil {
		query = query.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, *validAt, *validAt)
	}
	err := query.Find(&discounts).Error
	return discounts, err
}

func (r *discountRepository) Update(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Save(discount).Error
}

func (r *discountRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("discount_id = ?", id).Delete(&models.ProductDiscount{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("discount_id = ?", id).Update("discount_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Discount{}, id).Error
	})
}

func (r *discountRepository) AttachToProduct(ctx context.Context, pd *models.ProductDiscount) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(pd).Error
}

func (r *discountRepository) DetachFromProduct(ctx context.Context, productID, discountID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("product_id = ? AND discount_id = ?", productID, discountID).
		Delete(&models.ProductDiscount{})
	return res.RowsAffected > 0, res.Error
}

func (r *discountRepository) ListForProduct(ctx context.Context, productID uint) ([]*models.ProductDiscount, error) {
	var items []*models.ProductDiscount
	err := r.db.WithContext(ctx).
		Preload("Discount").
		Where("product_id = ?", productID).
		Find(&items).Error
	return items, err
}

// ============================================================
// Orders
// ============================================================

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateWithItems(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil

		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return err
			}
		}

		order.Items = items
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Discount").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter, offset, limit int) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Items.Product").
		Preload("Discount").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus also bumps updated_at, which starts the return window on delivery
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *orderRepository) SetDiscount(ctx context.Context, id uint, discountID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("discount_id", discountID).Error
}

// UpdateDiscountAmount writes only discount_amount and leaves updated_at alone
func (r *orderRepository) UpdateDiscountAmount(ctx context.Context, id uint, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("discount_amount", amount).Error
}

// ClaimPayment uses UpdateColumn so updated_at, which dates delivery, stays put
func (r *orderRepository) ClaimPayment(ctx context.Context, id uint, now, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderPending).
		Where("payment_claimed_at IS NULL OR payment_claimed_at < ?", staleBefore).
		UpdateColumn("payment_claimed_at", now)
	return res.RowsAffected == 1, res.Error
}

func (r *orderRepository) ReleasePayment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("payment_claimed_at", nil).Error
}

// ============================================================
// Returns
// ============================================================

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *models.Return) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(ret).Error
}

func (r *returnRepository) GetByID(ctx context.Context, id uint) (*models.Return, error) {
	var ret models.Return
	if err := r.db.WithContext(ctx).First(&ret, id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) List(ctx context.Context, filter ReturnFilter, offset, limit int) ([]*models.Return, int64, error) {
	var items []*models.Return
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Return{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *returnRepository) Transition(ctx context.Context, ret *models.Return, from domain.ReturnStatus) error {
	return transitionReturn(r.db.WithContext(ctx), ret, from)
}

// transitionReturn is a compare-and-set on status
func transitionReturn(db *gorm.DB, ret *models.Return, from domain.ReturnStatus) error {
	res := db.Model(&models.Return{}).
		Where("id = ? AND status = ?", ret.ID, from).
		Updates(map[string]interface{}{
			"status":                 ret.Status,
			"approved_refund_amount": ret.ApprovedRefundAmount,
			"approved_at":            ret.ApprovedAt,
			"rejection_reason":       ret.RejectionReason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

func (r *returnRepository) HasActiveForOrder(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Return{}).
		Where("order_id = ? AND status IN ?", orderID, []domain.ReturnStatus{domain.ReturnRequested, domain.ReturnApproved}).
		Count(&count).Error
	return count > 0, err
}

func (r *returnRepository) CompleteWithRefund(ctx context.Context, ret *models.Return, refund *models.Refund) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionReturn(tx, ret, domain.ReturnApproved); err != nil {
			return err
		}
		return tx.Create(refund).Error
	})
}

// ============================================================
// Refunds
// ============================================================

type refundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *refundRepository) GetByID(ctx context.Context, id uint) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.WithContext(ctx).First(&refund, id).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *refundRepository) List(ctx context.Context, filter RefundFilter, offset, limit int) ([]*models.Refund, int64, error) {
	var items []*models.Refund
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Refund{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *refundRepository) Claim(ctx context.Context, id uint, now, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, domain.RefundPending).
		Where("claimed_at IS NULL OR claimed_at < ?", staleBefore).
		UpdateColumn("claimed_at", now)
	return res.RowsAffected == 1, res.Error
}

func (r *refundRepository) Release(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("id = ?", id).
		UpdateColumn("claimed_at", nil).Error
}

func (r *refundRepository) Settle(ctx context.Context, refund *models.Refund) error {
	res := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("id = ? AND status = ?", refund.ID, domain.RefundPending).
		UpdateColumns(map[string]interface{}{
			"status":         refund.Status,
			"transaction_id": refund.TransactionID,
			"completed_at":   refund.CompletedAt,
			"claimed_at":     nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	refund.ClaimedAt = nil
	return nil
}

// ============================================================
// Payments
// ============================================================

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByRef(ctx context.Context, ref string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Settle(ctx context.Context, payment *models.Payment) error {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, domain.PaymentPending).
		Updates(map[string]interface{}{
			"status":      payment.Status,
			"raw_payload": payment.RawPayload,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

func (r *paymentRepository) HasOpenCashIn(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ? AND direction = ? AND status IN ?", orderID, domain.PaymentCashIn,
			[]domain.PaymentStatus{domain.PaymentPending, domain.PaymentSuccessful}).
		Count(&count).Error
	return count > 0, err
}

// ListPendingBefore feeds the reconciliation job, oldest first
func (r *paymentRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND ref IS NOT NULL AND created_at < ?", domain.PaymentPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
