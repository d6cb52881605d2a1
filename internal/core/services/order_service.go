package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/mailer"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Order errors
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductUnavailable    = errors.New("product is not available for sale")
	ErrOrderNotCancellable   = errors.New("Only PENDING orders can be cancelled.")
	ErrDiscountOnlyOnPending = errors.New("Discount can only be applied to PENDING orders.")
	ErrNoDiscountLinked      = errors.New("No discount linked to this order.")
	ErrDiscountNotValid      = errors.New("discount is not currently valid")
	ErrInvalidOrderStatus    = errors.New("status must be one of: PENDING, PAID, SHIPPED, DELIVERED, CANCELLED")
)

// OrderService prices and moves orders through their lifecycle
type OrderService struct {
	orderRepo    repositories.OrderRepository
	productRepo  repositories.ProductRepository
	discountRepo repositories.DiscountRepository
	userRepo     repositories.UserRepository
	mailer       mailer.Mailer
	events       events.Publisher
	now          func() time.Time
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	discountRepo repositories.DiscountRepository,
	userRepo repositories.UserRepository,
	m mailer.Mailer,
	publisher events.Publisher,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		discountRepo: discountRepo,
		userRepo:     userRepo,
		mailer:       m,
		events:       publisher,
		now:          time.Now,
	}
}

type OrderItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gte=1"`
}

type CreateOrderInput struct {
	Items      []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountID *uint            `json:"discount_id"`
}

type ApplyDiscountInput struct {
	DiscountID *uint `json:"discount_id"`
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// Create snapshots current prices into the items and writes everything in one transaction
func (s *OrderService) Create(ctx context.Context, userID uint, input *CreateOrderInput) (*models.OrderResponse, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", domain.ErrInvalidInput)
	}

	ids := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{UserID: userID, Status: domain.OrderPending}

	for _, in := range input.Items {
		if in.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
		}
		product, ok := products[in.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, in.ProductID)
		}
		if !product.IsAvailableForSale() {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}
		price, _ := product.FinalPrice(now)

		productID := product.ID
		order.Items = append(order.Items, models.OrderItem{
			ProductID:       &productID,
			Product:         product,
			Quantity:        in.Quantity,
			PriceAtPurchase: price,
		})
	}

	if input.DiscountID != nil {
		discount, err := s.discountRepo.GetByID(ctx, *input.DiscountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDiscountNotFound
			}
			return nil, err
		}
		if !discount.IsValid(now) {
			return nil, ErrDiscountNotValid
		}
		order.DiscountID = &discount.ID
		order.Discount = discount
	}
	order.ApplyDiscount(now)

	if err := s.orderRepo.CreateWithItems(ctx, order); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.OrderCreated, order.Summary())
	s.sendConfirmation(ctx, order)

	log.Printf("✅ Order %d created by user %d: total %s", order.ID, userID, order.TotalAmount().StringFixed(2))
	return order.ToResponse(now), nil
}

// List shows staff every order and customers their own
func (s *OrderService) List(ctx context.Context, actorID uint, role domain.Role, status string, p *pagination.Params) (*pagination.Response, error) {
	filter := repositories.OrderFilter{}
	if !domain.Can(role, domain.ActionViewAllOrders) {
		filter.UserID = &actorID
	}
	if status != "" {
		st, ok := domain.ParseOrderStatus(status)
		if !ok {
			return nil, ErrInvalidOrderStatus
		}
		filter.Status = st
	}

	orders, total, err := s.orderRepo.List(ctx, filter, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*models.OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = o.ToResponse(now)
	}
	return pagination.NewResponse(out, p, total), nil
}

func (s *OrderService) Get(ctx context.Context, id, actorID uint, role domain.Role) (*models.OrderResponse, error) {
	order, err := s.getVisible(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	return order.ToResponse(s.now()), nil
}

func (s *OrderService) Summary(ctx context.Context, id, actorID uint, role domain.Role) (*models.OrderSummary, error) {
	order, err := s.getVisible(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	return order.Summary(), nil
}

// Cancel is the API's delete: only PENDING orders can be cancelled
func (s *OrderService) Cancel(ctx context.Context, id, actorID uint, role domain.Role) (*models.OrderResponse, error) {
	order, err := s.getVisible(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderPending {
		return nil, ErrOrderNotCancellable
	}
	if err := s.setStatus(ctx, order, domain.OrderCancelled); err != nil {
		return nil, err
	}
	return order.ToResponse(s.now()), nil
}

// ApplyDiscount optionally links a discount, then recomputes discount_amount
func (s *OrderService) ApplyDiscount(ctx context.Context, id, actorID uint, role domain.Role, input *ApplyDiscountInput) (*models.OrderResponse, error) {
	order, err := s.getVisible(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderPending {
		return nil, ErrDiscountOnlyOnPending
	}

	if input != nil && input.DiscountID != nil {
		discount, err := s.discountRepo.GetByID(ctx, *input.DiscountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDiscountNotFound
			}
			return nil, err
		}
		if err := s.orderRepo.SetDiscount(ctx, order.ID, discount.ID); err != nil {
			return nil, err
		}
		order.DiscountID = &discount.ID
		order.Discount = discount
	}

	if order.DiscountID == nil || order.Discount == nil {
		return nil, ErrNoDiscountLinked
	}

	amount := order.ApplyDiscount(s.now())
	if err := s.orderRepo.UpdateDiscountAmount(ctx, order.ID, amount); err != nil {
		return nil, err
	}
	return order.ToResponse(s.now()), nil
}

// UpdateStatus is the staff-driven lifecycle move
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.OrderResponse, error) {
	next, ok := domain.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, order, next); err != nil {
		return nil, err
	}
	return order.ToResponse(s.now()), nil
}

func (s *OrderService) setStatus(ctx context.Context, order *models.Order, next domain.OrderStatus) error {
	prev := order.Status
	if err := order.TransitionTo(next); err != nil {
		return err
	}
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, next); err != nil {
		order.Status = prev
		return err
	}
	order.UpdatedAt = s.now()

	events.Emit(ctx, s.events, events.OrderStatusChanged, map[string]interface{}{
		"order_id": order.ID,
		"from":     prev,
		"to":       next,
	})
	log.Printf("✅ Order %d: %s -> %s", order.ID, prev, next)
	return nil
}

// getVisible hides other customers' orders behind a not-found
func (s *OrderService) getVisible(ctx context.Context, id, actorID uint, role domain.Role) (*models.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessOwned(role, domain.ActionViewAllOrders, actorID, &order.UserID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) sendConfirmation(ctx context.Context, order *models.Order) {
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		log.Printf("⚠️ Order %d: confirmation skipped: %v", order.ID, err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe received your order #%d.\n\n", user.FullName, order.ID)
	for _, item := range order.Items {
		name := "item"
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "  %d x %s @ %s\n", item.Quantity, name, item.PriceAtPurchase.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nDiscount: %s\nTotal: %s\n",
		order.Subtotal().StringFixed(2), order.DiscountAmount.StringFixed(2), order.TotalAmount().StringFixed(2))

	if err := s.mailer.Send(ctx, user.Email, fmt.Sprintf("Order #%d received", order.ID), b.String()); err != nil {
		log.Printf("⚠️ Order %d: confirmation mail failed: %v", order.ID, err)
	}
}
