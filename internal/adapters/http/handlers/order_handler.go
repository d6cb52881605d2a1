package handlers

import (
	"errors"

	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles order placement and lifecycle
type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create
// @Summary Place an order
// @Description Prices are snapshotted at creation; an optional discount must be currently valid
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateOrderInput true "Order items"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	var input services.CreateOrderInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to create order")
	}

	order, err := h.orderService.Create(c.Context(), userID, &input)
	if err != nil {
		return orderError(c, err, "Failed to create order")
	}
	return response.Created(c, "Order created successfully", order)
}

// List
// @Summary List orders
// @Description Staff see every order, customers their own
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, PAID, SHIPPED, DELIVERED or CANCELLED"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)

	result, err := h.orderService.List(c.Context(), userID, role, c.Query("status"), pagination.GetParams(c))
	if err != nil {
		return orderError(c, err, "Failed to list orders")
	}
	return response.Success(c, "Orders retrieved successfully", result)
}

// Get
// @Summary Get an order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid order ID")
	}

	order, err := h.orderService.Get(c.Context(), id, userID, role)
	if err != nil {
		return orderError(c, err, "Failed to get order")
	}
	return response.Success(c, "Order retrieved successfully", order)
}

// Summary
// @Summary Order totals
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Router /orders/{id}/summary [get]
func (h *OrderHandler) Summary(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid order ID")
	}

	summary, err := h.orderService.Summary(c.Context(), id, userID, role)
	if err != nil {
		return orderError(c, err, "Failed to get order summary")
	}
	return response.Success(c, "Order summary retrieved successfully", summary)
}

// Cancel
// @Summary Cancel an order
// @Description Only PENDING orders can be cancelled
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.Response
// @Router /orders/{id} [delete]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid order ID")
	}

	if _, err := h.orderService.Cancel(c.Context(), id, userID, role); err != nil {
		return orderError(c, err, "Failed to cancel order")
	}
	return c.JSON(fiber.Map{"detail": "Order cancelled successfully."})
}

// ApplyDiscount
// @Summary Apply a discount to a pending order
// @Description Links discount_id when given, then recomputes the discount amount
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body services.ApplyDiscountInput false "Discount to link"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /orders/{id}/apply-discount [post]
func (h *OrderHandler) ApplyDiscount(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid order ID")
	}

	var input services.ApplyDiscountInput
	if err := validator.ParseOptional(c, &input); err != nil {
		return handleError(c, err, "Invalid request body")
	}

	order, err := h.orderService.ApplyDiscount(c.Context(), id, userID, role, &input)
	if err != nil {
		return orderError(c, err, "Failed to apply discount")
	}
	return response.Success(c, "Discount applied successfully", order)
}

// UpdateStatus
// @Summary Move an order through its lifecycle
// @Description PENDING to PAID or CANCELLED, PAID to SHIPPED, SHIPPED to DELIVERED
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body services.UpdateOrderStatusInput true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid order ID")
	}

	var input services.UpdateOrderStatusInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to update order")
	}

	order, err := h.orderService.UpdateStatus(c.Context(), id, input.Status)
	if err != nil {
		return orderError(c, err, "Failed to update order")
	}
	return response.Success(c, "Order updated successfully", order)
}

func orderError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrDiscountNotFound):
		return response.NotFound(c, "Discount not found")
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrDiscountNotValid),
		errors.Is(err, services.ErrOrderNotCancellable),
		errors.Is(err, services.ErrDiscountOnlyOnPending),
		errors.Is(err, services.ErrNoDiscountLinked):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidOrderStatus):
		return response.ValidationError(c, map[string]string{"status": err.Error()})
	default:
		return handleError(c, err, fallback)
	}
}
