package handlers

import (
	"errors"

	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// DiscountHandler manages discounts and product attachments
type DiscountHandler struct {
	discountService *services.DiscountService
}

func NewDiscountHandler(discountService *services.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

// List
// @Summary List discounts
// @Description Catalog managers see every discount, others only currently valid ones
// @Tags Discounts
// @Produce json
// @Success 200 {object} response.Response
// @Router /discounts [get]
func (h *DiscountHandler) List(c *fiber.Ctx) error {
	items, err := h.discountService.List(c.Context(), callerCan(c, domain.ActionManageCatalog))
	if err != nil {
		return handleError(c, err, "Failed to list discounts")
	}
	return response.Success(c, "Discounts retrieved successfully", items)
}

// Get
// @Summary Get a discount
// @Tags Discounts
// @Produce json
// @Param id path int true "Discount ID"
// @Success 200 {object} response.Response
// @Router /discounts/{id} [get]
func (h *DiscountHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid discount ID")
	}

	d, err := h.discountService.Get(c.Context(), id)
	if err != nil {
		return discountError(c, err, "Failed to get discount")
	}
	return response.Success(c, "Discount retrieved successfully", d)
}

// Create
// @Summary Create a discount
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.DiscountInput true "Discount"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /discounts [post]
func (h *DiscountHandler) Create(c *fiber.Ctx) error {
	var input services.DiscountInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to create discount")
	}

	d, err := h.discountService.Create(c.Context(), &input)
	if err != nil {
		return discountError(c, err, "Failed to create discount")
	}
	return response.Created(c, "Discount created successfully", d)
}

// Update
// @Summary Replace a discount
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Discount ID"
// @Param body body services.DiscountInput true "Discount"
// @Success 200 {object} response.Response
// @Router /discounts/{id} [put]
func (h *DiscountHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid discount ID")
	}

	var input services.DiscountInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to update discount")
	}

	d, err := h.discountService.Update(c.Context(), id, &input)
	if err != nil {
		return discountError(c, err, "Failed to update discount")
	}
	return response.Success(c, "Discount updated successfully", d)
}

// Delete
// @Summary Delete a discount
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Discount ID"
// @Success 200 {object} response.Response
// @Router /discounts/{id} [delete]
func (h *DiscountHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid discount ID")
	}

	if err := h.discountService.Delete(c.Context(), id); err != nil {
		return discountError(c, err, "Failed to delete discount")
	}
	return response.Success(c, "Discount deleted successfully", nil)
}

// ListForProduct
// @Summary Discounts attached to a product
// @Tags Discounts
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} response.Response
// @Router /products/{id}/discounts [get]
func (h *DiscountHandler) ListForProduct(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}

	items, err := h.discountService.ListForProduct(c.Context(), productID)
	if err != nil {
		return handleError(c, err, "Failed to list product discounts")
	}
	return response.Success(c, "Product discounts retrieved successfully", items)
}

// Attach
// @Summary Attach a discount to a product
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.AttachDiscountInput true "Product and discount"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /product-discounts [post]
func (h *DiscountHandler) Attach(c *fiber.Ctx) error {
	var input services.AttachDiscountInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to attach discount")
	}

	pd, err := h.discountService.Attach(c.Context(), &input)
	if err != nil {
		return discountError(c, err, "Failed to attach discount")
	}
	return response.Created(c, "Discount attached successfully", pd)
}

// Detach
// @Summary Detach a discount from a product
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param product_id path int true "Product ID"
// @Param discount_id path int true "Discount ID"
// @Success 200 {object} response.Response
// @Router /product-discounts/{product_id}/{discount_id} [delete]
func (h *DiscountHandler) Detach(c *fiber.Ctx) error {
	productID, err := paramID(c, "product_id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}
	discountID, err := paramID(c, "discount_id")
	if err != nil {
		return handleError(c, err, "Invalid discount ID")
	}

	if err := h.discountService.Detach(c.Context(), productID, discountID); err != nil {
		return discountError(c, err, "Failed to detach discount")
	}
	return response.Success(c, "Discount detached successfully", nil)
}

func discountError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrDiscountNotFound):
		return response.NotFound(c, "Discount not found")
	case errors.Is(err, services.ErrProductNotFound):
		return response.NotFound(c, "Product not found")
	case errors.Is(err, services.ErrProductDiscountNotFound):
		return response.NotFound(c, "Discount is not attached to this product")
	case errors.Is(err, services.ErrDiscountAlreadyAttached):
		return response.Conflict(c, "Discount is already attached to this product")
	default:
		return handleError(c, err, fallback)
	}
}
