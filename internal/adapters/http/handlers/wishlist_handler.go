package handlers

import (
	"errors"

	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// WishlistHandler handles the caller's saved products
type WishlistHandler struct {
	wishlistService *services.WishlistService
}

func NewWishlistHandler(wishlistService *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// WishlistItemRequest names a product to save
type WishlistItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
}

// Get
// @Summary Get my wishlist
// @Tags Wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /wishlist [get]
func (h *WishlistHandler) Get(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	out, err := h.wishlistService.Get(c.Context(), userID)
	if err != nil {
		return handleError(c, err, "Failed to get wishlist")
	}
	return response.Success(c, "Wishlist retrieved successfully", out)
}

// AddItem
// @Summary Save a product to my wishlist
// @Tags Wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body WishlistItemRequest true "Product"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /wishlist/items [post]
func (h *WishlistHandler) AddItem(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	var req WishlistItemRequest
	if err := validator.ParseAndValidate(c, &req); err != nil {
		return handleError(c, err, "Failed to update wishlist")
	}

	out, err := h.wishlistService.AddProduct(c.Context(), userID, req.ProductID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return response.NotFound(c, "Product not found")
		}
		return handleError(c, err, "Failed to update wishlist")
	}
	return response.Success(c, "Product added to wishlist", out)
}

// RemoveItem
// @Summary Remove a product from my wishlist
// @Tags Wishlist
// @Produce json
// @Security BearerAuth
// @Param product_id path int true "Product ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /wishlist/items/{product_id} [delete]
func (h *WishlistHandler) RemoveItem(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)
	productID, err := paramID(c, "product_id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}

	if err := h.wishlistService.RemoveProduct(c.Context(), userID, productID); err != nil {
		if errors.Is(err, services.ErrWishlistItemNotFound) {
			return response.NotFound(c, "Product is not in the wishlist")
		}
		return handleError(c, err, "Failed to update wishlist")
	}
	return response.Success(c, "Product removed from wishlist", nil)
}
