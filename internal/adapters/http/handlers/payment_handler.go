package handlers

import (
	"errors"
	"strings"

	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler starts mobile-money payments and reports on them
type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// PayOrder
// @Summary Pay an order by mobile money
// @Description Starts a cash-in for the order total; the customer confirms on their phone
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body services.PayOrderInput true "Phone number to charge"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /orders/{id}/pay [post]
func (h *PaymentHandler) PayOrder(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid order ID")
	}

	var input services.PayOrderInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to start payment")
	}

	payment, err := h.paymentService.PayOrder(c.Context(), id, userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return response.NotFound(c, "Order not found")
		case errors.Is(err, services.ErrOrderNotPayable), errors.Is(err, services.ErrNothingToPay):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrPaymentOngoing):
			return response.Conflict(c, err.Error())
		default:
			return handleError(c, err, "Failed to start payment")
		}
	}
	return response.Created(c, "Payment initiated, confirm on your phone", payment)
}

// Status
// @Summary Check a payment with the provider
// @Description Refreshes the stored payment from the provider's report
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Provider reference"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/{ref}/status [get]
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	ref := strings.TrimSpace(c.Params("ref"))
	if ref == "" {
		return response.BadRequest(c, "Invalid payment reference")
	}

	out, err := h.paymentService.CheckStatus(c.Context(), ref, userID, role)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return handleError(c, err, "Failed to check payment status")
	}
	return response.Success(c, "Payment status retrieved successfully", out)
}
