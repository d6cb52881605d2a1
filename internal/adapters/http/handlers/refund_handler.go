package handlers

import (
	"errors"

	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// RefundHandler lists refunds and settles them
type RefundHandler struct {
	refundService *services.RefundService
}

func NewRefundHandler(refundService *services.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// List
// @Summary List refunds
// @Tags Refunds
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, COMPLETED or FAILED"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /refunds [get]
func (h *RefundHandler) List(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)

	result, err := h.refundService.List(c.Context(), userID, role, c.Query("status"), pagination.GetParams(c))
	if err != nil {
		return refundError(c, err, "Failed to list refunds")
	}
	return response.Success(c, "Refunds retrieved successfully", result)
}

// Get
// @Summary Get a refund
// @Tags Refunds
// @Produce json
// @Security BearerAuth
// @Param id path int true "Refund ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /refunds/{id} [get]
func (h *RefundHandler) Get(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid refund ID")
	}

	rf, err := h.refundService.Get(c.Context(), id, userID, role)
	if err != nil {
		return refundError(c, err, "Failed to get refund")
	}
	return response.Success(c, "Refund retrieved successfully", rf)
}

// Complete
// @Summary Complete a refund
// @Description Records an external transfer, or with payout=true sends the money by mobile money
// @Tags Refunds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Refund ID"
// @Param body body services.CompleteRefundInput false "Settlement"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /refunds/{id}/complete [post]
func (h *RefundHandler) Complete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid refund ID")
	}

	var input services.CompleteRefundInput
	if err := validator.ParseOptional(c, &input); err != nil {
		return handleError(c, err, "Failed to complete refund")
	}

	rf, err := h.refundService.Complete(c.Context(), id, &input)
	if err != nil {
		return refundError(c, err, "Failed to complete refund")
	}
	return response.Success(c, "Refund completed", rf)
}

// Fail
// @Summary Mark a refund as failed
// @Tags Refunds
// @Produce json
// @Security BearerAuth
// @Param id path int true "Refund ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /refunds/{id}/fail [post]
func (h *RefundHandler) Fail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid refund ID")
	}

	rf, err := h.refundService.Fail(c.Context(), id)
	if err != nil {
		return refundError(c, err, "Failed to update refund")
	}
	return response.Success(c, "Refund marked as failed", rf)
}

func refundError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrRefundNotFound):
		return response.NotFound(c, "Refund not found")
	case errors.Is(err, services.ErrInvalidRefundStatus):
		return response.ValidationError(c, map[string]string{"status": err.Error()})
	case errors.Is(err, services.ErrRefundBusy):
		return response.Conflict(c, err.Error())
	default:
		return handleError(c, err, fallback)
	}
}
