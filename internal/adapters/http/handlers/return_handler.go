package handlers

import (
	"errors"

	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// ReturnHandler handles return requests and their review
type ReturnHandler struct {
	returnService *services.ReturnService
}

func NewReturnHandler(returnService *services.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

// Create
// @Summary Request a return
// @Description Delivered orders can be returned within 30 days; one active return per order
// @Tags Returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateReturnInput true "Return request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /returns [post]
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	var input services.CreateReturnInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to request return")
	}

	ret, err := h.returnService.Create(c.Context(), userID, &input)
	if err != nil {
		return returnError(c, err, "Failed to request return")
	}
	return response.Created(c, "Return requested successfully", ret)
}

// List
// @Summary List returns
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param status query string false "REQUESTED, APPROVED, REJECTED, COMPLETED or CANCELLED"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /returns [get]
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)

	result, err := h.returnService.List(c.Context(), userID, role, c.Query("status"), pagination.GetParams(c))
	if err != nil {
		return returnError(c, err, "Failed to list returns")
	}
	return response.Success(c, "Returns retrieved successfully", result)
}

// Get
// @Summary Get a return
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /returns/{id} [get]
func (h *ReturnHandler) Get(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid return ID")
	}

	ret, err := h.returnService.Get(c.Context(), id, userID, role)
	if err != nil {
		return returnError(c, err, "Failed to get return")
	}
	return response.Success(c, "Return retrieved successfully", ret)
}

// Approve
// @Summary Approve a return
// @Description approved_refund_amount defaults to the requested amount
// @Tags Returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Param body body services.ApproveReturnInput false "Refund override"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /returns/{id}/approve [post]
func (h *ReturnHandler) Approve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid return ID")
	}

	var input services.ApproveReturnInput
	if err := validator.ParseOptional(c, &input); err != nil {
		return handleError(c, err, "Invalid request body")
	}

	ret, err := h.returnService.Approve(c.Context(), id, &input)
	if err != nil {
		return returnError(c, err, "Failed to approve return")
	}
	return response.Success(c, "Return approved", ret)
}

// Reject
// @Summary Reject a return
// @Tags Returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Param body body services.RejectReturnInput true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /returns/{id}/reject [post]
func (h *ReturnHandler) Reject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid return ID")
	}

	var input services.RejectReturnInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to reject return")
	}

	ret, err := h.returnService.Reject(c.Context(), id, &input)
	if err != nil {
		return returnError(c, err, "Failed to reject return")
	}
	return response.Success(c, "Return rejected", ret)
}

// Complete
// @Summary Complete a return
// @Description Closes an approved return and opens a pending refund
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /returns/{id}/complete [post]
func (h *ReturnHandler) Complete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid return ID")
	}

	ret, refund, err := h.returnService.Complete(c.Context(), id)
	if err != nil {
		return returnError(c, err, "Failed to complete return")
	}
	return response.Success(c, "Return completed", fiber.Map{
		"return": ret,
		"refund": refund,
	})
}

// Cancel
// @Summary Withdraw a return request
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /returns/{id}/cancel [post]
func (h *ReturnHandler) Cancel(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid return ID")
	}

	ret, err := h.returnService.Cancel(c.Context(), id, userID, role)
	if err != nil {
		return returnError(c, err, "Failed to cancel return")
	}
	return response.Success(c, "Return cancelled", ret)
}

func returnError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrReturnNotFound):
		return response.NotFound(c, "Return not found")
	case errors.Is(err, services.ErrOrderNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrOrderNotReturnable),
		errors.Is(err, services.ErrActiveReturnExists):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidRefundAmount):
		return response.ValidationError(c, map[string]string{"requested_refund_amount": err.Error()})
	case errors.Is(err, services.ErrInvalidReturnStatus):
		return response.ValidationError(c, map[string]string{"status": err.Error()})
	default:
		return handleError(c, err, fallback)
	}
}
