package handlers

import (
	"errors"

	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// FeedbackHandler handles product reviews
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// List
// @Summary List feedback
// @Description Moderators also see unpublished feedback
// @Tags Feedback
// @Produce json
// @Param product_id query int false "Filter by product"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	result, err := h.feedbackService.List(
		c.Context(),
		queryUint(c, "product_id"),
		callerCan(c, domain.ActionModerateFeedback),
		pagination.GetParams(c),
	)
	if err != nil {
		return handleError(c, err, "Failed to list feedback")
	}
	return response.Success(c, "Feedback retrieved successfully", result)
}

// Create
// @Summary Leave feedback on a product
// @Description Feedback starts unpublished until a moderator publishes it
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateFeedbackInput true "Feedback"
// @Success 201 {object} response.Response
// @Router /feedback [post]
func (h *FeedbackHandler) Create(c *fiber.Ctx) error {
	userID, _, _ := currentUser(c)

	var input services.CreateFeedbackInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to create feedback")
	}

	feedback, err := h.feedbackService.Create(c.Context(), userID, &input)
	if err != nil {
		return feedbackError(c, err, "Failed to create feedback")
	}
	return response.Created(c, "Feedback submitted successfully", feedback)
}

// Publish
// @Summary Publish feedback
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feedback ID"
// @Success 200 {object} response.Response
// @Router /feedback/{id}/publish [patch]
func (h *FeedbackHandler) Publish(c *fiber.Ctx) error {
	return h.setPublished(c, true)
}

// Unpublish
// @Summary Unpublish feedback
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feedback ID"
// @Success 200 {object} response.Response
// @Router /feedback/{id}/unpublish [patch]
func (h *FeedbackHandler) Unpublish(c *fiber.Ctx) error {
	return h.setPublished(c, false)
}

func (h *FeedbackHandler) setPublished(c *fiber.Ctx, published bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid feedback ID")
	}

	feedback, err := h.feedbackService.SetPublished(c.Context(), id, published)
	if err != nil {
		return feedbackError(c, err, "Failed to update feedback")
	}
	return response.Success(c, "Feedback updated successfully", feedback)
}

// Delete
// @Summary Delete feedback
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feedback ID"
// @Success 200 {object} response.Response
// @Router /feedback/{id} [delete]
func (h *FeedbackHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid feedback ID")
	}

	if err := h.feedbackService.Delete(c.Context(), id); err != nil {
		return feedbackError(c, err, "Failed to delete feedback")
	}
	return response.Success(c, "Feedback deleted successfully", nil)
}

func feedbackError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrFeedbackNotFound):
		return response.NotFound(c, "Feedback not found")
	case errors.Is(err, services.ErrProductNotFound):
		return response.NotFound(c, "Product not found")
	default:
		return handleError(c, err, fallback)
	}
}
