package handlers

import (
	"errors"
	"strconv"

	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MediaHandler manages product images, videos and 3D models
type MediaHandler struct {
	mediaService *services.MediaService
}

func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// ListByProduct
// @Summary List product media
// @Tags Media
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} response.Response
// @Router /products/{id}/media [get]
func (h *MediaHandler) ListByProduct(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}

	items, err := h.mediaService.ListByProduct(c.Context(), productID)
	if err != nil {
		return handleError(c, err, "Failed to list media")
	}
	return response.Success(c, "Media retrieved successfully", items)
}

// Upload
// @Summary Upload product media
// @Description Multipart upload. Images up to 110 MB, videos up to 500 MB.
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param file formData file true "Media file"
// @Param kind formData string true "image, video or model_3d"
// @Param alt_text formData string false "Alt text"
// @Param display_order formData int false "Display order"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /products/{id}/media [post]
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid product ID")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, map[string]string{"file": "This field is required."})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Could not read uploaded file")
	}
	defer file.Close()

	order, _ := strconv.Atoi(c.FormValue("display_order", "0"))
	media, err := h.mediaService.Upload(c.Context(), productID, &services.UploadMediaInput{
		Kind:         c.FormValue("kind"),
		AltText:      c.FormValue("alt_text"),
		DisplayOrder: order,
		File:         file,
		Size:         fileHeader.Size,
	})
	if err != nil {
		return mediaError(c, err, "Failed to upload media")
	}
	return response.Created(c, "Media uploaded successfully", media)
}

// Delete
// @Summary Delete product media
// @Tags Media
// @Produce json
// @Security BearerAuth
// @Param id path int true "Media ID"
// @Success 200 {object} response.Response
// @Router /media/{id} [delete]
func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid media ID")
	}

	if err := h.mediaService.Delete(c.Context(), id); err != nil {
		return mediaError(c, err, "Failed to delete media")
	}
	return response.Success(c, "Media deleted successfully", nil)
}

func mediaError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return response.NotFound(c, "Product not found")
	case errors.Is(err, services.ErrMediaNotFound):
		return response.NotFound(c, "Media not found")
	case errors.Is(err, services.ErrInvalidMediaKind):
		return response.ValidationError(c, map[string]string{"kind": err.Error()})
	case errors.Is(err, services.ErrFileTooLarge), errors.Is(err, services.ErrFileRequired):
		return response.ValidationError(c, map[string]string{"file": err.Error()})
	default:
		return handleError(c, err, fallback)
	}
}
