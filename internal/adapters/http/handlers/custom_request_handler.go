package handlers

import (
	"errors"
	"strings"

	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CustomRequestHandler handles bespoke design/print requests and the intake switch
type CustomRequestHandler struct {
	service *services.CustomRequestService
}

func NewCustomRequestHandler(service *services.CustomRequestService) *CustomRequestHandler {
	return &CustomRequestHandler{service: service}
}

// StatusRequest carries a new status value
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Availability
// @Summary Whether custom requests are being accepted
// @Tags Custom Requests
// @Produce json
// @Success 200 {object} response.Response
// @Router /custom-requests/availability [get]
func (h *CustomRequestHandler) Availability(c *fiber.Ctx) error {
	out, err := h.service.Availability(c.Context())
	if err != nil {
		return handleError(c, err, "Failed to check availability")
	}
	return response.Success(c, "Availability retrieved successfully", out)
}

// Create
// @Summary File a custom request
// @Description Guests may file requests. Accepts JSON or multipart with an optional reference_file.
// @Tags Custom Requests
// @Accept json,multipart/form-data
// @Produce json
// @Param body body services.CreateCustomRequestInput true "Request"
// @Param reference_file formData file false "Reference file"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /custom-requests [post]
func (h *CustomRequestHandler) Create(c *fiber.Ctx) error {
	var input services.CreateCustomRequestInput
	if err := c.BodyParser(&input); err != nil {
		return response.ValidationError(c, map[string]string{"body": "Invalid request body"})
	}

	multipart := strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
	if multipart {
		if raw := strings.TrimSpace(c.FormValue("budget")); raw != "" {
			budget, err := decimal.NewFromString(raw)
			if err != nil {
				return response.ValidationError(c, map[string]string{"budget": "A valid number is required."})
			}
			input.Budget = &budget
		}
	}
	if err := validator.Struct(&input); err != nil {
		return handleError(c, err, "Failed to file custom request")
	}

	var ref *services.ReferenceFile
	if multipart {
		if fh, err := c.FormFile("reference_file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return response.BadRequest(c, "Could not read uploaded file")
			}
			defer f.Close()
			ref = &services.ReferenceFile{Reader: f, Size: fh.Size}
		}
	}

	var userID *uint
	if id, _, ok := currentUser(c); ok {
		userID = &id
	}

	req, err := h.service.Create(c.Context(), userID, &input, ref)
	if err != nil {
		return customRequestError(c, err, "Failed to file custom request")
	}
	return response.Created(c, "Custom request submitted successfully", req)
}

// List
// @Summary List custom requests
// @Description Staff see every request, others only their own
// @Tags Custom Requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, in_progress, completed or cancelled"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /custom-requests [get]
func (h *CustomRequestHandler) List(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)

	var scope *uint
	if !domain.Can(role, domain.ActionManageCustomRequest) {
		scope = &userID
	}

	result, err := h.service.List(c.Context(), scope, c.Query("status"), pagination.GetParams(c))
	if err != nil {
		return customRequestError(c, err, "Failed to list custom requests")
	}
	return response.Success(c, "Custom requests retrieved successfully", result)
}

// Get
// @Summary Get a custom request
// @Tags Custom Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /custom-requests/{id} [get]
func (h *CustomRequestHandler) Get(c *fiber.Ctx) error {
	userID, role, _ := currentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid request ID")
	}

	req, err := h.service.Get(c.Context(), id, userID, role)
	if err != nil {
		return customRequestError(c, err, "Failed to get custom request")
	}
	return response.Success(c, "Custom request retrieved successfully", req)
}

// UpdateStatus
// @Summary Move a custom request to another status
// @Tags Custom Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param body body StatusRequest true "New status"
// @Success 200 {object} response.Response
// @Router /custom-requests/{id}/status [patch]
func (h *CustomRequestHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, err, "Invalid request ID")
	}

	var req StatusRequest
	if err := validator.ParseAndValidate(c, &req); err != nil {
		return handleError(c, err, "Failed to update custom request")
	}

	out, err := h.service.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		return customRequestError(c, err, "Failed to update custom request")
	}
	return response.Success(c, "Custom request updated successfully", out)
}

// GetControl
// @Summary Read the intake switch
// @Tags Custom Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /custom-requests/control [get]
func (h *CustomRequestHandler) GetControl(c *fiber.Ctx) error {
	control, err := h.service.GetControl(c.Context())
	if err != nil {
		return handleError(c, err, "Failed to get intake settings")
	}
	return response.Success(c, "Intake settings retrieved successfully", control)
}

// UpdateControl
// @Summary Open, close or cap custom request intake
// @Tags Custom Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateControlInput true "Intake settings"
// @Success 200 {object} response.Response
// @Router /custom-requests/control [put]
func (h *CustomRequestHandler) UpdateControl(c *fiber.Ctx) error {
	var input services.UpdateControlInput
	if err := validator.ParseAndValidate(c, &input); err != nil {
		return handleError(c, err, "Failed to update intake settings")
	}

	control, err := h.service.UpdateControl(c.Context(), &input)
	if err != nil {
		return handleError(c, err, "Failed to update intake settings")
	}
	return response.Success(c, "Intake settings updated successfully", control)
}

func customRequestError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrCustomRequestsClosed):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCustomRequestNotFound):
		return response.NotFound(c, "Custom request not found")
	case errors.Is(err, services.ErrCategoryNotFound):
		return response.ValidationError(c, map[string]string{"service_category_id": "Category not found."})
	case errors.Is(err, services.ErrInvalidRequestStatus):
		return response.ValidationError(c, map[string]string{"status": err.Error()})
	case errors.Is(err, services.ErrFileTooLarge):
		return response.ValidationError(c, map[string]string{"reference_file": err.Error()})
	default:
		return handleError(c, err, fallback)
	}
}
