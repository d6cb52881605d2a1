package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/adapters/storage"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/pagination"
	"makerhub-api/internal/pkg/phone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCustomRequestNotFound = errors.New("custom request not found")
	ErrCustomRequestsClosed  = errors.New("custom requests are not being accepted")
	ErrInvalidRequestStatus  = errors.New("status must be one of: pending, in_progress, completed, cancelled")
)

// IntakeClosedError carries the message shown to the client
type IntakeClosedError struct {
	Message string
}

func (e *IntakeClosedError) Error() string { return e.Message }

func (e *IntakeClosedError) Is(target error) bool { return target == ErrCustomRequestsClosed }

// CustomRequestService handles bespoke design requests and the intake switch
type CustomRequestService struct {
	repo         repositories.CustomRequestRepository
	categoryRepo repositories.CategoryRepository
	store        storage.MediaStorage
	events       events.Publisher
}

func NewCustomRequestService(
	repo repositories.CustomRequestRepository,
	categoryRepo repositories.CategoryRepository,
	store storage.MediaStorage,
	publisher events.Publisher,
) *CustomRequestService {
	return &CustomRequestService{repo: repo, categoryRepo: categoryRepo, store: store, events: publisher}
}

type CreateCustomRequestInput struct {
	ClientName        string           `json:"client_name" form:"client_name" validate:"required,max=200"`
	ClientEmail       string           `json:"client_email" form:"client_email" validate:"required,email,max=100"`
	ClientPhone       string           `json:"client_phone" form:"client_phone" validate:"required,max=20"`
	ServiceCategoryID *uint            `json:"service_category_id" form:"service_category_id"`
	Title             string           `json:"title" form:"title" validate:"required,max=200"`
	Description       string           `json:"description" form:"description" validate:"required"`
	Budget            *decimal.Decimal `json:"budget" form:"-"`
}

// ReferenceFile is an optional attachment sent with a request
type ReferenceFile struct {
	Reader io.Reader
	Size   int64
}

type UpdateControlInput struct {
	AllowCustomRequests *bool   `json:"allow_custom_requests"`
	MaxPendingRequests  *int    `json:"max_pending_requests" validate:"omitempty,gte=0"`
	DisableReason       *string `json:"disable_reason" validate:"omitempty,max=255"`
}

// AvailabilityOutput answers whether the form should be shown
type AvailabilityOutput struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

func (s *CustomRequestService) Availability(ctx context.Context) (*AvailabilityOutput, error) {
	open, msg, err := s.intakeOpen(ctx)
	if err != nil {
		return nil, err
	}
	return &AvailabilityOutput{Available: open, Message: msg}, nil
}

// Create files a request when intake is open. userID may be nil for guests.
func (s *CustomRequestService) Create(ctx context.Context, userID *uint, input *CreateCustomRequestInput, file *ReferenceFile) (*models.CustomRequest, error) {
	open, msg, err := s.intakeOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, &IntakeClosedError{Message: msg}
	}

	if input.ServiceCategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *input.ServiceCategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}
	if input.Budget != nil && input.Budget.IsNegative() {
		return nil, fmt.Errorf("%w: budget cannot be negative", domain.ErrInvalidInput)
	}

	req := &models.CustomRequest{
		UserID:      userID,
		ClientName:  strings.TrimSpace(input.ClientName),
		ClientEmail: normalizeEmail(input.ClientEmail),
		ClientPhone: phone.Normalize(input.ClientPhone),
		CategoryID:  input.ServiceCategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Budget:      nullDecimal(input.Budget),
		Status:      domain.CustomRequestPending,
	}

	if file != nil && file.Reader != nil {
		if file.Size > domain.MaxImageBytes {
			return nil, fmt.Errorf("%w: reference files are limited to 110 MB", ErrFileTooLarge)
		}
		res, err := s.store.Upload(ctx, file.Reader, "custom-request-"+uuid.New().String(), "auto")
		if err != nil {
			return nil, err
		}
		req.ReferenceFileURL = res.URL
		req.ReferencePublicID = res.PublicID
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.CustomRequestFiled, map[string]interface{}{
		"custom_request_id": req.ID,
		"title":             req.Title,
		"client_email":      req.ClientEmail,
	})
	log.Printf("✅ Custom request %d filed by %s", req.ID, req.ClientEmail)
	return req, nil
}

// List returns everyone's requests when userID is nil
func (s *CustomRequestService) List(ctx context.Context, userID *uint, status string, p *pagination.Params) (*pagination.Response, error) {
	filter := repositories.CustomRequestFilter{UserID: userID}
	if status != "" {
		st, ok := domain.ParseCustomRequestStatus(status)
		if !ok {
			return nil, ErrInvalidRequestStatus
		}
		filter.Status = st
	}

	items, total, err := s.repo.List(ctx, filter, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(items, p, total), nil
}

// Get allows the owner or staff
func (s *CustomRequestService) Get(ctx context.Context, id, actorID uint, role domain.Role) (*models.CustomRequest, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessOwned(role, domain.ActionManageCustomRequest, actorID, req.UserID) {
		// hide existence from other customers
		return nil, ErrCustomRequestNotFound
	}
	return req, nil
}

func (s *CustomRequestService) UpdateStatus(ctx context.Context, id uint, status string) (*models.CustomRequest, error) {
	st, ok := domain.ParseCustomRequestStatus(status)
	if !ok {
		return nil, ErrInvalidRequestStatus
	}
	req, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	req.Status = st
	return req, nil
}

func (s *CustomRequestService) GetControl(ctx context.Context) (*models.CustomRequestControl, error) {
	return s.repo.GetControl(ctx)
}

func (s *CustomRequestService) UpdateControl(ctx context.Context, input *UpdateControlInput) (*models.CustomRequestControl, error) {
	control, err := s.repo.GetControl(ctx)
	if err != nil {
		return nil, err
	}
	if input.AllowCustomRequests != nil {
		control.AllowCustomRequests = *input.AllowCustomRequests
	}
	if input.MaxPendingRequests != nil {
		control.MaxPendingRequests = *input.MaxPendingRequests
	}
	if input.DisableReason != nil {
		control.DisableReason = strings.TrimSpace(*input.DisableReason)
	}
	if err := s.repo.SaveControl(ctx, control); err != nil {
		return nil, err
	}

	log.Printf("✅ Custom request intake: allow=%t max_pending=%d", control.AllowCustomRequests, control.MaxPendingRequests)
	return control, nil
}

func (s *CustomRequestService) intakeOpen(ctx context.Context) (bool, string, error) {
	control, err := s.repo.GetControl(ctx)
	if err != nil {
		return false, "", err
	}
	pending, err := s.repo.CountPending(ctx)
	if err != nil {
		return false, "", err
	}
	open, msg := control.RequestsAreOpen(pending)
	return open, msg, nil
}

func (s *CustomRequestService) get(ctx context.Context, id uint) (*models.CustomRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomRequestNotFound
		}
		return nil, err
	}
	return req, nil
}
