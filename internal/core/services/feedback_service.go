package services

import (
	"context"
	"errors"
	"strings"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/pkg/pagination"

	"gorm.io/gorm"
)

var ErrFeedbackNotFound = errors.New("feedback not found")

// FeedbackService handles product reviews and their moderation
type FeedbackService struct {
	feedbackRepo repositories.FeedbackRepository
	productRepo  repositories.ProductRepository
	userRepo     repositories.UserRepository
}

func NewFeedbackService(feedbackRepo repositories.FeedbackRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo, productRepo: productRepo, userRepo: userRepo}
}

type CreateFeedbackInput struct {
	ProductID  uint   `json:"product_id" validate:"required"`
	ClientName string `json:"client_name" validate:"omitempty,max=200"`
	Message    string `json:"message" validate:"required"`
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// Create stores an unpublished review; the client name defaults to the user's
func (s *FeedbackService) Create(ctx context.Context, userID uint, input *CreateFeedbackInput) (*models.Feedback, error) {
	product, err := s.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Published {
		return nil, ErrProductNotFound
	}

	name := strings.TrimSpace(input.ClientName)
	if name == "" {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		name = user.FullName
	}

	feedback := &models.Feedback{
		ProductID:  input.ProductID,
		UserID:     userID,
		ClientName: name,
		Message:    strings.TrimSpace(input.Message),
		Rating:     input.Rating,
		Published:  false,
	}
	if err := s.feedbackRepo.Create(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// List shows published feedback only unless includeUnpublished is set
func (s *FeedbackService) List(ctx context.Context, productID *uint, includeUnpublished bool, p *pagination.Params) (*pagination.Response, error) {
	items, total, err := s.feedbackRepo.List(ctx, repositories.FeedbackFilter{
		ProductID:     productID,
		PublishedOnly: !includeUnpublished,
	}, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(items, p, total), nil
}

func (s *FeedbackService) SetPublished(ctx context.Context, id uint, published bool) (*models.Feedback, error) {
	feedback, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.feedbackRepo.SetPublished(ctx, id, published); err != nil {
		return nil, err
	}
	feedback.Published = published
	return feedback, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	return s.feedbackRepo.Delete(ctx, id)
}

func (s *FeedbackService) get(ctx context.Context, id uint) (*models.Feedback, error) {
	feedback, err := s.feedbackRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	return feedback, nil
}
