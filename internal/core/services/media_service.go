package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/adapters/storage"
	"makerhub-api/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMediaNotFound    = errors.New("media not found")
	ErrInvalidMediaKind = errors.New("kind must be one of: image, video, model_3d")
	ErrFileTooLarge     = errors.New("file is too large")
	ErrFileRequired     = errors.New("file is required")
)

// MediaService stores product media in remote storage and tracks it in the DB
type MediaService struct {
	mediaRepo   repositories.MediaRepository
	productRepo repositories.ProductRepository
	store       storage.MediaStorage
}

func NewMediaService(mediaRepo repositories.MediaRepository, productRepo repositories.ProductRepository, store storage.MediaStorage) *MediaService {
	return &MediaService{mediaRepo: mediaRepo, productRepo: productRepo, store: store}
}

// UploadMediaInput is a single multipart upload
type UploadMediaInput struct {
	Kind         string
	AltText      string
	DisplayOrder int
	File         io.Reader
	Size         int64
}

func (s *MediaService) Upload(ctx context.Context, productID uint, input *UploadMediaInput) (*models.ProductMedia, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	kind := domain.MediaKind(input.Kind)
	resourceType, err := checkMedia(kind, input.Size)
	if err != nil {
		return nil, err
	}
	if input.File == nil {
		return nil, ErrFileRequired
	}

	publicID := fmt.Sprintf("product-%d-%s", productID, uuid.New().String())
	res, err := s.store.Upload(ctx, input.File, publicID, resourceType)
	if err != nil {
		return nil, err
	}

	media := &models.ProductMedia{
		ProductID:    productID,
		Kind:         kind,
		URL:          res.URL,
		PublicID:     res.PublicID,
		AltText:      input.AltText,
		DisplayOrder: input.DisplayOrder,
	}
	if kind == domain.MediaVideo {
		media.VideoURL = res.URL
	}

	if err := s.mediaRepo.Create(ctx, media); err != nil {
		// do not leave an orphan asset behind
		if derr := s.store.Destroy(ctx, res.PublicID, resourceType); derr != nil {
			log.Printf("⚠️ Orphan media %s not destroyed: %v", res.PublicID, derr)
		}
		return nil, err
	}

	log.Printf("✅ Media %d (%s) uploaded for product %d", media.ID, kind, productID)
	return media, nil
}

func (s *MediaService) ListByProduct(ctx context.Context, productID uint) ([]*models.ProductMedia, error) {
	return s.mediaRepo.ListByProduct(ctx, productID)
}

// Delete removes the row and the remote asset; a failed remote delete is only logged
func (s *MediaService) Delete(ctx context.Context, id uint) error {
	media, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}

	if err := s.mediaRepo.Delete(ctx, id); err != nil {
		return err
	}

	if media.PublicID != "" {
		resourceType, _ := checkMedia(media.Kind, 0)
		if err := s.store.Destroy(ctx, media.PublicID, resourceType); err != nil {
			log.Printf("⚠️ Remote media %s not destroyed: %v", media.PublicID, err)
		}
	}
	return nil
}

// checkMedia validates size for kind and returns the storage resource type
func checkMedia(kind domain.MediaKind, size int64) (string, error) {
	switch kind {
	case domain.MediaImage:
		if size > domain.MaxImageBytes {
			return "", fmt.Errorf("%w: images are limited to 110 MB", ErrFileTooLarge)
		}
		return "image", nil
	case domain.MediaVideo:
		if size > domain.MaxVideoBytes {
			return "", fmt.Errorf("%w: videos are limited to 500 MB", ErrFileTooLarge)
		}
		return "video", nil
	case domain.MediaModel3D:
		return "raw", nil
	default:
		return "", ErrInvalidMediaKind
	}
}
