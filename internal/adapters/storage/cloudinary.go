package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"makerhub-api/internal/config"
)

var ErrStorageDisabled = errors.New("media storage is not configured")

// UploadResult describes a stored asset
type UploadResult struct {
	URL      string
	PublicID string
	Bytes    int
}

// MediaStorage stores product images, videos and 3D model files
type MediaStorage interface {
	Upload(ctx context.Context, file io.Reader, publicID, resourceType string) (*UploadResult, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

type cloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// New returns Cloudinary-backed storage, or a disabled store when
// credentials are missing
func New(cfg config.CloudinaryConfig) (MediaStorage, error) {
	if cfg.CloudName == "" {
		return disabledStorage{}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &cloudinaryStorage{cld: cld, folder: cfg.Folder}, nil
}

// Upload sends file to Cloudinary. resourceType is image, video or raw.
func (s *cloudinaryStorage) Upload(ctx context.Context, file io.Reader, publicID, resourceType string) (*UploadResult, error) {
	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return &UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID, Bytes: resp.Bytes}, nil
}

func (s *cloudinaryStorage) Destroy(ctx context.Context, publicID, resourceType string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	return nil
}

type disabledStorage struct{}

func (disabledStorage) Upload(context.Context, io.Reader, string, string) (*UploadResult, error) {
	return nil, ErrStorageDisabled
}

func (disabledStorage) Destroy(context.Context, string, string) error {
	return nil
}
