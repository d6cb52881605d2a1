package services

import (
	"context"
	"strings"
	"testing"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediaFixture(media ...*models.ProductMedia) (*MediaService, *fakeMediaRepo, *fakeStorage) {
	repo := newFakeMediaRepo(media...)
	store := &fakeStorage{}
	products := newFakeProductRepo(&models.Product{ID: 1, Name: "Vase", Published: true})
	return NewMediaService(repo, products, store), repo, store
}

func TestMediaUpload_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		productID uint
		input     *UploadMediaInput
		want      error
	}{
		{"unknown product", 9, &UploadMediaInput{Kind: "image", File: strings.NewReader("x"), Size: 1}, ErrProductNotFound},
		{"unknown kind", 1, &UploadMediaInput{Kind: "audio", File: strings.NewReader("x"), Size: 1}, ErrInvalidMediaKind},
		{"image over limit", 1, &UploadMediaInput{Kind: "image", File: strings.NewReader("x"), Size: domain.MaxImageBytes + 1}, ErrFileTooLarge},
		{"video over limit", 1, &UploadMediaInput{Kind: "video", File: strings.NewReader("x"), Size: domain.MaxVideoBytes + 1}, ErrFileTooLarge},
		{"no file", 1, &UploadMediaInput{Kind: "image", Size: 1}, ErrFileRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, store := newMediaFixture()
			_, err := svc.Upload(context.Background(), tt.productID, tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, repo.media)
			assert.Empty(t, store.uploads)
		})
	}
}

func TestMediaUpload(t *testing.T) {
	tests := []struct {
		kind      string
		size      int64
		wantVideo bool
	}{
		{"image", domain.MaxImageBytes, false},
		{"video", domain.MaxImageBytes + 1, true},
		{"model_3d", domain.MaxVideoBytes + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			svc, repo, store := newMediaFixture()
			media, err := svc.Upload(context.Background(), 1, &UploadMediaInput{
				Kind: tt.kind, AltText: "front", DisplayOrder: 2, File: strings.NewReader("bytes"), Size: tt.size,
			})
			require.NoError(t, err)

			require.Len(t, store.uploads, 1)
			assert.True(t, strings.HasPrefix(media.PublicID, "product-1-"))
			assert.Equal(t, "https://cdn.test/"+media.PublicID, media.URL)
			assert.Equal(t, domain.MediaKind(tt.kind), media.Kind)
			assert.Equal(t, 2, media.DisplayOrder)
			if tt.wantVideo {
				assert.Equal(t, media.URL, media.VideoURL)
			} else {
				assert.Empty(t, media.VideoURL)
			}
			assert.Contains(t, repo.media, media.ID)
		})
	}
}

func TestMediaDelete(t *testing.T) {
	svc, repo, store := newMediaFixture(
		&models.ProductMedia{ID: 1, ProductID: 1, Kind: domain.MediaImage, PublicID: "product-1-a"},
		&models.ProductMedia{ID: 2, ProductID: 1, Kind: domain.MediaImage},
	)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 1))
	assert.Equal(t, []string{"product-1-a"}, store.destroyed)
	assert.NotContains(t, repo.media, uint(1))

	require.NoError(t, svc.Delete(ctx, 2))
	assert.Len(t, store.destroyed, 1, "rows without a remote asset skip storage")

	assert.ErrorIs(t, svc.Delete(ctx, 1), ErrMediaNotFound)
}
