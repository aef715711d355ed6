package driven

import (
	"context"

	"employee-portal/internal/auth-service/core/domain/dto"
)

// IMediaStore is the two-call contract against the external media
// provider: upload an asset, delete it later by its public id.
type IMediaStore interface {
	Upload(ctx context.Context, img dto.ImageUpload) (url string, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
}
