package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/vaultmeet/vaultmeet/internal/config"
)

// Store saves a payment-proof image and returns a publicly retrievable URL.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// New builds the configured proof store.
func New(cfg config.ProofsConfig) (Store, error) {
	switch cfg.Store {
	case "", "imagehost":
		if cfg.ImageHost.UploadURL == "" {
			return nil, fmt.Errorf("imagehost upload_url not configured")
		}
		return NewImageHost(cfg.ImageHost), nil
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown proof store %q", cfg.Store)
	}
}
