package adapter

import (
	"context"
	"io"
)

// ImageStore uploads listing and promotion images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	// Delete removes the object behind a URL returned by Upload. URLs the store does not
	// own are ignored.
	Delete(ctx context.Context, url string) error
}
