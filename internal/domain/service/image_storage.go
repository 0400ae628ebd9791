package service

import "context"

// ImageStorage abstracts the blob bucket holding profile images.
type ImageStorage interface {
	// Save writes the image bytes under the given key and returns the stored path.
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes a stored image. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
