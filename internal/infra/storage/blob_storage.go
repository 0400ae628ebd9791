// Package storage implements profile image persistence on a gocloud.dev blob bucket.
package storage

import (
	"context"
	"log/slog"

	"gocloud.dev/blob"
	// Registers the file:// bucket scheme used by local deployments.
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
	"go.uber.org/fx"

	"roster/config"
	"roster/internal/domain/lifecycle"
	"roster/internal/domain/service"
	"roster/internal/errors"
	"roster/internal/util"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// blobStorage implements service.ImageStorage on top of a blob bucket.
// The bucket URL decides the backend; local deployments use file://.
type blobStorage struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// New opens the configured bucket and manages its lifecycle through Fx.
func New(params Params) (service.ImageStorage, error) {
	if params.Config.Storage == nil || params.Config.Storage.BucketURL == "" {
		return nil, errors.New("storage bucket url must be provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	bucket, err := blob.OpenBucket(ctx, params.Config.Storage.BucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image bucket")
	}

	store := &blobStorage{bucket: bucket, logger: params.Logger}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bucket.Close()
		},
	})

	return store, nil
}

// Save writes the image bytes under the given key.
func (s *blobStorage) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return "", errors.Wrap(err, "failed to write profile image")
	}

	s.logger.Debug("Stored profile image",
		slog.String("key", key),
		slog.String("size", util.FormatBytes(int64(len(data)))))

	return key, nil
}

// Delete removes a stored image. A missing key is treated as already deleted.
func (s *blobStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}

		return errors.Wrap(err, "failed to delete profile image")
	}

	return nil
}
