// Package storage moves staged uploads into a gocloud blob bucket.
package storage

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/s3blob"   // s3:// buckets
)

// BlobUploader implements service.BlobUploader on a gocloud bucket.
type BlobUploader struct {
	bucket        *blob.Bucket
	publicBaseURL string
	logger        *slog.Logger
}

// NewBlobUploader wraps an open bucket. Returned URLs are publicBaseURL joined with the object key.
func NewBlobUploader(bucket *blob.Bucket, publicBaseURL string, logger *slog.Logger) *BlobUploader {
	return &BlobUploader{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Upload copies the staged file to <folder>/<uuid><ext> and removes the staged copy.
func (u *BlobUploader) Upload(ctx context.Context, localPath, folder string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to open staged file")
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)

	opts := &blob.WriterOptions{ContentType: mime.TypeByExtension(ext)}
	w, err := u.bucket.NewWriter(ctx, key, opts)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open writer for %s", key)
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()

		return "", errors.Wrapf(err, "failed to upload %s", key)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to finish upload of %s", key)
	}

	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		deliverycontext.GetLoggerOrDefault(ctx, u.logger).Warn("Failed to remove staged file",
			slog.String("path", localPath),
			slog.Any("error", err),
		)
	}

	return u.publicBaseURL + "/" + key, nil
}

// UploaderParams holds dependencies for NewUploader, injected by Fx
type UploaderParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewUploader opens the configured bucket and closes it on shutdown.
func NewUploader(params UploaderParams) (service.BlobUploader, error) {
	cfg := params.Config.Storage
	if cfg == nil || cfg.BucketURL == "" {
		return nil, errors.New("storage bucket URL is required")
	}

	bucket, err := blob.OpenBucket(params.Ctx, cfg.BucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", cfg.BucketURL)
	}

	params.Logger.Info("Blob storage initialized", slog.String("bucket", cfg.BucketURL))

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return errors.WithStack(bucket.Close())
		},
	})

	return NewBlobUploader(bucket, cfg.PublicBaseURL, params.Logger), nil
}

// Module provides the storage FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewUploader),
)
