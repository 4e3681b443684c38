// Package archive copies analysed photos to S3-compatible storage.
// When no bucket is configured the NoopUploader is used and archiving is
// skipped entirely.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/foodlens/internal/config"
)

// ErrNotConfigured is returned when archive storage is not configured.
var ErrNotConfigured = errors.New("archive storage not configured")

// DefaultURLExpiry is the lifetime of pre-signed download URLs.
const DefaultURLExpiry = 15 * time.Minute

// Uploader archives photos and generates pre-signed download URLs.
type Uploader interface {
	// Upload stores the photo for a history entry and returns its object key.
	Upload(ctx context.Context, entryID, mimeType string, data []byte) (string, error)

	// PresignedURL returns a pre-signed URL for an archived photo.
	// Returns ErrNotConfigured when archiving is disabled.
	PresignedURL(ctx context.Context, entryID, mimeType string) (string, time.Time, error)
}

// s3Client defines the minimal minio.Client operations used by S3Uploader.
type s3Client interface {
	PutObject(ctx context.Context, bucket, objectName string, r io.Reader, size int64, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

// minioClientWrapper adapts *minio.Client to s3Client.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := w.client.PutObject(ctx, bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Uploader archives photos to S3-compatible storage.
type S3Uploader struct {
	client    s3Client
	bucket    string
	prefix    string
	urlExpiry time.Duration
}

// Upload puts the photo under {prefix}/{entryID}.{ext}.
func (u *S3Uploader) Upload(ctx context.Context, entryID, mimeType string, data []byte) (string, error) {
	key := u.objectKey(entryID, mimeType)
	if err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		return "", fmt.Errorf("upload photo to S3: %w", err)
	}
	return key, nil
}

// PresignedURL returns a pre-signed GET URL for an archived photo.
func (u *S3Uploader) PresignedURL(ctx context.Context, entryID, mimeType string) (string, time.Time, error) {
	key := u.objectKey(entryID, mimeType)
	presigned, err := u.client.PresignedGetObject(ctx, u.bucket, key, u.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	return presigned.String(), time.Now().Add(u.urlExpiry), nil
}

func (u *S3Uploader) objectKey(entryID, mimeType string) string {
	return path.Join(u.prefix, entryID+extension(mimeType))
}

// NoopUploader is used when archiving is not configured.
type NoopUploader struct{}

// Upload is a no-op.
func (u *NoopUploader) Upload(ctx context.Context, entryID, mimeType string, data []byte) (string, error) {
	return "", nil
}

// PresignedURL returns ErrNotConfigured.
func (u *NoopUploader) PresignedURL(ctx context.Context, entryID, mimeType string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewUploader creates the appropriate Uploader based on configuration.
// Returns NoopUploader when bucket is empty, S3Uploader otherwise.
func NewUploader(cfg config.ArchiveConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		urlExpiry: DefaultURLExpiry,
	}, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
