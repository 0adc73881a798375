// Package archive uploads finished disc images to S3-compatible object
// storage so a disc can be re-burned later without re-transcoding.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"burnaudio/internal/config"
	"burnaudio/internal/logging"
	"burnaudio/internal/services"
)

// Receipt identifies an uploaded image.
type Receipt struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// Location renders the object as bucket/key.
func (r Receipt) Location() string {
	return r.Bucket + "/" + r.Key
}

// Uploader stores images.
type Uploader interface {
	Upload(ctx context.Context, imagePath string, metadata map[string]string) (Receipt, error)
	Check(ctx context.Context) error
}

// NewUploader returns a minio-backed uploader, or nil when archiving is
// disabled.
func NewUploader(cfg config.Archive, logger *slog.Logger) (Uploader, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "configure", "endpoint is empty", nil)
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}
	return &minioUploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logging.NewComponentLogger(logger, "archive"),
	}, nil
}

type minioUploader struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// ObjectKey joins prefix and the image's file name.
func ObjectKey(prefix, imagePath string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	name := filepath.Base(imagePath)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (u *minioUploader) Check(ctx context.Context) error {
	ok, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", u.bucket, err)
	}
	if !ok {
		return services.Wrap(services.ErrNotFound, "archive", "check", fmt.Sprintf("bucket %q does not exist", u.bucket), nil)
	}
	return nil
}

func (u *minioUploader) Upload(ctx context.Context, imagePath string, metadata map[string]string) (Receipt, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return Receipt{}, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return Receipt{}, err
	}
	if stat.Size() == 0 {
		return Receipt{}, errors.New("image is empty")
	}

	key := ObjectKey(u.prefix, imagePath)
	start := time.Now()
	info, err := u.client.PutObject(ctx, u.bucket, key, file, stat.Size(), minio.PutObjectOptions{
		ContentType:  "application/x-iso9660-image",
		UserMetadata: metadata,
	})
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransient, "archive", "upload", key, err)
	}

	receipt := Receipt{Bucket: u.bucket, Key: key, ETag: info.ETag, Size: stat.Size()}
	u.logger.Info("image archived",
		logging.String("location", receipt.Location()),
		logging.Int64("size_bytes", receipt.Size),
		logging.Duration("duration", time.Since(start)),
	)
	return receipt, nil
}
