package filestorage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinIOConfig holds the object storage connection settings
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// MinIOStorage stores files as objects in a single bucket
type MinIOStorage struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger zerolog.Logger
}

// NewMinIOStorage connects to the server and creates the bucket when missing
func NewMinIOStorage(ctx context.Context, cfg MinIOConfig, logger zerolog.Logger) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("Bucket created")
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket, expiry: expiry, logger: logger}, nil
}

// Save implements Storage
func (ms *MinIOStorage) Save(ctx context.Context, fileHeader *multipart.FileHeader, dir string) (string, error) {
	if fileHeader == nil {
		return "", errors.New("no file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	key := objectKey(dir, fileHeader.Filename)
	info, err := ms.client.PutObject(ctx, ms.bucket, key, file, fileHeader.Size,
		minio.PutObjectOptions{ContentType: fileHeader.Header.Get("Content-Type")})
	if err != nil {
		ms.logger.Error().Err(err).Str("key", key).Msg("Failed to upload object")
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	ms.logger.Info().Str("key", key).Int64("size", info.Size).Msg("Object uploaded")
	return key, nil
}

// Delete implements Storage. MinIO treats removal of a missing object as success.
func (ms *MinIOStorage) Delete(ctx context.Context, key string) error {
	if _, ok := cleanKey(key); !ok {
		return fmt.Errorf("invalid object key: %q", key)
	}
	if err := ms.client.RemoveObject(ctx, ms.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// URL implements Storage with a presigned GET link
func (ms *MinIOStorage) URL(ctx context.Context, key string) (string, error) {
	if _, ok := cleanKey(key); !ok {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	u, err := ms.client.PresignedGetObject(ctx, ms.bucket, key, ms.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return u.String(), nil
}
