package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"songhouse/config"
	"songhouse/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore uploads materialized track audio to a minio bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore connects to minio and ensures the bucket exists.
func NewObjectStore(cfg *config.Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.MinioBucket, err)
		}
		logger.Info("created storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &ObjectStore{client: client, bucket: cfg.MinioBucket}, nil
}

// PutTrack uploads the audio bytes under the given object key.
func (s *ObjectStore) PutTrack(ctx context.Context, key string, audio []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(audio), int64(len(audio)),
		minio.PutObjectOptions{ContentType: "audio/mpeg"})
	if err != nil {
		return fmt.Errorf("failed to upload track object %q: %w", key, err)
	}
	return nil
}
