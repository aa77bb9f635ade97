package minio

import (
	"context"
	"fmt"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Storage struct {
	client       *miniogo.Client
	uploadBucket string
	maxBytes     int64
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UploadBucket string
	// MaxObjectBytes caps how much of a video is read into memory. Zero means no cap.
	MaxObjectBytes int64
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:       client,
		uploadBucket: cfg.UploadBucket,
		maxBytes:     cfg.MaxObjectBytes,
	}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.uploadBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.uploadBucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.uploadBucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.uploadBucket, err)
		}
	}
	return nil
}

// FetchVideo reads a whole uploaded video into memory. The extractor works on
// an in-memory upload, same as the HTTP path.
func (s *Storage) FetchVideo(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.uploadBucket, objectKey, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectKey, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat object %s: %w", objectKey, err)
	}
	if s.maxBytes > 0 && info.Size > s.maxBytes {
		return nil, fmt.Errorf("object %s is %d bytes, limit is %d", objectKey, info.Size, s.maxBytes)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", objectKey, err)
	}
	return data, nil
}
