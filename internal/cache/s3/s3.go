// Package s3 is a durable cache backend on S3-compatible object storage.
package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mfenderov/jsonld/internal/cache"
	"github.com/mfenderov/jsonld/internal/markup"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Prefix          string // object name prefix, e.g. "jsonld"
}

// Store keeps each entry as the object <prefix>/<key>.json. The object's
// LastModified is the entry's build time.
type Store struct {
	minioClient *minio.Client
	bucket      string
	prefix      string
}

// New creates a new S3/MinIO backed store.
func New(config Config) (*Store, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Store{
		minioClient: minioClient,
		bucket:      config.Bucket,
		prefix:      strings.Trim(config.Prefix, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.minioClient.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = s.minioClient.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// ObjectName returns the object holding key.
func (s *Store) ObjectName(key string) string {
	return path.Join(s.prefix, key+".json")
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return cache.Entry{}, false, err
	}

	object, err := s.minioClient.GetObject(ctx, s.bucket, s.ObjectName(key), minio.GetObjectOptions{})
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to get cache object: %w", err)
	}
	defer object.Close()

	// GetObject is lazy; the first Stat surfaces a missing key.
	info, err := object.Stat()
	if isNotFound(err) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to stat cache object: %w", err)
	}

	data, err := io.ReadAll(object)
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to read cache object: %w", err)
	}

	return cache.Entry{Document: string(data), BuiltAt: info.LastModified}, true, nil
}

// Put implements cache.Store. A single PutObject replaces the object whole.
func (s *Store) Put(ctx context.Context, key, document string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	reader := strings.NewReader(document)
	_, err := s.minioClient.PutObject(ctx, s.bucket, s.ObjectName(key), reader, int64(len(document)), minio.PutObjectOptions{
		ContentType: markup.ScriptType,
	})
	if err != nil {
		return fmt.Errorf("failed to put cache object: %w", err)
	}
	return nil
}

// IsStale implements cache.Store without downloading the document.
func (s *Store) IsStale(ctx context.Context, key string, modifiedAt time.Time) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}

	info, err := s.minioClient.StatObject(ctx, s.bucket, s.ObjectName(key), minio.StatObjectOptions{})
	if isNotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat cache object: %w", err)
	}

	return info.LastModified.Before(modifiedAt), nil
}

// Invalidate implements cache.Store. S3 deletes of missing objects succeed.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	if err := s.minioClient.RemoveObject(ctx, s.bucket, s.ObjectName(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove cache object: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
