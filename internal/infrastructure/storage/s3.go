package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

type s3Storage struct {
	client *minio.Client
	bucket string
	dirs   map[domain.Tier]string
}

func NewS3Storage(cfg *config.StorageConfig) (Storage, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}

	creds := credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, "")
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check s3 bucket: %w", err)
	}
	if !exists {
		// the canonical dataset must already be there
		return nil, fmt.Errorf("%w: s3 bucket %s does not exist", domain.ErrConfiguration, cfg.S3Bucket)
	}

	return &s3Storage{
		client: client,
		bucket: cfg.S3Bucket,
		dirs:   tierDirs(cfg),
	}, nil
}

func (s *s3Storage) Path(tier domain.Tier, name string) string {
	return path.Join(s.dirs[tier], name)
}

func (s *s3Storage) Exists(ctx context.Context, tier domain.Tier, name string) (bool, error) {
	objectName := s.Path(tier, name)
	_, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to stat object")
	return false, fmt.Errorf("stat object %s: %w", objectName, err)
}

func (s *s3Storage) Open(ctx context.Context, tier domain.Tier, name string) (io.ReadCloser, error) {
	objectName := s.Path(tier, name)
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to get object")
		return nil, fmt.Errorf("get object %s: %w", objectName, err)
	}

	if _, err := obj.Stat(); err != nil {
		obj.Close()
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("object not found or inaccessible")
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
	}
	return obj, nil
}

func (s *s3Storage) Save(ctx context.Context, tier domain.Tier, name string, reader io.Reader) (string, error) {
	if reader == nil {
		zlog.Logger.Error().Str("filename", name).Msg("reader is nil")
		return "", fmt.Errorf("reader is nil")
	}

	objectName := s.Path(tier, name)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, -1, minio.PutObjectOptions{})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to put object to s3")
		return "", fmt.Errorf("%w: put object %s: %v", domain.ErrStorageFailed, objectName, err)
	}

	zlog.Logger.Info().Str("path", objectName).Str("tier", string(tier)).Msg("object saved to s3")
	return objectName, nil
}

func (s *s3Storage) Delete(ctx context.Context, objectPath string) error {
	if objectPath == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		zlog.Logger.Error().Err(err).Str("path", objectPath).Msg("failed to delete object from s3")
		return fmt.Errorf("remove object %s: %w", objectPath, err)
	}
	zlog.Logger.Info().Str("path", objectPath).Msg("object deleted from s3")
	return nil
}

func (s *s3Storage) List(ctx context.Context, tier domain.Tier) ([]string, error) {
	prefix := s.dirs[tier] + "/"
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
