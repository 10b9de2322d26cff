// Package storage uploads tour images to S3 compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	appconfig "city-tours/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Storage is the file storage collaborator
type Storage interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

// S3Storage stores objects in a single bucket
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Storage creates a new S3 storage from configuration
func NewS3Storage(ctx context.Context, cfg appconfig.AWSConfig) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: publicBase(cfg),
	}, nil
}

// Upload stores data at path and returns its public URL
func (s *S3Storage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	log.Debug().Str("key", path).Int("bytes", len(data)).Msg("Object uploaded")
	return s.PublicURL(path), nil
}

// Delete removes the object at path
func (s *S3Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL returns the URL an object is served from
func (s *S3Storage) PublicURL(path string) string {
	return s.publicURL + "/" + strings.TrimPrefix(path, "/")
}

func publicBase(cfg appconfig.AWSConfig) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	}
}

// MemoryStorage keeps objects in process memory, for development and tests
type MemoryStorage struct {
	mu      sync.RWMutex
	base    string
	objects map[string]Object
}

// Object is a stored blob
type Object struct {
	Data        []byte
	ContentType string
}

// NewMemoryStorage creates an in-memory storage serving URLs under base
func NewMemoryStorage(base string) *MemoryStorage {
	if base == "" {
		base = "memory://tours"
	}
	return &MemoryStorage{base: strings.TrimRight(base, "/"), objects: make(map[string]Object)}
}

// Upload stores data at path
func (m *MemoryStorage) Upload(_ context.Context, path string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return m.PublicURL(path), nil
}

// Delete removes the object at path
func (m *MemoryStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

// PublicURL returns the URL of path
func (m *MemoryStorage) PublicURL(path string) string {
	return m.base + "/" + strings.TrimPrefix(path, "/")
}

// Get returns a stored object
func (m *MemoryStorage) Get(path string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[path]
	return o, ok
}

// KeyFromURL recovers the object path from a URL produced by PublicURL
func KeyFromURL(s Storage, url string) (string, bool) {
	prefix := s.PublicURL("")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
