// Package storage provides object storage implementations for image hosting.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	infraconfig "github.com/shopcore/backend/internal/infrastructure/config"
)

// maxImageSize caps how much we will download from a source image URL.
const maxImageSize = 10 << 20

// S3ImageStore re-hosts product images on an S3-compatible bucket.
// It works with any S3-compatible backend (AWS S3, MinIO, RustFS, etc.)
type S3ImageStore struct {
	client     *s3.Client
	httpClient *http.Client
	bucket     string
	publicURL  string
	keyPrefix  string
	logger     *zap.Logger
}

// S3ImageStoreOption is a functional option for configuring S3ImageStore
type S3ImageStoreOption func(*S3ImageStore)

// WithLogger sets a custom logger for S3ImageStore
func WithLogger(logger *zap.Logger) S3ImageStoreOption {
	return func(s *S3ImageStore) {
		s.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used to download source images
func WithHTTPClient(client *http.Client) S3ImageStoreOption {
	return func(s *S3ImageStore) {
		s.httpClient = client
	}
}

// WithKeyPrefix sets the object key prefix for uploaded images
func WithKeyPrefix(prefix string) S3ImageStoreOption {
	return func(s *S3ImageStore) {
		s.keyPrefix = strings.Trim(prefix, "/")
	}
}

// NewS3ImageStore creates a new S3ImageStore from configuration.
func NewS3ImageStore(cfg *infraconfig.StorageConfig, opts ...S3ImageStoreOption) (*S3ImageStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	// Path-style addressing keeps custom endpoints (MinIO, RustFS) working
	// without wildcard DNS.
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	}

	store := &S3ImageStore{
		client:     client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bucket:     cfg.Bucket,
		publicURL:  publicURL,
		keyPrefix:  "products/images",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3ImageStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		// Ignore "BucketAlreadyOwnedByYou" error (startup race)
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// RehostImage downloads the image at sourceURL and uploads it to the bucket,
// returning the public URL of the hosted copy. Object keys are derived from
// the source URL, so re-hosting the same image twice is idempotent.
func (s *S3ImageStore) RehostImage(ctx context.Context, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", errors.New("source image URL is required")
	}

	key := s.objectKey(sourceURL)

	exists, err := s.ObjectExists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return s.PublicObjectURL(key), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid source image URL: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: source returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("source image is empty")
	}
	if len(data) > maxImageSize {
		return "", fmt.Errorf("source image exceeds %d bytes", maxImageSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	if err := s.Upload(ctx, key, data, contentType); err != nil {
		return "", err
	}

	s.logger.Debug("Image re-hosted",
		zap.String("source_url", sourceURL),
		zap.String("key", key),
		zap.Int("bytes", len(data)))

	return s.PublicObjectURL(key), nil
}

// Upload uploads data directly to storage.
func (s *S3ImageStore) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		Body:        strings.NewReader(string(data)),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// ObjectExists checks if an object exists in storage.
func (s *S3ImageStore) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		// Some S3-compatible services surface not-found differently.
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// DeleteObject deletes an object from storage.
func (s *S3ImageStore) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicObjectURL returns the public URL of a stored object.
func (s *S3ImageStore) PublicObjectURL(storageKey string) string {
	return s.publicURL + "/" + storageKey
}

// GetBucket returns the bucket name
func (s *S3ImageStore) GetBucket() string {
	return s.bucket
}

func (s *S3ImageStore) objectKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	name := hex.EncodeToString(sum[:])[:32] + extensionFor(sourceURL)
	if s.keyPrefix == "" {
		return name
	}
	return s.keyPrefix + "/" + name
}

func extensionFor(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ".jpg"
	}
	path := strings.ToLower(u.Path)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(path, ext) {
			return ext
		}
	}
	return ".jpg"
}
