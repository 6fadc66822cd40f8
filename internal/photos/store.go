package photos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported photo content type")

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Upload describes a presigned request the client uses to send a photo
// directly to the bucket.
type Upload struct {
	Method    string      `json:"method"`
	URL       string      `json:"url"`
	Headers   http.Header `json:"headers"`
	Key       string      `json:"key"`
	PublicURL string      `json:"public_url"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Store hands out upload URLs for listing photos.
type Store interface {
	PresignUpload(ctx context.Context, key, contentType string) (*Upload, error)
	PublicURL(key string) string
}

// ObjectKey builds a unique key for a new photo of the listing.
func ObjectKey(propertyRef, contentType string) (string, error) {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return fmt.Sprintf("properties/%s/%s.%s", propertyRef, uuid.NewString(), ext), nil
}

type S3Store struct {
	bucket  string
	region  string
	expiry  time.Duration
	presign *s3.PresignClient
}

// NewS3Store loads the AWS configuration from the environment.
func NewS3Store(ctx context.Context, bucket, region string, expiry time.Duration) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StoreFromConfig(cfg, bucket, expiry), nil
}

func NewS3StoreFromConfig(cfg aws.Config, bucket string, expiry time.Duration) *S3Store {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Store{
		bucket:  bucket,
		region:  cfg.Region,
		expiry:  expiry,
		presign: s3.NewPresignClient(s3.NewFromConfig(cfg)),
	}
}

func (s *S3Store) PresignUpload(ctx context.Context, key, contentType string) (*Upload, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &Upload{
		Method:    req.Method,
		URL:       req.URL,
		Headers:   req.SignedHeader,
		Key:       key,
		PublicURL: s.PublicURL(key),
		ExpiresAt: time.Now().Add(s.expiry).UTC(),
	}, nil
}

func (s *S3Store) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
