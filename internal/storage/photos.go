// Package storage uploads applicant photos to object storage and hands back
// public URLs for the stored application record.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"eta-service/internal/common/errors"
	"eta-service/internal/common/logger"
)

var dataURLRe = regexp.MustCompile(`^data:([^;,]+);base64,(.+)$`)

// ObjectPutter is the slice of the S3 client this package needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type PhotoStore struct {
	client        ObjectPutter
	bucket        string
	publicBaseURL string
	region        string
	logger        logger.Logger
}

func NewPhotoStore(client ObjectPutter, bucket, publicBaseURL, region string, log logger.Logger) *PhotoStore {
	return &PhotoStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		region:        region,
		logger:        log,
	}
}

// DecodeDataURL splits a base64 data URL into its content type and payload.
func DecodeDataURL(dataURL string) (contentType string, data []byte, err error) {
	m := dataURLRe.FindStringSubmatch(dataURL)
	if m == nil {
		return "", nil, fmt.Errorf("not a base64 data URL")
	}
	data, err = base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return m[1], data, nil
}

// extensionFor maps the photo content types the form accepts to a file
// extension, defaulting to jpg.
func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

// Upload decodes a data URL and writes it under the application's reference
// number, returning the public URL. Photos are immutable once submitted, so
// they are cached aggressively.
func (s *PhotoStore) Upload(ctx context.Context, referenceNumber, name, dataURL string) (string, error) {
	contentType, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", errors.NewPhotoUploadFailedError(name, err)
	}

	key := fmt.Sprintf("applications/%s/%s.%s", referenceNumber, name, extensionFor(contentType))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       awssdk.String(s.bucket),
		Key:          awssdk.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  awssdk.String(contentType),
		CacheControl: awssdk.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", errors.NewPhotoUploadFailedError(name, err)
	}

	s.logger.Debug("Uploaded photo", map[string]interface{}{
		"key":   key,
		"bytes": len(data),
	})

	return s.publicURL(key), nil
}

func (s *PhotoStore) publicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
