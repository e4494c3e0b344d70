package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignAPI is the subset of the S3 presign client used here.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ImageStore hands out presigned PUT URLs for product images.
type ImageStore struct {
	presigner PresignAPI
	bucket    string
	publicURL string
}

// NewImageStore builds an ImageStore for bucket. Objects are served from
// publicBaseURL when set, otherwise from the virtual-hosted S3 URL.
func NewImageStore(cfg sdkaws.Config, bucket, publicBaseURL string) *ImageStore {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.BaseEndpoint != nil
	})
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return NewImageStoreWithPresigner(s3.NewPresignClient(client), bucket, publicBaseURL)
}

func NewImageStoreWithPresigner(p PresignAPI, bucket, publicBaseURL string) *ImageStore {
	return &ImageStore{presigner: p, bucket: bucket, publicURL: strings.TrimSuffix(publicBaseURL, "/")}
}

// PresignPut returns a URL the browser can PUT the object to, plus the headers
// that must accompany the upload.
func (s *ImageStore) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, map[string]string, error) {
	input := &s3.PutObjectInput{
		Bucket:      sdkaws.String(s.bucket),
		Key:         sdkaws.String(key),
		ContentType: sdkaws.String(contentType),
	}
	presigned, err := s.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return presigned.URL, headers, nil
}

// PublicURL is where an uploaded object can be read from.
func (s *ImageStore) PublicURL(key string) string {
	return s.publicURL + "/" + key
}
