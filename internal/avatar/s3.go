package avatar

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"user-api/internal/config"
)

// objectPutter is the part of *s3.Client the host needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Host stores avatars in an S3-compatible bucket (AWS S3, MinIO, R2).
type S3Host struct {
	client        objectPutter
	bucket        string
	publicBaseURL string
}

func NewS3Host(ctx context.Context, cfg *config.Config) (*S3Host, error) {
	a := cfg.Avatar
	if a.Bucket == "" {
		return nil, fmt.Errorf("avatar bucket is not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(a.Region)}
	if a.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.AccessKeyID, a.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
		}
		o.UsePathStyle = a.UsePathStyle
	})
	return newS3Host(client, a.Bucket, publicBase(cfg)), nil
}

func newS3Host(client objectPutter, bucket, publicBaseURL string) *S3Host {
	return &S3Host{client: client, bucket: bucket, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (h *S3Host) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return h.publicBaseURL + "/" + key, nil
}

// publicBase picks the URL prefix objects are served from when none is
// configured: path-style endpoint, or the virtual-hosted AWS address.
func publicBase(cfg *config.Config) string {
	a := cfg.Avatar
	switch {
	case a.PublicBaseURL != "":
		return a.PublicBaseURL
	case a.Endpoint != "":
		return strings.TrimRight(a.Endpoint, "/") + "/" + a.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", a.Bucket, a.Region)
	}
}
