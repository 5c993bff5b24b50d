package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/samber/oops"

	sc "github.com/dmitrijs2005/kbcenter/internal/server/config"
)

// ObjectStore hands out presigned URLs for entry attachments and removes
// stored objects.
type ObjectStore interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// NewStorageKey returns a fresh object key partitioned by date.
func NewStorageKey(now time.Time) string {
	return fmt.Sprintf("kb/%d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), uuid.New())
}

// S3Store is an ObjectStore over an S3-compatible service (MinIO in development).
type S3Store struct {
	region   string
	user     string
	password string
	endpoint string
	bucket   string
	expires  time.Duration
}

func NewS3Store(cfg *sc.Config) *S3Store {
	return &S3Store{
		region:   cfg.S3Region,
		user:     cfg.S3RootUser,
		password: cfg.S3RootPassword,
		endpoint: cfg.S3BaseEndpoint,
		bucket:   cfg.S3Bucket,
		expires:  cfg.AttachmentURLValidity,
	}
}

func (s *S3Store) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.user, s.password, "")),
	)
	if err != nil {
		return nil, oops.Code("S3_CONFIG_FAILED").With("region", s.region).Wrap(err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.endpoint)
		o.UsePathStyle = true
	}), nil
}

// PresignPut returns a URL the caller can PUT the attachment body to.
func (s *S3Store) PresignPut(ctx context.Context, key string) (string, error) {
	c, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignPutObject(newS3PresignClient(c), ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return "", oops.Code("S3_PRESIGN_PUT_FAILED").With("key", key).Wrap(err)
	}
	return req.URL, nil
}

// PresignGet returns a URL the caller can download the attachment from.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	c, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(newS3PresignClient(c), ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return "", oops.Code("S3_PRESIGN_GET_FAILED").With("key", key).Wrap(err)
	}
	return req.URL, nil
}

// Delete removes the object stored under key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	if _, err := deleteObject(c, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return oops.Code("S3_DELETE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}
