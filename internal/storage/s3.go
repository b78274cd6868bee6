package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/likekeeper/likekeeper/pkg/config"
)

// S3Store writes blobs to an S3 bucket under a key prefix
type S3Store struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed blob store
func NewS3Store(cfg *config.StorageConfig) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.S3Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: cfg.S3Bucket,
		prefix: cfg.S3Prefix,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

// Put uploads the blob
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob to S3: %w", err)
	}
	return nil
}

// Get downloads a blob
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob from S3: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Delete removes a blob. S3 delete is idempotent for missing keys.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob from S3: %w", err)
	}
	return nil
}
