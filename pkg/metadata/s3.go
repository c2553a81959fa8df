package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store keeps the metadata mapping as one JSON object in S3.
type S3Store struct {
	api    s3iface.S3API
	bucket string
	key    string
	logger *slog.Logger
}

// NewS3Store creates a store for s3://bucket/key.
func NewS3Store(api s3iface.S3API, bucket, key string, logger *slog.Logger) *S3Store {
	return &S3Store{api: api, bucket: bucket, key: key, logger: logger}
}

// Load returns the stored mapping, or an empty one when the object is
// missing, unreadable or not valid JSON.
func (s *S3Store) Load(ctx context.Context) Mapping {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		s.logger.Warn("account metadata unavailable, continuing without it",
			"bucket", s.bucket,
			"key", s.key,
			"error", err,
		)
		return Mapping{}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		s.logger.Warn("read account metadata", "bucket", s.bucket, "key", s.key, "error", err)
		return Mapping{}
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("parse account metadata", "bucket", s.bucket, "key", s.key, "error", err)
		return Mapping{}
	}
	if m == nil {
		m = Mapping{}
	}

	return m
}

// Save writes the mapping as indented JSON.
func (s *S3Store) Save(ctx context.Context, m Mapping) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal account metadata: %w", err)
	}

	_, err = s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put account metadata to s3://%s/%s: %w", s.bucket, s.key, err)
	}

	return nil
}
