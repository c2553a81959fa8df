package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// FlatWriter persists the flat dataset.
type FlatWriter interface {
	WriteFlat(ctx context.Context, records []FlatRecord) error
}

// EncodeFlat renders records as newline-delimited JSON, one compact object
// per line.
func EncodeFlat(records []FlatRecord) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal record %s: %w", rec.AccountID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// S3FlatWriter writes the flat dataset to an S3 object.
type S3FlatWriter struct {
	api    s3iface.S3API
	bucket string
	key    string
}

// NewS3FlatWriter creates a writer for s3://bucket/key.
func NewS3FlatWriter(api s3iface.S3API, bucket, key string) *S3FlatWriter {
	return &S3FlatWriter{api: api, bucket: bucket, key: key}
}

func (w *S3FlatWriter) WriteFlat(ctx context.Context, records []FlatRecord) error {
	data, err := EncodeFlat(records)
	if err != nil {
		return err
	}

	_, err = w.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("put flat dataset to s3://%s/%s: %w", w.bucket, w.key, err)
	}

	return nil
}

// FileFlatWriter writes the flat dataset to a local file.
type FileFlatWriter struct {
	path string
}

// NewFileFlatWriter creates a writer for the given file.
func NewFileFlatWriter(path string) *FileFlatWriter {
	return &FileFlatWriter{path: path}
}

func (w *FileFlatWriter) WriteFlat(_ context.Context, records []FlatRecord) error {
	data, err := EncodeFlat(records)
	if err != nil {
		return err
	}

	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write flat dataset file %s: %w", w.path, err)
	}

	return nil
}
