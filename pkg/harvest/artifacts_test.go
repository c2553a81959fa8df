package harvest_test

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/aws-budget-guardian/pkg/harvest"
)

type fakeS3 struct {
	s3iface.S3API

	putErr error

	lastBucket      string
	lastKey         string
	lastBody        []byte
	lastContentType string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.lastBucket = aws.StringValue(in.Bucket)
	f.lastKey = aws.StringValue(in.Key)
	f.lastBody = data
	f.lastContentType = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func testRecords() []harvest.FlatRecord {
	return []harvest.FlatRecord{
		{AccountID: "111111111111", Name: "payments-prod", Workload: "payments", WorkloadType: "NA", Environment: "production", AssignmentGroup: "Payments Team", Email: "payments@example.com"},
		{AccountID: "222222222222", Name: "payments-dev", Workload: "payments", WorkloadType: "NA", Environment: "development", AssignmentGroup: "Payments Team", Email: "payments@example.com"},
	}
}

func TestEncodeFlat(t *testing.T) {
	data, err := harvest.EncodeFlat(testRecords())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasSuffix(text, "\n"))

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "111111111111", first["account_id"])
	assert.Equal(t, "payments", first["workload"])

	// Lines are compact objects, not an indented document.
	assert.NotContains(t, lines[0], "\n")
	assert.False(t, strings.HasPrefix(lines[0], "["))
}

func TestEncodeFlat_Empty(t *testing.T) {
	data, err := harvest.EncodeFlat(nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestS3FlatWriter(t *testing.T) {
	api := &fakeS3{}
	writer := harvest.NewS3FlatWriter(api, "cid-bucket", "reference_data/cudos_account_metadata.txt")

	err := writer.WriteFlat(t.Context(), testRecords())
	require.NoError(t, err)

	assert.Equal(t, "cid-bucket", api.lastBucket)
	assert.Equal(t, "reference_data/cudos_account_metadata.txt", api.lastKey)
	assert.Equal(t, "text/plain", api.lastContentType)

	want, err := harvest.EncodeFlat(testRecords())
	require.NoError(t, err)
	assert.Equal(t, want, api.lastBody)
}

func TestFileFlatWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cudos_account_metadata.txt")
	writer := harvest.NewFileFlatWriter(path)

	err := writer.WriteFlat(t.Context(), testRecords())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want, err := harvest.EncodeFlat(testRecords())
	require.NoError(t, err)
	assert.Equal(t, want, data)
}
