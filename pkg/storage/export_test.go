package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &manager.UploadOutput{Location: "https://exports.example/" + aws.ToString(in.Key)}, nil
}

func offlinePresigner() *s3.PresignClient {
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	})
	return s3.NewPresignClient(client)
}

func TestExportKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "exports/organizers/20240309T130507Z.json", ExportKey("organizers", at))
	assert.Equal(t, "exports/events/20240309T130507Z.json", ExportKey("../events", at))
}

func TestExport_UploadsSnapshot(t *testing.T) {
	up := &fakeUploader{}
	e := newExporter(up, offlinePresigner(), S3Config{Region: "us-east-1", ExportBucket: "board-exports"}, zaptest.NewLogger(t))
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	items := []map[string]string{{"id": "o1", "status": "approved"}}
	exp, err := e.Export(context.Background(), "organizers", "admin@example.com", items, len(items))
	require.NoError(t, err)

	assert.Equal(t, "board-exports", exp.Bucket)
	assert.Equal(t, "exports/organizers/20240102T030405Z.json", exp.Key)
	assert.Equal(t, "https://exports.example/"+exp.Key, exp.Location)
	assert.Contains(t, exp.DownloadURL, "X-Amz-Signature=")
	assert.Equal(t, "application/json", aws.ToString(up.input.ContentType))

	var snap struct {
		Board      string
		ExportedBy string `json:"exported_by"`
		Count      int
		Items      []map[string]string
	}
	require.NoError(t, json.Unmarshal(up.body, &snap))
	assert.Equal(t, "organizers", snap.Board)
	assert.Equal(t, "admin@example.com", snap.ExportedBy)
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, items, snap.Items)
}

func TestExport_Disabled(t *testing.T) {
	e := newExporter(&fakeUploader{}, nil, S3Config{}, zaptest.NewLogger(t))
	assert.False(t, e.Enabled())
	_, err := e.Export(context.Background(), "events", "", nil, 0)
	assert.ErrorIs(t, err, ErrExportDisabled)

	var none *Exporter
	assert.False(t, none.Enabled())
}

func TestExport_UploadFailure(t *testing.T) {
	e := newExporter(&fakeUploader{err: errors.New("access denied")}, nil, S3Config{ExportBucket: "b"}, zaptest.NewLogger(t))
	_, err := e.Export(context.Background(), "events", "", []int{}, 0)
	assert.ErrorContains(t, err, "upload: access denied")
}

func TestPresignExpire(t *testing.T) {
	e := newExporter(nil, nil, S3Config{}, nil)
	assert.Equal(t, 15*time.Minute, e.PresignExpire())
	e = newExporter(nil, nil, S3Config{PresignExpireMinutes: 2}, nil)
	assert.Equal(t, 2*time.Minute, e.PresignExpire())
}
