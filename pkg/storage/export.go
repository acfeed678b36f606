// Package storage uploads board snapshots to S3.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// FolderExports is the S3 prefix for board snapshots.
const FolderExports = "exports"

// ErrExportDisabled is returned when no export bucket is configured.
var ErrExportDisabled = errors.New("storage: export bucket not configured")

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO. Path-style addressing is used then.
	Endpoint             string
	ExportBucket         string
	PresignExpireMinutes int
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Snapshot is the document written for one export.
type Snapshot struct {
	Board      string    `json:"board"`
	ExportedAt time.Time `json:"exported_at"`
	ExportedBy string    `json:"exported_by,omitempty"`
	Count      int       `json:"count"`
	Items      any       `json:"items"`
}

// Export describes an uploaded snapshot.
type Export struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Location    string    `json:"location"`
	DownloadURL string    `json:"download_url,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}

// Exporter writes board snapshots to the export bucket.
type Exporter struct {
	uploader  objectUploader
	presigner *s3.PresignClient
	cfg       S3Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewExporter creates an exporter using credentials from config or the
// environment (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY), falling back to
// the default credential chain.
func NewExporter(ctx context.Context, cfg S3Config, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExportBucket == "" {
		return newExporter(nil, nil, cfg, logger), nil
	}
	client, err := newS3Client(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return newExporter(uploader, s3.NewPresignClient(client), cfg, logger), nil
}

func newExporter(uploader objectUploader, presigner *s3.PresignClient, cfg S3Config, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{uploader: uploader, presigner: presigner, cfg: cfg, logger: logger, now: time.Now}
}

func newS3Client(ctx context.Context, cfg S3Config, logger *zap.Logger) (*s3.Client, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.ExportBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Enabled reports whether an export bucket is configured.
func (e *Exporter) Enabled() bool { return e != nil && e.cfg.ExportBucket != "" }

// ExportKey returns the object key: exports/{board}/{timestamp}.json.
func ExportKey(board string, at time.Time) string {
	return path.Join(FolderExports, path.Base(board), at.UTC().Format("20060102T150405Z")+".json")
}

// PresignExpire returns the configured presign duration.
func (e *Exporter) PresignExpire() time.Duration {
	if e.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(e.cfg.PresignExpireMinutes) * time.Minute
}

// Export uploads a snapshot of a board's items and returns where it went.
func (e *Exporter) Export(ctx context.Context, board, exportedBy string, items any, count int) (*Export, error) {
	if !e.Enabled() {
		return nil, ErrExportDisabled
	}
	at := e.now().UTC()
	body, err := json.MarshalIndent(Snapshot{
		Board:      board,
		ExportedAt: at,
		ExportedBy: exportedBy,
		Count:      count,
		Items:      items,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := ExportKey(board, at)
	out, err := e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.cfg.ExportBucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	exp := &Export{Bucket: e.cfg.ExportBucket, Key: key, Location: out.Location, ExportedAt: at}
	if e.presigner != nil {
		url, err := e.presignDownload(ctx, key)
		if err != nil {
			e.logger.Warn("presign export download", zap.String("key", key), zap.Error(err))
		} else {
			exp.DownloadURL = url
		}
	}
	e.logger.Info("board exported", zap.String("board", board), zap.String("key", key), zap.Int("count", count))
	return exp, nil
}

func (e *Exporter) presignDownload(ctx context.Context, key string) (string, error) {
	req, err := e.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.cfg.ExportBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = e.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
