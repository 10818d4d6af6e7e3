package transcriptstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/meeting-summarizer/internal/domain/transcript"
)

// Options configures an S3-compatible bucket (R2, MinIO, S3).
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// ObjectArchive stores raw transcript uploads in an S3-compatible bucket.
type ObjectArchive struct {
	client *minio.Client
	bucket string
	logger *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewObjectArchive constructs the storage adapter. No request is sent until the first Put.
func NewObjectArchive(opts Options, logger *slog.Logger) (*ObjectArchive, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("storage bucket is empty")
	}
	cleanEndpoint := sanitizeEndpoint(opts.Endpoint)
	if cleanEndpoint == "" {
		return nil, fmt.Errorf("storage endpoint is empty")
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(opts.Endpoint)), "http://")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &ObjectArchive{
		client: client,
		bucket: opts.Bucket,
		logger: logger.With("component", "transcriptstore.archive"),
	}, nil
}

// Put uploads data under key.
func (a *ObjectArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := a.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", a.bucket, err)
	}
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: true,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	a.logger.Debug("transcript archived", "key", key, "etag", info.ETag, "size", info.Size)
	return nil
}

func (a *ObjectArchive) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bucketReady {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil || !exists {
		err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return err
		}
	}
	a.bucketReady = true
	return nil
}

var _ transcript.Archive = (*ObjectArchive)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.Index(raw, "/"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}
