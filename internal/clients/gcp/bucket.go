package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type BucketCategory string

const (
	// BucketCategorySource holds raw document bytes as pulled from the case
	// management system or uploaded locally.
	BucketCategorySource BucketCategory = "source"
	// BucketCategoryProcessed holds the parsed layout output, one JSON per
	// source blob.
	BucketCategoryProcessed BucketCategory = "processed"
	// BucketCategorySections holds one text blob per extracted section.
	BucketCategorySections BucketCategory = "sections"
)

type bucketConfig struct {
	name string
}

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	UploadBytes(ctx context.Context, category BucketCategory, key string, data []byte) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	DownloadBytes(ctx context.Context, category BucketCategory, key string) ([]byte, error)
	DownloadBytesFromBucket(ctx context.Context, bucketName string, key string) ([]byte, error)
	ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error
	BucketName(category BucketCategory) (string, error)
}

type bucketService struct {
	log             *logger.Logger
	storageClient   *storage.Client
	sourceBucket    bucketConfig
	processedBucket bucketConfig
	sectionsBucket  bucketConfig
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	sourceBucketName := os.Getenv("SOURCE_GCS_BUCKET_NAME")
	processedBucketName := os.Getenv("PROCESSED_GCS_BUCKET_NAME")
	sectionsBucketName := os.Getenv("SECTIONS_GCS_BUCKET_NAME")
	if sourceBucketName == "" {
		return nil, fmt.Errorf("missing env var SOURCE_GCS_BUCKET_NAME")
	}
	if processedBucketName == "" {
		return nil, fmt.Errorf("missing env var PROCESSED_GCS_BUCKET_NAME")
	}
	if sectionsBucketName == "" {
		return nil, fmt.Errorf("missing env var SECTIONS_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:             serviceLog,
		storageClient:   stClient,
		sourceBucket:    bucketConfig{name: sourceBucketName},
		processedBucket: bucketConfig{name: processedBucketName},
		sectionsBucket:  bucketConfig{name: sectionsBucketName},
	}, nil
}

func (bs *bucketService) getBucketConfig(category BucketCategory) (bucketConfig, error) {
	switch category {
	case BucketCategorySource:
		return bs.sourceBucket, nil
	case BucketCategoryProcessed:
		return bs.processedBucket, nil
	case BucketCategorySections:
		return bs.sectionsBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) BucketName(category BucketCategory) (string, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return "", err
	}
	return cfg.name, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) UploadBytes(ctx context.Context, category BucketCategory, key string, data []byte) error {
	return bs.UploadFile(ctx, category, key, bytes.NewReader(data))
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if s == "" {
		return ""
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return ""
	}
}

// Cancel is attached to the reader's Close; cancelling before the caller has
// read would hand back a dead stream.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)

	r, err := bs.storageClient.Bucket(cfg.name).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}

	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *bucketService) DownloadBytes(ctx context.Context, category BucketCategory, key string) ([]byte, error) {
	r, err := bs.DownloadFile(ctx, category, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %q: %w", key, err)
	}
	return data, nil
}

// DownloadBytesFromBucket reads from a bucket addressed by its stored name.
// Section and version rows record the physical bucket they were written to;
// reads follow the row, not the current env mapping.
func (bs *bucketService) DownloadBytesFromBucket(ctx context.Context, bucketName string, key string) ([]byte, error) {
	if strings.TrimSpace(bucketName) == "" {
		return nil, fmt.Errorf("bucket name required")
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := bs.storageClient.Bucket(bucketName).Object(key).NewReader(ctx2)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %q: %w", key, err)
	}
	return data, nil
}

func (bs *bucketService) ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.storageClient.Bucket(cfg.name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error {
	keys, err := bs.ListKeys(ctx, category, prefix)
	if err != nil {
		return err
	}
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	for _, k := range keys {
		delCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := bs.storageClient.Bucket(cfg.name).Object(k).Delete(delCtx)
		cancel()
		if err != nil {
			bs.log.Warn("failed to delete object", "bucket", cfg.name, "key", k, "error", err)
		}
	}
	return nil
}
