// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/netSkope/gchat-groups/internal/config"
	"github.com/netSkope/gchat-groups/internal/group"
	"go.uber.org/zap"
)

const (
	// Max retries for S3 operations
	maxS3Retries = 5
	// Initial retry delay
	initialRetryDelay = 1 * time.Second
	// Part size for multipart uploads of large snapshots
	partSize = 10 * 1024 * 1024
)

// Snapshot is the JSON document written to S3.
type Snapshot struct {
	RunID     string           `json:"run_id"`
	CreatedAt time.Time        `json:"created_at"`
	Groups    group.Collection `json:"groups"`
}

// Uploader writes group snapshots to S3.
type Uploader struct {
	uploader   *manager.Uploader
	bucket     string
	prefix     string
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewUploader creates a new S3 uploader from the default credential chain.
// Static keys in cfg take precedence. AWS_ENDPOINT_URL selects a custom endpoint (LocalStack).
func NewUploader(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // Required for LocalStack
			logger.Info("Using custom S3 endpoint", zap.String("endpoint", endpoint))
		}
	})

	return NewUploaderWithClient(client, cfg, logger), nil
}

// NewUploaderWithClient creates an uploader on top of an existing S3 client.
func NewUploaderWithClient(client manager.UploadAPIClient, cfg config.S3Config, logger *zap.Logger) *Uploader {
	return &Uploader{
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partSize
			u.Concurrency = 3
		}),
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		retryDelay: initialRetryDelay,
		logger:     logger,
	}
}

// SnapshotKey returns the object key for a run's snapshot.
func SnapshotKey(prefix, runID string) string {
	if prefix == "" {
		return fmt.Sprintf("run-%s/groups.json", runID)
	}
	return fmt.Sprintf("%s/run-%s/groups.json", prefix, runID)
}

// UploadSnapshot uploads groups as a JSON snapshot and returns its key.
func (u *Uploader) UploadSnapshot(ctx context.Context, runID string, groups group.Collection) (string, error) {
	data, err := json.MarshalIndent(Snapshot{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Groups:    groups,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := SnapshotKey(u.prefix, runID)
	if err := u.UploadWithRetry(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Upload puts data at key. Large payloads are split into parts by the manager.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte) error {
	u.logger.Info("Uploading to S3",
		zap.String("bucket", u.bucket),
		zap.String("s3_key", key),
		zap.Int("size", len(data)))

	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u.logger.Info("Uploaded to S3", zap.String("s3_key", key))
	return nil
}

// UploadWithRetry uploads with exponential backoff.
func (u *Uploader) UploadWithRetry(ctx context.Context, key string, data []byte) error {
	var lastErr error
	delay := u.retryDelay

	for attempt := 1; attempt <= maxS3Retries; attempt++ {
		err := u.Upload(ctx, key, data)
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < maxS3Retries {
			u.logger.Warn("Upload failed, retrying",
				zap.String("s3_key", key),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxS3Retries),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return fmt.Errorf("upload cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("upload failed after %d attempts: %w", maxS3Retries, lastErr)
}
