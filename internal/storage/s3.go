// Package storage implements bcpstage.ObjectStore for S3 and S3-compatible
// object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vvka-141/bcpstage/internal/files"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// Config holds the bucket location and credentials.
type Config struct {
	Bucket string
	Region string

	// Static credentials. When both are empty the default AWS credential
	// chain (environment, shared config, instance role) is used.
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint points at an S3-compatible service and switches to
	// path-style addressing.
	Endpoint string
}

// Validate reports every missing setting in one error.
func (c Config) Validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if c.Region == "" {
		missing = append(missing, "S3_REGION")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		missing = append(missing, "S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY together")
	}
	if len(missing) > 0 {
		return fmt.Errorf("object storage: missing %s: %w", strings.Join(missing, ", "), bcpstage.ErrInvalidConfig)
	}
	return nil
}

// API is the subset of the S3 client used by S3Store. Transfers go through the
// multipart upload and ranged download managers, so objects larger than the
// single-PUT limit are supported.
type API interface {
	s3.ListObjectsV2APIClient
	manager.DownloadAPIClient
	manager.UploadAPIClient
}

// S3Store transfers flat files to and from one bucket.
type S3Store struct {
	api        API
	bucket     string
	uploader   *manager.Uploader
	downloader *manager.Downloader
	logger     bcpstage.Logger
}

var _ bcpstage.ObjectStore = (*S3Store)(nil)

// NewS3Store builds an S3 client from cfg.
func NewS3Store(ctx context.Context, cfg Config, logger bcpstage.Logger) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithAPI(client, cfg.Bucket, logger), nil
}

// NewS3StoreWithAPI wraps an existing client.
func NewS3StoreWithAPI(api API, bucket string, logger bcpstage.Logger) *S3Store {
	if api == nil {
		panic("api cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &S3Store{
		api:        api,
		bucket:     bucket,
		uploader:   manager.NewUploader(api),
		downloader: manager.NewDownloader(api),
		logger:     logger,
	}
}

// Latest returns the key of the newest flat file under prefix.
func (s *S3Store) Latest(ctx context.Context, prefix string) (string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var latestKey string
	var latestTime time.Time
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("list s3://%s/%s: %w: %w", s.bucket, prefix, err, bcpstage.ErrTransferFailed)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !files.IsFlatFile(key) || obj.LastModified == nil {
				continue
			}
			if latestKey == "" || obj.LastModified.After(latestTime) {
				latestKey = key
				latestTime = *obj.LastModified
			}
		}
	}

	if latestKey == "" {
		return "", fmt.Errorf("no .bcp or .bcp.gz objects under s3://%s/%s: %w", s.bucket, prefix, bcpstage.ErrSourceNotFound)
	}
	s.logger.Verbose("Newest object under %s: %s (%s)", prefix, latestKey, latestTime.Format(time.RFC3339))
	return latestKey, nil
}

// Download streams the object at key into dir, keeping its base name.
func (s *S3Store) Download(ctx context.Context, key, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	target := filepath.Join(dir, path.Base(key))

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	n, getErr := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	closeErr := f.Close()
	if err := errors.Join(getErr, closeErr); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("download s3://%s/%s: %w: %w", s.bucket, key, err, bcpstage.ErrTransferFailed)
	}

	s.logger.Info("Downloaded s3://%s/%s to %s (%d bytes)", s.bucket, key, target, n)
	return target, nil
}

// Upload copies the local file at localPath to key.
func (s *S3Store) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w: %w", s.bucket, key, err, bcpstage.ErrTransferFailed)
	}

	s.logger.Info("Uploaded %s to s3://%s/%s", filepath.Base(localPath), s.bucket, key)
	return nil
}

// JoinKey places name under prefix with exactly one separating slash.
func JoinKey(prefix, name string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
