// Package archive writes full JSON reports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zombar/contentlens/internal/models"
)

// ErrNotFound is returned when no archived report exists for an analysis
var ErrNotFound = errors.New("archived report not found")

// Config locates the bucket
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Archive stores reports under reports/<yyyy>/<mm>/<id>.json
type Archive struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// New creates an Archive client. No request is made until first use.
func New(cfg Config) (*Archive, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("archive endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("archive access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}

	return &Archive{client: client, bucket: bucket, region: region}, nil
}

// Bucket returns the bucket name
func (a *Archive) Bucket() string {
	return a.bucket
}

// EnsureBucket creates the bucket if it does not exist yet
func (a *Archive) EnsureBucket(ctx context.Context) error {
	a.initOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.initErr = err
			return
		}
		if exists {
			return
		}
		a.initErr = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region})
	})
	return a.initErr
}

// Ping checks the bucket is reachable
func (a *Archive) Ping(ctx context.Context) error {
	if _, err := a.client.BucketExists(ctx, a.bucket); err != nil {
		return fmt.Errorf("archive unreachable: %w", err)
	}
	return nil
}

// PutReport writes the report of an analysis
func (a *Archive) PutReport(ctx context.Context, analysis *models.Analysis) error {
	if analysis.Report == nil {
		return fmt.Errorf("analysis %s has no report", analysis.ID)
	}
	if err := a.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	data, err := json.Marshal(analysis.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	key := ObjectKey(analysis.ID, analysis.CreatedAt)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// GetReport reads back the raw JSON report of an analysis
func (a *Archive) GetReport(ctx context.Context, analysis *models.Analysis) ([]byte, error) {
	key := ObjectKey(analysis.ID, analysis.CreatedAt)

	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NoSuchBucket" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// ObjectKey returns the key of a report created at the given time
func ObjectKey(id string, createdAt time.Time) string {
	createdAt = createdAt.UTC()
	return fmt.Sprintf("reports/%04d/%02d/%s.json", createdAt.Year(), int(createdAt.Month()), id)
}
