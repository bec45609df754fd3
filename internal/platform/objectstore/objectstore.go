// Package objectstore configures the MinIO client that keeps pipeline-run
// transcripts.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/loftcad-labs/loftcad-go/internal/platform/env"
)

type Config struct {
	Endpoint          string
	AccessKey         string
	SecretKey         string
	Region            string
	UseSSL            bool
	BucketTranscripts string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("LOFTCAD_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:          env.String("LOFTCAD_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:         env.String("LOFTCAD_MINIO_ACCESS_KEY", "loftcad"),
		SecretKey:         env.String("LOFTCAD_MINIO_SECRET_KEY", "loftcadminio"),
		Region:            env.String("LOFTCAD_MINIO_REGION", "us-east-1"),
		UseSSL:            useSSL,
		BucketTranscripts: env.String("LOFTCAD_MINIO_BUCKET_TRANSCRIPTS", "run-transcripts"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketTranscripts) == "" {
		return errors.New("transcripts bucket is required")
	}
	return nil
}

func NewMinIOClient(cfg Config) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}
	return minio.New(cfg.Endpoint, opts)
}

func EnsureBucket(ctx context.Context, client *minio.Client, cfg Config) error {
	exists, err := client.BucketExists(ctx, cfg.BucketTranscripts)
	if err != nil {
		return fmt.Errorf("transcripts bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, cfg.BucketTranscripts, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("make transcripts bucket: %w", err)
	}
	return nil
}

func CheckBucket(ctx context.Context, client *minio.Client, cfg Config) error {
	exists, err := client.BucketExists(ctx, cfg.BucketTranscripts)
	if err != nil {
		return fmt.Errorf("transcripts bucket exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("transcripts bucket missing: %s", cfg.BucketTranscripts)
	}
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
