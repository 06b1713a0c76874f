package storage

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"storefront-customizer/internal/infra/logger"
)

type GCSConfig struct {
	Bucket          string
	CDNDomain       string
	CredentialsFile string
}

// GCSStore uploads artifacts to a Google Cloud Storage bucket.
type GCSStore struct {
	log    *logger.Logger
	client *storage.Client
	cfg    GCSConfig
}

func NewGCSStore(ctx context.Context, log *logger.Logger, cfg GCSConfig) (*GCSStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing artifact bucket name")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "GCSArtifactStore")
	serviceLog.Info("Artifact storage initialized", "bucket", cfg.Bucket, "cdn_domain", cfg.CDNDomain)
	return &GCSStore{log: serviceLog, client: client, cfg: cfg}, nil
}

func (s *GCSStore) Upload(ctx context.Context, key string, content []byte) (string, error) {
	w := s.client.Bucket(s.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=60"
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *GCSStore) PublicURL(key string) string {
	return publicURL(s.cfg.Bucket, s.cfg.CDNDomain, key)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func publicURL(bucket, cdnDomain, key string) string {
	if cdn := strings.TrimRight(strings.TrimSpace(cdnDomain), "/"); cdn != "" {
		if !strings.HasPrefix(cdn, "http://") && !strings.HasPrefix(cdn, "https://") {
			cdn = "https://" + cdn
		}
		return cdn + "/" + key
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
