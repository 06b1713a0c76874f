package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storefront-customizer/internal/infra/logger"
)

// LocalStore writes artifacts under Dir and serves them from BaseURL.
// Intended for development; main mounts Dir at /artifacts.
type LocalStore struct {
	Dir     string
	BaseURL string
	log     *logger.Logger
}

func NewLocalStore(log *logger.Logger, dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalStore{
		Dir:     dir,
		BaseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With("service", "LocalArtifactStore"),
	}, nil
}

func (s *LocalStore) Upload(ctx context.Context, key string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.Dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	// write to a temp file first so readers never see a partial artifact
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("move artifact: %w", err)
	}

	url := s.BaseURL + "/" + clean
	s.log.Debug("artifact written", "key", clean, "bytes", len(content))
	return url, nil
}

func cleanKey(key string) (string, error) {
	k := strings.TrimLeft(filepath.ToSlash(filepath.Clean("/"+key)), "/")
	if k == "" || k == "." || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return k, nil
}
