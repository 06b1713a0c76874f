package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-customizer/internal/infra/logger"
)

// HTTPRevalidator calls the storefront's on-demand revalidation endpoint.
type HTTPRevalidator struct {
	log    *logger.Logger
	url    string
	secret string
	client *http.Client
}

func NewHTTPRevalidator(log *logger.Logger, url, secret string, timeout time.Duration) *HTTPRevalidator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPRevalidator{
		log:    log.With("service", "HTTPRevalidator"),
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPRevalidator) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string]any{"paths": paths})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.secret != "" {
		req.Header.Set("X-Revalidate-Secret", h.secret)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("revalidate request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("revalidate: unexpected status %d", resp.StatusCode)
	}
	h.log.Debug("storefront revalidated", "paths", paths)
	return nil
}
