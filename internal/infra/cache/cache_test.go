package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-customizer/internal/infra/logger"
)

func TestHTTPRevalidatorPostsPaths(t *testing.T) {
	var got struct {
		Paths []string `json:"paths"`
	}
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get("X-Revalidate-Secret")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTPRevalidator(logger.Nop(), srv.URL, "shh", time.Second)
	require.NoError(t, h.Invalidate(context.Background(), []string{"/shops/acme", "/shops/acme/home"}))

	assert.Equal(t, []string{"/shops/acme", "/shops/acme/home"}, got.Paths)
	assert.Equal(t, "shh", secret)
}

func TestHTTPRevalidatorNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := NewHTTPRevalidator(logger.Nop(), srv.URL, "", time.Second)
	assert.Error(t, h.Invalidate(context.Background(), []string{"/shops/acme"}))
	assert.NoError(t, h.Invalidate(context.Background(), nil))
}

type countingInvalidator struct {
	calls atomic.Int32
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context, []string) error {
	c.calls.Add(1)
	return c.err
}

func TestFanoutTriesEveryTarget(t *testing.T) {
	boom := errors.New("boom")
	a := &countingInvalidator{err: boom}
	b := &countingInvalidator{}

	err := Fanout{a, b}.Invalidate(context.Background(), []string{"/x"})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, a.calls.Load())
	assert.EqualValues(t, 1, b.calls.Load())

	assert.NoError(t, Fanout{b}.Invalidate(context.Background(), []string{"/x"}))
	assert.NoError(t, Noop{}.Invalidate(context.Background(), nil))
}
