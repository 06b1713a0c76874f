package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-customizer/internal/infra/logger"
)

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(logger.Nop(), dir, "http://localhost:8080/artifacts/")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "stores/1/pages/home.json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/artifacts/stores/1/pages/home.json", url)

	b, err := os.ReadFile(filepath.Join(dir, "stores", "1", "pages", "home.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(b))

	// overwrite in place
	_, err = s.Upload(context.Background(), "stores/1/pages/home.json", []byte(`{"ok":false}`))
	require.NoError(t, err)
	b, err = os.ReadFile(filepath.Join(dir, "stores", "1", "pages", "home.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false}`, string(b))
}

func TestLocalStoreRejectsTraversalAndCancelledContext(t *testing.T) {
	s, err := NewLocalStore(logger.Nop(), t.TempDir(), "http://x")
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "../escape.json", []byte(`{}`))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Upload(ctx, "stores/1/pages/home.json", []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/k.json", publicURL("b", "", "k.json"))
	assert.Equal(t, "https://cdn.example.com/k.json", publicURL("b", "cdn.example.com/", "k.json"))
	assert.Equal(t, "http://cdn.local/k.json", publicURL("b", "http://cdn.local", "k.json"))
}
