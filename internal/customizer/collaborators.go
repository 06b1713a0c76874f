package customizer

import (
	"context"
	"net/http"

	"storefront-customizer/internal/infra/events"
)

// Identity is the authenticated editor behind a request.
type Identity struct {
	StoreID uint
	UserID  uint
}

// AuthResolver turns an incoming request into an Identity or fails with an
// unauthorized error.
type AuthResolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// ArtifactStore hosts published layout documents and returns their public URL.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, content []byte) (string, error)
}

// CacheInvalidator purges cached storefront renders. Best effort.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, paths []string) error
}

// EventNotifier fans out lifecycle events. Publish must not block and has no
// error to report.
type EventNotifier interface {
	Publish(ctx context.Context, e events.Event)
}
