package customizer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/events"
	"storefront-customizer/internal/infra/logger"
	"storefront-customizer/internal/testutil"
)

type fakeArtifacts struct {
	mu      sync.Mutex
	err     error
	uploads map[string][]byte
}

func (f *fakeArtifacts) Upload(_ context.Context, key string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[key] = append([]byte(nil), content...)
	return "https://cdn.test/" + key, nil
}

type fakeCache struct {
	mu    sync.Mutex
	err   error
	paths [][]string
}

func (f *fakeCache) Invalidate(_ context.Context, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, paths)
	return f.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingNotifier) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func (r *recordingNotifier) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	db        *gorm.DB
	repo      *LayoutRepository
	versions  *VersionStore
	publisher *Publisher
	svc       *Service
	artifacts *fakeArtifacts
	cache     *fakeCache
	notifier  *recordingNotifier
	store     layout.Store
	id        Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.DB(t), "Acme Goods")
}

// newPostgresFixture runs against TEST_POSTGRES_DSN with a store of its own.
func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.PostgresDB(t), "Race "+uuid.NewString())
}

func newFixtureOn(t *testing.T, db *gorm.DB, storeName string) *fixture {
	t.Helper()
	log := logger.Nop()

	f := &fixture{
		db:        db,
		artifacts: &fakeArtifacts{},
		cache:     &fakeCache{},
		notifier:  &recordingNotifier{},
	}
	f.repo = NewLayoutRepository(db, log)
	f.versions = NewVersionStore(db, f.repo, log)
	f.publisher = NewPublisher(f.repo, f.versions, f.artifacts, f.cache, f.notifier, log, PublisherConfig{
		UploadTimeout:     time.Second,
		InvalidateTimeout: time.Second,
	})
	f.svc = NewService(f.repo, f.versions, f.publisher, f.notifier, log)
	f.store = testutil.SeedStore(t, db, storeName)
	f.id = Identity{StoreID: f.store.ID, UserID: 42}
	return f
}

func home() PageRef { return PageRef{PageType: "home"} }

func sectionTypes(l *layout.PageLayout) []layout.SectionType {
	out := make([]layout.SectionType, 0, len(l.Sections))
	for _, s := range l.Sections {
		out = append(out, s.SectionType)
	}
	return out
}

func positions(l *layout.PageLayout) []int {
	out := make([]int, 0, len(l.Sections))
	for _, s := range l.Sections {
		out = append(out, s.Position)
	}
	return out
}

func externalIDs(l *layout.PageLayout) []string {
	out := make([]string, 0, len(l.Sections))
	for _, s := range l.Sections {
		out = append(out, s.ExternalID)
	}
	return out
}

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func strp(v string) *string { return &v }

var errBoom = errors.New("boom")

func requireCode(t *testing.T, code layout.Code, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, layout.CodeOf(err), "error: %v", err)
}
