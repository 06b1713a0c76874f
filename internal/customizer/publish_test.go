package customizer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/events"
)

func TestPublishSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	require.NoError(t, f.repo.ReplaceSections(ctx, l.ID, draftSections()))
	require.NoError(t, f.repo.SaveThemeDraft(ctx, f.store.ID, []byte(`{"colors":{"primary":"#222"}}`)))

	res, err := f.publisher.Publish(ctx, f.id, layout.PageHome, "")
	require.NoError(t, err)

	key := fmt.Sprintf("stores/%d/pages/home.json", f.store.ID)
	assert.Equal(t, StatePublished, res.State)
	assert.Equal(t, "https://cdn.test/"+key, res.ArtifactURL)
	assert.Equal(t, 1, res.Version)
	assert.Empty(t, res.Warnings)

	require.Contains(t, f.artifacts.uploads, key)
	doc, err := layout.ParseDocument(f.artifacts.uploads[key])
	require.NoError(t, err)
	assert.Equal(t, []string{"announce", "slides", "footer"}, doc.SectionOrder)

	require.Len(t, f.cache.paths, 1)
	assert.Contains(t, f.cache.paths[0], "/shops/acme-goods")

	stored, err := f.repo.FindLayout(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	assert.True(t, stored.IsPublished)
	require.NotNil(t, stored.ArtifactURL)
	assert.Equal(t, res.ArtifactURL, *stored.ArtifactURL)
	assert.NotNil(t, stored.PublishedAt)

	ts, err := f.repo.ThemeSettings(ctx, f.store.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"colors":{"primary":"#222"}}`, string(ts.PublishedSettingsJSON))

	e := f.notifier.last()
	assert.Equal(t, events.PagePublished, e.Name)
	assert.Equal(t, f.store.ID, e.StoreID)
	assert.Equal(t, 1, e.Payload["version"])
}

func TestPublishUploadFailureLeavesLayoutUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	require.NoError(t, f.repo.ReplaceSections(ctx, l.ID, draftSections()))

	f.artifacts.err = errBoom
	res := f.svc.Publish(ctx, f.id, home())
	require.False(t, res.Success)
	assert.Equal(t, layout.CodeUpload, res.Error.Code)
	assert.NotContains(t, res.Error.Message, "boom")

	stored, err := f.repo.FindLayout(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	assert.False(t, stored.IsPublished)
	assert.Nil(t, stored.PublishedAt)
	assert.Nil(t, stored.ArtifactURL)

	list, err := f.versions.List(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.cache.paths)
	assert.NotContains(t, f.notifier.names(), events.PagePublished)
}

func TestPublishCacheFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)

	f.cache.err = errBoom
	res := f.svc.Publish(ctx, f.id, home())
	require.True(t, res.Success)
	require.Len(t, res.Data.Warnings, 1)
	assert.Equal(t, layout.CodeConsistencyWarning, res.Data.Warnings[0].Code)
	assert.Equal(t, "invalidate_cache", res.Data.Warnings[0].Step)
	assert.Equal(t, Message(layout.CodeConsistencyWarning, "en"), res.Data.Warnings[0].Message)
	assert.NotContains(t, res.Data.Warnings[0].Message, "boom")
	assert.Equal(t, 1, res.Data.Version)

	res.Data.Localize("he")
	assert.Equal(t, Message(layout.CodeConsistencyWarning, "he"), res.Data.Warnings[0].Message)

	stored, err := f.repo.FindLayout(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	assert.True(t, stored.IsPublished)
}

func TestPublishWithoutStoreRowInvalidatesIDPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := Identity{StoreID: 101, UserID: 7}
	_, err := f.repo.GetOrCreateDraft(ctx, id.StoreID, layout.PageProduct, "red-shoe")
	require.NoError(t, err)

	res := f.svc.Publish(ctx, id, PageRef{PageType: "product", PageHandle: "red-shoe"})
	require.True(t, res.Success)
	assert.Empty(t, res.Data.Warnings)
	assert.Equal(t, 1, res.Data.Version)

	require.Len(t, f.cache.paths, 1)
	assert.Equal(t, []string{"/stores/101", "/stores/101/product", "/stores/101/products/red-shoe"}, f.cache.paths[0])
}

func TestPublishMissingLayout(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Publish(context.Background(), f.id, PageRef{PageType: "product", PageHandle: "ghost"})
	require.False(t, res.Success)
	assert.Equal(t, layout.CodeNotFound, res.Error.Code)
	assert.Empty(t, f.artifacts.uploads)
}

func TestConcurrentPublishesGetDistinctVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)

	_, err = f.versions.Append(ctx, l.ID, []byte(`{"section_order":[],"sections":{}}`), AppendOptions{})
	require.NoError(t, err)

	const n = 5
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := f.svc.Publish(ctx, f.id, home())
			if assert.True(t, res.Success) {
				mu.Lock()
				got = append(got, res.Data.Version)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Ints(got)
	assert.Equal(t, []int{2, 3, 4, 5, 6}, got)
}
