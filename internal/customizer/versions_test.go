package customizer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-customizer/internal/domain/layout"
)

func TestAppendAllocatesConsecutiveNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	nums := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.versions.Append(ctx, l.ID, []byte(`{"section_order":[],"sections":{}}`), AppendOptions{})
			if assert.NoError(t, err) {
				nums <- v.VersionNumber
			}
		}()
	}
	wg.Wait()
	close(nums)

	seen := map[int]bool{}
	for v := range nums {
		assert.False(t, seen[v], "version %d allocated twice", v)
		seen[v] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[i], "missing version %d", i)
	}

	list, err := f.versions.List(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, list, n)
	assert.Equal(t, n, list[0].VersionNumber)
	assert.Equal(t, 1, list[n-1].VersionNumber)
}

func TestAppendUnknownLayout(t *testing.T) {
	f := newFixture(t)
	_, err := f.versions.Append(context.Background(), 4242, []byte(`{}`), AppendOptions{})
	requireCode(t, layout.CodeNotFound, err)
}

func TestRestoreReplacesDraftTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	require.NoError(t, f.repo.ReplaceSections(ctx, l.ID, draftSections()))

	tree, err := f.repo.LoadTree(ctx, l.ID)
	require.NoError(t, err)
	snapshot, err := layout.BuildDocument(tree, f.publisher.now()).Marshal()
	require.NoError(t, err)
	v, err := f.versions.Append(ctx, l.ID, snapshot, AppendOptions{Notes: strp("before cleanup")})
	require.NoError(t, err)

	require.NoError(t, f.repo.ReplaceSections(ctx, l.ID, []layout.SectionInput{{ExternalID: "only", Type: layout.SectionRichText}}))

	restored, err := f.versions.Restore(ctx, l.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.VersionNumber)

	tree, err = f.repo.LoadTree(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"announce", "slides", "footer"}, externalIDs(tree))
	assert.Len(t, tree.Sections[1].Blocks, 2)
	assert.JSONEq(t, `{"settings":{"text":"Hello"}}`, string(tree.Sections[0].SettingsJSON))
	assert.False(t, tree.IsPublished, "restore must not touch publication state")
}

func TestRestoreRejectsUnrestorableAndForeignVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	b, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageCart, "")
	require.NoError(t, err)

	v, err := f.versions.Append(ctx, a.ID, []byte(`{"section_order":[],"sections":{}}`), AppendOptions{})
	require.NoError(t, err)

	_, err = f.versions.Restore(ctx, b.ID, v.ID)
	requireCode(t, layout.CodeNotFound, err)

	require.NoError(t, f.db.Model(&layout.LayoutVersion{}).Where("id = ?", v.ID).Update("is_restorable", false).Error)
	_, err = f.versions.Restore(ctx, a.ID, v.ID)
	requireCode(t, layout.CodeNotFound, err)
}
