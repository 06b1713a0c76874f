package customizer

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"storefront-customizer/internal/domain/layout"
)

// These run against Postgres with a real connection pool, so writers
// actually overlap. They skip without TEST_POSTGRES_DSN.

func TestPostgresConcurrentAppendsGetConsecutiveNumbers(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)

	const n = 24
	var (
		mu   sync.Mutex
		nums []int
		g    errgroup.Group
	)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := f.versions.Append(ctx, l.ID, []byte(`{"section_order":[],"sections":{}}`), AppendOptions{})
			if err != nil {
				return err
			}
			mu.Lock()
			nums = append(nums, v.VersionNumber)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Ints(nums)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, nums)

	var stored layout.PageLayout
	require.NoError(t, f.db.First(&stored, l.ID).Error)
	assert.Equal(t, n, stored.LastVersionNumber)
}

func TestPostgresConcurrentPublishesGetDistinctVersions(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	require.NoError(t, f.repo.ReplaceSections(ctx, l.ID, draftSections()))

	const n = 8
	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := f.svc.Publish(ctx, f.id, home())
			if assert.True(t, res.Success) && assert.Empty(t, res.Data.Warnings) {
				mu.Lock()
				got = append(got, res.Data.Version)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, got)
}

func TestPostgresConcurrentReplaceLastWriteWins(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)

	setA := func() []layout.SectionInput {
		return []layout.SectionInput{
			{ExternalID: "a1", Type: layout.SectionHeader},
			{ExternalID: "a2", Type: layout.SectionSlideshow, Blocks: []layout.BlockInput{
				{ExternalID: "s1", Type: layout.BlockImageSlide},
			}},
		}
	}
	setB := func() []layout.SectionInput {
		return []layout.SectionInput{
			{ExternalID: "b1", Type: layout.SectionFAQ, Blocks: []layout.BlockInput{
				{ExternalID: "q1", Type: layout.BlockQuestion},
				{ExternalID: "q2", Type: layout.BlockQuestion},
			}},
			{ExternalID: "b2", Type: layout.SectionNewsletter},
			{ExternalID: "b3", Type: layout.SectionFooter},
		}
	}

	for round := 0; round < 20; round++ {
		var g errgroup.Group
		for w := 0; w < 4; w++ {
			set := setA
			if w%2 == 1 {
				set = setB
			}
			g.Go(func() error { return f.repo.ReplaceSections(ctx, l.ID, set()) })
		}
		require.NoError(t, g.Wait())

		tree, err := f.repo.LoadTree(ctx, l.ID)
		require.NoError(t, err)
		ids := externalIDs(tree)

		var blocks int64
		require.NoError(t, f.db.Model(&layout.SectionBlock{}).
			Joins("JOIN page_sections ON page_sections.id = section_blocks.section_id").
			Where("page_sections.page_layout_id = ?", l.ID).
			Count(&blocks).Error)

		switch {
		case assert.ObjectsAreEqual([]string{"a1", "a2"}, ids):
			assert.EqualValues(t, 1, blocks, "round %d", round)
			assert.Equal(t, []int{0, 1}, positions(tree))
		case assert.ObjectsAreEqual([]string{"b1", "b2", "b3"}, ids):
			assert.EqualValues(t, 2, blocks, "round %d", round)
			assert.Equal(t, []int{0, 1, 2}, positions(tree))
		default:
			t.Fatalf("round %d: got merged set %v", round, ids)
		}
	}
}

func TestPostgresLoadTreeReadsOneSnapshot(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	l, err := f.repo.GetOrCreateDraft(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	require.NoError(t, f.repo.ReplaceSections(ctx, l.ID, draftSections()))

	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		for {
			select {
			case <-done:
				return nil
			default:
			}
			if err := f.repo.ReplaceSections(ctx, l.ID, draftSections()); err != nil {
				return err
			}
		}
	})

	for i := 0; i < 200; i++ {
		tree, err := f.repo.LoadTree(ctx, l.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"announce", "slides", "footer"}, externalIDs(tree))
		require.Len(t, tree.Sections[1].Blocks, 2, "load %d saw sections without their blocks", i)
	}
	close(done)
	require.NoError(t, g.Wait())
}
