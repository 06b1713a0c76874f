package customizer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/events"
	"storefront-customizer/internal/testutil"
)

func TestServiceRejectsAnonymousCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	save := f.svc.SaveDraft(ctx, Identity{}, SaveDraftRequest{Page: home()})
	require.False(t, save.Success)
	assert.Equal(t, layout.CodeUnauthorized, save.Error.Code)

	pub := f.svc.Publish(ctx, Identity{}, home())
	require.False(t, pub.Success)
	assert.Equal(t, layout.CodeUnauthorized, pub.Error.Code)

	var n int64
	require.NoError(t, f.db.Model(&layout.PageLayout{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSaveDraftValidatesPageType(t *testing.T) {
	f := newFixture(t)
	res := f.svc.SaveDraft(context.Background(), f.id, SaveDraftRequest{Page: PageRef{PageType: "landing"}})
	require.False(t, res.Success)
	assert.Equal(t, layout.CodeValidation, res.Error.Code)
}

func TestSaveDraftKeepsLockedSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.svc.SaveDraft(ctx, f.id, SaveDraftRequest{
		Page: home(),
		Sections: []layout.SectionInput{
			{ExternalID: "header", Type: layout.SectionHeader, IsLocked: true, IsVisible: true},
			{ExternalID: "body", Type: layout.SectionRichText, IsVisible: true},
		},
		CustomCSS: strp("body{margin:0}"),
	})
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data.SectionCount)
	assert.Equal(t, events.PageDraftSaved, f.notifier.last().Name)

	dropped := f.svc.SaveDraft(ctx, f.id, SaveDraftRequest{
		Page:     home(),
		Sections: []layout.SectionInput{{ExternalID: "body", Type: layout.SectionRichText}},
	})
	require.False(t, dropped.Success)
	assert.Equal(t, layout.CodeLocked, dropped.Error.Code)

	draft := f.svc.GetDraft(ctx, f.id, home())
	require.True(t, draft.Success)
	assert.Equal(t, []string{"header", "body"}, externalIDs(draft.Data))

	theme := f.svc.GetThemeSettings(ctx, f.id)
	require.True(t, theme.Success)
	assert.JSONEq(t, `{"custom_css":"body{margin:0}"}`, string(theme.Data.Draft))
}

func TestSaveDraftCannotUnlockSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.SaveDraft(ctx, f.id, SaveDraftRequest{
		Page: home(),
		Sections: []layout.SectionInput{
			{ExternalID: "header", Type: layout.SectionHeader, IsLocked: true, IsVisible: true},
			{ExternalID: "body", Type: layout.SectionRichText, IsVisible: true},
		},
	}).Success)

	res := f.svc.SaveDraft(ctx, f.id, SaveDraftRequest{
		Page: home(),
		Sections: []layout.SectionInput{
			{ExternalID: "body", Type: layout.SectionRichText, IsVisible: true},
			{ExternalID: "header", Type: layout.SectionHeader, IsLocked: false, IsVisible: true},
		},
	})
	require.True(t, res.Success)

	draft := f.svc.GetDraft(ctx, f.id, home())
	require.True(t, draft.Success)
	require.Equal(t, []string{"body", "header"}, externalIDs(draft.Data))
	assert.True(t, draft.Data.Sections[1].IsLocked)

	// an explicit section update is the way to unlock
	unlocked := f.svc.UpdateSection(ctx, f.id, draft.Data.Sections[1].ID, layout.SectionPatch{IsLocked: boolp(false)})
	require.True(t, unlocked.Success)
	assert.False(t, unlocked.Data.IsLocked)

	dropped := f.svc.SaveDraft(ctx, f.id, SaveDraftRequest{
		Page:     home(),
		Sections: []layout.SectionInput{{ExternalID: "body", Type: layout.SectionRichText}},
	})
	require.True(t, dropped.Success)
}

func TestAddSectionAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.svc.AddSection(ctx, f.id, AddSectionRequest{
		Page:        home(),
		SectionType: layout.SectionMulticolumn,
		Settings:    json.RawMessage(`{"settings":{"title":"Our promise"}}`),
	})
	require.True(t, res.Success)
	sec := res.Data
	assert.True(t, sec.IsVisible)
	assert.Contains(t, sec.ExternalID, "section_")
	assert.Equal(t, 0, sec.Position)
	require.Len(t, sec.Blocks, 3)
	assert.Equal(t, "col_1", sec.Blocks[0].ExternalID)

	s, err := layout.ParseSettings(sec.SettingsJSON)
	require.NoError(t, err)
	assert.Equal(t, "Our promise", s.Content["title"])
	assert.EqualValues(t, 3, s.Content["columns_desktop"])

	bad := f.svc.AddSection(ctx, f.id, AddSectionRequest{Page: home(), SectionType: "carousel"})
	require.False(t, bad.Success)
	assert.Equal(t, layout.CodeValidation, bad.Error.Code)
}

func TestPreviewResolvesPerDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.svc.SaveDraft(ctx, f.id, SaveDraftRequest{
		Page: home(),
		Sections: []layout.SectionInput{{
			ExternalID: "hero",
			Type:       layout.SectionHeroBanner,
			IsVisible:  true,
			Settings: json.RawMessage(`{
				"settings": {"heading": "Big sale", "height": "large"},
				"responsive": {"mobile": {"settings": {"height": "small"}}}
			}`),
		}},
	})
	require.True(t, res.Success)

	desktop := f.svc.PreviewDraft(ctx, f.id, home(), "")
	require.True(t, desktop.Success)
	assert.Equal(t, layout.DeviceDesktop, desktop.Data.Device)
	assert.Equal(t, "large", desktop.Data.Sections[0].Effective.Settings["height"])

	mobile := f.svc.PreviewDraft(ctx, f.id, home(), "mobile")
	require.True(t, mobile.Success)
	assert.Equal(t, "small", mobile.Data.Sections[0].Effective.Settings["height"])
	assert.Equal(t, "Big sale", mobile.Data.Sections[0].Effective.Settings["heading"])

	bad := f.svc.PreviewDraft(ctx, f.id, home(), "watch")
	require.False(t, bad.Success)
	assert.Equal(t, layout.CodeValidation, bad.Error.Code)
}

func TestForeignStoreSeesNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added := f.svc.AddSection(ctx, f.id, AddSectionRequest{Page: home(), SectionType: layout.SectionSlideshow})
	require.True(t, added.Success)

	other := testutil.SeedStore(t, f.db, "Other Shop")
	intruder := Identity{StoreID: other.ID, UserID: 7}

	upd := f.svc.UpdateSection(ctx, intruder, added.Data.ID, layout.SectionPatch{IsVisible: boolp(false)})
	require.False(t, upd.Success)
	assert.Equal(t, layout.CodeNotFound, upd.Error.Code)

	del := f.svc.DeleteBlock(ctx, intruder, added.Data.Blocks[0].ID)
	require.False(t, del.Success)
	assert.Equal(t, layout.CodeNotFound, del.Error.Code)

	draft := f.svc.GetDraft(ctx, intruder, home())
	require.False(t, draft.Success)
	assert.Equal(t, layout.CodeNotFound, draft.Error.Code)
}

func TestBlockOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added := f.svc.AddSection(ctx, f.id, AddSectionRequest{Page: home(), SectionType: layout.SectionFAQ})
	require.True(t, added.Success)
	require.Empty(t, added.Data.Blocks)
	secID := added.Data.ID

	q1 := f.svc.AddBlock(ctx, f.id, secID, AddBlockRequest{Block: layout.BlockInput{Type: layout.BlockQuestion, IsVisible: true}})
	require.True(t, q1.Success)
	q2 := f.svc.AddBlock(ctx, f.id, secID, AddBlockRequest{Block: layout.BlockInput{Type: layout.BlockQuestion, IsVisible: true}, Position: intp(0)})
	require.True(t, q2.Success)
	assert.Equal(t, 0, q2.Data.Position)

	empty := f.svc.UpdateBlock(ctx, f.id, q1.Data.ID, layout.BlockPatch{})
	require.False(t, empty.Success)
	assert.Equal(t, layout.CodeValidation, empty.Error.Code)

	upd := f.svc.UpdateBlock(ctx, f.id, q1.Data.ID, layout.BlockPatch{Settings: json.RawMessage(`{"settings":{"question":"Shipping?"}}`)})
	require.True(t, upd.Success)
	assert.JSONEq(t, `{"settings":{"question":"Shipping?"}}`, string(upd.Data.SettingsJSON))

	del := f.svc.DeleteBlock(ctx, f.id, q2.Data.ID)
	require.True(t, del.Success)

	draft := f.svc.GetDraft(ctx, f.id, home())
	require.True(t, draft.Success)
	require.Len(t, draft.Data.Sections[0].Blocks, 1)
	assert.Equal(t, 0, draft.Data.Sections[0].Blocks[0].Position)

	assert.Equal(t, []string{
		events.SectionAdded, events.BlockAdded, events.BlockAdded, events.BlockUpdated, events.BlockDeleted,
	}, f.notifier.names())
}

func TestDiscardDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.AddSection(ctx, f.id, AddSectionRequest{Page: home(), SectionType: layout.SectionFooter}).Success)
	snap := f.svc.CreateManualSnapshot(ctx, f.id, home(), "")
	require.True(t, snap.Success)

	res := f.svc.DiscardDraft(ctx, f.id, home())
	require.True(t, res.Success)

	var versions int64
	require.NoError(t, f.db.Model(&layout.LayoutVersion{}).Count(&versions).Error)
	assert.Zero(t, versions)

	again := f.svc.DiscardDraft(ctx, f.id, home())
	require.False(t, again.Success)
	assert.Equal(t, layout.CodeNotFound, again.Error.Code)

	require.True(t, f.svc.AddSection(ctx, f.id, AddSectionRequest{Page: home(), SectionType: layout.SectionFooter}).Success)
	require.True(t, f.svc.Publish(ctx, f.id, home()).Success)
	published := f.svc.DiscardDraft(ctx, f.id, home())
	require.False(t, published.Success)
	assert.Equal(t, layout.CodeLocked, published.Error.Code)
}

func TestManualSnapshotKeepsNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.True(t, f.svc.AddSection(ctx, f.id, AddSectionRequest{Page: home(), SectionType: layout.SectionRichText}).Success)

	snap := f.svc.CreateManualSnapshot(ctx, f.id, home(), "  before holiday sale ")
	require.True(t, snap.Success)
	require.NotNil(t, snap.Data.Notes)
	assert.Equal(t, "before holiday sale", *snap.Data.Notes)
	require.NotNil(t, snap.Data.CreatedBy)
	assert.EqualValues(t, 42, *snap.Data.CreatedBy)

	stored, err := f.repo.FindLayout(ctx, f.store.ID, layout.PageHome, "")
	require.NoError(t, err)
	assert.False(t, stored.IsPublished, "snapshots never publish")

	list := f.svc.ListVersions(ctx, f.id, home())
	require.True(t, list.Success)
	require.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Data[0].VersionNumber)
}

func TestPublishEditRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slides := f.svc.AddSection(ctx, f.id, AddSectionRequest{
		Page:        home(),
		SectionType: layout.SectionSlideshow,
		SectionID:   "hero_slides",
		Settings:    json.RawMessage(`{"settings":{"heading":"Spring"}}`),
	})
	require.True(t, slides.Success)
	require.True(t, f.svc.AddSection(ctx, f.id, AddSectionRequest{Page: home(), SectionType: layout.SectionFooter, SectionID: "footer"}).Success)

	pub := f.svc.Publish(ctx, f.id, home())
	require.True(t, pub.Success)
	require.Equal(t, 1, pub.Data.Version)
	published := f.artifacts.uploads[layoutKey(f)]
	require.NotEmpty(t, published)

	upd := f.svc.UpdateSection(ctx, f.id, slides.Data.ID, layout.SectionPatch{Settings: json.RawMessage(`{"settings":{"heading":"Summer"}}`)})
	require.True(t, upd.Success)

	list := f.svc.ListVersions(ctx, f.id, home())
	require.True(t, list.Success)
	require.Len(t, list.Data, 1)

	restored := f.svc.RestoreVersion(ctx, f.id, home(), list.Data[0].ID)
	require.True(t, restored.Success)
	assert.Equal(t, 1, restored.Data.VersionNumber)

	draft := f.svc.GetDraft(ctx, f.id, home())
	require.True(t, draft.Success)
	assert.True(t, draft.Data.IsPublished)

	want, err := layout.ParseDocument(published)
	require.NoError(t, err)
	got := layout.BuildDocument(draft.Data, want.GeneratedAt)
	require.Equal(t, want.SectionOrder, got.SectionOrder)
	for _, id := range want.SectionOrder {
		w, g := want.Sections[id], got.Sections[id]
		assert.Equal(t, w.Type, g.Type, id)
		assert.Equal(t, w.Position, g.Position, id)
		assert.JSONEq(t, string(w.Settings), string(g.Settings), id)
		require.Len(t, g.Blocks, len(w.Blocks), id)
		for i := range w.Blocks {
			assert.Equal(t, w.Blocks[i].BlockID, g.Blocks[i].BlockID)
			assert.JSONEq(t, string(w.Blocks[i].Settings), string(g.Blocks[i].Settings))
		}
	}

	missing := f.svc.RestoreVersion(ctx, f.id, home(), 9999)
	require.False(t, missing.Success)
	assert.Equal(t, layout.CodeNotFound, missing.Error.Code)
}

func TestThemeSettingsRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := f.svc.GetThemeSettings(ctx, f.id)
	require.True(t, empty.Success)
	assert.JSONEq(t, `{}`, string(empty.Data.Draft))
	assert.Nil(t, empty.Data.Published)

	saved := f.svc.SaveThemeSettings(ctx, f.id, json.RawMessage(`{"typography":{"body":"Inter"}}`))
	require.True(t, saved.Success)
	assert.JSONEq(t, `{"typography":{"body":"Inter"}}`, string(saved.Data.Draft))

	bad := f.svc.SaveThemeSettings(ctx, f.id, json.RawMessage(`"nope"`))
	require.False(t, bad.Success)
	assert.Equal(t, layout.CodeValidation, bad.Error.Code)
}

func layoutKey(f *fixture) string {
	return layout.ArtifactKey(f.store.ID, layout.PageHome, "")
}
