package customizer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/events"
	"storefront-customizer/internal/infra/logger"
)

// Result is the outward shape of every operation: success with data, or a
// machine code plus a generic message. Raw error detail stays in the logs.
type Result[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data,omitempty"`
	Error   *ResultError `json:"error,omitempty"`
}

type ResultError struct {
	Code    layout.Code `json:"code"`
	Message string      `json:"message"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Service is the editing surface used by the HTTP handlers.
type Service struct {
	repo      *LayoutRepository
	versions  *VersionStore
	publisher *Publisher
	events    EventNotifier
	log       *logger.Logger
}

func NewService(repo *LayoutRepository, versions *VersionStore, publisher *Publisher, notifier EventNotifier, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		versions:  versions,
		publisher: publisher,
		events:    notifier,
		log:       log.With("service", "CustomizerService"),
	}
}

// PageRef addresses one layout of the caller's store.
type PageRef struct {
	PageType   string
	PageHandle string
}

func (r PageRef) parse() (layout.PageType, string, error) {
	pt, err := layout.ParsePageType(r.PageType)
	if err != nil {
		return "", "", err
	}
	return pt, strings.TrimSpace(r.PageHandle), nil
}

type SaveDraftRequest struct {
	Page      PageRef
	Sections  []layout.SectionInput
	CustomCSS *string
}

type DraftSaved struct {
	LayoutID     uint `json:"layout_id"`
	SectionCount int  `json:"section_count"`
}

// SaveDraft replaces the whole draft tree. Dropping a locked section is
// refused and locked sections stay locked.
func (s *Service) SaveDraft(ctx context.Context, id Identity, req SaveDraftRequest) Result[*DraftSaved] {
	const op = "save draft"
	if err := authorize(op, id); err != nil {
		return failure[*DraftSaved](s.log, op, err)
	}
	pt, handle, err := req.Page.parse()
	if err != nil {
		return failure[*DraftSaved](s.log, op, err)
	}
	l, err := s.repo.GetOrCreateDraft(ctx, id.StoreID, pt, handle)
	if err != nil {
		return failure[*DraftSaved](s.log, op, err)
	}

	if err := s.repo.SaveDraftSections(ctx, l.ID, req.Sections); err != nil {
		return failure[*DraftSaved](s.log, op, err)
	}
	if req.CustomCSS != nil {
		if err := s.repo.SetThemeDraftKey(ctx, id.StoreID, "custom_css", *req.CustomCSS); err != nil {
			return failure[*DraftSaved](s.log, op, err)
		}
	}

	s.emit(ctx, id, events.PageDraftSaved, map[string]any{
		"page_type":     pt,
		"page_handle":   handle,
		"layout_id":     l.ID,
		"section_count": len(req.Sections),
	})
	return ok(&DraftSaved{LayoutID: l.ID, SectionCount: len(req.Sections)})
}

func (s *Service) GetDraft(ctx context.Context, id Identity, page PageRef) Result[*layout.PageLayout] {
	const op = "get draft"
	if err := authorize(op, id); err != nil {
		return failure[*layout.PageLayout](s.log, op, err)
	}
	l, err := s.loadTree(ctx, id, page)
	if err != nil {
		return failure[*layout.PageLayout](s.log, op, err)
	}
	return ok(l)
}

type PreviewBlock struct {
	BlockID   string           `json:"block_id"`
	Type      layout.BlockType `json:"type"`
	IsVisible bool             `json:"is_visible"`
	Effective layout.Effective `json:"effective"`
}

type PreviewSection struct {
	SectionID     string             `json:"section_id"`
	Type          layout.SectionType `json:"type"`
	Position      int                `json:"position"`
	IsVisible     bool               `json:"is_visible"`
	CustomCSS     string             `json:"custom_css"`
	CustomClasses string             `json:"custom_classes"`
	Effective     layout.Effective   `json:"effective"`
	Blocks        []PreviewBlock     `json:"blocks"`
}

type Preview struct {
	PageType   layout.PageType  `json:"page_type"`
	PageHandle string           `json:"page_handle"`
	Device     layout.Device    `json:"device"`
	Sections   []PreviewSection `json:"sections"`
}

// PreviewDraft resolves every section and block of the draft for one device.
func (s *Service) PreviewDraft(ctx context.Context, id Identity, page PageRef, device string) Result[*Preview] {
	const op = "preview draft"
	if err := authorize(op, id); err != nil {
		return failure[*Preview](s.log, op, err)
	}
	d, err := layout.ParseDevice(device)
	if err != nil {
		return failure[*Preview](s.log, op, err)
	}
	l, err := s.loadTree(ctx, id, page)
	if err != nil {
		return failure[*Preview](s.log, op, err)
	}

	out := &Preview{PageType: l.PageType, PageHandle: l.PageHandle, Device: d, Sections: make([]PreviewSection, 0, len(l.Sections))}
	for _, sec := range l.Sections {
		eff, err := layout.ResolveRaw(sec.SettingsJSON, d)
		if err != nil {
			return failure[*Preview](s.log, op, err)
		}
		ps := PreviewSection{
			SectionID:     sec.ExternalID,
			Type:          sec.SectionType,
			Position:      sec.Position,
			IsVisible:     sec.IsVisible,
			CustomCSS:     sec.CustomCSS,
			CustomClasses: sec.CustomClasses,
			Effective:     eff,
			Blocks:        make([]PreviewBlock, 0, len(sec.Blocks)),
		}
		for _, b := range sec.Blocks {
			beff, err := layout.ResolveRaw(b.SettingsJSON, d)
			if err != nil {
				return failure[*Preview](s.log, op, err)
			}
			ps.Blocks = append(ps.Blocks, PreviewBlock{BlockID: b.ExternalID, Type: b.BlockType, IsVisible: b.IsVisible, Effective: beff})
		}
		out.Sections = append(out.Sections, ps)
	}
	return ok(out)
}

type AddSectionRequest struct {
	Page        PageRef
	SectionType layout.SectionType
	SectionID   string
	Settings    json.RawMessage
	Position    *int
	Blocks      []layout.BlockInput
}

// AddSection inserts a new section, seeded with the type's default content
// and blocks where the caller supplied none.
func (s *Service) AddSection(ctx context.Context, id Identity, req AddSectionRequest) Result[*layout.PageSection] {
	const op = "add section"
	if err := authorize(op, id); err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	pt, handle, err := req.Page.parse()
	if err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	if !req.SectionType.Valid() {
		return failure[*layout.PageSection](s.log, op, layout.Invalid(op, "unknown section type %q", req.SectionType))
	}
	settings, err := layout.WithContentDefaults(req.Settings, layout.DefaultContent(req.SectionType))
	if err != nil {
		return failure[*layout.PageSection](s.log, op, layout.Invalid(op, "%v", err))
	}
	blocks := req.Blocks
	if len(blocks) == 0 {
		blocks = layout.DefaultBlocks(req.SectionType)
	}

	l, err := s.repo.GetOrCreateDraft(ctx, id.StoreID, pt, handle)
	if err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	sec, err := s.repo.InsertSection(ctx, l.ID, layout.SectionInput{
		ExternalID: req.SectionID,
		Type:       req.SectionType,
		IsVisible:  true,
		Settings:   settings,
		Blocks:     blocks,
	}, req.Position)
	if err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}

	s.emit(ctx, id, events.SectionAdded, map[string]any{
		"page_type":    pt,
		"page_handle":  handle,
		"section_type": sec.SectionType,
		"section_id":   sec.ExternalID,
		"position":     sec.Position,
	})
	return ok(sec)
}

func (s *Service) UpdateSection(ctx context.Context, id Identity, sectionID uint, patch layout.SectionPatch) Result[*layout.PageSection] {
	const op = "update section"
	if err := authorize(op, id); err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	if patch.Empty() {
		return failure[*layout.PageSection](s.log, op, layout.Invalid(op, "nothing to update"))
	}
	if _, err := s.ownSection(ctx, id, op, sectionID); err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	sec, err := s.repo.UpdateSection(ctx, sectionID, patch)
	if err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	s.emit(ctx, id, events.SectionUpdated, map[string]any{
		"section_id":   sec.ExternalID,
		"section_type": sec.SectionType,
		"layout_id":    sec.PageLayoutID,
	})
	return ok(sec)
}

func (s *Service) DeleteSection(ctx context.Context, id Identity, sectionID uint) Result[*layout.PageSection] {
	const op = "delete section"
	if err := authorize(op, id); err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	if _, err := s.ownSection(ctx, id, op, sectionID); err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	sec, err := s.repo.DeleteSection(ctx, sectionID)
	if err != nil {
		return failure[*layout.PageSection](s.log, op, err)
	}
	s.emit(ctx, id, events.SectionDeleted, map[string]any{
		"section_id":   sec.ExternalID,
		"section_type": sec.SectionType,
		"layout_id":    sec.PageLayoutID,
	})
	return ok(sec)
}

type AddBlockRequest struct {
	Block    layout.BlockInput
	Position *int
}

func (s *Service) AddBlock(ctx context.Context, id Identity, sectionID uint, req AddBlockRequest) Result[*layout.SectionBlock] {
	const op = "add block"
	if err := authorize(op, id); err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	if _, err := s.ownSection(ctx, id, op, sectionID); err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	b, err := s.repo.InsertBlock(ctx, sectionID, req.Block, req.Position)
	if err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	s.emit(ctx, id, events.BlockAdded, map[string]any{
		"section_id": sectionID,
		"block_id":   b.ExternalID,
		"block_type": b.BlockType,
		"position":   b.Position,
	})
	return ok(b)
}

func (s *Service) UpdateBlock(ctx context.Context, id Identity, blockID uint, patch layout.BlockPatch) Result[*layout.SectionBlock] {
	const op = "update block"
	if err := authorize(op, id); err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	if patch.Empty() {
		return failure[*layout.SectionBlock](s.log, op, layout.Invalid(op, "nothing to update"))
	}
	if _, err := s.ownBlock(ctx, id, op, blockID); err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	b, err := s.repo.UpdateBlock(ctx, blockID, patch)
	if err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	s.emit(ctx, id, events.BlockUpdated, map[string]any{
		"section_id": b.SectionID,
		"block_id":   b.ExternalID,
		"block_type": b.BlockType,
	})
	return ok(b)
}

func (s *Service) DeleteBlock(ctx context.Context, id Identity, blockID uint) Result[*layout.SectionBlock] {
	const op = "delete block"
	if err := authorize(op, id); err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	if _, err := s.ownBlock(ctx, id, op, blockID); err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	b, err := s.repo.DeleteBlock(ctx, blockID)
	if err != nil {
		return failure[*layout.SectionBlock](s.log, op, err)
	}
	s.emit(ctx, id, events.BlockDeleted, map[string]any{
		"section_id": b.SectionID,
		"block_id":   b.ExternalID,
		"block_type": b.BlockType,
	})
	return ok(b)
}

// Publish pushes the draft live. A result with warnings is still a success.
func (s *Service) Publish(ctx context.Context, id Identity, page PageRef) Result[*PublishResult] {
	const op = "publish"
	if err := authorize(op, id); err != nil {
		return failure[*PublishResult](s.log, op, err)
	}
	pt, handle, err := page.parse()
	if err != nil {
		return failure[*PublishResult](s.log, op, err)
	}
	res, err := s.publisher.Publish(ctx, id, pt, handle)
	if err != nil {
		return failure[*PublishResult](s.log, op, err)
	}
	return ok(res)
}

type Discarded struct {
	LayoutID uint `json:"layout_id"`
}

func (s *Service) DiscardDraft(ctx context.Context, id Identity, page PageRef) Result[*Discarded] {
	const op = "discard draft"
	if err := authorize(op, id); err != nil {
		return failure[*Discarded](s.log, op, err)
	}
	pt, handle, err := page.parse()
	if err != nil {
		return failure[*Discarded](s.log, op, err)
	}
	l, err := s.repo.DiscardDraft(ctx, id.StoreID, pt, handle)
	if err != nil {
		return failure[*Discarded](s.log, op, err)
	}
	s.emit(ctx, id, events.PageDiscarded, map[string]any{
		"page_type":   pt,
		"page_handle": handle,
		"layout_id":   l.ID,
	})
	return ok(&Discarded{LayoutID: l.ID})
}

func (s *Service) ListVersions(ctx context.Context, id Identity, page PageRef) Result[[]VersionSummary] {
	const op = "list versions"
	if err := authorize(op, id); err != nil {
		return failure[[]VersionSummary](s.log, op, err)
	}
	l, err := s.findLayout(ctx, id, page)
	if err != nil {
		return failure[[]VersionSummary](s.log, op, err)
	}
	list, err := s.versions.List(ctx, l.ID)
	if err != nil {
		return failure[[]VersionSummary](s.log, op, err)
	}
	return ok(list)
}

// RestoreVersion copies a snapshot back into the draft. Locked sections of
// the current draft do not block a restore.
func (s *Service) RestoreVersion(ctx context.Context, id Identity, page PageRef, versionID uint) Result[*VersionSummary] {
	const op = "restore version"
	if err := authorize(op, id); err != nil {
		return failure[*VersionSummary](s.log, op, err)
	}
	l, err := s.findLayout(ctx, id, page)
	if err != nil {
		return failure[*VersionSummary](s.log, op, err)
	}
	v, err := s.versions.Restore(ctx, l.ID, versionID)
	if err != nil {
		return failure[*VersionSummary](s.log, op, err)
	}
	s.emit(ctx, id, events.VersionRestored, map[string]any{
		"page_type":      l.PageType,
		"page_handle":    l.PageHandle,
		"layout_id":      l.ID,
		"version_number": v.VersionNumber,
	})
	sum := summarize(*v)
	return ok(&sum)
}

// CreateManualSnapshot stores the current draft as a version without publishing.
func (s *Service) CreateManualSnapshot(ctx context.Context, id Identity, page PageRef, notes string) Result[*VersionSummary] {
	const op = "create snapshot"
	if err := authorize(op, id); err != nil {
		return failure[*VersionSummary](s.log, op, err)
	}
	l, err := s.loadTree(ctx, id, page)
	if err != nil {
		return failure[*VersionSummary](s.log, op, err)
	}
	content, err := layout.BuildDocument(l, s.publisher.now()).Marshal()
	if err != nil {
		return failure[*VersionSummary](s.log, op, layout.Persistence(op, err))
	}
	opts := AppendOptions{CreatedBy: nonZero(id.UserID)}
	if n := strings.TrimSpace(notes); n != "" {
		opts.Notes = &n
	}
	v, err := s.versions.Append(ctx, l.ID, content, opts)
	if err != nil {
		return failure[*VersionSummary](s.log, op, err)
	}
	s.emit(ctx, id, events.VersionCreated, map[string]any{
		"page_type":      l.PageType,
		"page_handle":    l.PageHandle,
		"layout_id":      l.ID,
		"version_number": v.VersionNumber,
		"manual":         true,
	})
	sum := summarize(*v)
	return ok(&sum)
}

type ThemeSettings struct {
	Draft       json.RawMessage `json:"draft"`
	Published   json.RawMessage `json:"published,omitempty"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}

func (s *Service) GetThemeSettings(ctx context.Context, id Identity) Result[*ThemeSettings] {
	const op = "get theme settings"
	if err := authorize(op, id); err != nil {
		return failure[*ThemeSettings](s.log, op, err)
	}
	ts, err := s.repo.ThemeSettings(ctx, id.StoreID)
	if err != nil {
		return failure[*ThemeSettings](s.log, op, err)
	}
	out := &ThemeSettings{Draft: json.RawMessage(ts.DraftSettingsJSON)}
	if len(out.Draft) == 0 {
		out.Draft = json.RawMessage("{}")
	}
	if len(ts.PublishedSettingsJSON) > 0 {
		out.Published = json.RawMessage(ts.PublishedSettingsJSON)
	}
	out.PublishedAt = ts.PublishedAt
	return ok(out)
}

func (s *Service) SaveThemeSettings(ctx context.Context, id Identity, draft json.RawMessage) Result[*ThemeSettings] {
	const op = "save theme settings"
	if err := authorize(op, id); err != nil {
		return failure[*ThemeSettings](s.log, op, err)
	}
	if err := s.repo.SaveThemeDraft(ctx, id.StoreID, draft); err != nil {
		return failure[*ThemeSettings](s.log, op, err)
	}
	return s.GetThemeSettings(ctx, id)
}

// ------------------------------
// helpers
// ------------------------------

func authorize(op string, id Identity) error {
	if id.StoreID == 0 {
		return layout.E(layout.CodeUnauthorized, op, nil)
	}
	return nil
}

func (s *Service) findLayout(ctx context.Context, id Identity, page PageRef) (*layout.PageLayout, error) {
	pt, handle, err := page.parse()
	if err != nil {
		return nil, err
	}
	return s.repo.FindLayout(ctx, id.StoreID, pt, handle)
}

func (s *Service) loadTree(ctx context.Context, id Identity, page PageRef) (*layout.PageLayout, error) {
	l, err := s.findLayout(ctx, id, page)
	if err != nil {
		return nil, err
	}
	return s.repo.LoadTree(ctx, l.ID)
}

// ownSection hides sections of other stores behind NotFound.
func (s *Service) ownSection(ctx context.Context, id Identity, op string, sectionID uint) (*layout.PageLayout, error) {
	l, err := s.repo.SectionOwner(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if l.StoreID != id.StoreID {
		return nil, layout.NotFound(op, "section %d", sectionID)
	}
	return l, nil
}

func (s *Service) ownBlock(ctx context.Context, id Identity, op string, blockID uint) (*layout.PageLayout, error) {
	l, err := s.repo.BlockOwner(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if l.StoreID != id.StoreID {
		return nil, layout.NotFound(op, "block %d", blockID)
	}
	return l, nil
}

func (s *Service) emit(ctx context.Context, id Identity, name string, payload map[string]any) {
	payload["store_id"] = id.StoreID
	s.events.Publish(ctx, events.Event{
		Name:    name,
		StoreID: id.StoreID,
		UserID:  id.UserID,
		Payload: payload,
	})
}

// failure logs err with full detail and returns the generic outward form.
func failure[T any](log *logger.Logger, op string, err error) Result[T] {
	code := layout.CodeOf(err)
	switch code {
	case layout.CodePersistence, layout.CodeUpload:
		log.Error("operation failed", "op", op, "code", code, "error", err)
	default:
		log.Warn("operation rejected", "op", op, "code", code, "error", err)
	}
	return Result[T]{
		Success: false,
		Error:   &ResultError{Code: code, Message: Message(code, "en")},
	}
}
