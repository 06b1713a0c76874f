package customizer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/events"
	"storefront-customizer/internal/infra/logger"
)

type PublishState string

const (
	StateDraft      PublishState = "draft"
	StatePublishing PublishState = "publishing"
	StatePublished  PublishState = "published"
)

// Warning reports a step that failed after the artifact went live. The
// underlying error is only logged.
type Warning struct {
	Code    layout.Code `json:"code"`
	Step    string      `json:"step"`
	Message string      `json:"message"`
}

type PublishResult struct {
	LayoutID    uint         `json:"layout_id"`
	State       PublishState `json:"state"`
	ArtifactURL string       `json:"artifact_url"`
	PublishedAt time.Time    `json:"published_at"`
	Version     int          `json:"version,omitempty"`
	Warnings    []Warning    `json:"warnings,omitempty"`
}

// Localize rewrites warning messages in lang.
func (r *PublishResult) Localize(lang string) {
	if r == nil {
		return
	}
	for i := range r.Warnings {
		r.Warnings[i].Message = Message(r.Warnings[i].Code, lang)
	}
}

type PublisherConfig struct {
	UploadTimeout     time.Duration
	InvalidateTimeout time.Duration
}

// Publisher moves a draft to the live storefront: upload, mark published,
// invalidate, snapshot, announce. Only the upload can fail a publish; later
// failures are reported as consistency warnings.
type Publisher struct {
	repo      *LayoutRepository
	versions  *VersionStore
	artifacts ArtifactStore
	cache     CacheInvalidator
	events    EventNotifier
	log       *logger.Logger
	cfg       PublisherConfig
	tracer    trace.Tracer
	now       func() time.Time
}

func NewPublisher(
	repo *LayoutRepository,
	versions *VersionStore,
	artifacts ArtifactStore,
	cache CacheInvalidator,
	notifier EventNotifier,
	log *logger.Logger,
	cfg PublisherConfig,
) *Publisher {
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 15 * time.Second
	}
	if cfg.InvalidateTimeout <= 0 {
		cfg.InvalidateTimeout = 5 * time.Second
	}
	return &Publisher{
		repo:      repo,
		versions:  versions,
		artifacts: artifacts,
		cache:     cache,
		events:    notifier,
		log:       log.With("service", "Publisher"),
		cfg:       cfg,
		tracer:    otel.Tracer("storefront-customizer/customizer"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Publish(ctx context.Context, id Identity, pageType layout.PageType, handle string) (*PublishResult, error) {
	const op = "publish"
	ctx, span := p.tracer.Start(ctx, "customizer.publish", trace.WithAttributes(
		attribute.Int64("store_id", int64(id.StoreID)),
		attribute.String("page_type", string(pageType)),
		attribute.String("page_handle", handle),
	))
	defer span.End()

	log := p.log.With("store_id", id.StoreID, "page_type", pageType, "page_handle", handle)

	l, err := p.repo.FindLayout(ctx, id.StoreID, pageType, handle)
	if err != nil {
		return nil, p.fail(span, err)
	}
	tree, err := p.repo.LoadTree(ctx, l.ID)
	if err != nil {
		return nil, p.fail(span, err)
	}
	log = log.With("layout_id", tree.ID)
	log.Info("publish started", "state", StatePublishing, "sections", len(tree.Sections))

	now := p.now()
	doc := layout.BuildDocument(tree, now)
	content, err := doc.Marshal()
	if err != nil {
		return nil, p.fail(span, layout.Persistence(op, err))
	}

	url, err := p.upload(ctx, layout.ArtifactKey(id.StoreID, pageType, handle), content)
	if err != nil {
		log.Error("artifact upload failed", "state", StateDraft, "error", err)
		return nil, p.fail(span, layout.E(layout.CodeUpload, op, err))
	}

	res := &PublishResult{
		LayoutID:    tree.ID,
		State:       StatePublished,
		ArtifactURL: url,
		PublishedAt: now,
	}
	warn := func(step string, err error) {
		log.Warn("publish step failed after upload", "consistency_warning", true, "step", step, "artifact_url", url, "error", err)
		span.AddEvent("consistency_warning", trace.WithAttributes(attribute.String("step", step)))
		res.Warnings = append(res.Warnings, Warning{
			Code:    layout.CodeConsistencyWarning,
			Step:    step,
			Message: Message(layout.CodeConsistencyWarning, "en"),
		})
	}

	if err := p.repo.MarkPublished(ctx, tree, url, now); err != nil {
		warn("mark_published", err)
	}

	if err := p.invalidate(ctx, id.StoreID, pageType, handle); err != nil {
		warn("invalidate_cache", err)
	}

	createdBy := id.UserID
	v, err := p.versions.Append(ctx, tree.ID, content, AppendOptions{CreatedBy: nonZero(createdBy)})
	if err != nil {
		warn("append_version", err)
	} else {
		res.Version = v.VersionNumber
	}

	p.events.Publish(ctx, events.Event{
		Name:    events.PagePublished,
		StoreID: id.StoreID,
		UserID:  id.UserID,
		Payload: map[string]any{
			"store_id":     id.StoreID,
			"page_type":    pageType,
			"page_handle":  handle,
			"layout_id":    tree.ID,
			"artifact_url": url,
			"version":      res.Version,
		},
	})

	span.SetAttributes(attribute.Int("version", res.Version), attribute.Int("warnings", len(res.Warnings)))
	log.Info("publish finished", "state", StatePublished, "version", res.Version, "warnings", len(res.Warnings))
	return res, nil
}

func (p *Publisher) upload(ctx context.Context, key string, content []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.UploadTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "customizer.publish.upload", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()
	return p.artifacts.Upload(ctx, key, content)
}

func (p *Publisher) invalidate(ctx context.Context, storeID uint, pageType layout.PageType, handle string) error {
	root, err := p.storefrontRoot(ctx, storeID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.InvalidateTimeout)
	defer cancel()
	return p.cache.Invalidate(ctx, layout.StorefrontPaths(root, pageType, handle))
}

// storefrontRoot is /shops/<slug>, or /stores/<id> when the store row is
// not known here.
func (p *Publisher) storefrontRoot(ctx context.Context, storeID uint) (string, error) {
	slug, err := p.repo.StoreSlug(ctx, storeID)
	switch {
	case err == nil:
		return layout.ShopRoot(slug), nil
	case layout.CodeOf(err) == layout.CodeNotFound:
		p.log.Warn("store has no slug, invalidating id paths", "store_id", storeID)
		return layout.StoreRoot(storeID), nil
	default:
		return "", err
	}
}

func (p *Publisher) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(layout.CodeOf(err)))
	return err
}

func nonZero(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}
