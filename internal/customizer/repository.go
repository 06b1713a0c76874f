package customizer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/logger"
)

// LayoutRepository owns persistence of layouts, sections and blocks.
// Every multi-row write runs in one transaction and leaves positions dense.
type LayoutRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLayoutRepository(db *gorm.DB, log *logger.Logger) *LayoutRepository {
	return &LayoutRepository{db: db, log: log.With("repo", "LayoutRepository")}
}

// GetOrCreateDraft returns the layout for the natural key, inserting it when
// missing. Never touches is_published.
func (r *LayoutRepository) GetOrCreateDraft(ctx context.Context, storeID uint, pageType layout.PageType, handle string) (*layout.PageLayout, error) {
	const op = "get or create draft"
	row := layout.PageLayout{StoreID: storeID, PageType: pageType, PageHandle: handle}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "page_type"}, {Name: "page_handle"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil {
		return nil, layout.Persistence(op, err)
	}
	return r.FindLayout(ctx, storeID, pageType, handle)
}

func (r *LayoutRepository) FindLayout(ctx context.Context, storeID uint, pageType layout.PageType, handle string) (*layout.PageLayout, error) {
	const op = "find layout"
	var l layout.PageLayout
	err := r.db.WithContext(ctx).
		First(&l, "store_id = ? AND page_type = ? AND page_handle = ?", storeID, pageType, handle).Error
	if err != nil {
		return nil, classify(op, err, "layout %s/%q", pageType, handle)
	}
	return &l, nil
}

// LoadTree loads a layout with its sections and blocks in position order.
// Both preload queries read the same snapshot.
func (r *LayoutRepository) LoadTree(ctx context.Context, layoutID uint) (*layout.PageLayout, error) {
	const op = "load tree"
	var l layout.PageLayout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Preload("Sections", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Preload("Sections.Blocks", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			First(&l, "id = ?", layoutID).Error
	}, snapshotRead(r.db))
	if err != nil {
		return nil, classify(op, err, "layout %d", layoutID)
	}
	return &l, nil
}

// ReplaceSections swaps the whole child tree of a layout for sections, in
// array order. Concurrent replaces serialize on the layout row, so the last
// writer wins and sets are never merged.
func (r *LayoutRepository) ReplaceSections(ctx context.Context, layoutID uint, sections []layout.SectionInput) error {
	return r.replaceSections(ctx, "replace sections", layoutID, sections, false)
}

// SaveDraftSections is ReplaceSections for editor saves: every currently
// locked section must be in the set and stays locked. Unlocking takes an
// explicit section update.
func (r *LayoutRepository) SaveDraftSections(ctx context.Context, layoutID uint, sections []layout.SectionInput) error {
	return r.replaceSections(ctx, "save draft sections", layoutID, sections, true)
}

func (r *LayoutRepository) replaceSections(ctx context.Context, op string, layoutID uint, sections []layout.SectionInput, keepLocked bool) error {
	if err := layout.PrepareSections(op, sections); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touchLayout(tx, layoutID); err != nil {
			return err
		}
		if keepLocked {
			if err := holdLocked(tx, op, layoutID, sections); err != nil {
				return err
			}
		}
		if err := tx.Where("section_id IN (?)",
			tx.Model(&layout.PageSection{}).Select("id").Where("page_layout_id = ?", layoutID),
		).Delete(&layout.SectionBlock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_layout_id = ?", layoutID).Delete(&layout.PageSection{}).Error; err != nil {
			return err
		}
		for i := range sections {
			if _, err := insertSection(tx, layoutID, i, sections[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap(op, err)
}

// InsertSection places one new section at position (clamped; nil appends)
// and shifts the ones after it.
func (r *LayoutRepository) InsertSection(ctx context.Context, layoutID uint, in layout.SectionInput, position *int) (*layout.PageSection, error) {
	const op = "insert section"
	if err := layout.PrepareSection(op, &in); err != nil {
		return nil, err
	}
	var created *layout.PageSection
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touchLayout(tx, layoutID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&layout.PageSection{}).Where("page_layout_id = ?", layoutID).Count(&n).Error; err != nil {
			return err
		}
		pos := clampPosition(position, int(n))
		if err := tx.Model(&layout.PageSection{}).
			Where("page_layout_id = ? AND position >= ?", layoutID, pos).
			UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}
		s, err := insertSection(tx, layoutID, pos, in)
		if err != nil {
			return err
		}
		created = s
		return nil
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// UpdateSection applies a partial update. Locked sections keep their
// position; their settings stay editable.
func (r *LayoutRepository) UpdateSection(ctx context.Context, sectionID uint, patch layout.SectionPatch) (*layout.PageSection, error) {
	const op = "update section"
	var out layout.PageSection
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s layout.PageSection
		if err := tx.First(&s, "id = ?", sectionID).Error; err != nil {
			return err
		}
		if err := touchLayout(tx, s.PageLayoutID); err != nil {
			return err
		}

		updates := map[string]any{}
		if patch.Settings != nil {
			norm, err := layout.ValidateSectionSettings(s.SectionType, patch.Settings)
			if err != nil {
				return layout.Invalid(op, "section %s: %v", s.ExternalID, err)
			}
			updates["settings_json"] = datatypes.JSON(norm)
		}
		if patch.CustomCSS != nil {
			updates["custom_css"] = *patch.CustomCSS
		}
		if patch.CustomClasses != nil {
			updates["custom_classes"] = *patch.CustomClasses
		}
		if patch.IsVisible != nil {
			updates["is_visible"] = *patch.IsVisible
		}
		if patch.IsLocked != nil {
			updates["is_locked"] = *patch.IsLocked
		}
		if len(updates) > 0 {
			if err := tx.Model(&layout.PageSection{}).Where("id = ?", s.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if patch.Position != nil && *patch.Position != s.Position {
			stillLocked := s.IsLocked
			if patch.IsLocked != nil {
				stillLocked = *patch.IsLocked
			}
			if stillLocked {
				return layout.Locked(op, "section %s is locked", s.ExternalID)
			}
			var n int64
			if err := tx.Model(&layout.PageSection{}).Where("page_layout_id = ?", s.PageLayoutID).Count(&n).Error; err != nil {
				return err
			}
			to := clampPosition(patch.Position, int(n)-1)
			if err := moveRow(tx, &layout.PageSection{}, "page_layout_id", s.PageLayoutID, s.ID, s.Position, to); err != nil {
				return err
			}
		}

		return tx.Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).First(&out, "id = ?", s.ID).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &out, nil
}

// DeleteSection removes an unlocked section with its blocks and closes the gap.
func (r *LayoutRepository) DeleteSection(ctx context.Context, sectionID uint) (*layout.PageSection, error) {
	const op = "delete section"
	var s layout.PageSection
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&s, "id = ?", sectionID).Error; err != nil {
			return err
		}
		if s.IsLocked {
			return layout.Locked(op, "section %s is locked", s.ExternalID)
		}
		if err := touchLayout(tx, s.PageLayoutID); err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", s.ID).Delete(&layout.SectionBlock{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&layout.PageSection{}, s.ID).Error; err != nil {
			return err
		}
		return tx.Model(&layout.PageSection{}).
			Where("page_layout_id = ? AND position > ?", s.PageLayoutID, s.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &s, nil
}

func (r *LayoutRepository) InsertBlock(ctx context.Context, sectionID uint, in layout.BlockInput, position *int) (*layout.SectionBlock, error) {
	const op = "insert block"
	if err := layout.PrepareBlock(op, &in); err != nil {
		return nil, err
	}
	var created layout.SectionBlock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s layout.PageSection
		if err := tx.First(&s, "id = ?", sectionID).Error; err != nil {
			return err
		}
		if err := touchLayout(tx, s.PageLayoutID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&layout.SectionBlock{}).Where("section_id = ?", s.ID).Count(&n).Error; err != nil {
			return err
		}
		pos := clampPosition(position, int(n))
		if err := tx.Model(&layout.SectionBlock{}).
			Where("section_id = ? AND position >= ?", s.ID, pos).
			UpdateColumn("position", gorm.Expr("position + 1")).Error; err != nil {
			return err
		}
		created = newBlockRow(s.ID, pos, in)
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &created, nil
}

func (r *LayoutRepository) UpdateBlock(ctx context.Context, blockID uint, patch layout.BlockPatch) (*layout.SectionBlock, error) {
	const op = "update block"
	var out layout.SectionBlock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b layout.SectionBlock
		if err := tx.First(&b, "id = ?", blockID).Error; err != nil {
			return err
		}
		var s layout.PageSection
		if err := tx.Select("id", "page_layout_id").First(&s, "id = ?", b.SectionID).Error; err != nil {
			return err
		}
		if err := touchLayout(tx, s.PageLayoutID); err != nil {
			return err
		}

		updates := map[string]any{}
		if patch.Settings != nil {
			norm, err := layout.NormalizeSettings(patch.Settings)
			if err != nil {
				return layout.Invalid(op, "block %s: %v", b.ExternalID, err)
			}
			updates["settings_json"] = datatypes.JSON(norm)
		}
		if patch.IsVisible != nil {
			updates["is_visible"] = *patch.IsVisible
		}
		if len(updates) > 0 {
			if err := tx.Model(&layout.SectionBlock{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if patch.Position != nil && *patch.Position != b.Position {
			var n int64
			if err := tx.Model(&layout.SectionBlock{}).Where("section_id = ?", b.SectionID).Count(&n).Error; err != nil {
				return err
			}
			to := clampPosition(patch.Position, int(n)-1)
			if err := moveRow(tx, &layout.SectionBlock{}, "section_id", b.SectionID, b.ID, b.Position, to); err != nil {
				return err
			}
		}
		return tx.First(&out, "id = ?", b.ID).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &out, nil
}

func (r *LayoutRepository) DeleteBlock(ctx context.Context, blockID uint) (*layout.SectionBlock, error) {
	const op = "delete block"
	var b layout.SectionBlock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", blockID).Error; err != nil {
			return err
		}
		var s layout.PageSection
		if err := tx.Select("id", "page_layout_id").First(&s, "id = ?", b.SectionID).Error; err != nil {
			return err
		}
		if err := touchLayout(tx, s.PageLayoutID); err != nil {
			return err
		}
		if err := tx.Delete(&layout.SectionBlock{}, b.ID).Error; err != nil {
			return err
		}
		return tx.Model(&layout.SectionBlock{}).
			Where("section_id = ? AND position > ?", b.SectionID, b.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &b, nil
}

// SectionOwner returns the layout a section belongs to.
func (r *LayoutRepository) SectionOwner(ctx context.Context, sectionID uint) (*layout.PageLayout, error) {
	const op = "section owner"
	var l layout.PageLayout
	err := r.db.WithContext(ctx).
		Select("page_layouts.*").
		Joins("JOIN page_sections ON page_sections.page_layout_id = page_layouts.id").
		Where("page_sections.id = ?", sectionID).
		First(&l).Error
	if err != nil {
		return nil, classify(op, err, "section %d", sectionID)
	}
	return &l, nil
}

// BlockOwner returns the layout a block belongs to.
func (r *LayoutRepository) BlockOwner(ctx context.Context, blockID uint) (*layout.PageLayout, error) {
	const op = "block owner"
	var l layout.PageLayout
	err := r.db.WithContext(ctx).
		Select("page_layouts.*").
		Joins("JOIN page_sections ON page_sections.page_layout_id = page_layouts.id").
		Joins("JOIN section_blocks ON section_blocks.section_id = page_sections.id").
		Where("section_blocks.id = ?", blockID).
		First(&l).Error
	if err != nil {
		return nil, classify(op, err, "block %d", blockID)
	}
	return &l, nil
}

// DiscardDraft hard-deletes a layout that was never published, along with its
// children and any manual snapshots. A published layout is left untouched.
func (r *LayoutRepository) DiscardDraft(ctx context.Context, storeID uint, pageType layout.PageType, handle string) (*layout.PageLayout, error) {
	const op = "discard draft"
	var l layout.PageLayout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&l, "store_id = ? AND page_type = ? AND page_handle = ?", storeID, pageType, handle).Error; err != nil {
			return err
		}
		if l.IsPublished {
			return layout.Locked(op, "layout %d is published", l.ID)
		}
		if err := tx.Where("section_id IN (?)",
			tx.Model(&layout.PageSection{}).Select("id").Where("page_layout_id = ?", l.ID),
		).Delete(&layout.SectionBlock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_layout_id = ?", l.ID).Delete(&layout.PageSection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_layout_id = ?", l.ID).Delete(&layout.LayoutVersion{}).Error; err != nil {
			return err
		}
		// a publish may have landed since the read above
		res := tx.Where("id = ? AND is_published = ?", l.ID, false).Delete(&layout.PageLayout{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return layout.Locked(op, "layout %d is published", l.ID)
		}
		return nil
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &l, nil
}

// MarkPublished records a successful upload on the layout and promotes the
// store's draft theme settings, in one transaction.
func (r *LayoutRepository) MarkPublished(ctx context.Context, l *layout.PageLayout, artifactURL string, at time.Time) error {
	const op = "mark published"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&layout.PageLayout{}).Where("id = ?", l.ID).Updates(map[string]any{
			"is_published": true,
			"published_at": at,
			"artifact_url": artifactURL,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return layout.NotFound(op, "layout %d", l.ID)
		}
		return promoteTheme(tx, l.StoreID, at)
	})
	return wrap(op, err)
}

func (r *LayoutRepository) StoreSlug(ctx context.Context, storeID uint) (string, error) {
	const op = "store slug"
	var s layout.Store
	if err := r.db.WithContext(ctx).Select("id", "slug").First(&s, "id = ?", storeID).Error; err != nil {
		return "", classify(op, err, "store %d", storeID)
	}
	return s.Slug, nil
}

// ------------------------------
// helpers (tx-scoped)
// ------------------------------

// touchLayout bumps updated_at, which also takes the row write lock that
// serializes writers of the same layout. Missing layout -> NotFound.
func touchLayout(tx *gorm.DB, layoutID uint) error {
	res := tx.Model(&layout.PageLayout{}).Where("id = ?", layoutID).UpdateColumn("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return layout.NotFound("lock layout", "layout %d", layoutID)
	}
	return nil
}

// holdLocked refuses a set that drops a locked section and re-locks any
// locked section the set sends back unlocked. Runs under the layout lock.
func holdLocked(tx *gorm.DB, op string, layoutID uint, sections []layout.SectionInput) error {
	var locked []string
	if err := tx.Model(&layout.PageSection{}).
		Where("page_layout_id = ? AND is_locked = ?", layoutID, true).
		Order("position ASC").
		Pluck("section_id", &locked).Error; err != nil {
		return err
	}
	if len(locked) == 0 {
		return nil
	}
	index := make(map[string]int, len(sections))
	for i := range sections {
		index[sections[i].ExternalID] = i
	}
	for _, id := range locked {
		i, ok := index[id]
		if !ok {
			return layout.Locked(op, "section %s is locked", id)
		}
		sections[i].IsLocked = true
	}
	return nil
}

// snapshotRead makes multi-statement reads see one snapshot on Postgres.
// SQLite transactions already do.
func snapshotRead(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

func insertSection(tx *gorm.DB, layoutID uint, position int, in layout.SectionInput) (*layout.PageSection, error) {
	s := layout.PageSection{
		PageLayoutID:  layoutID,
		SectionType:   in.Type,
		ExternalID:    in.ExternalID,
		Position:      position,
		IsVisible:     in.IsVisible,
		IsLocked:      in.IsLocked,
		SettingsJSON:  datatypes.JSON(in.Settings),
		CustomCSS:     in.CustomCSS,
		CustomClasses: in.CustomClasses,
	}
	if err := tx.Omit("Blocks").Create(&s).Error; err != nil {
		return nil, err
	}
	if len(in.Blocks) > 0 {
		blocks := make([]layout.SectionBlock, 0, len(in.Blocks))
		for j, b := range in.Blocks {
			blocks = append(blocks, newBlockRow(s.ID, j, b))
		}
		if err := tx.Create(&blocks).Error; err != nil {
			return nil, err
		}
		s.Blocks = blocks
	}
	return &s, nil
}

func newBlockRow(sectionID uint, position int, in layout.BlockInput) layout.SectionBlock {
	return layout.SectionBlock{
		SectionID:    sectionID,
		BlockType:    in.Type,
		ExternalID:   in.ExternalID,
		Position:     position,
		IsVisible:    in.IsVisible,
		SettingsJSON: datatypes.JSON(in.Settings),
	}
}

// moveRow shifts the siblings between from and to, then drops the row at to.
func moveRow(tx *gorm.DB, model any, parentCol string, parentID, rowID uint, from, to int) error {
	if from == to {
		return nil
	}
	q := tx.Model(model).Where(parentCol+" = ? AND id <> ?", parentID, rowID)
	var err error
	if from < to {
		err = q.Where("position > ? AND position <= ?", from, to).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	} else {
		err = q.Where("position >= ? AND position < ?", to, from).
			UpdateColumn("position", gorm.Expr("position + 1")).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(model).Where("id = ?", rowID).UpdateColumn("position", to).Error
}

func promoteTheme(tx *gorm.DB, storeID uint, at time.Time) error {
	return tx.Model(&layout.StoreThemeSettings{}).
		Where("store_id = ? AND draft_settings_json IS NOT NULL", storeID).
		Updates(map[string]any{
			"published_settings_json": gorm.Expr("draft_settings_json"),
			"published_at":            at,
		}).Error
}

func clampPosition(p *int, max int) int {
	if max < 0 {
		max = 0
	}
	if p == nil || *p > max {
		return max
	}
	if *p < 0 {
		return 0
	}
	return *p
}

// classify maps a gorm error from a single-row read onto the taxonomy.
func classify(op string, err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return layout.NotFound(op, format, args...)
	}
	return layout.Persistence(op, err)
}

// wrap keeps taxonomy errors as they are and classifies the rest.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *layout.Error
	if errors.As(err, &le) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return layout.E(layout.CodeNotFound, op, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return layout.E(layout.CodeValidation, op, err)
	}
	return layout.Persistence(op, err)
}
