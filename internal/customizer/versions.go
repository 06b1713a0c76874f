package customizer

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"storefront-customizer/internal/domain/layout"
	"storefront-customizer/internal/infra/logger"
)

// VersionStore appends and restores immutable layout snapshots.
type VersionStore struct {
	db   *gorm.DB
	repo *LayoutRepository
	log  *logger.Logger
}

func NewVersionStore(db *gorm.DB, repo *LayoutRepository, log *logger.Logger) *VersionStore {
	return &VersionStore{db: db, repo: repo, log: log.With("repo", "VersionStore")}
}

type AppendOptions struct {
	Notes     *string
	CreatedBy *uint
}

type VersionSummary struct {
	ID            uint      `json:"id"`
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedBy     *uint     `json:"created_by,omitempty"`
	IsRestorable  bool      `json:"is_restorable"`
}

func summarize(v layout.LayoutVersion) VersionSummary {
	return VersionSummary{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		CreatedAt:     v.CreatedAt,
		Notes:         v.Notes,
		CreatedBy:     v.CreatedBy,
		IsRestorable:  v.IsRestorable,
	}
}

// Append allocates the next version number from the layout's counter and
// stores the snapshot. The counter update holds the layout row lock until
// commit, so concurrent appends get consecutive numbers.
func (v *VersionStore) Append(ctx context.Context, layoutID uint, snapshot []byte, opts AppendOptions) (*layout.LayoutVersion, error) {
	const op = "append version"
	var out layout.LayoutVersion
	err := v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&layout.PageLayout{}).
			Where("id = ?", layoutID).
			UpdateColumn("last_version_number", gorm.Expr("last_version_number + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return layout.NotFound(op, "layout %d", layoutID)
		}
		var next int
		if err := tx.Model(&layout.PageLayout{}).
			Select("last_version_number").
			Where("id = ?", layoutID).
			Scan(&next).Error; err != nil {
			return err
		}
		out = layout.LayoutVersion{
			PageLayoutID:  layoutID,
			VersionNumber: next,
			SnapshotJSON:  datatypes.JSON(snapshot),
			Notes:         opts.Notes,
			CreatedBy:     opts.CreatedBy,
			IsRestorable:  true,
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	v.log.Info("version appended", "layout_id", layoutID, "version", out.VersionNumber)
	return &out, nil
}

// List returns summaries newest first.
func (v *VersionStore) List(ctx context.Context, layoutID uint) ([]VersionSummary, error) {
	var rows []layout.LayoutVersion
	err := v.db.WithContext(ctx).
		Select("id", "page_layout_id", "version_number", "notes", "created_by", "is_restorable", "created_at").
		Where("page_layout_id = ?", layoutID).
		Order("version_number DESC").
		Find(&rows).Error
	if err != nil {
		return nil, layout.Persistence("list versions", err)
	}
	out := make([]VersionSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, summarize(r))
	}
	return out, nil
}

// Get loads one version scoped to its layout.
func (v *VersionStore) Get(ctx context.Context, layoutID, versionID uint) (*layout.LayoutVersion, error) {
	var row layout.LayoutVersion
	err := v.db.WithContext(ctx).
		First(&row, "id = ? AND page_layout_id = ?", versionID, layoutID).Error
	if err != nil {
		return nil, classify("get version", err, "version %d of layout %d", versionID, layoutID)
	}
	return &row, nil
}

// Restore replaces the layout's draft tree with the snapshot's. Publication
// state is not changed.
func (v *VersionStore) Restore(ctx context.Context, layoutID, versionID uint) (*layout.LayoutVersion, error) {
	const op = "restore version"
	row, err := v.Get(ctx, layoutID, versionID)
	if err != nil {
		return nil, err
	}
	if !row.IsRestorable {
		return nil, layout.NotFound(op, "version %d is not restorable", row.VersionNumber)
	}
	doc, err := layout.ParseDocument(row.SnapshotJSON)
	if err != nil {
		return nil, layout.Persistence(op, err)
	}
	sections, err := doc.SectionInputs()
	if err != nil {
		return nil, layout.Persistence(op, err)
	}
	if err := v.repo.ReplaceSections(ctx, layoutID, sections); err != nil {
		return nil, err
	}
	v.log.Info("version restored", "layout_id", layoutID, "version", row.VersionNumber)
	return row, nil
}
