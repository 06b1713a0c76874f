package customizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-customizer/internal/domain/layout"
)

// ThemeSettings returns the store's theme settings row, or an empty one when
// none was saved yet.
func (r *LayoutRepository) ThemeSettings(ctx context.Context, storeID uint) (*layout.StoreThemeSettings, error) {
	var ts layout.StoreThemeSettings
	err := r.db.WithContext(ctx).First(&ts, "store_id = ?", storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &layout.StoreThemeSettings{
			StoreID:           storeID,
			DraftSettingsJSON: datatypes.JSON("{}"),
		}, nil
	}
	if err != nil {
		return nil, layout.Persistence("theme settings", err)
	}
	return &ts, nil
}

// SaveThemeDraft replaces the draft theme settings document.
func (r *LayoutRepository) SaveThemeDraft(ctx context.Context, storeID uint, raw []byte) error {
	const op = "save theme draft"
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' || !json.Valid(raw) {
		return layout.Invalid(op, "theme settings must be a JSON object")
	}
	row := layout.StoreThemeSettings{StoreID: storeID, DraftSettingsJSON: datatypes.JSON(raw)}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"draft_settings_json", "updated_at"}),
		}).
		Create(&row).Error
	return wrap(op, err)
}

// SetThemeDraftKey writes a single top-level key of the draft theme settings.
func (r *LayoutRepository) SetThemeDraftKey(ctx context.Context, storeID uint, key string, value any) error {
	const op = "set theme draft key"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ts layout.StoreThemeSettings
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ts, "store_id = ?", storeID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		doc := map[string]any{}
		if len(ts.DraftSettingsJSON) > 0 {
			if err := json.Unmarshal(ts.DraftSettingsJSON, &doc); err != nil {
				return err
			}
		}
		doc[key] = value
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if ts.ID == 0 {
			return tx.Create(&layout.StoreThemeSettings{StoreID: storeID, DraftSettingsJSON: datatypes.JSON(raw)}).Error
		}
		return tx.Model(&layout.StoreThemeSettings{}).Where("id = ?", ts.ID).
			Update("draft_settings_json", datatypes.JSON(raw)).Error
	})
	return wrap(op, err)
}
