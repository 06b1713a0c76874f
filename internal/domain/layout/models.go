package layout

import (
	"time"

	"gorm.io/datatypes"
)

// PageLayout is the single row per (store, page type, handle). It always holds
// the working draft; IsPublished records whether that draft was ever promoted.
type PageLayout struct {
	ID uint `gorm:"primaryKey" json:"id"`

	StoreID    uint     `gorm:"not null;uniqueIndex:idx_page_layout_key,priority:1" json:"store_id"`
	PageType   PageType `gorm:"type:varchar(32);not null;uniqueIndex:idx_page_layout_key,priority:2" json:"page_type"`
	PageHandle string   `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_page_layout_key,priority:3" json:"page_handle"`

	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ArtifactURL *string    `gorm:"column:artifact_url" json:"artifact_url,omitempty"`

	// Per-layout version counter, bumped under a row lock on every append.
	LastVersionNumber int `gorm:"not null;default:0" json:"-"`

	Sections []PageSection `gorm:"foreignKey:PageLayoutID;references:ID;constraint:OnDelete:CASCADE;" json:"sections,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PageLayout) TableName() string { return "page_layouts" }

type PageSection struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PageLayoutID uint        `gorm:"not null;index;uniqueIndex:idx_page_section_external,priority:1" json:"page_layout_id"`
	SectionType  SectionType `gorm:"type:varchar(64);not null" json:"section_type"`
	ExternalID   string      `gorm:"column:section_id;type:varchar(128);not null;uniqueIndex:idx_page_section_external,priority:2" json:"section_id"`
	Position     int         `gorm:"not null;index" json:"position"`

	IsVisible bool `gorm:"not null" json:"is_visible"`
	IsLocked  bool `gorm:"not null" json:"is_locked"`

	SettingsJSON  datatypes.JSON `gorm:"column:settings_json;not null" json:"settings"`
	CustomCSS     string         `gorm:"type:text;not null;default:''" json:"custom_css"`
	CustomClasses string         `gorm:"type:text;not null;default:''" json:"custom_classes"`

	Blocks []SectionBlock `gorm:"foreignKey:SectionID;references:ID;constraint:OnDelete:CASCADE;" json:"blocks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PageSection) TableName() string { return "page_sections" }

type SectionBlock struct {
	ID uint `gorm:"primaryKey" json:"id"`

	SectionID  uint      `gorm:"not null;index;uniqueIndex:idx_section_block_external,priority:1" json:"-"`
	BlockType  BlockType `gorm:"type:varchar(64);not null" json:"block_type"`
	ExternalID string    `gorm:"column:block_id;type:varchar(128);not null;uniqueIndex:idx_section_block_external,priority:2" json:"block_id"`
	Position   int       `gorm:"not null;index" json:"position"`
	IsVisible  bool      `gorm:"not null" json:"is_visible"`

	SettingsJSON datatypes.JSON `gorm:"column:settings_json;not null" json:"settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SectionBlock) TableName() string { return "section_blocks" }

// LayoutVersion is an immutable snapshot of a layout tree.
type LayoutVersion struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PageLayoutID  uint `gorm:"not null;uniqueIndex:idx_layout_version_number,priority:1" json:"page_layout_id"`
	VersionNumber int  `gorm:"not null;uniqueIndex:idx_layout_version_number,priority:2" json:"version_number"`

	SnapshotJSON datatypes.JSON `gorm:"column:snapshot_json;not null" json:"snapshot"`
	Notes        *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy    *uint          `json:"created_by,omitempty"`
	IsRestorable bool           `gorm:"not null" json:"is_restorable"`

	CreatedAt time.Time `json:"created_at"`
}

func (LayoutVersion) TableName() string { return "page_layout_versions" }

// Store is the storefront identity; Slug drives the public paths.
type Store struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Slug string `gorm:"type:varchar(128);not null;uniqueIndex" json:"slug"`
	Name string `gorm:"type:varchar(255);not null;default:''" json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Store) TableName() string { return "stores" }

// StoreThemeSettings holds the store-wide style bucket. Draft is promoted to
// Published whenever any page of the store is published.
type StoreThemeSettings struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	StoreID uint `gorm:"not null;uniqueIndex" json:"store_id"`

	DraftSettingsJSON     datatypes.JSON `gorm:"column:draft_settings_json" json:"draft_settings"`
	PublishedSettingsJSON datatypes.JSON `gorm:"column:published_settings_json" json:"published_settings"`
	PublishedAt           *time.Time     `json:"published_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StoreThemeSettings) TableName() string { return "store_theme_settings" }

// Models lists every table owned by the customizer, in migration order.
func Models() []any {
	return []any{
		&Store{},
		&StoreThemeSettings{},
		&PageLayout{},
		&PageSection{},
		&SectionBlock{},
		&LayoutVersion{},
	}
}
