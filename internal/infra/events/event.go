package events

import "time"

const (
	PageDraftSaved  = "customizer.page.draft_saved"
	SectionAdded    = "customizer.section.added"
	SectionUpdated  = "customizer.section.updated"
	SectionDeleted  = "customizer.section.deleted"
	BlockAdded      = "customizer.block.added"
	BlockUpdated    = "customizer.block.updated"
	BlockDeleted    = "customizer.block.deleted"
	PagePublished   = "customizer.page.published"
	PageDiscarded   = "customizer.page.discarded"
	VersionCreated  = "customizer.version.created"
	VersionRestored = "customizer.version.restored"
)

const SourceDashboard = "dashboard"

// Event is the envelope delivered to every sink.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Payload    map[string]any `json:"payload"`
	StoreID    uint           `json:"store_id"`
	UserID     uint           `json:"user_id,omitempty"`
	Source     string         `json:"source"`
	OccurredAt time.Time      `json:"occurred_at"`
}
