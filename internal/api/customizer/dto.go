package customizer

import (
	"bytes"
	"encoding/json"

	"storefront-customizer/internal/domain/layout"
)

// ---------- requests

type BlockDTO struct {
	BlockID   string          `json:"block_id"`
	Type      string          `json:"type" binding:"required"`
	IsVisible *bool           `json:"is_visible"` // defaults to true
	Settings  json.RawMessage `json:"settings"`
}

type SectionDTO struct {
	SectionID     string          `json:"section_id"`
	Type          string          `json:"type" binding:"required"`
	IsVisible     *bool           `json:"is_visible"` // defaults to true
	IsLocked      bool            `json:"is_locked"`
	Settings      json.RawMessage `json:"settings"`
	CustomCSS     string          `json:"custom_css"`
	CustomClasses string          `json:"custom_classes"`
	Blocks        []BlockDTO      `json:"blocks"`
}

type SaveDraftRequest struct {
	Handle    string       `json:"handle"`
	Sections  []SectionDTO `json:"sections"`
	CustomCSS *string      `json:"custom_css"`
}

type AddSectionRequest struct {
	Handle      string          `json:"handle"`
	SectionType string          `json:"section_type" binding:"required"`
	SectionID   string          `json:"section_id"`
	Settings    json.RawMessage `json:"settings"`
	Position    *int            `json:"position"`
	Blocks      []BlockDTO      `json:"blocks"`
}

type UpdateSectionRequest struct {
	Settings      json.RawMessage `json:"settings"`
	CustomCSS     *string         `json:"custom_css"`
	CustomClasses *string         `json:"custom_classes"`
	IsVisible     *bool           `json:"is_visible"`
	IsLocked      *bool           `json:"is_locked"`
	Position      *int            `json:"position"`
}

type AddBlockRequest struct {
	BlockDTO
	Position *int `json:"position"`
}

type UpdateBlockRequest struct {
	Settings  json.RawMessage `json:"settings"`
	IsVisible *bool           `json:"is_visible"`
	Position  *int            `json:"position"`
}

type SnapshotRequest struct {
	Handle string `json:"handle"`
	Notes  string `json:"notes"`
}

// ---------- mapping

func visible(v *bool) bool {
	return v == nil || *v
}

// provided treats an explicit JSON null like an absent field.
func provided(raw json.RawMessage) json.RawMessage {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

func (b BlockDTO) input() layout.BlockInput {
	return layout.BlockInput{
		ExternalID: b.BlockID,
		Type:       layout.BlockType(b.Type),
		IsVisible:  visible(b.IsVisible),
		Settings:   b.Settings,
	}
}

func blockInputs(in []BlockDTO) []layout.BlockInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]layout.BlockInput, 0, len(in))
	for _, b := range in {
		out = append(out, b.input())
	}
	return out
}

func (s SectionDTO) input() layout.SectionInput {
	return layout.SectionInput{
		ExternalID:    s.SectionID,
		Type:          layout.SectionType(s.Type),
		IsVisible:     visible(s.IsVisible),
		IsLocked:      s.IsLocked,
		Settings:      s.Settings,
		CustomCSS:     cleanCSS(s.CustomCSS),
		CustomClasses: cleanClasses(s.CustomClasses),
		Blocks:        blockInputs(s.Blocks),
	}
}

func (r UpdateSectionRequest) patch() layout.SectionPatch {
	p := layout.SectionPatch{
		Settings:  provided(r.Settings),
		IsVisible: r.IsVisible,
		IsLocked:  r.IsLocked,
		Position:  r.Position,
	}
	if r.CustomCSS != nil {
		css := cleanCSS(*r.CustomCSS)
		p.CustomCSS = &css
	}
	if r.CustomClasses != nil {
		classes := cleanClasses(*r.CustomClasses)
		p.CustomClasses = &classes
	}
	return p
}

func (r UpdateBlockRequest) patch() layout.BlockPatch {
	return layout.BlockPatch{Settings: provided(r.Settings), IsVisible: r.IsVisible, Position: r.Position}
}
