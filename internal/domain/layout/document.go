package layout

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Document is the canonical serialization of a layout tree. Published
// artifacts and version snapshots share it.
type Document struct {
	PageType     PageType                   `json:"page_type"`
	PageHandle   string                     `json:"page_handle"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	SectionOrder []string                   `json:"section_order"`
	Sections     map[string]DocumentSection `json:"sections"`
}

type DocumentSection struct {
	ID            uint            `json:"id"`
	Type          SectionType     `json:"type"`
	Position      int             `json:"position"`
	IsVisible     bool            `json:"is_visible"`
	IsLocked      bool            `json:"is_locked"`
	Settings      json.RawMessage `json:"settings"`
	CustomCSS     string          `json:"custom_css"`
	CustomClasses string          `json:"custom_classes"`
	Blocks        []DocumentBlock `json:"blocks"`
}

type DocumentBlock struct {
	ID        uint            `json:"id"`
	BlockID   string          `json:"block_id"`
	Type      BlockType       `json:"type"`
	Position  int             `json:"position"`
	IsVisible bool            `json:"is_visible"`
	Settings  json.RawMessage `json:"settings"`
}

// BuildDocument serializes a loaded tree. Sections and blocks are emitted in
// position order regardless of how they were loaded.
func BuildDocument(l *PageLayout, now time.Time) Document {
	sections := append([]PageSection(nil), l.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Position < sections[j].Position })

	doc := Document{
		PageType:     l.PageType,
		PageHandle:   l.PageHandle,
		GeneratedAt:  now.UTC(),
		SectionOrder: make([]string, 0, len(sections)),
		Sections:     make(map[string]DocumentSection, len(sections)),
	}
	for _, s := range sections {
		blocks := append([]SectionBlock(nil), s.Blocks...)
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Position < blocks[j].Position })

		ds := DocumentSection{
			ID:            s.ID,
			Type:          s.SectionType,
			Position:      s.Position,
			IsVisible:     s.IsVisible,
			IsLocked:      s.IsLocked,
			Settings:      rawOrEmpty(s.SettingsJSON),
			CustomCSS:     s.CustomCSS,
			CustomClasses: s.CustomClasses,
			Blocks:        make([]DocumentBlock, 0, len(blocks)),
		}
		for _, b := range blocks {
			ds.Blocks = append(ds.Blocks, DocumentBlock{
				ID:        b.ID,
				BlockID:   b.ExternalID,
				Type:      b.BlockType,
				Position:  b.Position,
				IsVisible: b.IsVisible,
				Settings:  rawOrEmpty(b.SettingsJSON),
			})
		}
		doc.SectionOrder = append(doc.SectionOrder, s.ExternalID)
		doc.Sections[s.ExternalID] = ds
	}
	return doc
}

func (d Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

func ParseDocument(raw []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("decode layout document: %w", err)
	}
	return d, nil
}

// SectionInputs turns a document back into a replace set, in section_order.
func (d Document) SectionInputs() ([]SectionInput, error) {
	out := make([]SectionInput, 0, len(d.SectionOrder))
	for _, id := range d.SectionOrder {
		s, ok := d.Sections[id]
		if !ok {
			return nil, fmt.Errorf("section %q listed in order but missing", id)
		}
		blocks := append([]DocumentBlock(nil), s.Blocks...)
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Position < blocks[j].Position })

		in := SectionInput{
			ExternalID:    id,
			Type:          s.Type,
			IsVisible:     s.IsVisible,
			IsLocked:      s.IsLocked,
			Settings:      s.Settings,
			CustomCSS:     s.CustomCSS,
			CustomClasses: s.CustomClasses,
			Blocks:        make([]BlockInput, 0, len(blocks)),
		}
		for _, b := range blocks {
			in.Blocks = append(in.Blocks, BlockInput{
				ExternalID: b.BlockID,
				Type:       b.Type,
				IsVisible:  b.IsVisible,
				Settings:   b.Settings,
			})
		}
		out = append(out, in)
	}
	return out, nil
}

func rawOrEmpty(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(b)
}
