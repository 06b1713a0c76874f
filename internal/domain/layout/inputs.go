package layout

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// SectionInput is one section of a full draft replace, in render order.
type SectionInput struct {
	ExternalID    string
	Type          SectionType
	IsVisible     bool
	IsLocked      bool
	Settings      json.RawMessage
	CustomCSS     string
	CustomClasses string
	Blocks        []BlockInput
}

type BlockInput struct {
	ExternalID string
	Type       BlockType
	IsVisible  bool
	Settings   json.RawMessage
}

// SectionPatch is a partial section update; nil fields are left alone.
type SectionPatch struct {
	Settings      json.RawMessage
	CustomCSS     *string
	CustomClasses *string
	IsVisible     *bool
	IsLocked      *bool
	Position      *int
}

func (p SectionPatch) Empty() bool {
	return p.Settings == nil && p.CustomCSS == nil && p.CustomClasses == nil &&
		p.IsVisible == nil && p.IsLocked == nil && p.Position == nil
}

type BlockPatch struct {
	Settings  json.RawMessage
	IsVisible *bool
	Position  *int
}

func (p BlockPatch) Empty() bool {
	return p.Settings == nil && p.IsVisible == nil && p.Position == nil
}

func NewSectionID() string { return "section_" + uuid.NewString() }
func NewBlockID() string   { return "block_" + uuid.NewString() }

// PrepareSections validates a replace set in place: unknown types, malformed
// settings and duplicate external ids are rejected, missing ids are generated
// and settings are normalized.
func PrepareSections(op string, sections []SectionInput) error {
	seen := make(map[string]bool, len(sections))
	for i := range sections {
		if err := PrepareSection(op, &sections[i]); err != nil {
			return err
		}
		id := sections[i].ExternalID
		if seen[id] {
			return Invalid(op, "duplicate section id %q", id)
		}
		seen[id] = true
	}
	return nil
}

func PrepareSection(op string, s *SectionInput) error {
	if !s.Type.Valid() {
		return Invalid(op, "unknown section type %q", s.Type)
	}
	s.ExternalID = strings.TrimSpace(s.ExternalID)
	if s.ExternalID == "" {
		s.ExternalID = NewSectionID()
	}
	norm, err := ValidateSectionSettings(s.Type, s.Settings)
	if err != nil {
		return Invalid(op, "section %s: %v", s.ExternalID, err)
	}
	s.Settings = norm

	seen := make(map[string]bool, len(s.Blocks))
	for j := range s.Blocks {
		if err := PrepareBlock(op, &s.Blocks[j]); err != nil {
			return err
		}
		id := s.Blocks[j].ExternalID
		if seen[id] {
			return Invalid(op, "duplicate block id %q in section %s", id, s.ExternalID)
		}
		seen[id] = true
	}
	return nil
}

func PrepareBlock(op string, b *BlockInput) error {
	if !b.Type.Valid() {
		return Invalid(op, "unknown block type %q", b.Type)
	}
	b.ExternalID = strings.TrimSpace(b.ExternalID)
	if b.ExternalID == "" {
		b.ExternalID = NewBlockID()
	}
	norm, err := NormalizeSettings(b.Settings)
	if err != nil {
		return Invalid(op, "block %s: %v", b.ExternalID, err)
	}
	b.Settings = norm
	return nil
}

// ValidateSectionSettings normalizes raw and checks its content group against
// the typed variant for t.
func ValidateSectionSettings(t SectionType, raw []byte) ([]byte, error) {
	norm, err := NormalizeSettings(raw)
	if err != nil {
		return nil, err
	}
	s, err := ParseSettings(norm)
	if err != nil {
		return nil, err
	}
	if _, err := DecodeSectionContent(t, s.Content); err != nil {
		return nil, err
	}
	return norm, nil
}
