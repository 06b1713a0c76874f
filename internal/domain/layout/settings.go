package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Group is one flat bag of style or content keys. A key that is present with a
// null value is still present.
type Group map[string]any

// Style holds the shared style groups. Typography is keyed by role
// (heading, content, button, ...). Unrecognised groups land in Other so they
// survive resolution.
type Style struct {
	Background Group            `json:"background,omitempty"`
	Typography map[string]Group `json:"typography,omitempty"`
	Spacing    Group            `json:"spacing,omitempty"`
	Border     Group            `json:"border,omitempty"`
	Button     Group            `json:"button,omitempty"`
	Other      map[string]Group `json:"-"`
}

var knownStyleGroups = map[string]bool{
	"background": true, "typography": true, "spacing": true, "border": true, "button": true,
}

func (s *Style) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	type plain Style
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Style(p)
	for k, v := range raw {
		if knownStyleGroups[k] {
			continue
		}
		var g Group
		if err := json.Unmarshal(v, &g); err != nil {
			// non-object values are not style groups
			continue
		}
		if s.Other == nil {
			s.Other = map[string]Group{}
		}
		s.Other[k] = g
	}
	return nil
}

func (s Style) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, g := range s.Other {
		out[k] = g
	}
	if s.Background != nil {
		out["background"] = s.Background
	}
	if s.Typography != nil {
		out["typography"] = s.Typography
	}
	if s.Spacing != nil {
		out["spacing"] = s.Spacing
	}
	if s.Border != nil {
		out["border"] = s.Border
	}
	if s.Button != nil {
		out["button"] = s.Button
	}
	return json.Marshal(out)
}

// Override is the bucket of device-specific values layered over desktop.
type Override struct {
	Settings Group  `json:"settings,omitempty"`
	Style    *Style `json:"style,omitempty"`
}

// Settings is the parsed form of a section or block settings_json document.
// The persisted bytes stay authoritative; Settings is used for resolution and
// validation only.
type Settings struct {
	Content    Group               `json:"settings,omitempty"`
	Style      Style               `json:"style"`
	Responsive map[Device]Override `json:"responsive,omitempty"`
}

// ParseSettings decodes a settings document. Empty input is an empty document.
func ParseSettings(raw []byte) (Settings, error) {
	var s Settings
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return s, nil
	}
	if trimmed[0] != '{' {
		return s, fmt.Errorf("settings must be a JSON object")
	}
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return s, fmt.Errorf("decode settings: %w", err)
	}
	for d := range s.Responsive {
		if d != DeviceTablet && d != DeviceMobile {
			return s, fmt.Errorf("responsive bucket %q is not a device override", d)
		}
	}
	return s, nil
}

// NormalizeSettings returns raw when it is a valid settings document and "{}"
// when raw is empty.
func NormalizeSettings(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("{}"), nil
	}
	if _, err := ParseSettings(trimmed); err != nil {
		return nil, err
	}
	return trimmed, nil
}

// WithContentDefaults fills the "settings" group of raw with defaults for keys
// the caller did not provide. Other top-level keys are left untouched.
func WithContentDefaults(raw []byte, defaults Group) ([]byte, error) {
	if len(defaults) == 0 {
		return NormalizeSettings(raw)
	}
	norm, err := NormalizeSettings(raw)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(norm, &doc); err != nil {
		return nil, err
	}
	content := Group{}
	if existing, ok := doc["settings"]; ok {
		if err := json.Unmarshal(existing, &content); err != nil {
			return nil, fmt.Errorf("decode settings group: %w", err)
		}
		if content == nil {
			content = Group{}
		}
	}
	for k, v := range defaults {
		if _, ok := content[k]; !ok {
			content[k] = v
		}
	}
	b, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	doc["settings"] = b
	return json.Marshal(doc)
}
