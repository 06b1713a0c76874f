package layout

// Effective is the render-time view of a settings document for one device.
type Effective struct {
	Device   Device `json:"device"`
	Settings Group  `json:"settings"`
	Style    Style  `json:"style"`
}

// Resolve merges the device bucket over the desktop base, key by key. A key
// present in the bucket wins even when its value is null, false or empty;
// only an absent key falls back. Desktop and missing buckets yield the base.
func Resolve(s Settings, device Device) Effective {
	eff := Effective{
		Device:   device,
		Settings: mergeGroup(s.Content, nil),
		Style:    mergeStyle(s.Style, nil),
	}
	if device == DeviceDesktop || device == "" {
		eff.Device = DeviceDesktop
		return eff
	}
	over, ok := s.Responsive[device]
	if !ok {
		return eff
	}
	eff.Settings = mergeGroup(s.Content, over.Settings)
	eff.Style = mergeStyle(s.Style, over.Style)
	return eff
}

// ResolveRaw parses raw and resolves it for device.
func ResolveRaw(raw []byte, device Device) (Effective, error) {
	s, err := ParseSettings(raw)
	if err != nil {
		return Effective{}, Invalid("resolve settings", "%v", err)
	}
	return Resolve(s, device), nil
}

func mergeGroup(base, over Group) Group {
	out := make(Group, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func mergeStyle(base Style, over *Style) Style {
	if over == nil {
		over = &Style{}
	}
	out := Style{
		Background: mergeGroup(base.Background, over.Background),
		Spacing:    mergeGroup(base.Spacing, over.Spacing),
		Border:     mergeGroup(base.Border, over.Border),
		Button:     mergeGroup(base.Button, over.Button),
		Typography: mergeRoles(base.Typography, over.Typography),
	}
	if len(base.Other) > 0 || len(over.Other) > 0 {
		out.Other = mergeRoles(base.Other, over.Other)
	}
	return out
}

func mergeRoles(base, over map[string]Group) map[string]Group {
	out := make(map[string]Group, len(base)+len(over))
	for role, g := range base {
		out[role] = mergeGroup(g, over[role])
	}
	for role, g := range over {
		if _, seen := out[role]; !seen {
			out[role] = mergeGroup(nil, g)
		}
	}
	return out
}
