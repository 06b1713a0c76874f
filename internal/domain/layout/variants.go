package layout

import (
	"encoding/json"
	"fmt"
)

// SectionContent is the typed view of a section's "settings" group.
type SectionContent interface {
	SectionType() SectionType
	Validate() error
}

type AnnouncementBarContent struct {
	Text          string `json:"text"`
	LinkText      string `json:"link_text"`
	LinkURL       string `json:"link_url"`
	TextAlign     string `json:"text_align"`
	Height        string `json:"height"`
	ShowDismiss   *bool  `json:"show_dismiss"`
	ScrollingText *bool  `json:"scrolling_text"`
	ScrollSpeed   string `json:"scroll_speed"`
}

func (AnnouncementBarContent) SectionType() SectionType { return SectionAnnouncementBar }

func (c AnnouncementBarContent) Validate() error {
	if err := checkAlign("text_align", c.TextAlign); err != nil {
		return err
	}
	return checkOneOf("scroll_speed", c.ScrollSpeed, "slow", "normal", "fast")
}

type SlideshowContent struct {
	Autoplay      *bool    `json:"autoplay"`
	AutoplaySpeed *float64 `json:"autoplay_speed"`
	ShowArrows    *bool    `json:"show_arrows"`
	ShowDots      *bool    `json:"show_dots"`
	Height        string   `json:"height"`
}

func (SlideshowContent) SectionType() SectionType { return SectionSlideshow }

func (c SlideshowContent) Validate() error {
	if c.AutoplaySpeed != nil && *c.AutoplaySpeed < 0 {
		return fmt.Errorf("autoplay_speed must not be negative")
	}
	return nil
}

type CustomHTMLContent struct {
	HTMLContent    string `json:"html_content"`
	ContainerWidth string `json:"container_width"`
}

func (CustomHTMLContent) SectionType() SectionType { return SectionCustomHTML }

func (c CustomHTMLContent) Validate() error {
	return checkOneOf("container_width", c.ContainerWidth, "container", "full", "narrow")
}

type CollageContent struct {
	Title             string `json:"title"`
	TitleAlign        string `json:"title_align"`
	Layout            string `json:"layout"`
	Gap               string `json:"gap"`
	ImageBorderRadius string `json:"image_border_radius"`
}

func (CollageContent) SectionType() SectionType { return SectionCollage }

func (c CollageContent) Validate() error {
	if err := checkAlign("title_align", c.TitleAlign); err != nil {
		return err
	}
	return checkOneOf("gap", c.Gap, "none", "small", "medium", "large")
}

type MulticolumnContent struct {
	Title             string `json:"title"`
	TitleAlign        string `json:"title_align"`
	ColumnsDesktop    *int   `json:"columns_desktop"`
	ColumnsMobile     *int   `json:"columns_mobile"`
	TextAlign         string `json:"text_align"`
	ColumnGap         string `json:"column_gap"`
	ImageRatio        string `json:"image_ratio"`
	ImageBorderRadius string `json:"image_border_radius"`
	ImageBorder       *bool  `json:"image_border"`
}

func (MulticolumnContent) SectionType() SectionType { return SectionMulticolumn }

func (c MulticolumnContent) Validate() error {
	if err := checkRange("columns_desktop", c.ColumnsDesktop, 1, 6); err != nil {
		return err
	}
	if err := checkRange("columns_mobile", c.ColumnsMobile, 1, 2); err != nil {
		return err
	}
	if err := checkAlign("title_align", c.TitleAlign); err != nil {
		return err
	}
	return checkAlign("text_align", c.TextAlign)
}

type LogoListContent struct {
	Heading            string `json:"heading"`
	Subheading         string `json:"subheading"`
	ItemsPerRowDesktop *int   `json:"items_per_row_desktop"`
	ItemsPerRowMobile  *int   `json:"items_per_row_mobile"`
	LogoWidth          *int   `json:"logo_width"`
	LogoHeight         *int   `json:"logo_height"`
	GrayscaleEnabled   *bool  `json:"grayscale_enabled"`
}

func (LogoListContent) SectionType() SectionType { return SectionLogoList }

func (c LogoListContent) Validate() error {
	if err := checkRange("items_per_row_desktop", c.ItemsPerRowDesktop, 1, 8); err != nil {
		return err
	}
	if err := checkRange("items_per_row_mobile", c.ItemsPerRowMobile, 1, 4); err != nil {
		return err
	}
	if c.LogoWidth != nil && *c.LogoWidth <= 0 {
		return fmt.Errorf("logo_width must be positive")
	}
	if c.LogoHeight != nil && *c.LogoHeight <= 0 {
		return fmt.Errorf("logo_height must be positive")
	}
	return nil
}

// GenericContent covers section types without a dedicated shape.
type GenericContent struct {
	Type   SectionType
	Fields Group
}

func (g GenericContent) SectionType() SectionType { return g.Type }
func (GenericContent) Validate() error            { return nil }

// DecodeSectionContent maps the content group of a section onto its typed
// variant and validates it.
func DecodeSectionContent(t SectionType, content Group) (SectionContent, error) {
	var target SectionContent
	switch t {
	case SectionAnnouncementBar:
		target = &AnnouncementBarContent{}
	case SectionSlideshow:
		target = &SlideshowContent{}
	case SectionCustomHTML:
		target = &CustomHTMLContent{}
	case SectionCollage:
		target = &CollageContent{}
	case SectionMulticolumn:
		target = &MulticolumnContent{}
	case SectionLogoList:
		target = &LogoListContent{}
	default:
		return GenericContent{Type: t, Fields: content}, nil
	}
	if len(content) > 0 {
		b, err := json.Marshal(content)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, target); err != nil {
			return nil, fmt.Errorf("%s settings: %w", t, err)
		}
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("%s settings: %w", t, err)
	}
	return target, nil
}

func checkAlign(field, v string) error {
	return checkOneOf(field, v, "left", "center", "right")
}

func checkOneOf(field, v string, allowed ...string) error {
	if v == "" {
		return nil
	}
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of %v", field, v, allowed)
}

func checkRange(field string, v *int, lo, hi int) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%s must be between %d and %d", field, lo, hi)
	}
	return nil
}
