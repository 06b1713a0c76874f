package layout

import (
	"encoding/json"
	"fmt"
)

// DefaultContent returns the starting "settings" group for a newly added
// section, or nil when the type starts empty.
func DefaultContent(t SectionType) Group {
	switch t {
	case SectionAnnouncementBar:
		return Group{
			"text":           "Free shipping on orders over $50",
			"link_text":      "",
			"link_url":       "/categories/all",
			"text_align":     "center",
			"height":         "auto",
			"show_dismiss":   true,
			"scrolling_text": false,
			"scroll_speed":   "normal",
		}
	case SectionCustomHTML:
		return Group{
			"html_content":    "<div style='padding: 40px; text-align: center;'>\n  <h2>Custom code</h2>\n  <p>Add your HTML here</p>\n</div>",
			"container_width": "container",
		}
	case SectionCollage:
		return Group{
			"title":               "The new collection",
			"title_align":         "center",
			"layout":              "left-large",
			"gap":                 "medium",
			"image_border_radius": "8px",
		}
	case SectionMulticolumn:
		return Group{
			"title":               "Why choose us?",
			"title_align":         "center",
			"columns_desktop":     3,
			"columns_mobile":      1,
			"text_align":          "center",
			"column_gap":          "medium",
			"image_ratio":         "square",
			"image_border_radius": "8px",
			"image_border":        false,
		}
	case SectionLogoList:
		return Group{
			"heading":               "Our brands",
			"subheading":            "We work with the leading brands in the world",
			"items_per_row_desktop": 4,
			"items_per_row_mobile":  2,
			"logo_width":            150,
			"logo_height":           80,
			"grayscale_enabled":     false,
		}
	}
	return nil
}

// DefaultBlocks returns the blocks a newly added section starts with.
func DefaultBlocks(t SectionType) []BlockInput {
	switch t {
	case SectionSlideshow:
		return []BlockInput{defaultBlock("slide_1", BlockImageSlide, Group{
			"image":       "",
			"heading":     "Welcome",
			"description": "Discover our new collection",
			"button_text": "Shop now",
			"button_link": "/categories/all",
		})}
	case SectionLogoList:
		out := make([]BlockInput, 0, 4)
		for i := 1; i <= 4; i++ {
			out = append(out, defaultBlock(fmt.Sprintf("logo_%d", i), BlockImage, Group{
				"image_url": "", "title": "", "description": "", "link_url": "",
			}))
		}
		return out
	case SectionMulticolumn:
		cols := []struct{ title, text string }{
			{"Fast shipping", "Delivered to your door within 3 business days."},
			{"Free returns", "Not happy? Return within 30 days for a full refund."},
			{"Customer care", "Our support team is here for any question."},
		}
		out := make([]BlockInput, 0, len(cols))
		for i, c := range cols {
			out = append(out, defaultBlock(fmt.Sprintf("col_%d", i+1), BlockColumn, Group{
				"title": c.title, "text": c.text, "image_url": "", "link_label": "", "link": "",
			}))
		}
		return out
	case SectionCollage:
		out := make([]BlockInput, 0, 3)
		for i := 1; i <= 3; i++ {
			out = append(out, defaultBlock(fmt.Sprintf("collage_item_%d", i), BlockImage, Group{
				"type": "image", "image_url": "", "heading": "", "link": "",
			}))
		}
		return out
	}
	return nil
}

func defaultBlock(id string, t BlockType, content Group) BlockInput {
	raw, _ := json.Marshal(map[string]any{"settings": content})
	return BlockInput{ExternalID: id, Type: t, IsVisible: true, Settings: raw}
}
