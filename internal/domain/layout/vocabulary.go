package layout

import "strings"

type PageType string

const (
	PageHome       PageType = "home"
	PageProduct    PageType = "product"
	PageCollection PageType = "collection"
	PageCart       PageType = "cart"
	PageCheckout   PageType = "checkout"
	PagePage       PageType = "page"
	PageBlog       PageType = "blog"
)

var pageTypes = map[PageType]bool{
	PageHome: true, PageProduct: true, PageCollection: true, PageCart: true,
	PageCheckout: true, PagePage: true, PageBlog: true,
}

func (p PageType) Valid() bool { return pageTypes[p] }

// ParsePageType normalizes and validates a page type coming from a request.
func ParsePageType(raw string) (PageType, error) {
	p := PageType(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", Invalid("parse page type", "unknown page type %q", raw)
	}
	return p, nil
}

type SectionType string

const (
	SectionAnnouncementBar      SectionType = "announcement_bar"
	SectionHeader               SectionType = "header"
	SectionSlideshow            SectionType = "slideshow"
	SectionHeroBanner           SectionType = "hero_banner"
	SectionHeroVideo            SectionType = "hero_video"
	SectionCollectionList       SectionType = "collection_list"
	SectionFeaturedCollection   SectionType = "featured_collection"
	SectionFeaturedProduct      SectionType = "featured_product"
	SectionProductGrid          SectionType = "product_grid"
	SectionNewArrivals          SectionType = "new_arrivals"
	SectionBestSellers          SectionType = "best_sellers"
	SectionRecentlyViewed       SectionType = "recently_viewed"
	SectionImageWithText        SectionType = "image_with_text"
	SectionImageWithTextOverlay SectionType = "image_with_text_overlay"
	SectionRichText             SectionType = "rich_text"
	SectionVideo                SectionType = "video"
	SectionBeforeAfterSlider    SectionType = "before_after_slider"
	SectionCollapsibleTabs      SectionType = "collapsible_tabs"
	SectionTestimonials         SectionType = "testimonials"
	SectionFAQ                  SectionType = "faq"
	SectionNewsletter           SectionType = "newsletter"
	SectionPromoBanner          SectionType = "promo_banner"
	SectionCountdown            SectionType = "countdown"
	SectionInstagram            SectionType = "instagram"
	SectionTrustBadges          SectionType = "trust_badges"
	SectionPopup                SectionType = "popup"
	SectionFooter               SectionType = "footer"
	SectionMobileStickyBar      SectionType = "mobile_sticky_bar"
	SectionMegaMenu             SectionType = "mega_menu"
	SectionCustomHTML           SectionType = "custom_html"
	SectionCustomLiquid         SectionType = "custom_liquid"
	SectionCustomSection        SectionType = "custom_section"
	SectionEmbedCode            SectionType = "embed_code"
	SectionAPISection           SectionType = "api_section"
	SectionCollage              SectionType = "collage"
	SectionMulticolumn          SectionType = "multicolumn"
	SectionLogoList             SectionType = "logo_list"
	SectionGallery              SectionType = "gallery"
)

var sectionTypes = map[SectionType]bool{
	SectionAnnouncementBar: true, SectionHeader: true, SectionSlideshow: true,
	SectionHeroBanner: true, SectionHeroVideo: true, SectionCollectionList: true,
	SectionFeaturedCollection: true, SectionFeaturedProduct: true, SectionProductGrid: true,
	SectionNewArrivals: true, SectionBestSellers: true, SectionRecentlyViewed: true,
	SectionImageWithText: true, SectionImageWithTextOverlay: true, SectionRichText: true,
	SectionVideo: true, SectionBeforeAfterSlider: true, SectionCollapsibleTabs: true,
	SectionTestimonials: true, SectionFAQ: true, SectionNewsletter: true,
	SectionPromoBanner: true, SectionCountdown: true, SectionInstagram: true,
	SectionTrustBadges: true, SectionPopup: true, SectionFooter: true,
	SectionMobileStickyBar: true, SectionMegaMenu: true, SectionCustomHTML: true,
	SectionCustomLiquid: true, SectionCustomSection: true, SectionEmbedCode: true,
	SectionAPISection: true, SectionCollage: true, SectionMulticolumn: true,
	SectionLogoList: true, SectionGallery: true,
}

func (s SectionType) Valid() bool { return sectionTypes[s] }

type BlockType string

const (
	BlockText        BlockType = "text"
	BlockLink        BlockType = "link"
	BlockImageSlide  BlockType = "image_slide"
	BlockVideoSlide  BlockType = "video_slide"
	BlockCollection  BlockType = "collection"
	BlockTab         BlockType = "tab"
	BlockTestimonial BlockType = "testimonial"
	BlockQuestion    BlockType = "question"
	BlockBadge       BlockType = "badge"
	BlockMenuItem    BlockType = "menu_item"
	BlockColumn      BlockType = "column"
	BlockButton      BlockType = "button"
	BlockImage       BlockType = "image"
)

var blockTypes = map[BlockType]bool{
	BlockText: true, BlockLink: true, BlockImageSlide: true, BlockVideoSlide: true,
	BlockCollection: true, BlockTab: true, BlockTestimonial: true, BlockQuestion: true,
	BlockBadge: true, BlockMenuItem: true, BlockColumn: true, BlockButton: true,
	BlockImage: true,
}

func (b BlockType) Valid() bool { return blockTypes[b] }

type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceTablet  Device = "tablet"
	DeviceMobile  Device = "mobile"
)

// ParseDevice accepts desktop, tablet or mobile in any case. Empty means desktop.
func ParseDevice(raw string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(raw))); d {
	case "":
		return DeviceDesktop, nil
	case DeviceDesktop, DeviceTablet, DeviceMobile:
		return d, nil
	default:
		return "", Invalid("parse device", "unknown device %q", raw)
	}
}
