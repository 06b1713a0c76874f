package layout

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug generates a URL-safe slug from a store name.
// Example: "Blue Lamp Shop" -> "blue-lamp-shop"
func MakeSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "store"
	}
	return base
}

// ArtifactKey is the object key a published layout is uploaded under.
// Example: (7, product, "red-shoe") -> "stores/7/pages/product-red-shoe.json"
func ArtifactKey(storeID uint, pageType PageType, handle string) string {
	name := string(pageType)
	if handle != "" {
		name += "-" + handle
	}
	return fmt.Sprintf("stores/%d/pages/%s.json", storeID, name)
}

// ShopRoot is the public root of a store addressed by slug.
func ShopRoot(slug string) string {
	return "/shops/" + slug
}

// StoreRoot is the public root of a store addressed by id.
func StoreRoot(storeID uint) string {
	return fmt.Sprintf("/stores/%d", storeID)
}

// StorefrontPaths lists the public paths under root whose cached render
// depends on the given layout.
// Example: ("/shops/acme", product, "red-shoe") ->
// ["/shops/acme", "/shops/acme/product", "/shops/acme/products/red-shoe"]
func StorefrontPaths(root string, pageType PageType, handle string) []string {
	paths := []string{root, root + "/" + string(pageType)}
	if handle == "" {
		return paths
	}
	switch pageType {
	case PageProduct:
		paths = append(paths, root+"/products/"+handle)
	case PageCollection:
		paths = append(paths, root+"/categories/"+handle)
	default:
		paths = append(paths, root+"/"+string(pageType)+"/"+handle)
	}
	return paths
}
