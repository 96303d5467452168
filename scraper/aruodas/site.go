// Package aruodas knows the page structure of the aruodas.lt mobile catalog:
// where listing links live on index pages, how pagination is addressed and
// how a detail page maps onto the listing Schema.
package aruodas

import (
	"fmt"
	"strings"

	"listing-harvester/models"
)

const (
	// DefaultBaseURL is the mobile site root.
	DefaultBaseURL = "https://m.aruodas.lt"

	thumbnailSelector = "a.object-image-link-big_thumbs"
	headingSelector   = "div.advert-heading-col.title-col h1"
	priceSelector     = ".main-price"
	labelSelector     = "dl > dt"
)

// IndexPageURL returns the address of page n (1-based) of a category index.
func IndexPageURL(baseURL string, cat models.Category, page int) string {
	root := strings.TrimRight(baseURL, "/") + "/" + strings.Trim(cat.Path, "/")
	if page <= 1 {
		return root + "/"
	}
	return fmt.Sprintf("%s/puslapis/%d/", root, page)
}
