package aruodas

import (
	"fmt"
	"strings"
)

// detailPage renders a minimal detail page. Each heading becomes one
// heading block; pairs are rendered as dt/dd entries.
func detailPage(headings []string, price string, pairs ...[2]string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range headings {
		fmt.Fprintf(&b, `<div class="advert-heading-col title-col"><h1>%s</h1></div>`, h)
	}
	if price != "" {
		fmt.Fprintf(&b, `<div class="price-block"><span class="main-price">%s</span></div>`, price)
	}
	b.WriteString("<dl>")
	for _, p := range pairs {
		fmt.Fprintf(&b, "<dt>%s</dt><dd>%s</dd>", p[0], p[1])
	}
	b.WriteString("</dl></body></html>")
	return b.String()
}

// indexPage renders an index page holding thumbnail links for hrefs.
func indexPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="list-search">`)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li><a class="object-image-link-big_thumbs" href="%s"><img src="x.jpg"></a>`+
			`<a class="other-link" href="%s">title</a></li>`, h, h+"#comments")
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}
