package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// productCodePatterns match the numeric product code out of the URL
// variants Qoo10-style marketplaces expose, grounded on crawler.py's
// _extract_product_code / _normalize_product_url pattern list.
var productCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)goodscode=(\d+)`),
	regexp.MustCompile(`(?i)/g/(\d+)`),
	regexp.MustCompile(`(?i)/item/[^/]+/(\d+)`),
}

// productPathPattern matches the canonical product paths that carry no
// extractable numeric code (/Goods/Goods.aspx, /goods/) but still mark
// a URL as a product URL per §6's detection table.
var productPathPattern = regexp.MustCompile(`(?i)/goods/goods\.aspx|/goods/`)

var shopSlugPattern = regexp.MustCompile(`(?i)/shop/([A-Za-z0-9_\-]+)`)

// shopQueryPattern matches the shopid=/shop_id= query-param variants of
// a shop URL, per §6's detection table.
var shopQueryPattern = regexp.MustCompile(`(?i)shop_?id=`)

// ExtractProductCode pulls the numeric product code from a URL, trying
// each pattern in order. Returns "" if none match.
func ExtractProductCode(url string) string {
	for _, re := range productCodePatterns {
		if m := re.FindStringSubmatch(url); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// NormalizeProductURL maps any URL variant bearing a product code onto
// the canonical product URL shape. Returns the original URL unchanged
// if no code can be extracted.
func NormalizeProductURL(url string) string {
	code := ExtractProductCode(url)
	if code == "" {
		return url
	}
	return fmt.Sprintf("https://www.qoo10.jp/gmkt.inc/Goods/Goods.aspx?goodscode=%s", code)
}

// ExtractShopSlug pulls the shop identifier out of a shop URL.
func ExtractShopSlug(url string) string {
	if m := shopSlugPattern.FindStringSubmatch(url); len(m) == 2 {
		return m[1]
	}
	// Fallback: last non-empty path segment.
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx == -1 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}
