package parser

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/apperr"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

var defaultNameSelectors = []string{
	"h1.product-name",
	`h1[itemprop="name"]`,
	".product_name",
	"h1",
	"#goods_name",
}

var defaultCategorySelectors = []string{
	`meta[property="product:category"]`,
	".breadcrumb a",
	".category_path a",
	"#category_name",
	".cat_name",
}

var defaultSalePriceSelectors = []string{
	".price_sale",
	`span[itemprop="price"]`,
	".goods_price .sale",
	"#sale_price",
	".price .num",
}

var defaultOriginalPriceSelectors = []string{
	".price_original",
	".price del",
	"#original_price",
	".price_before",
	"s.original",
}

var defaultDescriptionSelectors = []string{
	"#detail_content",
	".product_detail",
	`div[itemprop="description"]`,
	"#goods_detail",
	".detail_area",
}

var defaultThumbnailSelectors = []string{
	`meta[property="og:image"]`,
	"#goods_image img",
	".thumb_image img",
	".product_image img",
	"#main_image img",
}

var defaultDetailImageSelectors = []string{
	"#detail_content img",
	".detail_images img",
	".product_detail img",
	"#goods_detail img",
	".detail_area img",
}

var excludedImagePattern = regexp.MustCompile(`(?i)icon|logo|banner|button`)

// numericPattern strips thousands separators and currency glyphs to
// isolate a numeric value, mirroring crawler.py's _parse_price.
var numericPattern = regexp.MustCompile(`[\d,]+`)

const (
	priceMin = 100
	priceMax = 1_000_000
)

// ParseProduct turns a fetched HTML document into a normalized Product
// and PageStructure. perfStore may be nil for tests; priorityFields is
// the C11-sourced field list consulted for observability only, per
// §4.3's resolved open question (defaults are still tried first).
func ParseProduct(ctx context.Context, html, url string, perfStore store.PerformanceStore, priorityFields []string) (*models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperr.NewExtractionError("parse_product", "malformed html: "+err.Error())
	}
	root := doc.Selection

	code := extractProductCode(root, url)
	name := extractName(ctx, perfStore, root, priorityFields)

	if code == "" && name == "" {
		return nil, apperr.NewExtractionError("parse_product", "neither product code nor name could be derived")
	}

	product := &models.Product{
		URL:            NormalizeProductURL(url),
		Code:           code,
		Name:           normalizeNFC(name),
		Category:       normalizeNFC(extractCategory(ctx, perfStore, root)),
		Brand:          normalizeNFC(extractBrand(root)),
		Price:          extractPrice(ctx, perfStore, root),
		Images:         extractImages(root, url),
		Description:    normalizeNFC(extractDescription(ctx, perfStore, root)),
		SearchKeywords: extractSearchKeywords(root),
		Reviews:        extractReviews(root),
		Seller:         extractSeller(root),
		Shipping:       extractShipping(root),
		Points:         extractPoints(root),
		Coupon:         extractCoupon(root),
	}
	product.PageStructure = ExtractPageStructure(root)
	return product, nil
}

func extractProductCode(root *goquery.Selection, url string) string {
	if code := ExtractProductCode(url); code != "" {
		return code
	}
	if v, ok := root.Find(`input[name="goodscode"]`).Attr("value"); ok && v != "" {
		return v
	}
	if v, ok := root.Find(`meta[property="product:retailer_item_id"]`).Attr("content"); ok && v != "" {
		return v
	}
	return ""
}

func extractName(ctx context.Context, perfStore store.PerformanceStore, root *goquery.Selection, priorityFields []string) string {
	logPriorityHint(perfStore, "name", priorityFields)
	name := fallbackExtract(ctx, perfStore, root, "product_name", defaultNameSelectors, selectorText, titleFallback)
	return name
}

func titleFallback(root *goquery.Selection) (string, bool) {
	title := strings.TrimSpace(root.Find("title").First().Text())
	if title == "" {
		return "", false
	}
	sep := "|"
	if strings.Contains(title, "｜") {
		sep = "｜"
	}
	parts := strings.SplitN(title, sep, 2)
	name := strings.TrimSpace(parts[0])
	name = strings.ReplaceAll(name, "Qoo10", "")
	name = strings.TrimSpace(name)
	if len(name) <= 3 {
		return "", false
	}
	return name, true
}

func extractCategory(ctx context.Context, perfStore store.PerformanceStore, root *goquery.Selection) string {
	logPriorityHint(perfStore, "category", nil)
	extract := func(doc *goquery.Selection, selector string) (string, bool) {
		if strings.HasPrefix(selector, "meta") {
			v, ok := doc.Find(selector).Attr("content")
			if !ok || v == "" {
				return "", false
			}
			return v, true
		}
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			return "", false
		}
		last := strings.TrimSpace(sel.Last().Text())
		if last == "" {
			return "", false
		}
		return last, true
	}
	return fallbackExtract(ctx, perfStore, root, "category", defaultCategorySelectors, extract, nil)
}

func extractBrand(root *goquery.Selection) string {
	text := root.Text()
	loc := brandPattern.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	tail := text[loc[1]:]
	tail = strings.TrimLeft(tail, "：: \t\n")
	runes := []rune(tail)
	limit := 30
	if len(runes) < limit {
		limit = len(runes)
	}
	return strings.TrimSpace(string(runes[:limit]))
}

func extractPrice(ctx context.Context, perfStore store.PerformanceStore, root *goquery.Selection) models.Price {
	sale := extractPriceField(ctx, perfStore, root, "sale_price", defaultSalePriceSelectors)
	original := extractPriceField(ctx, perfStore, root, "original_price", defaultOriginalPriceSelectors)

	if original > 0 && original < sale {
		original = 0
	}
	price := models.Price{Sale: sale, Original: original}
	if original > sale && sale > 0 {
		price.DiscountRate = int((float64(original-sale)/float64(original))*100 + 0.5)
	}
	return price
}

func extractPriceField(ctx context.Context, perfStore store.PerformanceStore, root *goquery.Selection, field string, selectors []string) int {
	extract := func(doc *goquery.Selection, selector string) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		return sel.Text(), true
	}
	raw := fallbackExtract(ctx, perfStore, root, field, selectors, extract, nil)
	return parsePrice(raw)
}

// parsePrice extracts the first numeric run and validates it against
// §4.3's [100, 1_000_000] bound.
func parsePrice(text string) int {
	match := numericPattern.FindString(text)
	if match == "" {
		return 0
	}
	clean := strings.ReplaceAll(match, ",", "")
	value, err := strconv.Atoi(clean)
	if err != nil {
		return 0
	}
	if value < priceMin || value > priceMax {
		return 0
	}
	return value
}

func extractImages(root *goquery.Selection, pageURL string) models.Images {
	base, _ := url.Parse(pageURL)

	images := models.Images{Detail: []string{}}
	for _, selector := range defaultThumbnailSelectors {
		sel := root.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		src, ok := imageSrc(sel, base)
		if ok {
			images.Thumbnail = src
			break
		}
	}

	seen := map[string]bool{}
	for _, selector := range defaultDetailImageSelectors {
		root.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			src, ok := imageSrc(sel, base)
			if !ok || seen[src] {
				return
			}
			if excludedImagePattern.MatchString(src) {
				return
			}
			seen[src] = true
			images.Detail = append(images.Detail, src)
		})
	}
	return images
}

// imageSrc reads an image URL off content/src and resolves it against
// base so every returned URL is absolute, per §3/§8's "every URL in
// images.detail is absolute, starts with http(s)://" invariant.
// Relative references that fail to resolve (no base, malformed src)
// are dropped rather than passed through verbatim.
func imageSrc(sel *goquery.Selection, base *url.URL) (string, bool) {
	raw, ok := sel.Attr("content")
	if !ok || raw == "" {
		raw, ok = sel.Attr("src")
	}
	if !ok || raw == "" {
		return "", false
	}
	return absolutizeImageURL(raw, base)
}

func absolutizeImageURL(raw string, base *url.URL) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return "", false
		}
		return ref.String(), true
	}
	if base == nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}

func extractDescription(ctx context.Context, perfStore store.PerformanceStore, root *goquery.Selection) string {
	extract := func(doc *goquery.Selection, selector string) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) < 10 {
			return "", false
		}
		return text, true
	}
	return fallbackExtract(ctx, perfStore, root, "description", defaultDescriptionSelectors, extract, nil)
}

func extractSearchKeywords(root *goquery.Selection) []string {
	var keywords []string
	root.Find(`meta[name="keywords"]`).Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr("content"); ok {
			for _, kw := range strings.Split(v, ",") {
				kw = strings.TrimSpace(kw)
				if kw != "" {
					keywords = append(keywords, kw)
				}
			}
		}
	})
	return keywords
}

var ratingPattern = regexp.MustCompile(`(\d\.\d)`)
var reviewCountPattern = regexp.MustCompile(`\((\d+)\)`)

func extractReviews(root *goquery.Selection) models.Reviews {
	reviews := models.Reviews{Sample: []string{}}
	section := root.Find(".review_area, #review_section, .review_summary").First()
	if section.Length() == 0 {
		return reviews
	}
	text := section.Text()
	if m := ratingPattern.FindStringSubmatch(text); len(m) == 2 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			reviews.Rating = v
		}
	}
	if m := reviewCountPattern.FindStringSubmatch(text); len(m) == 2 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			reviews.Count = v
		}
	}
	section.Find(".review_text, .review_comment").Each(func(i int, sel *goquery.Selection) {
		if i >= 5 {
			return
		}
		sample := strings.TrimSpace(sel.Text())
		if sample != "" {
			reviews.Sample = append(reviews.Sample, sample)
		}
	})
	return reviews
}

func extractSeller(root *goquery.Selection) models.Seller {
	seller := models.Seller{Level: models.SellerUnknown}
	sel := root.Find(".seller_name, .shop_name, #seller_info").First()
	if sel.Length() == 0 {
		return seller
	}
	seller.Name = strings.TrimSpace(sel.Text())
	text := root.Text()
	switch {
	case strings.Contains(text, "POWER") || strings.Contains(text, "パワー") || strings.Contains(text, "파워"):
		seller.Level = models.SellerPower
	case strings.Contains(text, "Excellent"):
		seller.Level = models.SellerExcellent
	default:
		seller.Level = models.SellerNormal
	}
	return seller
}

func extractShipping(root *goquery.Selection) models.Shipping {
	shipping := models.Shipping{ReturnPolicy: models.ReturnNone}
	text := root.Text()
	free := strings.Contains(text, "送料無料") || strings.Contains(text, "무료배송")
	shipping.Free = &free
	if strings.Contains(text, "返品無料") || strings.Contains(text, "무료반품") {
		shipping.ReturnPolicy = models.ReturnFree
	} else if strings.Contains(text, "返品可能") || strings.Contains(text, "반품가능") {
		shipping.ReturnPolicy = models.ReturnAvailable
	}
	return shipping
}

func extractPoints(root *goquery.Selection) models.Points {
	points := models.Points{}
	text := root.Text()
	if !strings.Contains(text, "Qポイント") && !strings.Contains(text, "Q포인트") {
		return points
	}
	auto := strings.Contains(text, "自動") || strings.Contains(text, "자동")
	points.Auto = &auto
	return points
}

func extractCoupon(root *goquery.Selection) models.Coupon {
	coupon := models.Coupon{Kind: models.CouponNone}
	text := root.Text()
	if !couponPattern.MatchString(text) {
		return coupon
	}
	coupon.Present = true
	switch {
	case strings.Contains(text, "お気に入り") || strings.Contains(text, "즐겨찾기"):
		coupon.Kind = models.CouponFavorite
	default:
		coupon.Kind = models.CouponAuto
	}
	return coupon
}

// normalizeNFC applies Unicode NFC normalization per §3/§4.3.
func normalizeNFC(s string) string {
	if s == "" {
		return s
	}
	return norm.NFC.String(s)
}

func logPriorityHint(perfStore store.PerformanceStore, field string, priorityFields []string) {
	if perfStore == nil || priorityFields == nil {
		return
	}
	for _, f := range priorityFields {
		if f == field {
			// Elevated-priority attempt observed; defaults still tried
			// first per §9's resolved open question.
			logging.Global().Info("elevated-priority extraction attempt for field " + field)
			return
		}
	}
}
