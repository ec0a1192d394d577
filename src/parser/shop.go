package parser

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/apperr"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

var defaultShopNameSelectors = []string{
	".shop_name",
	`h1[itemprop="name"]`,
	"#shop_title",
	".store_name",
	"h1",
}

// ParseShop turns a fetched shop-page HTML document into a normalized
// Shop and PageStructure.
func ParseShop(ctx context.Context, html, url string, perfStore store.PerformanceStore) (*models.Shop, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperr.NewExtractionError("parse_shop", "malformed html: "+err.Error())
	}
	root := doc.Selection

	id := ExtractShopSlug(url)
	name := fallbackExtract(ctx, perfStore, root, "shop_name", defaultShopNameSelectors, selectorText, nil)

	if id == "" && name == "" {
		return nil, apperr.NewExtractionError("parse_shop", "neither shop id nor name could be derived")
	}

	shop := &models.Shop{
		URL:           url,
		ID:            id,
		Name:          normalizeNFC(name),
		Level:         extractShopLevel(root),
		FollowerCount: extractFollowerCount(root),
		ProductCount:  extractProductCount(root),
		Categories:    map[string]int{},
		Products:      []models.ProductLite{},
		Coupons:       []models.Coupon{},
	}
	shop.PageStructure = ExtractPageStructure(root)
	return shop, nil
}

func extractShopLevel(root *goquery.Selection) models.SellerLevel {
	text := root.Text()
	switch {
	case strings.Contains(text, "POWER") || strings.Contains(text, "파워"):
		return models.SellerPower
	case strings.Contains(text, "Excellent"):
		return models.SellerExcellent
	default:
		return models.SellerNormal
	}
}

func extractFollowerCount(root *goquery.Selection) int {
	sel := root.Find(".follower_count, #follower_count").First()
	if sel.Length() == 0 {
		return 0
	}
	return parseCount(sel.Text())
}

func extractProductCount(root *goquery.Selection) int {
	sel := root.Find(".product_count, #goods_count").First()
	if sel.Length() == 0 {
		return 0
	}
	return parseCount(sel.Text())
}

func parseCount(text string) int {
	match := numericPattern.FindString(text)
	if match == "" {
		return 0
	}
	clean := strings.ReplaceAll(match, ",", "")
	v, err := strconv.Atoi(clean)
	if err != nil {
		return 0
	}
	return v
}
