package parser

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

const (
	maxScannedDivs  = 1000
	maxOverallClass = 500
	maxPerBucket    = 20
)

var keyElementKeywords = map[models.KeyElementCategory][]string{
	models.KeyElementProductInfo:  {"product", "goods", "item"},
	models.KeyElementPriceInfo:    {"price", "cost", "가격", "価格"},
	models.KeyElementImageInfo:    {"image", "photo", "thumb", "gallery"},
	models.KeyElementReviewInfo:   {"review", "rating", "comment", "리뷰"},
	models.KeyElementSellerInfo:   {"seller", "shop", "store", "샵"},
	models.KeyElementShippingInfo: {"shipping", "delivery", "배송"},
	models.KeyElementCouponInfo:   {"coupon", "discount", "쿠폰"},
	models.KeyElementPointsInfo:   {"point", "reward", "포인트"},
}

var semanticKeywords = map[models.SemanticField][]string{
	models.SemanticName:        {"name", "title"},
	models.SemanticPrice:       {"price", "cost"},
	models.SemanticImage:       {"image", "photo", "thumb"},
	models.SemanticDescription: {"desc", "detail", "content"},
	models.SemanticReview:      {"review", "rating"},
	models.SemanticSeller:      {"seller", "shop", "store"},
	models.SemanticShipping:    {"shipping", "delivery"},
	models.SemanticCoupon:      {"coupon", "discount"},
	models.SemanticPoints:      {"point", "reward"},
}

// ExtractPageStructure performs a single linear scan over up to
// maxScannedDivs div elements, bucketing their classes by category
// and semantic field, per §4.3.
func ExtractPageStructure(root *goquery.Selection) *models.PageStructure {
	ps := models.NewPageStructure()
	freq := map[string]int{}

	divs := root.Find("div")
	scanned := 0
	divs.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if scanned >= maxScannedDivs {
			return false
		}
		scanned++
		classAttr, ok := sel.Attr("class")
		if !ok || classAttr == "" {
			return true
		}
		for _, class := range strings.Fields(classAttr) {
			freq[class]++
		}
		return true
	})

	ps.ClassFrequency = freq
	ps.AllClasses = topClasses(freq, maxOverallClass)

	for category, keywords := range keyElementKeywords {
		ps.KeyElements[category] = topMatching(freq, keywords, maxPerBucket)
	}
	for field, keywords := range semanticKeywords {
		ps.SemanticStructure[field] = topMatching(freq, keywords, maxPerBucket)
	}
	return ps
}

func topClasses(freq map[string]int, limit int) []string {
	all := make([]string, 0, len(freq))
	for class := range freq {
		all = append(all, class)
	}
	sort.Slice(all, func(i, j int) bool {
		if freq[all[i]] != freq[all[j]] {
			return freq[all[i]] > freq[all[j]]
		}
		return all[i] < all[j]
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

func topMatching(freq map[string]int, keywords []string, limit int) []models.ClassFreq {
	var matches []models.ClassFreq
	for class, count := range freq {
		lower := strings.ToLower(class)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches = append(matches, models.ClassFreq{Class: class, Freq: count})
				break
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Freq != matches[j].Freq {
			return matches[i].Freq > matches[j].Freq
		}
		return matches[i].Class < matches[j].Class
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
