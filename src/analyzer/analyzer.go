// Package analyzer implements the Analyzer (C4): a stateless,
// deterministic per-dimension scorer over a Record plus its
// PageStructure, grounded on analyzer.py's per-dimension calculators.
package analyzer

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// weights sum to 1.0 per §4.4.
const (
	weightImages        = 0.20
	weightDescription   = 0.20
	weightPrice         = 0.15
	weightReviews       = 0.15
	weightSEO           = 0.15
	weightPageStructure = 0.15
)

// ImageSizer checks a thumbnail URL's content length without
// downloading the body, used by the Images dimension. A real
// implementation issues an HTTP HEAD; tests can substitute a fake.
type ImageSizer interface {
	HeadSize(ctx context.Context, url string) (bytes int64, err error)
}

// httpImageSizer issues a real HEAD request with a short timeout.
type httpImageSizer struct {
	client *http.Client
}

// NewHTTPImageSizer builds an ImageSizer using net/http directly: this
// is a narrow, single-method HEAD check that doesn't warrant routing
// through the Adaptive Fetcher's retry/circuit-breaker machinery,
// hence stdlib net/http rather than go-resty here.
func NewHTTPImageSizer() ImageSizer {
	return &httpImageSizer{client: &http.Client{Timeout: 5 * time.Second}}
}

func (h *httpImageSizer) HeadSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.ContentLength, nil
}

// Analyzer scores a Record's dimensions. Stateless and safe for
// concurrent use.
type Analyzer struct {
	sizer ImageSizer
}

// New builds an Analyzer. A nil sizer is replaced by
// NewHTTPImageSizer().
func New(sizer ImageSizer) *Analyzer {
	if sizer == nil {
		sizer = NewHTTPImageSizer()
	}
	return &Analyzer{sizer: sizer}
}

// Analyze scores every dimension of a Product and computes the
// weighted overall_score.
func (a *Analyzer) Analyze(ctx context.Context, product *models.Product) *models.AnalyzerResult {
	result := &models.AnalyzerResult{
		Images:        a.analyzeImages(ctx, product.Images),
		Description:   analyzeDescription(product.Description, product.SearchKeywords),
		Price:         analyzePrice(product.Price),
		Reviews:       analyzeReviews(product.Reviews),
		SEO:           analyzeSEO(product.Name, product.Description, product.SearchKeywords, product.Category, product.Brand),
		PageStructure: analyzePageStructure(product, product.PageStructure),

		DerivedName:           product.Name,
		DerivedSalePrice:      product.Price.Sale,
		DerivedOriginalPrice:  product.Price.Original,
		DerivedReviewCount:    product.Reviews.Count,
		DerivedRating:         product.Reviews.Rating,
		DerivedImageCount:     len(product.Images.Detail),
		DerivedDescriptionLen: len([]rune(product.Description)),
	}

	weighted := float64(result.Images.Score)*weightImages +
		float64(result.Description.Score)*weightDescription +
		float64(result.Price.Score)*weightPrice +
		float64(result.Reviews.Score)*weightReviews +
		float64(result.SEO.Score)*weightSEO +
		float64(result.PageStructure.Score)*weightPageStructure
	result.OverallScore = roundInt(weighted)
	return result
}

func roundInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (a *Analyzer) analyzeImages(ctx context.Context, images models.Images) models.DimensionResult {
	result := models.DimensionResult{Findings: []string{}, Recommendations: []string{}}
	score := 0

	if images.Thumbnail != "" {
		size, err := a.sizer.HeadSize(ctx, images.Thumbnail)
		switch {
		case err != nil:
			score += 15
			result.Findings = append(result.Findings, "thumbnail present but size could not be verified")
		case size >= 10*1024:
			score += 30
			result.Findings = append(result.Findings, "thumbnail meets minimum size")
		default:
			score += 15
			result.Recommendations = append(result.Recommendations, "use a higher-resolution thumbnail image")
		}
	} else {
		result.Recommendations = append(result.Recommendations, "add a thumbnail image")
	}

	switch {
	case len(images.Detail) >= 5:
		score += 40
	case len(images.Detail) >= 3:
		score += 25
	default:
		score += 10
		result.Recommendations = append(result.Recommendations, "add more detail images (5 or more recommended)")
	}
	if len(images.Detail) > 0 {
		score += 30
	}

	result.Score = clamp(score, 0, 100)
	return result
}

func analyzeDescription(description string, keywords []string) models.DimensionResult {
	result := models.DimensionResult{Findings: []string{}, Recommendations: []string{}}
	score := 0
	length := len([]rune(description))

	switch {
	case length >= 500:
		score += 40
	case length >= 300:
		score += 25
	default:
		score += 10
		result.Recommendations = append(result.Recommendations, "expand the description to at least 300 characters")
	}

	if strings.Contains(description, "\n") || strings.Contains(description, "<li") || strings.Contains(description, "•") {
		score += 20
		result.Findings = append(result.Findings, "description uses multiline or list formatting")
	}

	lowerDesc := strings.ToLower(description)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowerDesc, strings.ToLower(kw)) {
			score += 20
			result.Findings = append(result.Findings, "description contains a search keyword")
			break
		}
	}

	if japaneseRatio(description) > 0.5 {
		score += 20
	}

	result.Score = clamp(score, 0, 100)
	return result
}

var japaneseCharPattern = regexp.MustCompile(`[\x{3040}-\x{30FF}\x{4E00}-\x{9FFF}]`)

func japaneseRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	count := 0
	for _, r := range runes {
		if japaneseCharPattern.MatchString(string(r)) {
			count++
		}
	}
	return float64(count) / float64(len(runes))
}

func analyzePrice(price models.Price) models.DimensionResult {
	result := models.DimensionResult{Findings: []string{}, Recommendations: []string{}}
	score := 70

	switch {
	case price.DiscountRate >= 10 && price.DiscountRate <= 30:
		score += 20
		result.Findings = append(result.Findings, "discount rate is in the attractive 10-30% range")
	case price.DiscountRate > 30:
		score -= 10
		result.Recommendations = append(result.Recommendations, "a discount above 30% may signal inflated list pricing")
	case price.DiscountRate > 0:
		score += 10
	}

	if price.Sale%1000 < 100 {
		score += 10
		result.Findings = append(result.Findings, "sale price uses psychological pricing")
	}

	result.Score = clamp(score, 0, 100)
	return result
}

var negativeReviewKeywords = []string{"悪い", "最悪", "ダメ", "問題", "不満", "返品", "配送", "遅い"}

func analyzeReviews(reviews models.Reviews) models.DimensionResult {
	result := models.DimensionResult{Findings: []string{}, Recommendations: []string{}}
	score := 0

	switch {
	case reviews.Rating >= 4.5:
		score += 40
	case reviews.Rating >= 4.0:
		score += 30
	case reviews.Rating >= 3.5:
		score += 20
	default:
		score += 10
	}

	switch {
	case reviews.Count >= 50:
		score += 30
	case reviews.Count >= 20:
		score += 25
	case reviews.Count >= 10:
		score += 20
	default:
		score += 10
		result.Recommendations = append(result.Recommendations, "encourage more customer reviews")
	}

	if len(reviews.Sample) > 0 {
		negative := 0
		for _, sample := range reviews.Sample {
			for _, kw := range negativeReviewKeywords {
				if strings.Contains(sample, kw) {
					negative++
					break
				}
			}
		}
		ratio := float64(negative) / float64(len(reviews.Sample))
		if ratio > 0.2 {
			score -= 20
			result.Recommendations = append(result.Recommendations, "negative review ratio is high; improve product quality and shipping")
		}
	}

	result.Score = clamp(score, 0, 100)
	return result
}

func analyzeSEO(name, description string, keywords []string, category, brand string) models.DimensionResult {
	result := models.DimensionResult{Findings: []string{}, Recommendations: []string{}}
	score := 0

	lowerName := strings.ToLower(name)
	lowerDesc := strings.ToLower(description)

	keywordInName := false
	keywordInDescription := false
	for _, kw := range keywords {
		lowerKw := strings.ToLower(kw)
		if lowerKw == "" {
			continue
		}
		if !keywordInName && strings.Contains(lowerName, lowerKw) {
			keywordInName = true
		}
		if !keywordInDescription && strings.Contains(lowerDesc, lowerKw) {
			keywordInDescription = true
		}
	}
	if keywordInName {
		score += 25
	} else {
		result.Recommendations = append(result.Recommendations, "include a popular search keyword in the product name")
	}
	if keywordInDescription {
		score += 25
	}
	if category != "" {
		score += 25
	} else {
		result.Recommendations = append(result.Recommendations, "set a product category")
	}
	if brand != "" {
		score += 25
	} else {
		result.Recommendations = append(result.Recommendations, "register a brand")
	}

	result.Score = clamp(score, 0, 100)
	return result
}

var productIntentTokens = []string{"product", "goods", "item", "price", "detail", "상품", "가격"}

func analyzePageStructure(product *models.Product, ps *models.PageStructure) models.DimensionResult {
	result := models.DimensionResult{Findings: []string{}, Recommendations: []string{}}
	score := 0

	essentials := []bool{product.Name != "", product.Price.Sale > 0, product.Images.Thumbnail != "", product.Description != ""}
	for _, present := range essentials {
		if present {
			score += 15
		}
	}

	optionals := []bool{
		product.Reviews.Count > 0,
		product.Seller.Name != "",
		product.Shipping.Free != nil,
		product.Coupon.Present,
		product.Points.Auto != nil,
	}
	optionalScore := 0
	for _, present := range optionals {
		if present {
			optionalScore += 5
		}
	}
	if optionalScore > 25 {
		optionalScore = 25
	}
	score += optionalScore

	if ps != nil {
		top := topNClasses(ps.ClassFrequency, 10)
		intentMatches := 0
		for _, class := range top {
			lower := strings.ToLower(class)
			for _, token := range productIntentTokens {
				if strings.Contains(lower, token) {
					intentMatches++
					break
				}
			}
		}
		if intentMatches >= 5 {
			score += 10
			result.Findings = append(result.Findings, "page structure shows strong product-intent class density")
		}
	}

	result.Score = clamp(score, 0, 100)
	return result
}

func topNClasses(freq map[string]int, n int) []string {
	type kv struct {
		class string
		count int
	}
	all := make([]kv, 0, len(freq))
	for class, count := range freq {
		all = append(all, kv{class, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].class < all[j].class
	})
	if len(all) > n {
		all = all[:n]
	}
	classes := make([]string, len(all))
	for i, v := range all {
		classes[i] = v.class
	}
	return classes
}
